package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/evanphx/rawsys/abi"
	"github.com/evanphx/rawsys/abi/linux"
	"github.com/evanphx/rawsys/syscalls"
	"golang.org/x/sys/unix"
)

// cmdCall runs `call <name|number> [args...]`. Arguments that parse as
// integers are passed as words, anything else as a C string.
func cmdCall(args []string) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "usage: rawsys call <name|number> [args...]")
		return 2
	}

	no, ok := linux.Lookup(args[0])
	if !ok {
		n, err := strconv.ParseUint(args[0], 0, 32)
		if err != nil {
			fmt.Fprintf(os.Stderr, "unknown syscall: %s\n", args[0])
			return 2
		}
		no = linux.Sysno(n)
	}

	var vals []interface{}
	for _, a := range args[1:] {
		if n, err := strconv.ParseInt(a, 0, 64); err == nil {
			vals = append(vals, n)
		} else {
			vals = append(vals, a)
		}
	}

	if len(vals) > syscalls.MaxArgs {
		fmt.Fprintf(os.Stderr, "%s takes at most %d arguments\n", no, syscalls.MaxArgs)
		return 2
	}

	r := syscalls.Invoke(no, syscalls.Values(vals...)...)

	if e, ok := abi.ErrnoOf(r); ok {
		fmt.Printf("%s = %d (%s: %s)\n", no, r, unix.ErrnoName(e), e.Error())
		return 1
	}

	fmt.Printf("%s = %d\n", no, r)
	return 0
}
