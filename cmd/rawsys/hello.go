package main

import (
	"fmt"

	"github.com/evanphx/rawsys/abi/linux"
	"github.com/evanphx/rawsys/memory"
	"github.com/evanphx/rawsys/syscalls"
)

func cmdHello(args []string) int {
	buf := []byte("Hello World\n")

	result := memory.Borrow(func(s *memory.Scope) int64 {
		return syscalls.Invoke(linux.SYS_WRITE, syscalls.Int(1), syscalls.Addr(s.Ref(buf)), syscalls.Uint(len(buf)))
	})

	fmt.Println(result)

	if result < 0 {
		return 1
	}

	return 0
}
