package main

import (
	"fmt"
	"os"

	"github.com/evanphx/rawsys/abi/linux"
	"github.com/evanphx/rawsys/fs"
	clog "github.com/evanphx/rawsys/log"
	"github.com/evanphx/rawsys/syscalls"
	"github.com/spf13/pflag"
)

func fail(message string, err error) int {
	clog.L.Debug(message, "error", err)
	fmt.Fprintf(os.Stderr, "%s: %s\n", message, err)
	return 1
}

func cmdFiles(args []string) int {
	flags := pflag.NewFlagSet("files", pflag.ContinueOnError)
	path := flags.StringP("path", "p", "/tmp/test.txt", "file to write and read back")
	text := flags.StringP("text", "t", "Hello world\n", "text to write")

	if err := flags.Parse(args); err != nil {
		return 2
	}

	fmt.Printf("write to %s\n", *path)

	w, err := fs.Open(*path, linux.O_CREAT|linux.O_WRONLY|linux.O_TRUNC|linux.O_CLOEXEC, 0600)
	if err != nil {
		return fail("can't open file", err)
	}

	n, err := w.Write([]byte(*text))
	if err != nil {
		return fail("write failed", err)
	}

	fmt.Printf("%d bytes written\n", n)

	if err := w.Close(); err != nil {
		return fail("can't close file", err)
	}

	fmt.Printf("read from %s\n", *path)

	fd, err := syscalls.OpenFile(*path, linux.O_RDONLY|linux.O_CLOEXEC, 0)
	if err != nil {
		return fail("can't open file", err)
	}

	buf := make([]byte, 1024)

	n, err = syscalls.ReadBytes(fd, buf)
	if err != nil {
		return fail("read failed", err)
	}

	fmt.Print(string(buf[:n]))

	if err := syscalls.CloseDescriptor(fd); err != nil {
		return fail("can't close file", err)
	}

	return 0
}
