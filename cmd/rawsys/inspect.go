package main

import (
	"fmt"
	"os"

	"github.com/davecgh/go-spew/spew"
	"github.com/evanphx/rawsys/loader"
	"github.com/spf13/pflag"
)

func cmdInspect(args []string) int {
	flags := pflag.NewFlagSet("inspect", pflag.ContinueOnError)
	dump := flags.Bool("dump", false, "dump everything the loader found")

	if err := flags.Parse(args); err != nil {
		return 2
	}

	if flags.NArg() != 1 {
		fmt.Fprintln(os.Stderr, "usage: rawsys inspect [--dump] <program>")
		return 2
	}

	path, err := loader.NewResolver(8).LookPath(flags.Arg(0))
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	img, err := loader.NewLoader(nil).LoadFile(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	if *dump {
		spew.Dump(img)
		return 0
	}

	if img.Script {
		fmt.Printf("%s: script, interpreter %s\n", img.Path, img.Interp)
		return 0
	}

	fmt.Printf("%s: %s %s %s", img.Path, img.Class, img.Machine, img.Type)
	if img.Interp != "" {
		fmt.Printf(", interpreter %s", img.Interp)
	}
	fmt.Println()

	return 0
}
