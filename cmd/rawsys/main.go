package main

import (
	"fmt"
	"log"
	"os"
	"runtime/pprof"
	"sort"

	clog "github.com/evanphx/rawsys/log"
	"github.com/spf13/pflag"
)

var (
	fLogLevel = pflag.StringP("log-level", "l", "info", "log level: trace, debug, info, warn or error")
	fDebug    = pflag.BoolP("debug", "d", false, "shorthand for --log-level debug")
)

type command struct {
	run   func(args []string) int
	usage string
}

var commands = map[string]command{
	"hello":   {cmdHello, "write a greeting to stdout with a raw write"},
	"files":   {cmdFiles, "write a file, read it back and print it"},
	"fork":    {cmdFork, "spawn a program and reap it"},
	"call":    {cmdCall, "invoke a syscall by name or number"},
	"table":   {cmdTable, "list the known syscall numbers"},
	"inspect": {cmdInspect, "check that a program can be executed"},
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: rawsys [flags] <command> [args]\n\ncommands:\n")

	var names []string
	for name := range commands {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		fmt.Fprintf(os.Stderr, "  %-8s %s\n", name, commands[name].usage)
	}

	fmt.Fprintf(os.Stderr, "\nflags:\n")
	pflag.PrintDefaults()
}

func main() {
	cpuprofile := os.Getenv("CPUPROFILE")
	if cpuprofile != "" {
		f, err := os.Create(cpuprofile)
		if err != nil {
			log.Fatal("could not create CPU profile: ", err)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			log.Fatal("could not start CPU profile: ", err)
		}
		fmt.Printf("pprof: profiling started\n")
	}

	pflag.Usage = usage
	pflag.CommandLine.SetInterspersed(false)
	pflag.Parse()

	if err := clog.SetLevel(*fLogLevel); err != nil {
		log.Fatal(err)
	}

	if *fDebug {
		clog.EnableDebug()
	}

	args := pflag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cmd, ok := commands[args[0]]
	if !ok {
		fmt.Fprintf(os.Stderr, "unknown command: %s\n", args[0])
		usage()
		os.Exit(2)
	}

	code := cmd.run(args[1:])

	if cpuprofile != "" {
		pprof.StopCPUProfile()
		fmt.Printf("pprof: profiling finished\n")
	}

	os.Exit(code)
}
