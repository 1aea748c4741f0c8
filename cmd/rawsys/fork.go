package main

import (
	"context"
	"fmt"
	"time"

	"github.com/evanphx/rawsys/loader"
	clog "github.com/evanphx/rawsys/log"
	"github.com/evanphx/rawsys/proc"
	"github.com/evanphx/rawsys/retry"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

func cmdFork(args []string) int {
	flags := pflag.NewFlagSet("fork", pflag.ContinueOnError)
	path := flags.StringP("cmd", "c", "/bin/echo", "program to execute in the child")
	lookup := flags.Bool("lookup", false, "search PATH for the program")
	check := flags.Bool("check", true, "inspect the program before forking")
	stdio := flags.Int("stdio", -1, "descriptor to install as the child's stdin, stdout and stderr")
	dupRetry := flags.Bool("dup-retry", true, "retry dup2 in the child while it fails with EBUSY")
	timeout := flags.Duration("timeout", 10*time.Second, "how long to wait for the child")

	flags.SetInterspersed(false)
	if err := flags.Parse(args); err != nil {
		return 2
	}

	rest := flags.Args()
	if len(rest) == 0 {
		rest = []string{"hello"}
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	table := proc.NewTable()
	reaper := proc.NewReaper(table)

	events, unsubscribe := reaper.Subscribe(16)
	defer unsubscribe()

	go reaper.Run(ctx)

	spawner := proc.NewSpawner(table)
	if *lookup {
		spawner.Resolver = loader.NewResolver(32)
	}
	if *check {
		spawner.Loader = loader.NewLoader(nil)
	}

	cmd := proc.NewCommand(*path, rest...)
	if *stdio >= 0 {
		cmd.Files = []int{*stdio, *stdio, *stdio}
	}
	if !*dupRetry {
		cmd.DupPolicy = retry.Once
	}

	child, err := spawner.Spawn(ctx, cmd)
	if err != nil {
		var se *proc.SpawnError
		if errors.As(err, &se) && se.Stage != proc.StageFork {
			clog.L.Error("[parent] "+se.Stage+" failed, nothing forked", "path", se.Path, "error", se.Err)
		} else {
			clog.L.Error("[parent] fork() error", "error", err)
		}
		return 0
	}

	fmt.Println("[parent] spawned child process with pid", child.Pid)

	for {
		select {
		case ev := <-events:
			fmt.Printf("[parent] reaped zombie %d (%s)\n", ev.Pid, ev.Status)

			if ev.Pid == child.Pid {
				return 0
			}
		case <-ctx.Done():
			clog.L.Error("[parent] child did not exit", "pid", child.Pid, "error", ctx.Err())
			return 1
		}
	}
}
