package proc

import (
	"context"
	"runtime"

	"github.com/evanphx/rawsys/abi"
	"github.com/evanphx/rawsys/abi/linux"
	"github.com/evanphx/rawsys/loader"
	"github.com/evanphx/rawsys/log"
	"github.com/evanphx/rawsys/memory"
	"github.com/evanphx/rawsys/retry"
	"github.com/evanphx/rawsys/syscalls"
	hclog "github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

// Command describes a program to start.
type Command struct {
	Path string
	Args []string
	Env  []string

	// Files[i] is installed as descriptor i in the child with dup2.
	// Negative entries, and descriptors past the end, are inherited as is.
	Files []int

	// DupPolicy bounds the retry of dup2 failing with EBUSY in the child.
	DupPolicy retry.Policy
}

func NewCommand(path string, args ...string) *Command {
	return &Command{
		Path:      path,
		Args:      append([]string{path}, args...),
		DupPolicy: retry.DefaultPolicy,
	}
}

const maxDupDelays = 16

type dupPair struct {
	from, to uintptr
}

// forkPlan is everything the child needs, resolved before fork.
type forkPlan struct {
	path, argv, envp uintptr

	dups  [3]dupPair
	ndups int

	attempts int
	delays   [maxDupDelays]unix.Timespec

	mask uint64
}

func (p *forkPlan) setRetry(policy retry.Policy) {
	sched := policy.Schedule()
	if len(sched) > maxDupDelays {
		sched = sched[:maxDupDelays]
	}

	for i, d := range sched {
		p.delays[i] = unix.NsecToTimespec(d.Nanoseconds())
	}

	p.attempts = len(sched) + 1
}

// Spawner starts children and records them in Table.
type Spawner struct {
	L     hclog.Logger
	Table *Table

	// Resolver, when set, looks Path up in PATH first.
	Resolver *loader.Resolver

	// Loader, when set, rejects targets that are not executables for
	// this machine before forking.
	Loader *loader.Loader
}

func NewSpawner(t *Table) *Spawner {
	return &Spawner{
		L:     log.L,
		Table: t,
	}
}

var ErrTooManyFiles = errors.New("at most 3 descriptors can be redirected")

const (
	StageLookup    = "lookup"
	StagePreflight = "preflight"
	StageFork      = "fork"
)

// SpawnError reports which step of Spawn failed. Only StageFork errors
// mean fork(2) itself was attempted.
type SpawnError struct {
	Stage string
	Path  string
	Err   error
}

func (e *SpawnError) Error() string {
	return e.Stage + " " + e.Path + ": " + e.Err.Error()
}

func (e *SpawnError) Unwrap() error { return e.Err }

func (e *SpawnError) Cause() error { return e.Err }

// Spawn forks and execs cmd. A failed exec shows up as the child exiting
// with status 127.
func (s *Spawner) Spawn(ctx context.Context, cmd *Command) (*Child, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if len(cmd.Files) > 3 {
		return nil, ErrTooManyFiles
	}

	path := cmd.Path

	if s.Resolver != nil {
		found, err := s.Resolver.LookPath(path)
		if err != nil {
			return nil, &SpawnError{Stage: StageLookup, Path: path, Err: err}
		}

		path = found
	}

	if s.Loader != nil {
		img, err := s.Loader.LoadFile(path)
		if err != nil {
			if errors.Cause(err) == loader.ErrNotExecutable {
				err = errors.Wrap(abi.NewKernelError("execve", abi.ENOEXEC), err.Error())
			}

			return nil, &SpawnError{Stage: StagePreflight, Path: path, Err: err}
		}

		s.L.Trace("spawn-preflight", "path", path, "type", img.Type, "interp", img.Interp)
	}

	args := cmd.Args
	if len(args) == 0 {
		args = []string{cmd.Path}
	}

	scope := memory.NewScope()
	defer scope.Release()

	name, err := memory.CStringChecked(path)
	if err != nil {
		return nil, errors.Wrapf(err, "invalid path %q", path)
	}

	argv, err := memory.CStringArray(scope, args)
	if err != nil {
		return nil, errors.Wrap(err, "invalid argument")
	}

	envp, err := memory.CStringArray(scope, cmd.Env)
	if err != nil {
		return nil, errors.Wrap(err, "invalid environment")
	}

	plan := &forkPlan{
		path: scope.Ref(name).Addr(),
		argv: scope.RefWords(argv).Addr(),
		envp: scope.RefWords(envp).Addr(),
	}

	for i, fd := range cmd.Files {
		if fd < 0 {
			continue
		}

		plan.dups[plan.ndups] = dupPair{from: uintptr(fd), to: uintptr(i)}
		plan.ndups++
	}

	plan.setRetry(cmd.DupPolicy)

	child, err := s.Table.Track(func() (*Child, error) {
		pid, err := s.fork(plan)
		runtime.KeepAlive(plan)

		if err != nil {
			return nil, &SpawnError{Stage: StageFork, Path: path, Err: err}
		}

		return newChild(pid, path, args), nil
	})
	if err != nil {
		return nil, err
	}

	s.L.Debug("spawned child process", "pid", child.Pid, "path", path)

	return child, nil
}

func (s *Spawner) fork(plan *forkPlan) (int, error) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	old, err := syscalls.BlockAllSignals()
	if err != nil {
		return -1, err
	}

	plan.mask = old

	pid, e := forkExec(plan)

	if _, err := syscalls.SetSignalMask(linux.SIG_SETMASK, old); err != nil {
		s.L.Error("error restoring signal mask", "error", err)
	}

	if e != 0 {
		return -1, abi.NewKernelError("fork", e)
	}

	return pid, nil
}
