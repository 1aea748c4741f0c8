package proc

import (
	"context"
	"os"
	"os/signal"

	"github.com/evanphx/rawsys/abi"
	"github.com/evanphx/rawsys/abi/linux"
	"github.com/evanphx/rawsys/log"
	"github.com/evanphx/rawsys/pkg/waiter"
	"github.com/evanphx/rawsys/syscalls"
	hclog "github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

const EventChildExit waiter.EventType = 1

// Event reports one reaped child.
type Event struct {
	Pid    int
	Status ExitStatus
}

// Reaper collects terminated children so none are left as zombies, and
// publishes each exit to its subscribers. It reaps every child of the
// process, including ones it did not spawn.
type Reaper struct {
	L     hclog.Logger
	Table *Table

	w waiter.Waiter
}

func NewReaper(t *Table) *Reaper {
	return &Reaper{
		L:     log.L,
		Table: t,
	}
}

// Subscribe returns a channel receiving every reaped child, and a function
// that cancels the subscription. Events beyond size buffered ones are
// dropped rather than stalling the reaper.
func (r *Reaper) Subscribe(size int) (<-chan Event, func()) {
	c := make(chan Event, size)

	e := r.w.RegisterFunc(EventChildExit, func(data interface{}) {
		select {
		case c <- data.(Event):
		default:
			r.L.Warn("dropping child exit event", "pid", data.(Event).Pid)
		}
	})

	return c, func() { r.w.Unregister(e) }
}

// Run reaps on every SIGCHLD until ctx is done.
func (r *Reaper) Run(ctx context.Context) error {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, unix.SIGCHLD)
	defer signal.Stop(sigs)

	// Anything that exited before Notify took effect.
	r.ReapAll()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-sigs:
			r.L.Trace("received SIGCHLD")
			r.ReapAll()
		}
	}
}

const maxInterrupts = 3

// ReapAll collects terminated children with wait4(-1, WNOHANG) until none
// remain and returns how many it reaped.
func (r *Reaper) ReapAll() int {
	var (
		reaped      int
		interrupted int
	)

	for {
		pid, ws, err := syscalls.WaitForChild(-1, linux.WNOHANG)
		if err != nil {
			if abi.IsInterrupted(err) && interrupted < maxInterrupts {
				interrupted++
				continue
			}

			if !errors.Is(err, abi.ECHILD) {
				r.L.Error("error waiting for any child process", "error", err)
			}

			return reaped
		}

		if pid <= 0 {
			r.L.Trace("wait4-no-child")
			return reaped
		}

		reaped++

		ev := Event{Pid: pid, Status: FromWaitStatus(ws)}

		if _, ok := r.Table.Exited(pid, ev.Status); ok {
			r.L.Debug("reaped zombie", "pid", pid, "status", ev.Status.String())
		} else {
			r.L.Debug("reaped untracked child", "pid", pid, "status", ev.Status.String())
		}

		r.w.Notify(EventChildExit, ev)
	}
}
