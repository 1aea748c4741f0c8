package syscalls

import (
	"bytes"
	"runtime"
	"testing"
	"time"

	"github.com/evanphx/rawsys/abi"
	"github.com/evanphx/rawsys/abi/linux"
	hclog "github.com/hashicorp/go-hclog"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/vektra/neko"
	"golang.org/x/sys/unix"
)

func TestProcess(t *testing.T) {
	n := neko.Modern(t)

	n.It("has no child to wait for", func(t *testing.T) {
		_, _, err := WaitForChild(-1, linux.WNOHANG)
		require.True(t, errors.Is(err, abi.ECHILD))
	})

	n.It("forks a child that exits on its own", func(t *testing.T) {
		pid, err := ForkProcess()
		if err == nil && pid == 0 {
			for {
				unix.RawSyscall(uintptr(linux.SYS_EXIT_GROUP), 7, 0, 0)
			}
		}

		require.NoError(t, err)

		type waited struct {
			pid int
			ws  unix.WaitStatus
			err error
		}

		done := make(chan waited, 1)
		go func() {
			p, ws, err := WaitForChild(pid, 0)
			done <- waited{p, ws, err}
		}()

		select {
		case w := <-done:
			require.NoError(t, w.err)
			require.Equal(t, pid, w.pid)
			require.True(t, w.ws.Exited())
			require.Equal(t, 7, w.ws.ExitStatus())
		case <-time.After(10 * time.Second):
			unix.Kill(pid, unix.SIGKILL)
			t.Fatal("forked child did not exit")
		}
	})

	n.It("forks without running the traced invoke path", func(t *testing.T) {
		var out bytes.Buffer

		saved := DefaultInvoker.L
		DefaultInvoker.L = hclog.New(&hclog.LoggerOptions{Level: hclog.Trace, Output: &out})
		defer func() { DefaultInvoker.L = saved }()

		pid, err := ForkProcess()
		if err == nil && pid == 0 {
			for {
				unix.RawSyscall(uintptr(linux.SYS_EXIT_GROUP), 0, 0, 0)
			}
		}

		require.NoError(t, err)

		require.NotContains(t, out.String(), "syscall-invoke")

		p, ws, err := WaitForChild(pid, 0)
		require.NoError(t, err)
		require.Equal(t, pid, p)
		require.True(t, ws.Exited())
		require.Equal(t, 0, ws.ExitStatus())
	})

	n.It("returns from a failed exec", func(t *testing.T) {
		err := ExecProcess("/nonexistent/program", []string{"program"}, nil)
		require.True(t, errors.Is(err, abi.ENOENT))

		err = ExecProcess("/bin/sh", []string{"sh", "bad\x00arg"}, nil)
		require.True(t, errors.Is(err, abi.EINVAL))
	})

	n.It("reads and restores the signal mask", func(t *testing.T) {
		runtime.LockOSThread()
		defer runtime.UnlockOSThread()

		old, err := BlockAllSignals()
		require.NoError(t, err)

		blocked, err := SetSignalMask(linux.SIG_SETMASK, old)
		require.NoError(t, err)
		require.NotZero(t, blocked)
	})

	n.Meow()
}
