package proc

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/vektra/neko"
	"golang.org/x/sys/unix"
)

var errBoom = errors.New("boom")

func TestTable(t *testing.T) {
	n := neko.Modern(t)

	n.It("detects a child has exited", func(t *testing.T) {
		table := NewTable()

		child := newChild(2, "/bin/true", nil)
		table.Add(child)

		c, ok := table.Exited(2, ExitStatus{Code: 1})
		require.True(t, ok)
		require.Equal(t, child, c)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()

		es, err := child.Wait(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, es.Code)
		require.True(t, child.Exited())
		require.Equal(t, 0, table.Len())
	})

	n.It("waits for a child to exit", func(t *testing.T) {
		table := NewTable()

		child := newChild(2, "/bin/true", nil)
		table.Add(child)

		go func() {
			time.Sleep(100 * time.Millisecond)
			table.Exited(2, ExitStatus{Code: 1})
		}()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		es, err := child.Wait(ctx)
		require.NoError(t, err)
		require.Equal(t, 1, es.Code)
	})

	n.It("drops exits of pids it never tracked", func(t *testing.T) {
		table := NewTable()

		_, ok := table.Exited(4242, ExitStatus{Code: 9})
		require.False(t, ok)

		// The kernel may hand the same pid to a later child.
		child := newChild(4242, "/bin/sleep", nil)
		table.Add(child)

		require.False(t, child.Exited())
		require.Equal(t, 1, table.Len())

		c, ok := table.Exited(4242, ExitStatus{Code: 0})
		require.True(t, ok)
		require.Equal(t, child, c)
		require.True(t, child.Exited())
	})

	n.It("holds exit reports until a new child is tracked", func(t *testing.T) {
		table := NewTable()
		reported := make(chan bool, 1)

		child, err := table.Track(func() (*Child, error) {
			go func() {
				_, ok := table.Exited(11, ExitStatus{Code: 2})
				reported <- ok
			}()

			time.Sleep(50 * time.Millisecond)

			return newChild(11, "/bin/false", nil), nil
		})
		require.NoError(t, err)

		select {
		case ok := <-reported:
			require.True(t, ok)
		case <-time.After(5 * time.Second):
			t.Fatal("exit report never completed")
		}

		select {
		case <-child.Done():
		default:
			t.Fatal("child should be done")
		}

		es, err := child.Wait(context.Background())
		require.NoError(t, err)
		require.Equal(t, 2, es.Code)
		require.Equal(t, 0, table.Len())
	})

	n.It("tracks nothing when the start fails", func(t *testing.T) {
		table := NewTable()

		_, err := table.Track(func() (*Child, error) {
			return nil, errBoom
		})
		require.Equal(t, errBoom, err)
		require.Equal(t, 0, table.Len())
	})

	n.It("stops waiting when the context ends", func(t *testing.T) {
		child := newChild(3, "/bin/sleep", nil)

		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
		defer cancel()

		_, err := child.Wait(ctx)
		require.Equal(t, context.DeadlineExceeded, err)
	})

	n.Meow()
}

func TestExitStatus(t *testing.T) {
	n := neko.Modern(t)

	n.It("decodes exit codes", func(t *testing.T) {
		es := FromWaitStatus(unix.WaitStatus(3 << 8))
		require.Equal(t, ExitStatus{Code: 3}, es)
		require.Equal(t, int32(3<<8), es.Status())
		require.False(t, es.Success())
		require.Equal(t, "exit status 3", es.String())
	})

	n.It("decodes signals", func(t *testing.T) {
		es := FromWaitStatus(unix.WaitStatus(unix.SIGKILL))
		require.Equal(t, int(unix.SIGKILL), es.Signo)
		require.Equal(t, int32(unix.SIGKILL), es.Status())
		require.Equal(t, "signal: SIGKILL", es.String())
	})

	n.It("recognizes success", func(t *testing.T) {
		require.True(t, FromWaitStatus(0).Success())
	})

	n.Meow()
}
