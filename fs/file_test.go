package fs

import (
	"io"
	"path/filepath"
	"testing"

	"github.com/evanphx/rawsys/abi"
	"github.com/evanphx/rawsys/abi/linux"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/vektra/neko"
)

func TestFile(t *testing.T) {
	n := neko.Modern(t)

	n.It("writes and reads back through descriptors", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "test.txt")

		w, err := Open(path, linux.O_CREAT|linux.O_WRONLY|linux.O_TRUNC|linux.O_CLOEXEC, 0600)
		require.NoError(t, err)

		cnt, err := io.WriteString(w, "Hello world\n")
		require.NoError(t, err)
		require.Equal(t, 12, cnt)
		require.NoError(t, w.Close())

		r, err := Open(path, linux.O_RDONLY|linux.O_CLOEXEC, 0)
		require.NoError(t, err)
		defer r.Close()

		data, err := io.ReadAll(r)
		require.NoError(t, err)
		require.Equal(t, "Hello world\n", string(data))
	})

	n.It("closes the descriptor with the last reference", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "refs")

		f, err := Open(path, linux.O_CREAT|linux.O_WRONLY|linux.O_CLOEXEC, 0600)
		require.NoError(t, err)

		f.Ref()

		require.NoError(t, f.Close())
		require.NotEqual(t, -1, f.Fd())

		require.NoError(t, f.Close())
		require.Equal(t, -1, f.Fd())

		err = f.Close()
		require.True(t, errors.Is(err, abi.EBADF))

		_, err = f.Write([]byte("x"))
		require.True(t, errors.Is(err, abi.EBADF))
	})

	n.It("reports a missing file", func(t *testing.T) {
		_, err := Open(filepath.Join(t.TempDir(), "missing"), linux.O_RDONLY, 0)
		require.True(t, errors.Is(err, abi.ENOENT))
	})

	n.Meow()
}
