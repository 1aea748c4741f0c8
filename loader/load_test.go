package loader

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/Binject/debug/elf"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/vektra/neko"
)

func TestLoader(t *testing.T) {
	n := neko.Modern(t)

	n.It("accepts the running executable", func(t *testing.T) {
		exe, err := os.Executable()
		require.NoError(t, err)

		l := NewLoader(nil)

		img, err := l.LoadFile(exe)
		require.NoError(t, err)

		require.Equal(t, exe, img.Path)
		require.Equal(t, elf.EM_X86_64, img.Machine)
		require.Contains(t, []elf.Type{elf.ET_EXEC, elf.ET_DYN}, img.Type)
		require.NotEmpty(t, img.Key)
		require.False(t, img.Script)
	})

	n.It("reads the interpreter of a script", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "run.sh")
		require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh -e\necho hi\n"), 0755))

		img, err := NewLoader(nil).LoadFile(path)
		require.NoError(t, err)

		require.True(t, img.Script)
		require.Equal(t, "/bin/sh", img.Interp)
	})

	n.It("rejects data that is not an executable", func(t *testing.T) {
		_, err := NewLoader(nil).Load(bytes.NewReader([]byte("Hello world\n")))
		require.Error(t, err)
		require.Equal(t, ErrNotExecutable, errors.Cause(err))

		_, err = NewLoader(nil).Load(bytes.NewReader(nil))
		require.Equal(t, ErrNotExecutable, errors.Cause(err))

		_, err = NewLoader(nil).Load(bytes.NewReader([]byte("#!\n")))
		require.Equal(t, ErrNotExecutable, errors.Cause(err))
	})

	n.It("caches by content", func(t *testing.T) {
		cache := NewLoaderCache(10)
		l := NewLoader(cache)

		data := []byte("#!/usr/bin/env python3\n")

		a, err := l.Load(bytes.NewReader(data))
		require.NoError(t, err)

		cached, ok := cache.Lookup(a.Key)
		require.True(t, ok)
		require.Equal(t, "/usr/bin/env", cached.Interp)

		a.Interp = "changed"

		b, err := l.Load(bytes.NewReader(data))
		require.NoError(t, err)
		require.Equal(t, "/usr/bin/env", b.Interp)
		require.Equal(t, cached.Key, b.Key)
	})

	n.Meow()
}

func TestResolver(t *testing.T) {
	n := neko.Modern(t)

	n.It("finds a command in the search path", func(t *testing.T) {
		dir := t.TempDir()
		tool := filepath.Join(dir, "tool")
		require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\n"), 0755))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "data"), []byte("x"), 0644))

		r := NewResolver(10)
		r.Path = string(filepath.ListSeparator) + dir

		path, err := r.LookPath("tool")
		require.NoError(t, err)
		require.Equal(t, tool, path)

		_, err = r.LookPath("data")
		require.Equal(t, ErrNotFound, errors.Cause(err))
	})

	n.It("drops remembered paths that went away", func(t *testing.T) {
		dir := t.TempDir()
		tool := filepath.Join(dir, "tool")
		require.NoError(t, os.WriteFile(tool, []byte("#!/bin/sh\n"), 0755))

		r := NewResolver(10)
		r.Path = dir

		_, err := r.LookPath("tool")
		require.NoError(t, err)

		require.NoError(t, os.Remove(tool))

		_, err = r.LookPath("tool")
		require.Equal(t, ErrNotFound, errors.Cause(err))
	})

	n.It("searches again after forgetting", func(t *testing.T) {
		first, second := t.TempDir(), t.TempDir()
		for _, dir := range []string{first, second} {
			require.NoError(t, os.WriteFile(filepath.Join(dir, "tool"), []byte("#!/bin/sh\n"), 0755))
		}

		r := NewResolver(10)
		r.Path = first + string(filepath.ListSeparator) + second

		path, err := r.LookPath("tool")
		require.NoError(t, err)
		require.Equal(t, filepath.Join(first, "tool"), path)

		r.Path = second + string(filepath.ListSeparator) + first

		path, err = r.LookPath("tool")
		require.NoError(t, err)
		require.Equal(t, filepath.Join(first, "tool"), path)

		r.Forget()

		path, err = r.LookPath("tool")
		require.NoError(t, err)
		require.Equal(t, filepath.Join(second, "tool"), path)
	})

	n.It("uses names with a slash as given", func(t *testing.T) {
		r := NewResolver(10)

		path, err := r.LookPath("/bin/sh")
		require.NoError(t, err)
		require.Equal(t, "/bin/sh", path)

		_, err = r.LookPath("/nonexistent/tool")
		require.Error(t, err)
	})

	n.Meow()
}
