// Package fs wraps raw descriptors in reference counted files.
package fs

import (
	"io"
	"sync"

	"github.com/evanphx/rawsys/abi"
	"github.com/evanphx/rawsys/syscalls"
	"github.com/pkg/errors"
)

// File owns a descriptor. The descriptor is closed when the last reference
// is closed.
type File struct {
	mu   sync.Mutex
	refs int
	fd   int

	Name string
}

// Open opens name with open(2) flags and mode.
func Open(name string, flags int, mode uint32) (*File, error) {
	fd, err := syscalls.OpenFile(name, flags, mode)
	if err != nil {
		return nil, errors.Wrapf(err, "open %s", name)
	}

	return NewFile(fd, name), nil
}

// NewFile takes ownership of fd.
func NewFile(fd int, name string) *File {
	return &File{refs: 1, fd: fd, Name: name}
}

// Fd returns the descriptor, or -1 once the file is closed.
func (f *File) Fd() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	return f.fd
}

func (f *File) descriptor(op string) (int, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.refs <= 0 {
		return -1, abi.NewKernelError(op, abi.EBADF)
	}

	return f.fd, nil
}

func (f *File) Read(p []byte) (int, error) {
	fd, err := f.descriptor("read")
	if err != nil {
		return 0, err
	}

	n, err := syscalls.ReadBytes(fd, p)
	if err != nil {
		return 0, err
	}

	if n == 0 && len(p) > 0 {
		return 0, io.EOF
	}

	return n, nil
}

// Write writes all of p, issuing more write(2) calls after short writes.
func (f *File) Write(p []byte) (int, error) {
	fd, err := f.descriptor("write")
	if err != nil {
		return 0, err
	}

	var total int

	for total < len(p) {
		n, err := syscalls.WriteBytes(fd, p[total:])
		if err != nil {
			if abi.IsInterrupted(err) {
				continue
			}
			return total, err
		}

		if n == 0 {
			return total, io.ErrShortWrite
		}

		total += n
	}

	return total, nil
}

// Ref adds a reference; each reference needs its own Close.
func (f *File) Ref() *File {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.refs++
	return f
}

func (f *File) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.refs <= 0 {
		return abi.NewKernelError("close", abi.EBADF)
	}

	f.refs--
	if f.refs > 0 {
		return nil
	}

	fd := f.fd
	f.fd = -1

	return syscalls.CloseDescriptor(fd)
}
