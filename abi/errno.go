// Package abi holds the error conventions shared by everything that talks
// to the kernel: negative results in [-MaxErrno, -1] carry an errno.
package abi

import (
	"fmt"

	"github.com/pkg/errors"
	"golang.org/x/sys/unix"
)

type Errno = unix.Errno

const (
	EPERM   = unix.EPERM
	ENOENT  = unix.ENOENT
	ESRCH   = unix.ESRCH
	EINTR   = unix.EINTR
	EIO     = unix.EIO
	ENOEXEC = unix.ENOEXEC
	EBADF   = unix.EBADF
	ECHILD  = unix.ECHILD
	EAGAIN  = unix.EAGAIN
	ENOMEM  = unix.ENOMEM
	EACCES  = unix.EACCES
	EFAULT  = unix.EFAULT
	EBUSY   = unix.EBUSY
	EEXIST  = unix.EEXIST
	EINVAL  = unix.EINVAL
	EMFILE  = unix.EMFILE
	ENOSYS  = unix.ENOSYS
)

// MaxErrno is the largest errno the kernel encodes in a return value.
const MaxErrno = 4095

// ErrnoOf reports the errno carried by a raw result, if any.
func ErrnoOf(r int64) (Errno, bool) {
	if r < 0 && r >= -MaxErrno {
		return Errno(-r), true
	}

	return 0, false
}

// FromResult splits a raw result into its value and an Errno error.
func FromResult(r int64) (int64, error) {
	if e, ok := ErrnoOf(r); ok {
		return r, e
	}

	return r, nil
}

func IsInterrupted(err error) bool {
	return errors.Is(err, EINTR)
}

// KernelError is a failed kernel call: the operation that was attempted and
// the errno the kernel answered with.
type KernelError struct {
	Op    string
	Errno Errno
}

func NewKernelError(op string, e Errno) error {
	return &KernelError{Op: op, Errno: e}
}

func (e *KernelError) Error() string {
	return fmt.Sprintf("%s: %s (%s)", e.Op, e.Errno.Error(), unix.ErrnoName(e.Errno))
}

func (e *KernelError) Unwrap() error {
	return e.Errno
}

// InvocationError is raised (by panic) for a call that can never be valid:
// too many arguments or an argument that has no machine word form.
type InvocationError struct {
	Reason string
}

func NewInvocationError(format string, args ...interface{}) *InvocationError {
	return &InvocationError{Reason: fmt.Sprintf(format, args...)}
}

func (e *InvocationError) Error() string {
	return "malformed invocation: " + e.Reason
}
