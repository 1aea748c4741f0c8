package syscalls

import (
	"context"

	"github.com/evanphx/rawsys/abi"
	"github.com/evanphx/rawsys/abi/linux"
	"github.com/evanphx/rawsys/memory"
	"github.com/evanphx/rawsys/retry"
)

// OpenFile opens path with open(2) flags and permission mode, returning
// the new descriptor.
func OpenFile(path string, flags int, mode uint32) (int, error) {
	name, err := memory.CStringChecked(path)
	if err != nil {
		return -1, abi.NewKernelError("open", abi.EINVAL)
	}

	fd, err := result("open", Invoke(linux.SYS_OPEN, Buf(name), Int(flags), Uint(mode)))
	if err != nil {
		return -1, err
	}

	return int(fd), nil
}

// ReadBytes reads up to len(buf) bytes from fd into buf.
func ReadBytes(fd int, buf []byte) (int, error) {
	n, err := result("read", Invoke(linux.SYS_READ, Int(fd), Buf(buf), Uint(len(buf))))
	if err != nil {
		return 0, err
	}

	return int(n), nil
}

// WriteBytes writes buf to fd with a single write(2); the count may be short.
func WriteBytes(fd int, buf []byte) (int, error) {
	n, err := result("write", Invoke(linux.SYS_WRITE, Int(fd), Buf(buf), Uint(len(buf))))
	if err != nil {
		return 0, err
	}

	return int(n), nil
}

func CloseDescriptor(fd int) error {
	_, err := result("close", Invoke(linux.SYS_CLOSE, Int(fd)))
	return err
}

// DuplicateDescriptor makes newfd a copy of oldfd with a single dup2(2).
func DuplicateDescriptor(oldfd, newfd int) (int, error) {
	fd, err := result("dup2", Invoke(linux.SYS_DUP2, Int(oldfd), Int(newfd)))
	if err != nil {
		return -1, err
	}

	return int(fd), nil
}

// DuplicateDescriptorRetry is DuplicateDescriptor retried under policy.
// Linux reports EBUSY from dup2 while newfd is mid-open in another thread.
func DuplicateDescriptorRetry(ctx context.Context, policy retry.Policy, oldfd, newfd int) (int, error) {
	r, err := retry.Do(ctx, policy, func() int64 {
		return Invoke(linux.SYS_DUP2, Int(oldfd), Int(newfd))
	})
	if err != nil {
		if e, ok := err.(abi.Errno); ok {
			return -1, abi.NewKernelError("dup2", e)
		}
		return -1, err
	}

	return int(r), nil
}
