package syscalls

import (
	"runtime"

	"github.com/davecgh/go-spew/spew"
	"github.com/evanphx/rawsys/abi"
	"github.com/evanphx/rawsys/abi/linux"
	"github.com/evanphx/rawsys/log"
	"github.com/evanphx/rawsys/memory"
	hclog "github.com/hashicorp/go-hclog"
	"golang.org/x/sys/unix"
)

// Invoker dispatches raw system calls.
type Invoker struct {
	L hclog.Logger
}

var DefaultInvoker = &Invoker{L: log.L}

// Invoke performs syscall no with args and returns the kernel's result:
// a non-negative value on success, -errno on failure. It never retries.
func Invoke(no linux.Sysno, args ...Arg) int64 {
	return DefaultInvoker.Invoke(no, args...)
}

// InvokeRaw is Invoke without scheduler involvement; see Invoker.InvokeRaw.
func InvokeRaw(no linux.Sysno, args ...Arg) int64 {
	return DefaultInvoker.InvokeRaw(no, args...)
}

func (i *Invoker) resolve(s *memory.Scope, no linux.Sysno, args []Arg) [MaxArgs]uintptr {
	if len(args) > MaxArgs {
		panic(abi.NewInvocationError("%s: %d arguments, at most %d", no, len(args), MaxArgs))
	}

	var w [MaxArgs]uintptr

	for j, a := range args {
		if a == nil {
			panic(abi.NewInvocationError("%s: argument %d is nil", no, j))
		}

		w[j] = a.word(s)
	}

	return w
}

func (i *Invoker) Invoke(no linux.Sysno, args ...Arg) int64 {
	s := memory.NewScope()
	defer s.Release()

	w := i.resolve(s, no, args)

	r1, _, errno := unix.Syscall6(uintptr(no), w[0], w[1], w[2], w[3], w[4], w[5])
	runtime.KeepAlive(args)

	return i.finish(no, args, w, r1, errno)
}

// InvokeRaw does not tell the scheduler it is entering the kernel. Use it
// for calls that must not reschedule, such as fork, and never for calls
// that can block.
func (i *Invoker) InvokeRaw(no linux.Sysno, args ...Arg) int64 {
	s := memory.NewScope()
	defer s.Release()

	w := i.resolve(s, no, args)

	r1, _, errno := unix.RawSyscall6(uintptr(no), w[0], w[1], w[2], w[3], w[4], w[5])
	runtime.KeepAlive(args)

	return i.finish(no, args, w, r1, errno)
}

func (i *Invoker) finish(no linux.Sysno, args []Arg, w [MaxArgs]uintptr, r1 uintptr, errno unix.Errno) int64 {
	ret := int64(r1)
	if errno != 0 {
		ret = -int64(errno)
	}

	if i.L != nil && i.L.IsTrace() {
		i.L.Trace("syscall-invoke", "sysno", uintptr(no), "name", no.String(), "words", w[:len(args)], "result", ret)
		i.L.Trace("syscall-args", "dump", spew.Sdump(args))
	}

	return ret
}

// result converts a raw result into a value or a KernelError for op.
func result(op string, r int64) (int64, error) {
	if e, ok := abi.ErrnoOf(r); ok {
		return r, abi.NewKernelError(op, e)
	}

	return r, nil
}
