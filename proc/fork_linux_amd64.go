//go:build linux && amd64

package proc

import (
	"unsafe"

	"github.com/evanphx/rawsys/abi/linux"
	"golang.org/x/sys/unix"
)

// forkExec forks and, in the child, runs childExec. Between fork and
// execve the child is a single thread copied out of the Go runtime, so
// nothing on this path may allocate, grow the stack or take a lock.
//
//go:nosplit
//go:norace
func forkExec(p *forkPlan) (int, unix.Errno) {
	r1, _, e := unix.RawSyscall(uintptr(linux.SYS_FORK), 0, 0, 0)
	if e != 0 {
		return 0, e
	}

	if r1 != 0 {
		return int(r1), 0
	}

	childExec(p)
	return 0, 0
}

//go:nosplit
//go:norace
func childExec(p *forkPlan) {
	for i := 0; i < p.ndups; i++ {
		for a := 0; ; a++ {
			_, _, e := unix.RawSyscall(uintptr(linux.SYS_DUP2), p.dups[i].from, p.dups[i].to, 0)
			if e == 0 {
				break
			}

			if e != unix.EBUSY || a+1 >= p.attempts {
				unix.RawSyscall(uintptr(linux.SYS_EXIT_GROUP), linux.ExitDupFailed, 0, 0)
			}

			unix.RawSyscall(uintptr(linux.SYS_NANOSLEEP), uintptr(unsafe.Pointer(&p.delays[a])), 0, 0)
		}
	}

	unix.RawSyscall6(uintptr(linux.SYS_RT_SIGPROCMASK), linux.SIG_SETMASK,
		uintptr(unsafe.Pointer(&p.mask)), 0, linux.SigsetSize, 0, 0)

	unix.RawSyscall(uintptr(linux.SYS_EXECVE), p.path, p.argv, p.envp)

	for {
		unix.RawSyscall(uintptr(linux.SYS_EXIT_GROUP), linux.ExitExecFailed, 0, 0)
	}
}
