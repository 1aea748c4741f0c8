package syscalls

import (
	"encoding/binary"

	"github.com/evanphx/rawsys/abi"
	"github.com/evanphx/rawsys/abi/linux"
	"golang.org/x/sys/unix"
)

// ForkProcess duplicates the calling process. It returns the child's pid in
// the parent and 0 in the child.
//
// The child is a copy of a multithreaded Go program with a single thread
// left, so it must not allocate, take locks or grow its stack. The fork
// itself is one raw call with no scope, tracing or deferred work, so the
// child returns from here with nothing else run. From there it should only
// issue raw calls and then exec or exit. Use proc.Spawner to start a
// program; it prepares everything the child needs before forking.
//
//go:norace
func ForkProcess() (int, error) {
	pid, _, e := unix.RawSyscall(uintptr(linux.SYS_FORK), 0, 0, 0)
	if e != 0 {
		return -1, abi.NewKernelError("fork", e)
	}

	return int(pid), nil
}

// WaitForChild waits for a state change in a child with wait4(2). pid -1
// waits for any child. With WNOHANG a pid of 0 means children exist but none
// has changed state.
func WaitForChild(pid int, options int) (int, unix.WaitStatus, error) {
	var status [4]byte

	r, err := result("wait4", Invoke(linux.SYS_WAIT4, Int(pid), Buf(status[:]), Int(options), Nil))
	if err != nil {
		return -1, 0, err
	}

	return int(r), unix.WaitStatus(binary.LittleEndian.Uint32(status[:])), nil
}
