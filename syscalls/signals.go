package syscalls

import (
	"github.com/evanphx/rawsys/abi/linux"
)

// SetSignalMask changes the calling thread's signal mask with
// rt_sigprocmask(2) and returns the previous mask.
func SetSignalMask(how int, mask uint64) (uint64, error) {
	set := []uint64{mask}
	old := []uint64{0}

	_, err := result("rt_sigprocmask", Invoke(linux.SYS_RT_SIGPROCMASK,
		Int(how), Words(set), Words(old), Uint(linux.SigsetSize)))
	if err != nil {
		return 0, err
	}

	return old[0], nil
}

// BlockAllSignals blocks every signal on the calling thread and returns the
// mask to restore. The thread must be locked with runtime.LockOSThread.
func BlockAllSignals() (uint64, error) {
	return SetSignalMask(linux.SIG_SETMASK, ^uint64(0))
}
