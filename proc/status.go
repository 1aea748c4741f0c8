package proc

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// ExitStatus is how a child ended: an exit code, or the signal that
// killed it.
type ExitStatus struct {
	Code  int
	Signo int
}

func FromWaitStatus(ws unix.WaitStatus) ExitStatus {
	switch {
	case ws.Exited():
		return ExitStatus{Code: ws.ExitStatus()}
	case ws.Signaled():
		return ExitStatus{Code: -1, Signo: int(ws.Signal())}
	default:
		return ExitStatus{Code: -1}
	}
}

// Status re-encodes e in the kernel's wait status layout.
func (e ExitStatus) Status() int32 {
	if e.Signo != 0 {
		return int32(e.Signo) & 0x7f
	}

	return (int32(e.Code) & 0xff) << 8
}

func (e ExitStatus) Success() bool {
	return e.Signo == 0 && e.Code == 0
}

func (e ExitStatus) String() string {
	if e.Signo != 0 {
		return fmt.Sprintf("signal: %s", unix.SignalName(unix.Signal(e.Signo)))
	}

	return fmt.Sprintf("exit status %d", e.Code)
}
