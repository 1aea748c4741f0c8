//go:build linux && amd64

package linux

// x86-64 system call numbers.
const (
	SYS_READ           Sysno = 0
	SYS_WRITE          Sysno = 1
	SYS_OPEN           Sysno = 2
	SYS_CLOSE          Sysno = 3
	SYS_RT_SIGPROCMASK Sysno = 14
	SYS_DUP2           Sysno = 33
	SYS_NANOSLEEP      Sysno = 35
	SYS_FORK           Sysno = 57
	SYS_EXECVE         Sysno = 59
	SYS_WAIT4          Sysno = 61
	SYS_EXIT_GROUP     Sysno = 231
)
