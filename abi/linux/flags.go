package linux

// open(2) flags.
const (
	O_RDONLY  = 0
	O_WRONLY  = 01
	O_RDWR    = 02
	O_CREAT   = 0100
	O_TRUNC   = 01000
	O_APPEND  = 02000
	O_CLOEXEC = 02000000
)

// wait4(2) options.
const (
	WNOHANG   = 1
	WUNTRACED = 2
)

const (
	SIGCHLD = 17

	SIG_BLOCK   = 0
	SIG_UNBLOCK = 1
	SIG_SETMASK = 2

	// Size in bytes of the kernel's sigset_t.
	SigsetSize = 8
)

// Exit statuses of a spawned child that never reached its new image.
const (
	ExitDupFailed  = 126
	ExitExecFailed = 127
)
