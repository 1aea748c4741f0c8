package syscalls

import (
	"github.com/evanphx/rawsys/abi"
	"github.com/evanphx/rawsys/abi/linux"
	"github.com/evanphx/rawsys/memory"
)

// ExecProcess replaces the process image with path. It only returns when
// execve fails. A nil envv passes an empty environment.
func ExecProcess(path string, argv, envv []string) error {
	name, err := memory.CStringChecked(path)
	if err != nil {
		return abi.NewKernelError("execve", abi.EINVAL)
	}

	s := memory.NewScope()
	defer s.Release()

	args, err := memory.CStringArray(s, argv)
	if err != nil {
		return abi.NewKernelError("execve", abi.EINVAL)
	}

	env, err := memory.CStringArray(s, envv)
	if err != nil {
		return abi.NewKernelError("execve", abi.EINVAL)
	}

	_, err = result("execve", Invoke(linux.SYS_EXECVE, Buf(name), Words(args), Words(env)))
	return err
}
