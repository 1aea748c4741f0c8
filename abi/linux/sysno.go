package linux

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v3"
)

// Sysno identifies a kernel entry point.
type Sysno uintptr

var names = []struct {
	name string
	no   Sysno
}{
	{"read", SYS_READ},
	{"write", SYS_WRITE},
	{"open", SYS_OPEN},
	{"close", SYS_CLOSE},
	{"rt_sigprocmask", SYS_RT_SIGPROCMASK},
	{"dup2", SYS_DUP2},
	{"nanosleep", SYS_NANOSLEEP},
	{"fork", SYS_FORK},
	{"execve", SYS_EXECVE},
	{"wait4", SYS_WAIT4},
	{"exit_group", SYS_EXIT_GROUP},
}

var byNumber = map[Sysno]string{}

func init() {
	for _, n := range names {
		byNumber[n.no] = n.name
	}
}

// Table returns the known calls keyed by name, in ascending number order.
// The map is freshly built and owned by the caller.
func Table() *orderedmap.OrderedMap[string, Sysno] {
	m := orderedmap.NewOrderedMap[string, Sysno]()
	for _, n := range names {
		m.Set(n.name, n.no)
	}
	return m
}

func Lookup(name string) (Sysno, bool) {
	for _, n := range names {
		if n.name == name {
			return n.no, true
		}
	}
	return 0, false
}

func (s Sysno) String() string {
	if name, ok := byNumber[s]; ok {
		return name
	}
	return fmt.Sprintf("sys_%d", uintptr(s))
}
