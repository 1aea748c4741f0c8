package proc

import (
	"context"
	"sync"
)

type ProcessStatus int

const (
	Running ProcessStatus = 1
	Dead    ProcessStatus = 2
)

// Child is a process started by Spawn.
type Child struct {
	Pid  int
	Path string
	Args []string

	mu         sync.Mutex
	status     ProcessStatus
	exitStatus ExitStatus
	done       chan struct{}
}

func newChild(pid int, path string, args []string) *Child {
	return &Child{
		Pid:    pid,
		Path:   path,
		Args:   args,
		status: Running,
		done:   make(chan struct{}),
	}
}

func (c *Child) finish(es ExitStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.status == Dead {
		return
	}

	c.exitStatus = es
	c.status = Dead
	close(c.done)
}

func (c *Child) Exited() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.status == Dead
}

// Done is closed once the child has been reaped.
func (c *Child) Done() <-chan struct{} {
	return c.done
}

// Wait blocks until a Reaper has collected the child or ctx is done.
func (c *Child) Wait(ctx context.Context) (ExitStatus, error) {
	select {
	case <-c.done:
		c.mu.Lock()
		defer c.mu.Unlock()

		return c.exitStatus, nil
	case <-ctx.Done():
		return ExitStatus{}, ctx.Err()
	}
}

// Table tracks live children by pid. Exit reports wait while a spawn is
// between fork and registration, so every exit of a spawned child finds it.
type Table struct {
	spawnMu  sync.Mutex
	mu       sync.Mutex
	children map[int]*Child
}

func NewTable() *Table {
	return &Table{
		children: make(map[int]*Child),
	}
}

// Track runs start, which forks a child, with exit reports held off and
// registers the child it returns.
func (t *Table) Track(start func() (*Child, error)) (*Child, error) {
	t.spawnMu.Lock()
	defer t.spawnMu.Unlock()

	c, err := start()
	if err != nil {
		return nil, err
	}

	t.Add(c)

	return c, nil
}

func (t *Table) Add(c *Child) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.children[c.Pid] = c
}

func (t *Table) Lookup(pid int) (*Child, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.children[pid]
	return c, ok
}

func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()

	return len(t.children)
}

// Exited records pid's exit and returns the child it completed. Exits of
// pids the table never tracked are dropped.
func (t *Table) Exited(pid int, es ExitStatus) (*Child, bool) {
	t.spawnMu.Lock()
	defer t.spawnMu.Unlock()

	t.mu.Lock()
	defer t.mu.Unlock()

	c, ok := t.children[pid]
	if !ok {
		return nil, false
	}

	delete(t.children, pid)
	c.finish(es)

	return c, true
}
