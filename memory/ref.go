// Package memory resolves in-process buffers to raw addresses for the
// kernel. An address is only handed out through a Scope, which pins the
// backing storage until the scope is released.
package memory

import (
	"runtime"
	"sync"
	"unsafe"

	"github.com/evanphx/rawsys/abi"
)

// AddressOf returns the address of buf's first byte, or 0 for an empty
// buffer. Nothing is pinned: the result is only good for as long as the
// caller otherwise keeps buf alive and in place.
func AddressOf(buf []byte) uintptr {
	if len(buf) == 0 {
		return 0
	}

	return uintptr(unsafe.Pointer(unsafe.SliceData(buf)))
}

// WordsAddress is AddressOf for a word array.
func WordsAddress(words []uint64) uintptr {
	if len(words) == 0 {
		return 0
	}

	return uintptr(unsafe.Pointer(unsafe.SliceData(words)))
}

// Scope owns the pins behind every Ref it hands out.
type Scope struct {
	mu       sync.Mutex
	pinner   runtime.Pinner
	released bool
	pins     int
}

func NewScope() *Scope {
	return &Scope{}
}

// Borrow runs fn with a fresh scope and releases it when fn returns.
func Borrow[T any](fn func(s *Scope) T) T {
	s := NewScope()
	defer s.Release()

	return fn(s)
}

func (s *Scope) pin(p unsafe.Pointer) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		panic(abi.NewInvocationError("reference taken from a released scope"))
	}

	s.pinner.Pin(p)
	s.pins++
}

// Ref pins buf and returns its address.
func (s *Scope) Ref(buf []byte) Ref {
	if len(buf) == 0 {
		return Ref{scope: s}
	}

	p := unsafe.Pointer(unsafe.SliceData(buf))
	s.pin(p)

	return Ref{scope: s, addr: uintptr(p), size: len(buf)}
}

// RefWords pins a word array and returns its address.
func (s *Scope) RefWords(words []uint64) Ref {
	if len(words) == 0 {
		return Ref{scope: s}
	}

	p := unsafe.Pointer(unsafe.SliceData(words))
	s.pin(p)

	return Ref{scope: s, addr: uintptr(p), size: len(words) * 8}
}

// Release unpins everything referenced through s. Refs from s must not be
// used afterwards; Addr panics if they are.
func (s *Scope) Release() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.released {
		return
	}

	s.pinner.Unpin()
	s.released = true
}

func (s *Scope) Released() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.released
}

// Pins reports how many buffers s has pinned.
func (s *Scope) Pins() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.pins
}

// Ref is an address borrowed from a Scope.
type Ref struct {
	scope *Scope
	addr  uintptr
	size  int
}

func (r Ref) Addr() uintptr {
	if r.scope != nil && r.scope.Released() {
		panic(abi.NewInvocationError("address %#x used after its scope was released", r.addr))
	}

	return r.addr
}

func (r Ref) Len() int {
	return r.size
}

func (r Ref) IsNil() bool {
	return r.addr == 0
}
