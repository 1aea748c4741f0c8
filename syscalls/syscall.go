package syscalls

import (
	"unsafe"

	"github.com/evanphx/rawsys/abi"
	"github.com/evanphx/rawsys/memory"
)

// MaxArgs is the number of argument registers in the syscall ABI.
const MaxArgs = 6

// Arg is one syscall argument. It becomes a machine word only inside
// Invoke, right before the kernel is entered.
type Arg interface {
	word(s *memory.Scope) uintptr
}

// Int is a signed scalar argument; negative values are sign extended.
type Int int64

func (i Int) word(*memory.Scope) uintptr { return uintptr(i) }

// Uint is an unsigned scalar argument.
type Uint uint64

func (u Uint) word(*memory.Scope) uintptr { return uintptr(u) }

// Buf passes the address of a byte buffer.
type Buf []byte

func (b Buf) word(s *memory.Scope) uintptr { return s.Ref(b).Addr() }

// Words passes the address of a word array, such as a PointerArray.
type Words []uint64

func (w Words) word(s *memory.Scope) uintptr { return s.RefWords(w).Addr() }

type refArg struct {
	ref memory.Ref
}

func (r refArg) word(*memory.Scope) uintptr { return r.ref.Addr() }

// Addr passes an address resolved by the caller's own scope, which must
// outlive the call.
func Addr(r memory.Ref) Arg {
	return refArg{r}
}

// Nil is a NULL pointer argument.
var Nil Arg = Uint(0)

// Value coerces a dynamically typed value into an Arg. Integers pass
// through, byte slices and strings (as C strings) become addresses.
// Anything else is a malformed invocation and panics.
func Value(v interface{}) Arg {
	switch v := v.(type) {
	case nil:
		return Nil
	case Arg:
		return v
	case memory.Ref:
		return Addr(v)
	case int:
		return Int(v)
	case int8:
		return Int(v)
	case int16:
		return Int(v)
	case int32:
		return Int(v)
	case int64:
		return Int(v)
	case uint:
		return Uint(v)
	case uint8:
		return Uint(v)
	case uint16:
		return Uint(v)
	case uint32:
		return Uint(v)
	case uint64:
		return Uint(v)
	case uintptr:
		return Uint(v)
	case bool:
		if v {
			return Uint(1)
		}
		return Uint(0)
	case []byte:
		return Buf(v)
	case string:
		return Buf(memory.CString(v))
	case []uint64:
		return Words(v)
	case unsafe.Pointer:
		panic(abi.NewInvocationError("raw unsafe.Pointer arguments are not supported, use Buf or Addr"))
	}

	panic(abi.NewInvocationError("unsupported argument type %T", v))
}

// Values applies Value to each element.
func Values(vs ...interface{}) []Arg {
	args := make([]Arg, len(vs))
	for i, v := range vs {
		args[i] = Value(v)
	}
	return args
}
