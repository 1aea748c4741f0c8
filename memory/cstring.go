package memory

import (
	"bytes"
	"strings"

	"github.com/evanphx/rawsys/abi"
)

// CString returns s's bytes followed by a single NUL.
func CString(s string) []byte {
	buf := make([]byte, len(s)+1)
	copy(buf, s)
	return buf
}

// CStringChecked is CString but refuses text the kernel would truncate.
func CStringChecked(s string) ([]byte, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return nil, abi.EINVAL
	}

	return CString(s), nil
}

// DecodeCString returns the text before the first NUL in buf.
func DecodeCString(buf []byte) string {
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		return string(buf[:i])
	}

	return string(buf)
}

// PointerArray builds a NULL-terminated vector of the addresses of bufs,
// the layout execve expects for argv and envp. Each buffer is pinned in s.
func PointerArray(s *Scope, bufs [][]byte) []uint64 {
	words := make([]uint64, len(bufs)+1)

	for i, buf := range bufs {
		words[i] = uint64(s.Ref(buf).Addr())
	}

	return words
}

// CStringArray converts strs with CString and returns their PointerArray.
func CStringArray(s *Scope, strs []string) ([]uint64, error) {
	bufs := make([][]byte, len(strs))

	for i, str := range strs {
		buf, err := CStringChecked(str)
		if err != nil {
			return nil, err
		}

		bufs[i] = buf
	}

	return PointerArray(s, bufs), nil
}
