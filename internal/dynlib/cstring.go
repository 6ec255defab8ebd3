package dynlib

import (
	"fmt"
	"strings"
	"unsafe"
)

// CString returns a NUL-terminated copy of s in Go-managed memory.
func CString(s string) (*byte, error) {
	if strings.IndexByte(s, 0) >= 0 {
		return nil, fmt.Errorf("%w: %q", ErrNulInString, s)
	}
	b := make([]byte, len(s)+1)
	copy(b, s)
	return &b[0], nil
}

// CStringArray is a native char* array backed by Go memory. The array and
// every string it references stay valid for as long as the CStringArray is
// reachable; callers pin it across a native call with runtime.KeepAlive.
type CStringArray struct {
	ptrs []*byte
}

// NewCStringArray converts ss into a char* array.
func NewCStringArray(ss []string) (*CStringArray, error) {
	a := &CStringArray{ptrs: make([]*byte, len(ss))}
	for i, s := range ss {
		p, err := CString(s)
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		a.ptrs[i] = p
	}
	return a, nil
}

// Len returns the number of strings in the array.
func (a *CStringArray) Len() int {
	if a == nil {
		return 0
	}
	return len(a.ptrs)
}

// Pointer returns the address of the first element, or nil for an empty array.
func (a *CStringArray) Pointer() unsafe.Pointer {
	if a.Len() == 0 {
		return nil
	}
	return unsafe.Pointer(&a.ptrs[0])
}

// GoString copies the NUL-terminated byte string at p into a Go string. A nil
// pointer yields "".
func GoString(p unsafe.Pointer) string {
	if p == nil {
		return ""
	}
	n := 0
	for *(*byte)(unsafe.Add(p, n)) != 0 {
		n++
	}
	return string(unsafe.Slice((*byte)(p), n))
}

// GoStrings reads n char* entries starting at p.
func GoStrings(p unsafe.Pointer, n int) []string {
	if p == nil || n <= 0 {
		return nil
	}
	ptrs := unsafe.Slice((*unsafe.Pointer)(p), n)
	out := make([]string, n)
	for i, s := range ptrs {
		out[i] = GoString(s)
	}
	return out
}
