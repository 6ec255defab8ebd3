package clrhost

import (
	"sync"
	"unsafe"

	"github.com/coinbase/clrhost-go/internal/dynlib"
)

// UnmanagedBlock is a block of memory allocated by the runtime and returned to
// native code. The holder owns it and must call Release exactly once; further
// calls are no-ops. Blocks come only from delegate invocation.
type UnmanagedBlock struct {
	mu       sync.Mutex
	p        unsafe.Pointer
	mem      Memory
	released bool
}

func newUnmanagedBlock(p unsafe.Pointer, mem Memory) *UnmanagedBlock {
	return &UnmanagedBlock{p: p, mem: mem}
}

// IsNull reports whether the managed method returned a null pointer.
func (b *UnmanagedBlock) IsNull() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.p == nil
}

// Pointer returns the raw address, or nil once released.
func (b *UnmanagedBlock) Pointer() unsafe.Pointer {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil
	}
	return b.p
}

// Text reads the block as a NUL-terminated byte string.
func (b *UnmanagedBlock) Text() (string, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return "", ErrBlockReleased
	}
	return dynlib.GoString(b.p), nil
}

// String is Text without the error; a released block prints as "".
func (b *UnmanagedBlock) String() string {
	s, _ := b.Text()
	return s
}

// Release frees the block through the platform's unmanaged-memory allocator.
func (b *UnmanagedBlock) Release() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.released {
		return nil
	}
	b.released = true
	if b.p == nil {
		return nil
	}
	p := b.p
	b.p = nil
	return b.mem.Free(p)
}
