//go:build darwin || freebsd || linux

package dynlib

import (
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/ebitengine/purego"
)

type nativePlatform struct{}

func (nativePlatform) Load(path string) (Handle, error) {
	h, err := purego.Dlopen(path, purego.RTLD_NOW|purego.RTLD_LOCAL)
	if err != nil {
		return 0, fmt.Errorf("dynlib: load %s: %w", path, err)
	}
	if h == 0 {
		return 0, fmt.Errorf("dynlib: load %s: %w", path, ErrNullHandle)
	}
	return Handle(h), nil
}

// Pin is a no-op: dlopen'd libraries stay mapped until the last dlclose and
// POSIX has no separate pin reference.
func (nativePlatform) Pin(string) error {
	return nil
}

func (nativePlatform) Unload(h Handle) error {
	if h == 0 {
		return ErrNullHandle
	}
	if err := purego.Dlclose(uintptr(h)); err != nil {
		return fmt.Errorf("dynlib: unload: %w", err)
	}
	return nil
}

func (nativePlatform) Lookup(h Handle, name string) (uintptr, error) {
	if h == 0 {
		return 0, ErrNullHandle
	}
	addr, err := purego.Dlsym(uintptr(h), name)
	if err != nil {
		return 0, &SymbolError{Name: name, Err: err}
	}
	if addr == 0 {
		return 0, &SymbolError{Name: name}
	}
	return addr, nil
}

func (nativePlatform) Free(p unsafe.Pointer) error {
	if p == nil {
		return nil
	}
	fn, err := libcFree()
	if err != nil {
		return err
	}
	fn(p)
	return nil
}

func (nativePlatform) Bind(fnPtr any, addr uintptr) error {
	return Bind(fnPtr, addr)
}

func registerFunc(fnPtr any, addr uintptr) error {
	purego.RegisterFunc(fnPtr, addr)
	return nil
}

var (
	freeOnce sync.Once
	freeFn   func(unsafe.Pointer)
	freeErr  error
)

// libcFree resolves the C runtime's free once per process. Runtime-allocated
// blocks on POSIX hosts come from malloc and must go back through it.
func libcFree() (func(unsafe.Pointer), error) {
	freeOnce.Do(func() {
		lib, err := purego.Dlopen(libcName(), purego.RTLD_NOW|purego.RTLD_GLOBAL)
		if err != nil {
			freeErr = fmt.Errorf("dynlib: open libc: %w", err)
			return
		}
		addr, err := purego.Dlsym(lib, "free")
		if err != nil {
			freeErr = &SymbolError{Name: "free", Err: err}
			return
		}
		if addr == 0 {
			freeErr = &SymbolError{Name: "free", Err: errors.New("null address")}
			return
		}
		purego.RegisterFunc(&freeFn, addr)
	})
	return freeFn, freeErr
}

func libcName() string {
	switch runtime.GOOS {
	case "darwin":
		return "/usr/lib/libSystem.B.dylib"
	case "freebsd":
		return "libc.so.7"
	default:
		return "libc.so.6"
	}
}
