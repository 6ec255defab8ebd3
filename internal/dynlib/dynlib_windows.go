//go:build windows

package dynlib

import (
	"fmt"
	"unsafe"

	"github.com/ebitengine/purego"
	"golang.org/x/sys/windows"
)

type nativePlatform struct{}

func (nativePlatform) Load(path string) (Handle, error) {
	h, err := windows.LoadLibraryEx(path, 0, 0)
	if err != nil {
		return 0, fmt.Errorf("dynlib: load %s: %w", path, err)
	}
	if h == 0 {
		return 0, fmt.Errorf("dynlib: load %s: %w", path, ErrNullHandle)
	}
	return Handle(h), nil
}

// Pin takes an extra, permanent reference on an already loaded module so that
// FreeLibrary cannot unmap it while the runtime's static state is live.
func (nativePlatform) Pin(path string) error {
	name, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return fmt.Errorf("dynlib: pin %s: %w", path, err)
	}
	var module windows.Handle
	if err := windows.GetModuleHandleEx(windows.GET_MODULE_HANDLE_EX_FLAG_PIN, name, &module); err != nil {
		return fmt.Errorf("dynlib: pin %s: %w", path, err)
	}
	return nil
}

func (nativePlatform) Unload(h Handle) error {
	if h == 0 {
		return ErrNullHandle
	}
	if err := windows.FreeLibrary(windows.Handle(h)); err != nil {
		return fmt.Errorf("dynlib: unload: %w", err)
	}
	return nil
}

func (nativePlatform) Lookup(h Handle, name string) (uintptr, error) {
	if h == 0 {
		return 0, ErrNullHandle
	}
	addr, err := windows.GetProcAddress(windows.Handle(h), name)
	if err != nil {
		return 0, &SymbolError{Name: name, Err: err}
	}
	if addr == 0 {
		return 0, &SymbolError{Name: name}
	}
	return addr, nil
}

// Free releases a block through the COM task allocator, which is what the
// runtime's marshaller uses for native return buffers on Windows.
func (nativePlatform) Free(p unsafe.Pointer) error {
	if p == nil {
		return nil
	}
	windows.CoTaskMemFree(p)
	return nil
}

func (nativePlatform) Bind(fnPtr any, addr uintptr) error {
	return Bind(fnPtr, addr)
}

func registerFunc(fnPtr any, addr uintptr) error {
	purego.RegisterFunc(fnPtr, addr)
	return nil
}
