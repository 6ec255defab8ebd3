package dynlib

import (
	"errors"
	"fmt"
	"os"
	"unsafe"
)

// Handle is an opaque handle to a loaded shared library. The zero value is the
// null sentinel returned when loading fails.
type Handle uintptr

// PathListSeparator separates entries of a platform path list (";" on
// Windows, ":" elsewhere).
const PathListSeparator = string(os.PathListSeparator)

var (
	// ErrUnsupported reports that the current GOOS has no loader backend.
	ErrUnsupported = errors.New("dynlib: dynamic libraries are not supported on this platform")

	// ErrNullHandle is returned when an operation receives the zero Handle.
	ErrNullHandle = errors.New("dynlib: null library handle")

	// ErrNulInString reports a Go string that cannot be represented as a C
	// string because it contains a NUL byte.
	ErrNulInString = errors.New("dynlib: string contains NUL byte")
)

// Loader abstracts the operating system's dynamic-library facility.
type Loader interface {
	// Load opens the library at path with immediate, process-local symbol
	// binding. It returns the zero Handle and an error on failure.
	Load(path string) (Handle, error)

	// Pin prevents the library at path from being unloaded before process
	// exit. Platforms without a pin concept return nil.
	Pin(path string) error

	// Unload releases a handle obtained from Load.
	Unload(h Handle) error

	// Lookup resolves an exported symbol. It returns 0 and an error if the
	// symbol is absent.
	Lookup(h Handle, name string) (uintptr, error)
}

// Memory releases blocks allocated by a managed runtime for its native
// callers. It is distinct from the Go allocator and from C malloc/free on
// platforms where the runtime uses a dedicated allocator.
type Memory interface {
	Free(p unsafe.Pointer) error
}

// Binder converts a native function address into a typed Go function. fnPtr
// must be a non-nil pointer to a variable of func type.
type Binder interface {
	Bind(fnPtr any, addr uintptr) error
}

// Platform bundles the three native capabilities of the current OS.
type Platform interface {
	Loader
	Memory
	Binder
}

// Native returns the adapter for the running operating system.
func Native() Platform {
	return nativePlatform{}
}

// LibraryFileName returns the platform file name for a shared library with the
// given base name, e.g. "coreclr" becomes "libcoreclr.so" on Linux.
func LibraryFileName(base string) string {
	return libraryPrefix + base + librarySuffix
}

// SymbolError is returned by Lookup implementations when a symbol is missing.
type SymbolError struct {
	Name string
	Err  error
}

func (e *SymbolError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("dynlib: symbol %s not found", e.Name)
	}
	return fmt.Sprintf("dynlib: symbol %s not found: %v", e.Name, e.Err)
}

func (e *SymbolError) Unwrap() error { return e.Err }
