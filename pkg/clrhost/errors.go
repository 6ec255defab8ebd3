package clrhost

import (
	"errors"
	"fmt"

	"github.com/coinbase/clrhost-go/internal/dynlib"
)

var (
	// ErrInvalidState is the root of every lifecycle precondition failure.
	ErrInvalidState = errors.New("clrhost: invalid runtime state")

	// ErrNotInitialized is returned by operations that need an initialized
	// runtime (CreateDelegate, Shutdown, delegate invocation).
	ErrNotInitialized = fmt.Errorf("%w: runtime not initialized", ErrInvalidState)

	// ErrAlreadyInitialized is returned by Initialize when a runtime instance
	// is already live. The existing instance is left untouched.
	ErrAlreadyInitialized = fmt.Errorf("%w: runtime already initialized", ErrInvalidState)

	// ErrAlreadyLoaded is returned by LoadRuntimeLibrary outside the Unloaded
	// state.
	ErrAlreadyLoaded = fmt.Errorf("%w: runtime library already loaded", ErrInvalidState)

	// ErrReservedProperty reports an extra runtime property that collides
	// with one the host always sets.
	ErrReservedProperty = errors.New("clrhost: reserved runtime property")

	// ErrNullDelegate is returned when binding a zero Delegate.
	ErrNullDelegate = errors.New("clrhost: null delegate")

	// ErrBlockReleased is returned when reading an UnmanagedBlock after Release.
	ErrBlockReleased = errors.New("clrhost: unmanaged block already released")

	// ErrUnsupported reports that the current platform cannot load native
	// libraries.
	ErrUnsupported = dynlib.ErrUnsupported
)

// Op names the hosting ABI entry point that produced a StatusError.
type Op string

const (
	OpInitialize     Op = SymbolInitialize
	OpShutdown       Op = SymbolShutdown
	OpCreateDelegate Op = SymbolCreateDelegate
)

// Status is a raw HRESULT-style return code from the hosting ABI. Zero means
// success.
type Status int32

// String renders the status the way the runtime documents it, as unsigned hex.
func (s Status) String() string {
	return fmt.Sprintf("0x%x", uint32(s))
}

// LoadError reports that the runtime library could not be opened.
type LoadError struct {
	Path string
	Err  error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("failed to load CoreCLR library %s: %v", e.Path, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// PinError reports that the loaded runtime library could not be pinned.
type PinError struct {
	Path string
	Err  error
}

func (e *PinError) Error() string {
	return fmt.Sprintf("failed to pin CoreCLR library %s: %v", e.Path, e.Err)
}

func (e *PinError) Unwrap() error { return e.Err }

// SymbolNotFoundError names a required entry point missing from the library.
type SymbolNotFoundError struct {
	Symbol string
	Err    error
}

func (e *SymbolNotFoundError) Error() string {
	return fmt.Sprintf("function %s not found in CoreCLR library", e.Symbol)
}

func (e *SymbolNotFoundError) Unwrap() error { return e.Err }

// StatusError carries a non-zero status returned by a hosting ABI call.
type StatusError struct {
	Op     Op
	Status Status
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s failed - status: %s", e.Op, e.Status)
}

// UnloadError reports that the runtime library could not be released after a
// successful shutdown.
type UnloadError struct {
	Err error
}

func (e *UnloadError) Error() string {
	return fmt.Sprintf("failed to unload CoreCLR library: %v", e.Err)
}

func (e *UnloadError) Unwrap() error { return e.Err }

// ScanError is returned in strict-scan mode when the runtime directory cannot
// be listed.
type ScanError struct {
	Dir string
	Err error
}

func (e *ScanError) Error() string {
	return fmt.Sprintf("failed to scan runtime directory %s: %v", e.Dir, e.Err)
}

func (e *ScanError) Unwrap() error { return e.Err }

// IsStatus reports whether err is a StatusError produced by op.
func IsStatus(err error, op Op) bool {
	var se *StatusError
	return errors.As(err, &se) && se.Op == op
}
