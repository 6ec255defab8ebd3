package clrhost

import (
	"fmt"
	"unsafe"

	"github.com/coinbase/clrhost-go/internal/dynlib"
)

// Exported entry points of the runtime's native hosting ABI.
const (
	SymbolInitialize     = "coreclr_initialize"
	SymbolShutdown       = "coreclr_shutdown_2"
	SymbolCreateDelegate = "coreclr_create_delegate"
)

// RuntimeLibrary is the base name of the runtime shared library;
// dynlib.LibraryFileName turns it into libcoreclr.so, libcoreclr.dylib or
// coreclr.dll.
const RuntimeLibrary = "coreclr"

// Property keys the host always passes to coreclr_initialize.
const (
	PropertyTrustedPlatformAssemblies = "TRUSTED_PLATFORM_ASSEMBLIES"
	PropertyAppPaths                  = "APP_PATHS"
	PropertyAppNIPaths                = "APP_NI_PATHS"
)

// DefaultHostName is the app domain friendly name passed to coreclr_initialize.
const DefaultHostName = "corerun"

// InitializeFunc has the shape of coreclr_initialize. propertyKeys and
// propertyValues point at arrays of propertyCount NUL-terminated strings.
type InitializeFunc func(
	exePath string,
	appDomainFriendlyName string,
	propertyCount int32,
	propertyKeys unsafe.Pointer,
	propertyValues unsafe.Pointer,
	hostHandle *uintptr,
	domainID *uint32,
) int32

// ShutdownFunc has the shape of coreclr_shutdown_2.
type ShutdownFunc func(hostHandle uintptr, domainID uint32, latchedExitCode *int32) int32

// CreateDelegateFunc has the shape of coreclr_create_delegate.
type CreateDelegateFunc func(
	hostHandle uintptr,
	domainID uint32,
	entryPointAssemblyName string,
	entryPointTypeName string,
	entryPointMethodName string,
	delegate *uintptr,
) int32

// exports holds the resolved entry points of one loaded runtime library.
type exports struct {
	initialize     InitializeFunc
	shutdown       ShutdownFunc
	createDelegate CreateDelegateFunc
}

// resolveExports looks up and binds the three required entry points, failing
// on the first one that is missing.
func resolveExports(l dynlib.Loader, b dynlib.Binder, h dynlib.Handle) (exports, error) {
	var e exports
	targets := []struct {
		name string
		fn   any
	}{
		{SymbolInitialize, &e.initialize},
		{SymbolShutdown, &e.shutdown},
		{SymbolCreateDelegate, &e.createDelegate},
	}

	for _, t := range targets {
		addr, err := l.Lookup(h, t.name)
		if err != nil || addr == 0 {
			return exports{}, &SymbolNotFoundError{Symbol: t.name, Err: err}
		}
		if err := b.Bind(t.fn, addr); err != nil {
			return exports{}, fmt.Errorf("bind %s: %w", t.name, err)
		}
	}
	return e, nil
}
