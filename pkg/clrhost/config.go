package clrhost

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/coinbase/clrhost-go/internal/dynlib"
	"github.com/coinbase/clrhost-go/pkg/clrhost/logging"
)

// Loader, Memory and Binder are the platform capabilities a Host depends on.
// The zero Config uses the native implementations for the running OS; tests
// substitute fakes such as clrtest.Runtime.
type (
	Loader        = dynlib.Loader
	Memory        = dynlib.Memory
	Binder        = dynlib.Binder
	LibraryHandle = dynlib.Handle
)

// Config expresses the knobs of a Host. Every field is optional.
type Config struct {
	// Loader opens the runtime library and resolves its exports.
	Loader Loader

	// Memory frees blocks returned by managed code.
	Memory Memory

	// Binder turns native addresses into callable Go functions.
	Binder Binder

	// Logger receives debug-level lifecycle events. Nil binds to slog.Default().
	Logger logging.Logger

	// HostName is the app domain friendly name. Defaults to DefaultHostName.
	HostName string

	// LibraryFileName overrides the platform runtime library file name.
	LibraryFileName string

	// Properties are extra runtime properties passed after the three the host
	// always sets. Keys must not collide with those.
	Properties map[string]string

	// StrictScan makes an unreadable runtime directory an error instead of
	// silently producing an empty trusted assemblies list.
	StrictScan bool
}

func (c Config) withDefaults() Config {
	if c.Loader == nil || c.Memory == nil || c.Binder == nil {
		native := dynlib.Native()
		if c.Loader == nil {
			c.Loader = native
		}
		if c.Memory == nil {
			c.Memory = native
		}
		if c.Binder == nil {
			c.Binder = native
		}
	}
	if c.Logger == nil {
		c.Logger = logging.New(nil)
	}
	if c.HostName == "" {
		c.HostName = DefaultHostName
	}
	if c.LibraryFileName == "" {
		c.LibraryFileName = dynlib.LibraryFileName(RuntimeLibrary)
	}
	return c
}

// runtimeProperties returns the keys and values passed to coreclr_initialize:
// the trusted assemblies list and both app paths, then the extra properties
// sorted by key.
func (c Config) runtimeProperties(tpa, appPath string) (keys, values []string, err error) {
	keys = []string{PropertyTrustedPlatformAssemblies, PropertyAppPaths, PropertyAppNIPaths}
	values = []string{tpa, appPath, appPath}

	extra := make([]string, 0, len(c.Properties))
	for k := range c.Properties {
		switch k {
		case PropertyTrustedPlatformAssemblies, PropertyAppPaths, PropertyAppNIPaths:
			return nil, nil, fmt.Errorf("%w: %s", ErrReservedProperty, k)
		}
		extra = append(extra, k)
	}
	sort.Strings(extra)
	for _, k := range extra {
		keys = append(keys, k)
		values = append(values, c.Properties[k])
	}
	return keys, values, nil
}

// withTrailingSeparator makes dir usable as a verbatim file name prefix. An
// empty dir stays empty so the loader's own search path applies.
func withTrailingSeparator(dir string) string {
	if dir == "" || strings.HasSuffix(dir, "/") || strings.HasSuffix(dir, string(os.PathSeparator)) {
		return dir
	}
	return dir + string(os.PathSeparator)
}
