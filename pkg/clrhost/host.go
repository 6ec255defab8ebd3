package clrhost

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/coinbase/clrhost-go/internal/dynlib"
	"github.com/coinbase/clrhost-go/pkg/clrhost/logging"
)

// State is the lifecycle position of a Host.
type State int

const (
	// StateUnloaded means no runtime library is mapped.
	StateUnloaded State = iota
	// StateLibraryLoaded means the library is loaded and its exports are
	// resolved, but no runtime instance exists.
	StateLibraryLoaded
	// StateInitialized means a runtime instance and domain are live.
	StateInitialized
)

func (s State) String() string {
	switch s {
	case StateUnloaded:
		return "unloaded"
	case StateLibraryLoaded:
		return "library-loaded"
	case StateInitialized:
		return "initialized"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Host owns one runtime library and at most one runtime instance loaded from
// it. All methods are safe for concurrent use; calls are serialized.
//
// The runtime itself supports a single initialize/shutdown cycle per process.
// Host does not enforce that, so repeated cycles work against runtimes (and
// fakes) that allow them.
type Host struct {
	mu  sync.Mutex
	cfg Config
	log logging.Logger

	state   State
	libPath string
	lib     dynlib.Handle
	exp     exports

	handle   uintptr
	domainID uint32
}

// New returns an unloaded Host.
func New(cfg Config) *Host {
	cfg = cfg.withDefaults()
	return &Host{cfg: cfg, log: cfg.Logger}
}

// State returns the current lifecycle state.
func (h *Host) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// DomainID returns the id of the live runtime domain. ok is false unless the
// host is initialized.
func (h *Host) DomainID() (id uint32, ok bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.domainID, h.state == StateInitialized
}

// LoadRuntimeLibrary loads the runtime library from runtimeDir, pins it and
// resolves the hosting entry points. It is only valid in StateUnloaded.
//
// On any failure after the library was opened, the library is released again
// and the host stays unloaded.
func (h *Host) LoadRuntimeLibrary(runtimeDir string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StateUnloaded {
		return fmt.Errorf("%w (state %s)", ErrAlreadyLoaded, h.state)
	}
	return h.loadLocked(runtimeDir)
}

func (h *Host) loadLocked(runtimeDir string) error {
	ctx := context.Background()
	path := withTrailingSeparator(runtimeDir) + h.cfg.LibraryFileName

	lib, err := h.cfg.Loader.Load(path)
	if err != nil || lib == 0 {
		if err == nil {
			err = dynlib.ErrNullHandle
		}
		return &LoadError{Path: path, Err: err}
	}

	if err := h.cfg.Loader.Pin(path); err != nil {
		h.releaseAfterFailure(lib)
		return &PinError{Path: path, Err: err}
	}

	exp, err := resolveExports(h.cfg.Loader, h.cfg.Binder, lib)
	if err != nil {
		h.releaseAfterFailure(lib)
		return err
	}

	h.lib, h.libPath, h.exp = lib, path, exp
	h.state = StateLibraryLoaded
	h.log.Debug(ctx, "runtime library loaded", "path", path)
	return nil
}

// releaseAfterFailure unloads a library whose setup did not complete. Unload
// errors are logged and the setup error is returned to the caller.
func (h *Host) releaseAfterFailure(lib dynlib.Handle) {
	if err := h.cfg.Loader.Unload(lib); err != nil {
		h.log.Debug(context.Background(), "unload after failed setup", "error", err)
	}
}

// Initialize creates the runtime instance. The library is loaded from
// runtimeDir first if that has not happened yet. The trusted platform
// assemblies list is built from runtimeDir on every call; appPath is passed
// verbatim as both APP_PATHS and APP_NI_PATHS.
//
// Initialize on an initialized host fails with ErrAlreadyInitialized and
// leaves the live instance alone. If the runtime rejects initialization the
// host stays in StateLibraryLoaded.
func (h *Host) Initialize(exePath, runtimeDir, appPath string) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case StateInitialized:
		return ErrAlreadyInitialized
	case StateUnloaded:
		if err := h.loadLocked(runtimeDir); err != nil {
			return err
		}
	}

	ctx := context.Background()
	dir := withTrailingSeparator(runtimeDir)

	tpa, err := BuildTPAList(dir)
	if err != nil {
		if h.cfg.StrictScan {
			return &ScanError{Dir: dir, Err: err}
		}
		h.log.Debug(ctx, "runtime directory not scanned", "dir", dir, "error", err)
	}

	keys, values, err := h.cfg.runtimeProperties(tpa, appPath)
	if err != nil {
		return err
	}
	keyArr, err := dynlib.NewCStringArray(keys)
	if err != nil {
		return fmt.Errorf("runtime property keys: %w", err)
	}
	valueArr, err := dynlib.NewCStringArray(values)
	if err != nil {
		return fmt.Errorf("runtime property values: %w", err)
	}

	h.log.Debug(ctx, "initializing runtime",
		"exe", exePath,
		"host", h.cfg.HostName,
		"app_path", appPath,
		logging.PathList("tpa", tpa, PathListSeparator),
	)

	var handle uintptr
	var domainID uint32
	st := h.exp.initialize(
		exePath,
		h.cfg.HostName,
		int32(keyArr.Len()),
		keyArr.Pointer(),
		valueArr.Pointer(),
		&handle,
		&domainID,
	)
	runtime.KeepAlive(keyArr)
	runtime.KeepAlive(valueArr)

	if st != 0 {
		return &StatusError{Op: OpInitialize, Status: Status(st)}
	}

	h.handle, h.domainID = handle, domainID
	h.state = StateInitialized
	h.log.Debug(ctx, "runtime initialized", "domain_id", domainID)
	return nil
}

// CreateDelegate resolves a static managed method to a native-callable
// delegate. It may be called any number of times while initialized.
func (h *Host) CreateDelegate(assembly, typeName, method string) (Delegate, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.state != StateInitialized {
		return Delegate{}, ErrNotInitialized
	}

	var addr uintptr
	st := h.exp.createDelegate(h.handle, h.domainID, assembly, typeName, method, &addr)
	if st != 0 {
		return Delegate{}, &StatusError{Op: OpCreateDelegate, Status: Status(st)}
	}

	h.log.Debug(context.Background(), "delegate created",
		"assembly", assembly, "type", typeName, "method", method)
	return Delegate{
		Assembly: assembly,
		Type:     typeName,
		Method:   method,
		addr:     addr,
		binder:   h.cfg.Binder,
	}, nil
}

// Shutdown stops the runtime instance and unloads the library, returning the
// managed exit code.
//
// If the runtime reports a shutdown failure the library is not unloaded and
// the host stays initialized. If only the unload fails, the instance is gone
// and the host is left in StateLibraryLoaded.
func (h *Host) Shutdown() (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.shutdownLocked()
}

func (h *Host) shutdownLocked() (int, error) {
	if h.state != StateInitialized {
		return 0, ErrNotInitialized
	}

	var exitCode int32
	st := h.exp.shutdown(h.handle, h.domainID, &exitCode)
	if st != 0 {
		return 0, &StatusError{Op: OpShutdown, Status: Status(st)}
	}

	h.handle, h.domainID = 0, 0
	h.state = StateLibraryLoaded
	h.log.Debug(context.Background(), "runtime shut down", "exit_code", exitCode)

	if err := h.unloadLocked(); err != nil {
		return int(exitCode), err
	}
	return int(exitCode), nil
}

func (h *Host) unloadLocked() error {
	if err := h.cfg.Loader.Unload(h.lib); err != nil {
		return &UnloadError{Err: err}
	}
	h.log.Debug(context.Background(), "runtime library unloaded", "path", h.libPath)
	h.lib, h.libPath, h.exp = 0, "", exports{}
	h.state = StateUnloaded
	return nil
}

// Close returns the host to StateUnloaded from any state: it shuts the
// runtime down if needed and unloads the library.
func (h *Host) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	switch h.state {
	case StateInitialized:
		_, err := h.shutdownLocked()
		return err
	case StateLibraryLoaded:
		return h.unloadLocked()
	}
	return nil
}

// InvokeBlock calls d as a function taking no arguments and returning a
// runtime-allocated block, and hands ownership of that block to the caller.
func (h *Host) InvokeBlock(d Delegate) (*UnmanagedBlock, error) {
	call, err := BindDelegate[func() unsafe.Pointer](d)
	if err != nil {
		return nil, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.state != StateInitialized {
		return nil, ErrNotInitialized
	}
	return newUnmanagedBlock(call(), h.cfg.Memory), nil
}

// WithBlock invokes d like InvokeBlock and passes the block to fn. The block
// is released when fn returns or panics; a release failure is joined with
// whatever fn returned.
func (h *Host) WithBlock(d Delegate, fn func(*UnmanagedBlock) error) (err error) {
	b, err := h.InvokeBlock(d)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := b.Release(); rerr != nil {
			err = errors.Join(err, rerr)
		}
	}()
	return fn(b)
}
