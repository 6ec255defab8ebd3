package clrtest

import (
	"errors"
	"fmt"
	"reflect"
	"sync"
	"unsafe"

	"github.com/coinbase/clrhost-go/internal/dynlib"
	"github.com/coinbase/clrhost-go/pkg/clrhost"
)

// Status codes the fake returns on its own.
const (
	// StatusTypeLoad is COR_E_TYPELOAD, returned for an unknown method.
	StatusTypeLoad int32 = -2146233054
	// StatusInvalidHandle is returned when a call names a handle or domain
	// the fake did not issue.
	StatusInvalidHandle int32 = -2147024890
)

// InitCall records one coreclr_initialize call.
type InitCall struct {
	ExePath    string
	HostName   string
	Keys       []string
	Properties map[string]string
}

// Runtime is a fake runtime library. Exported knob fields may be changed
// between calls; recorded fields should be read through the accessor methods.
type Runtime struct {
	// LoadErr makes Load fail.
	LoadErr error
	// PinErr makes Pin fail.
	PinErr error
	// UnloadErr makes Unload fail.
	UnloadErr error
	// MissingSymbols lists exports Lookup reports as absent.
	MissingSymbols map[string]bool
	// InitializeStatus, ShutdownStatus and CreateDelegateStatus are returned
	// by the corresponding entry point when non-zero.
	InitializeStatus     int32
	ShutdownStatus       int32
	CreateDelegateStatus int32
	// ExitCode is reported by a successful shutdown.
	ExitCode int32

	mu        sync.Mutex
	loaded    map[dynlib.Handle]string
	nextLib   dynlib.Handle
	loads     []string
	pins      []string
	unloads   int
	inits     []InitCall
	shutdowns int

	funcs    map[uintptr]any
	symbols  map[string]uintptr
	managed  map[string]uintptr
	nextAddr uintptr

	live     bool
	handle   uintptr
	domainID uint32

	blocks map[unsafe.Pointer][]byte
	freed  int
}

// New returns a fake runtime with no managed methods.
func New() *Runtime {
	r := &Runtime{
		loaded:   make(map[dynlib.Handle]string),
		nextLib:  0x1000,
		funcs:    make(map[uintptr]any),
		symbols:  make(map[string]uintptr),
		managed:  make(map[string]uintptr),
		nextAddr: 0x7f0000,
		blocks:   make(map[unsafe.Pointer][]byte),
	}
	r.symbols[clrhost.SymbolInitialize] = r.register(clrhost.InitializeFunc(r.initialize))
	r.symbols[clrhost.SymbolShutdown] = r.register(clrhost.ShutdownFunc(r.shutdown))
	r.symbols[clrhost.SymbolCreateDelegate] = r.register(clrhost.CreateDelegateFunc(r.createDelegate))
	return r
}

// Config returns a clrhost.Config wired to r.
func (r *Runtime) Config() clrhost.Config {
	return clrhost.Config{Loader: r, Memory: r, Binder: r}
}

func (r *Runtime) register(fn any) uintptr {
	r.nextAddr += 0x10
	r.funcs[r.nextAddr] = fn
	return r.nextAddr
}

func methodKey(assembly, typeName, method string) string {
	return assembly + "\x00" + typeName + "\x00" + method
}

// RegisterMethod makes fn resolvable as assembly/typeName/method.
func (r *Runtime) RegisterMethod(assembly, typeName, method string, fn any) {
	if reflect.TypeOf(fn).Kind() != reflect.Func {
		panic(fmt.Sprintf("clrtest: managed method must be a func, got %T", fn))
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.managed[methodKey(assembly, typeName, method)] = r.register(fn)
}

// RegisterString registers a method that returns a freshly allocated
// NUL-terminated copy of value on every call.
func (r *Runtime) RegisterString(assembly, typeName, method, value string) {
	r.RegisterMethod(assembly, typeName, method, func() unsafe.Pointer {
		return r.Alloc(value)
	})
}

// Alloc returns a runtime-owned NUL-terminated copy of s. It must be released
// through Free.
func (r *Runtime) Alloc(s string) unsafe.Pointer {
	b := make([]byte, len(s)+1)
	copy(b, s)
	p := unsafe.Pointer(&b[0])

	r.mu.Lock()
	r.blocks[p] = b
	r.mu.Unlock()
	return p
}

// Load implements dynlib.Loader.
func (r *Runtime) Load(path string) (dynlib.Handle, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.loads = append(r.loads, path)
	if r.LoadErr != nil {
		return 0, r.LoadErr
	}
	r.nextLib++
	r.loaded[r.nextLib] = path
	return r.nextLib, nil
}

// Pin implements dynlib.Loader.
func (r *Runtime) Pin(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pins = append(r.pins, path)
	return r.PinErr
}

// Unload implements dynlib.Loader.
func (r *Runtime) Unload(h dynlib.Handle) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.UnloadErr != nil {
		return r.UnloadErr
	}
	if _, ok := r.loaded[h]; !ok {
		return fmt.Errorf("clrtest: unload of unknown handle %d", h)
	}
	delete(r.loaded, h)
	r.unloads++
	return nil
}

// Lookup implements dynlib.Loader.
func (r *Runtime) Lookup(h dynlib.Handle, name string) (uintptr, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.loaded[h]; !ok {
		return 0, dynlib.ErrNullHandle
	}
	addr, ok := r.symbols[name]
	if !ok || r.MissingSymbols[name] {
		return 0, &dynlib.SymbolError{Name: name}
	}
	return addr, nil
}

// Bind implements dynlib.Binder by assigning the Go func registered at addr.
// The registered func must be convertible to the target type.
func (r *Runtime) Bind(fnPtr any, addr uintptr) error {
	r.mu.Lock()
	impl, ok := r.funcs[addr]
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("clrtest: no function at address %#x", addr)
	}

	target := reflect.ValueOf(fnPtr)
	if target.Kind() != reflect.Pointer || target.IsNil() || target.Elem().Kind() != reflect.Func {
		return fmt.Errorf("clrtest: bind target must be a non-nil pointer to a func, got %T", fnPtr)
	}
	v := reflect.ValueOf(impl)
	if !v.Type().ConvertibleTo(target.Elem().Type()) {
		return fmt.Errorf("clrtest: signature mismatch: have %s, want %s", v.Type(), target.Elem().Type())
	}
	target.Elem().Set(v.Convert(target.Elem().Type()))
	return nil
}

// Free implements dynlib.Memory. Freeing a pointer twice, or one the fake did
// not allocate, is an error.
func (r *Runtime) Free(p unsafe.Pointer) error {
	if p == nil {
		return nil
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.blocks[p]; !ok {
		return errors.New("clrtest: free of unknown or already freed block")
	}
	delete(r.blocks, p)
	r.freed++
	return nil
}

func (r *Runtime) initialize(exePath, hostName string, n int32, keys, values unsafe.Pointer, hostHandle *uintptr, domainID *uint32) int32 {
	k := dynlib.GoStrings(keys, int(n))
	v := dynlib.GoStrings(values, int(n))
	props := make(map[string]string, len(k))
	for i := range k {
		props[k[i]] = v[i]
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.inits = append(r.inits, InitCall{ExePath: exePath, HostName: hostName, Keys: k, Properties: props})
	if r.InitializeStatus != 0 {
		return r.InitializeStatus
	}
	r.live = true
	r.handle = 0xC0DE0000 + uintptr(len(r.inits))
	r.domainID = uint32(len(r.inits))
	*hostHandle = r.handle
	*domainID = r.domainID
	return 0
}

func (r *Runtime) shutdown(hostHandle uintptr, domainID uint32, exitCode *int32) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shutdowns++
	if !r.live || hostHandle != r.handle || domainID != r.domainID {
		return StatusInvalidHandle
	}
	if r.ShutdownStatus != 0 {
		return r.ShutdownStatus
	}
	r.live = false
	*exitCode = r.ExitCode
	return 0
}

func (r *Runtime) createDelegate(hostHandle uintptr, domainID uint32, assembly, typeName, method string, delegate *uintptr) int32 {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.live || hostHandle != r.handle || domainID != r.domainID {
		return StatusInvalidHandle
	}
	if r.CreateDelegateStatus != 0 {
		return r.CreateDelegateStatus
	}
	addr, ok := r.managed[methodKey(assembly, typeName, method)]
	if !ok {
		return StatusTypeLoad
	}
	*delegate = addr
	return 0
}

// Loads returns every path passed to Load.
func (r *Runtime) Loads() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.loads...)
}

// Pins returns every path passed to Pin.
func (r *Runtime) Pins() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.pins...)
}

// Unloads returns the number of successful Unload calls.
func (r *Runtime) Unloads() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.unloads
}

// LoadedLibraries returns the number of handles not yet unloaded.
func (r *Runtime) LoadedLibraries() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.loaded)
}

// InitCalls returns every coreclr_initialize call.
func (r *Runtime) InitCalls() []InitCall {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]InitCall(nil), r.inits...)
}

// Shutdowns returns the number of coreclr_shutdown_2 calls.
func (r *Runtime) Shutdowns() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.shutdowns
}

// Live reports whether a runtime instance is initialized.
func (r *Runtime) Live() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.live
}

// OutstandingBlocks returns the number of allocated blocks not yet freed.
func (r *Runtime) OutstandingBlocks() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.blocks)
}

// Freed returns the number of blocks released through Free.
func (r *Runtime) Freed() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.freed
}
