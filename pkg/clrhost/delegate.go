package clrhost

import (
	"fmt"
	"reflect"
)

// Delegate is a native-callable pointer to a static managed method, produced by
// Host.CreateDelegate. It carries no signature: the caller supplies one when
// binding it.
type Delegate struct {
	Assembly string
	Type     string
	Method   string

	addr   uintptr
	binder Binder
}

// Addr returns the native entry address of the delegate.
func (d Delegate) Addr() uintptr { return d.addr }

// IsZero reports whether d was never resolved.
func (d Delegate) IsZero() bool { return d.addr == 0 }

func (d Delegate) String() string {
	return fmt.Sprintf("[%s]%s::%s", d.Assembly, d.Type, d.Method)
}

// BindDelegate returns a Go function of type F that calls d. F is the
// capability the caller asserts the managed method has, for example
// func(int32, int32) int32 or func() unsafe.Pointer.
//
// The native boundary cannot check F against the managed signature. Calling a
// delegate bound with the wrong F is undefined behavior and may corrupt the
// process. The delegate is only valid while the Host that created it stays
// initialized.
func BindDelegate[F any](d Delegate) (F, error) {
	var fn F
	if t := reflect.TypeOf(&fn).Elem(); t.Kind() != reflect.Func {
		return fn, fmt.Errorf("clrhost: delegate signature must be a func type, got %s", t)
	}
	if d.addr == 0 || d.binder == nil {
		return fn, ErrNullDelegate
	}
	if err := d.binder.Bind(&fn, d.addr); err != nil {
		return fn, fmt.Errorf("clrhost: bind delegate %s: %w", d, err)
	}
	return fn, nil
}
