package dynlib

import (
	"errors"
	"fmt"
	"reflect"
)

var errNullAddress = errors.New("dynlib: bind to null address")

// Bind registers addr as the implementation of the func variable fnPtr points
// to. The signature is not and cannot be verified against the native side; a
// mismatch is undefined behavior at the call site.
func Bind(fnPtr any, addr uintptr) (err error) {
	if err := checkFuncPtr(fnPtr); err != nil {
		return err
	}
	if addr == 0 {
		return errNullAddress
	}

	// purego panics on signatures it cannot marshal.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("dynlib: bind %T: %v", fnPtr, r)
		}
	}()
	return registerFunc(fnPtr, addr)
}

func checkFuncPtr(fnPtr any) error {
	v := reflect.ValueOf(fnPtr)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Kind() != reflect.Func {
		return fmt.Errorf("dynlib: bind target must be a non-nil pointer to a func, got %T", fnPtr)
	}
	return nil
}
