//go:build !darwin && !freebsd && !linux && !windows

package dynlib

import "unsafe"

// Stub implementation for platforms without a loader backend. Every
// operation reports ErrUnsupported.

type nativePlatform struct{}

func (nativePlatform) Load(string) (Handle, error) { return 0, ErrUnsupported }
func (nativePlatform) Pin(string) error { return ErrUnsupported }
func (nativePlatform) Unload(Handle) error { return ErrUnsupported }
func (nativePlatform) Lookup(Handle, string) (uintptr, error) { return 0, ErrUnsupported }
func (nativePlatform) Free(unsafe.Pointer) error { return ErrUnsupported }
func (nativePlatform) Bind(fnPtr any, addr uintptr) error { return Bind(fnPtr, addr) }

func registerFunc(any, uintptr) error { return ErrUnsupported }
