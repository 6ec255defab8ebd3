// Package dynlib is the platform library adapter: it loads, pins, unloads and
// inspects native shared libraries, frees runtime-allocated memory and turns
// native addresses into callable Go functions.
//
// # Design Principles
//
// 1. Isolation: ALL operating-system loader calls live in this package. No
//    other package in the module may import purego, golang.org/x/sys/windows
//    or "C". The internalcheck tests enforce this.
//
// 2. Sentinels: a failed Load or Lookup returns the zero value together with
//    an error. Nothing panics for a missing file or symbol.
//
// 3. Memory Ownership: strings handed to native code are NUL-terminated
//    copies owned by Go. Callers keep them alive with runtime.KeepAlive until
//    the native call returns.
//
// 4. Platform Variance: Pin is meaningful only on Windows; elsewhere it is a
//    no-op that always succeeds.
//
// # Threading
//
// Nothing in this package keeps per-library state, so calls are as
// thread-safe as the underlying OS loader. Functions bound with Bind run on
// the calling goroutine.
package dynlib
