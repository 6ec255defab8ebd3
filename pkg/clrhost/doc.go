// Package clrhost embeds a CoreCLR runtime into a Go process through the
// runtime's native hosting ABI (coreclr_initialize, coreclr_create_delegate,
// coreclr_shutdown_2).
//
// A Host walks a strict lifecycle:
//
//	unloaded -> library-loaded -> initialized -> (shutdown) -> unloaded
//
// Typical use:
//
//	h := clrhost.New(clrhost.Config{})
//	if err := h.Initialize("./corehost", runtimeDir, appDir); err != nil {
//	    return err
//	}
//	defer h.Close()
//
//	d, err := h.CreateDelegate("ClassLibrary2", "ClassLibrary2.Class1", "Test")
//	if err != nil {
//	    return err
//	}
//	return h.WithBlock(d, func(b *clrhost.UnmanagedBlock) error {
//	    fmt.Println(b.String())
//	    return nil
//	})
//
// Delegates carry no type information. BindDelegate lets the caller state the
// native shape of the managed method; getting it wrong is undefined behavior.
// Memory returned by managed code is wrapped in an UnmanagedBlock and must be
// released through it, never through the Go or C allocator directly.
//
// No call into the runtime can be cancelled, so nothing here takes a
// context.Context. A hang inside the runtime blocks the caller.
package clrhost
