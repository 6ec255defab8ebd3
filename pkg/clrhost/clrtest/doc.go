// Package clrtest provides an in-memory stand-in for a CoreCLR runtime library.
//
// Runtime implements the loader, memory and binder capabilities a
// clrhost.Host needs, so lifecycle code can be exercised without a .NET
// installation. It records every call and lets tests inject failures.
//
// # Usage
//
//	rt := clrtest.New()
//	rt.RegisterString("ClassLibrary2", "ClassLibrary2.Class1", "Test", "hello")
//
//	h := clrhost.New(rt.Config())
//	_ = h.Initialize("./corehost", dir, "/app/")
//	d, _ := h.CreateDelegate("ClassLibrary2", "ClassLibrary2.Class1", "Test")
//	b, _ := h.InvokeBlock(d)
//	fmt.Println(b.String()) // hello
//	_ = b.Release()
//
// Managed methods are plain Go funcs. Unlike a real runtime, binding a
// delegate with the wrong signature fails with an error instead of crashing.
package clrtest
