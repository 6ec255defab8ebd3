// Package internalcheck holds static policy tests for the module.
//
// The tests load the module's packages with golang.org/x/tools/go/packages
// and inspect imports and syntax:
//
//   - only internal/dynlib may import the native loader packages (purego,
//     golang.org/x/sys/windows, syscall, plugin, cgo);
//   - hexadecimal status formatting in pkg/clrhost goes through Status.String
//     in errors.go.
//
// It has no non-test code and is not meant to be imported.
package internalcheck
