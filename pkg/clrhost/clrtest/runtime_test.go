package clrtest

import (
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/coinbase/clrhost-go/internal/dynlib"
	"github.com/coinbase/clrhost-go/pkg/clrhost"
)

func TestLookupRequiresLoadedHandle(t *testing.T) {
	rt := New()
	_, err := rt.Lookup(42, clrhost.SymbolInitialize)
	require.Error(t, err)

	h, err := rt.Load("/rt/libcoreclr.so")
	require.NoError(t, err)
	addr, err := rt.Lookup(h, clrhost.SymbolInitialize)
	require.NoError(t, err)
	assert.NotZero(t, addr)
}

func TestMissingSymbol(t *testing.T) {
	rt := New()
	rt.MissingSymbols = map[string]bool{clrhost.SymbolShutdown: true}
	h, err := rt.Load("/rt/libcoreclr.so")
	require.NoError(t, err)

	_, err = rt.Lookup(h, clrhost.SymbolShutdown)
	var symErr *dynlib.SymbolError
	require.ErrorAs(t, err, &symErr)
	assert.Equal(t, clrhost.SymbolShutdown, symErr.Name)
}

func TestBindSignatureMismatch(t *testing.T) {
	rt := New()
	rt.RegisterMethod("Lib", "Lib.Math", "Add", func(a, b int32) int32 { return a + b })
	addr := rt.managed[methodKey("Lib", "Lib.Math", "Add")]

	var wrong func() unsafe.Pointer
	err := rt.Bind(&wrong, addr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "signature mismatch")

	var add func(int32, int32) int32
	require.NoError(t, rt.Bind(&add, addr))
	assert.Equal(t, int32(5), add(2, 3))
}

func TestFreeTracksBlocks(t *testing.T) {
	rt := New()
	p := rt.Alloc("hello")
	assert.Equal(t, "hello", dynlib.GoString(p))
	assert.Equal(t, 1, rt.OutstandingBlocks())

	require.NoError(t, rt.Free(p))
	assert.Equal(t, 0, rt.OutstandingBlocks())
	assert.Equal(t, 1, rt.Freed())

	assert.Error(t, rt.Free(p), "double free")
	assert.NoError(t, rt.Free(nil))
}

func TestUnloadUnknownHandle(t *testing.T) {
	rt := New()
	assert.Error(t, rt.Unload(7))
}
