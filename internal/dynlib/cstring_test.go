package dynlib

import (
	"errors"
	"runtime"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCStringRoundTrip(t *testing.T) {
	for _, s := range []string{"", "corerun", "/usr/share/dotnet/shared/Microsoft.NETCore.App/2.0.0/"} {
		p, err := CString(s)
		require.NoError(t, err)
		assert.Equal(t, s, GoString(unsafe.Pointer(p)))
	}
}

func TestCStringRejectsNul(t *testing.T) {
	_, err := CString("bad\x00value")
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNulInString))
}

func TestGoStringNil(t *testing.T) {
	assert.Equal(t, "", GoString(nil))
}

func TestCStringArray(t *testing.T) {
	in := []string{"TRUSTED_PLATFORM_ASSEMBLIES", "APP_PATHS", "APP_NI_PATHS"}
	arr, err := NewCStringArray(in)
	require.NoError(t, err)
	require.Equal(t, 3, arr.Len())

	got := GoStrings(arr.Pointer(), arr.Len())
	runtime.KeepAlive(arr)
	assert.Equal(t, in, got)
}

func TestCStringArrayEmpty(t *testing.T) {
	arr, err := NewCStringArray(nil)
	require.NoError(t, err)
	assert.Equal(t, 0, arr.Len())
	assert.Nil(t, arr.Pointer())
	assert.Nil(t, GoStrings(arr.Pointer(), arr.Len()))
}

func TestCStringArrayReportsIndex(t *testing.T) {
	_, err := NewCStringArray([]string{"ok", "no\x00"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "element 1")
	assert.True(t, errors.Is(err, ErrNulInString))
}
