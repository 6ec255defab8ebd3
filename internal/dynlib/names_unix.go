//go:build !windows && !darwin

package dynlib

const (
	libraryPrefix = "lib"
	librarySuffix = ".so"
)
