package dynlib

const (
	libraryPrefix = "lib"
	librarySuffix = ".dylib"
)
