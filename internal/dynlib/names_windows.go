package dynlib

const (
	libraryPrefix = ""
	librarySuffix = ".dll"
)
