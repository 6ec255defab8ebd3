package clrhost

import (
	"strings"

	"github.com/coinbase/clrhost-go/internal/dynlib"
	"github.com/coinbase/clrhost-go/internal/fsscan"
)

// TPAExtensions lists the assembly file extensions considered for the trusted
// platform assemblies list, highest priority first. Native images precede
// their IL counterparts so that a precompiled copy wins.
var TPAExtensions = []string{
	".ni.dll",
	".dll",
	".ni.exe",
	".exe",
	".ni.winmd",
	".winmd",
}

// PathListSeparator is the delimiter used to join TPA entries.
const PathListSeparator = dynlib.PathListSeparator

// BuildTPAList scans dir once and returns the trusted platform assemblies list
// for it. Each entry is followed by PathListSeparator. If dir cannot be listed
// the list is empty and the scan error is returned alongside it; callers decide
// whether that is fatal.
func BuildTPAList(dir string) (string, error) {
	files, err := fsscan.ListFiles(dir)
	return JoinPathList(TPAEntries(files)), err
}

// TPAEntries picks one file per assembly base name. Extensions are visited in
// TPAExtensions order and files in the given order within each extension; the
// first file to claim a base name wins and later matches are dropped.
//
// A file belongs to the first extension in TPAExtensions it ends with, so
// "A.ni.dll" has base name "A" and is never reconsidered as "A.ni" + ".dll".
func TPAEntries(files []string) []string {
	var entries []string
	claimed := make(map[string]struct{})

	for _, ext := range TPAExtensions {
		for _, file := range files {
			if tpaExtension(file) != ext {
				continue
			}
			base := strings.TrimSuffix(file, ext)
			if _, ok := claimed[base]; ok {
				continue
			}
			claimed[base] = struct{}{}
			entries = append(entries, file)
		}
	}
	return entries
}

// tpaExtension returns the highest-priority extension file ends with, or "".
func tpaExtension(file string) string {
	for _, ext := range TPAExtensions {
		if strings.HasSuffix(file, ext) {
			return ext
		}
	}
	return ""
}

// JoinPathList joins entries with a trailing PathListSeparator after each one.
func JoinPathList(entries []string) string {
	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e)
		b.WriteString(PathListSeparator)
	}
	return b.String()
}

// SplitPathList is the inverse of JoinPathList. Empty elements are dropped.
func SplitPathList(list string) []string {
	var out []string
	for _, e := range strings.Split(list, PathListSeparator) {
		if e != "" {
			out = append(out, e)
		}
	}
	return out
}
