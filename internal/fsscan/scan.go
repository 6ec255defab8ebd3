// Package fsscan lists the files of a single directory.
package fsscan

import (
	"fmt"
	"os"
)

// ListFiles returns dir+name for every entry of dir that is not a directory,
// in lexical order. Subdirectories are neither returned nor descended into,
// and dir is used verbatim as the prefix, so callers that want
// "dir/name" must pass a dir ending in a path separator.
//
// If dir cannot be read the result is empty and err describes why.
func ListFiles(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return []string{}, fmt.Errorf("fsscan: read %s: %w", dir, err)
	}

	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		files = append(files, dir+e.Name())
	}
	return files, nil
}
