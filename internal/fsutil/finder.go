// Package fsutil provides file system utility functions.
package fsutil

import (
	"fmt"
	"os"
	"sort"
	"strings"
)

// ListBySuffix returns the names of all regular files directly inside dir
// whose name ends with any of the given suffixes. The result is sorted so
// staging order is deterministic. Subdirectories are not descended into;
// the pipeline source keeps its data flat apart from named subdirectories
// that are copied recursively via CopyDir.
func ListBySuffix(dir string, suffixes []string) ([]string, error) {
	if len(suffixes) == 0 {
		panic("suffixes must not be empty")
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reading source directory %s: %w", dir, err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		for _, suffix := range suffixes {
			if strings.HasSuffix(e.Name(), suffix) {
				names = append(names, e.Name())
				break
			}
		}
	}

	sort.Strings(names)
	return names, nil
}
