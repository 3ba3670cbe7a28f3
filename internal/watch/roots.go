package watch

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// DiscoverRoots lists the immediate subdirectories of watchRoot. Each one is
// watched as its own root; files directly inside watchRoot are not.
func DiscoverRoots(watchRoot string) ([]string, error) {
	entries, err := os.ReadDir(watchRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to read watch root: %w", err)
	}

	var roots []string
	for _, entry := range entries {
		if entry.IsDir() {
			roots = append(roots, filepath.Join(watchRoot, entry.Name()))
		}
	}

	sort.Strings(roots)
	return roots, nil
}
