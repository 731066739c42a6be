package loop

import (
	"path/filepath"
	"strings"
)

// relativePath shortens path to be relative to workDir when it lies inside it.
func relativePath(workDir, path string) string {
	if workDir == "" || path == "" || !filepath.IsAbs(path) {
		return path
	}
	rel, err := filepath.Rel(workDir, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}
