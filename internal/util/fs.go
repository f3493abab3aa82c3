package util

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// EnsureDir creates path and any missing parents.
func EnsureDir(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("mkdir %s: %w", path, err)
	}
	return nil
}

// StoredName is the path an upload is kept under inside dir: id followed by
// the lowercased extension of the client-supplied name. Directory parts of
// original never reach the result.
func StoredName(dir, id, original string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(original)))
	return filepath.Join(dir, id+ext)
}
