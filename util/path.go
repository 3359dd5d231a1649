package util

import (
	"os"
	"path/filepath"
	"strings"
)

// ExpandUser replaces a leading ~/ with the home directory.
func ExpandUser(path string) string {
	if !strings.HasPrefix(path, "~/") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[2:])
}
