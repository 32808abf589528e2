// Package util holds small path and test helpers shared across packages.
//
//nolint:revive // var-naming - package name is meaningful
package util

import (
	"os"
	"path/filepath"
	"strings"
)

// HomeDir returns the user's home directory
func HomeDir() string {
	home, _ := os.UserHomeDir()
	return home
}

// ExpandPath expands a leading ~ to the home directory and resolves a
// relative path against baseDir. An empty baseDir leaves relative paths
// relative, which keeps catalog path attributes short.
func ExpandPath(path, baseDir string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		return HomeDir()
	}
	if strings.HasPrefix(path, "~/") {
		return filepath.Join(HomeDir(), path[2:])
	}
	if baseDir != "" && !filepath.IsAbs(path) {
		return filepath.Join(baseDir, path)
	}
	return filepath.Clean(path)
}

// ExpandPaths applies ExpandPath to every entry, dropping empty results.
func ExpandPaths(paths []string, baseDir string) []string {
	out := make([]string, 0, len(paths))
	for _, p := range paths {
		if expanded := ExpandPath(p, baseDir); expanded != "" {
			out = append(out, expanded)
		}
	}
	return out
}
