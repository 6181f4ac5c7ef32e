// Package config resolves filesystem locations used by the nqcrypt
// configuration layer.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// ErrProjectRootNotFound is returned when no go.mod exists above the start
// directory.
var ErrProjectRootNotFound = errors.New("go.mod not found in any parent directory")

// FindProjectRoot walks up from startDir and returns the first directory
// containing go.mod.
//
// Example:
//
//	root, err := FindProjectRoot("/home/user/project/internal/config")
//	if err != nil {
//	    // not inside a Go module, use a relative path
//	}
//	// root is "/home/user/project" if go.mod exists there
func FindProjectRoot(startDir string) (string, error) {
	absPath, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to get absolute path: %w", err)
	}

	currentDir := absPath
	for {
		if _, err := os.Stat(filepath.Join(currentDir, "go.mod")); err == nil {
			return currentDir, nil
		}

		parentDir := filepath.Dir(currentDir)
		if parentDir == currentDir {
			return "", ErrProjectRootNotFound
		}
		currentDir = parentDir
	}
}

// ResolveDataDir returns dir unchanged when it is absolute. A relative dir is
// joined to the project root found from cwd, or returned as is when cwd is
// not inside a Go module.
func ResolveDataDir(cwd, dir string) string {
	if filepath.IsAbs(dir) {
		return dir
	}
	root, err := FindProjectRoot(cwd)
	if err != nil {
		return dir
	}
	return filepath.Join(root, dir)
}

// EnsureWritableDir creates dirPath if needed and checks that a file can be
// created in it.
func EnsureWritableDir(dirPath string) error {
	if err := os.MkdirAll(dirPath, 0o755); err != nil {
		return fmt.Errorf("failed to create directory '%s': %w", dirPath, err)
	}

	probe, err := os.CreateTemp(dirPath, ".nqcrypt_write_test_*")
	if err != nil {
		return fmt.Errorf("directory '%s' is not writable: %w", dirPath, err)
	}
	name := probe.Name()
	probe.Close()
	_ = os.Remove(name)

	return nil
}
