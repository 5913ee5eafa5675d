package security

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// PathValidator confines file operations to a set of allowed directories.
// Symlinks are resolved before the containment check so a link inside the
// workspace cannot point a write outside it.
type PathValidator struct {
	allowedDirs []string
}

// NewPathValidator creates a validator rooted at the given directories.
func NewPathValidator(allowedDirs []string) *PathValidator {
	normalized := make([]string, len(allowedDirs))
	for i, dir := range allowedDirs {
		normalized[i] = filepath.Clean(dir)
	}
	return &PathValidator{allowedDirs: normalized}
}

// Validate returns the resolved absolute path, or an error if the path
// escapes every allowed directory.
func (v *PathValidator) Validate(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("empty path")
	}
	if strings.Contains(path, "\x00") {
		return "", fmt.Errorf("null byte in path")
	}

	absPath, err := filepath.Abs(filepath.Clean(path))
	if err != nil {
		return "", fmt.Errorf("failed to resolve absolute path: %w", err)
	}

	// Resolve symlinks atomically. For paths that do not exist yet
	// (new files), resolve the parent instead.
	resolvedPath, err := filepath.EvalSymlinks(absPath)
	if err != nil {
		if !os.IsNotExist(err) {
			return "", fmt.Errorf("failed to resolve symlinks: %w", err)
		}
		parentDir := filepath.Dir(absPath)
		resolvedParent, parentErr := filepath.EvalSymlinks(parentDir)
		if parentErr != nil && !os.IsNotExist(parentErr) {
			return "", fmt.Errorf("failed to resolve parent path: %w", parentErr)
		}
		if resolvedParent != "" {
			resolvedPath = filepath.Join(resolvedParent, filepath.Base(absPath))
		} else {
			resolvedPath = absPath
		}
	}

	if !v.isAllowed(resolvedPath) {
		return "", fmt.Errorf("path %q is outside allowed directories", path)
	}
	return resolvedPath, nil
}

// ValidateFile additionally requires the parent directory to exist.
func (v *PathValidator) ValidateFile(path string) (string, error) {
	absPath, err := v.Validate(path)
	if err != nil {
		return "", err
	}
	dir := filepath.Dir(absPath)
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return "", fmt.Errorf("parent directory does not exist: %s", dir)
	}
	return absPath, nil
}

func (v *PathValidator) isAllowed(path string) bool {
	for _, dir := range v.allowedDirs {
		resolved, err := filepath.EvalSymlinks(dir)
		if err != nil {
			resolved = dir
		}
		rel, err := filepath.Rel(resolved, path)
		if err != nil {
			continue
		}
		if rel == "." || (!strings.HasPrefix(rel, "..") && !filepath.IsAbs(rel)) {
			return true
		}
	}
	return false
}
