// Package validation provides input validation for release paths and names.
package validation

import (
	"fmt"
	"path/filepath"
	"regexp"
	"strings"
)

// ValidateFilename validates a filename (not a full path) to prevent path traversal.
// Used for object keys and blob names derived from local artifact names.
//
// Returns an error if the filename:
//   - Is empty
//   - Contains path separators (/ or \)
//   - Is ".."
//   - Contains null bytes
func ValidateFilename(filename string) error {
	if filename == "" {
		return fmt.Errorf("filename cannot be empty")
	}

	if strings.ContainsRune(filename, 0) {
		return fmt.Errorf("filename contains null byte: %q", filename)
	}

	// Reject path separators (both Unix and Windows style)
	if strings.ContainsRune(filename, '/') || strings.ContainsRune(filename, '\\') {
		return fmt.Errorf("filename cannot contain path separators: %s", filename)
	}

	// Separators are already rejected, so only the literal ".." remains.
	// Names like "foo..bar.tar" stay valid.
	if filename == ".." {
		return fmt.Errorf("filename cannot be '..': %s", filename)
	}

	return nil
}

var versionComponentRe = regexp.MustCompile(`^[0-9A-Za-z][0-9A-Za-z._+-]*$`)

// ValidateVersionComponent checks a version string that is embedded into an
// archive filename ("1.2.3", "0.3.9-rc1"). It must start with an alphanumeric
// character and contain only [0-9A-Za-z._+-].
func ValidateVersionComponent(kind, v string) error {
	if v == "" {
		return fmt.Errorf("%s cannot be empty", kind)
	}
	if !versionComponentRe.MatchString(v) {
		return fmt.Errorf("%s %q contains characters not allowed in a file name", kind, v)
	}
	return nil
}

// ValidatePathInDirectory validates that a path, when resolved, stays within baseDir.
//
// Both path and baseDir are cleaned and made absolute before comparison.
// Returns an error if the resolved path is not within baseDir.
//
// Example:
//
//	ValidatePathInDirectory("../../etc/passwd", "/tmp/result") // Error: escapes base dir
//	ValidatePathInDirectory("lib.tar", "/tmp/result")          // OK: within base dir
func ValidatePathInDirectory(path string, baseDir string) error {
	if path == "" {
		return fmt.Errorf("path cannot be empty")
	}
	if baseDir == "" {
		return fmt.Errorf("base directory cannot be empty")
	}

	cleanPath := filepath.Clean(path)
	cleanBase := filepath.Clean(baseDir)

	var err error
	if !filepath.IsAbs(cleanBase) {
		cleanBase, err = filepath.Abs(cleanBase)
		if err != nil {
			return fmt.Errorf("failed to resolve base directory: %w", err)
		}
	}

	var resolvedPath string
	if filepath.IsAbs(cleanPath) {
		resolvedPath = cleanPath
	} else {
		resolvedPath = filepath.Join(cleanBase, cleanPath)
	}
	resolvedPath = filepath.Clean(resolvedPath)

	relPath, err := filepath.Rel(cleanBase, resolvedPath)
	if err != nil {
		return fmt.Errorf("failed to compute relative path: %w", err)
	}

	// If the relative path starts with "..", it's outside the base directory
	if strings.HasPrefix(relPath, ".."+string(filepath.Separator)) || relPath == ".." {
		return fmt.Errorf("path escapes base directory: %s (base: %s)", path, baseDir)
	}

	return nil
}
