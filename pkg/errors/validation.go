package errors

import (
	"path/filepath"
	"strings"
	"unicode"
)

// Length limits for file-like identifiers and output paths.
const (
	maxNameLength = 255
	maxPathLength = 500
)

// ValidateName checks a file-like identifier: a template id, font reference,
// base document or batch id. These address files inside a configured
// directory, so they must be plain base names: non-empty, at most 255 bytes,
// free of control characters and separators, and not "." or "..".
// Failures are INVALID_REQUEST.
func ValidateName(kind, name string) error {
	switch {
	case name == "":
		return New(ErrCodeInvalidRequest, "%s cannot be empty", kind)
	case len(name) > maxNameLength:
		return New(ErrCodeInvalidRequest, "%s too long (max %d characters)", kind, maxNameLength)
	case hasControl(name):
		return New(ErrCodeInvalidRequest, "%s contains invalid control characters", kind)
	case strings.ContainsAny(name, `/\`):
		return New(ErrCodeInvalidRequest, "%s cannot contain path separators: %q", kind, name)
	case name == "." || name == "..":
		return New(ErrCodeInvalidRequest, "%s cannot reference a directory: %q", kind, name)
	}
	return nil
}

// ValidatePath checks an output name relative to the output directory.
// Subdirectories are allowed; anything that would resolve outside the
// directory (absolute paths, ".." segments) is not. Backslashes are rejected
// so names mean the same thing on every platform. Failures are INVALID_PATH.
func ValidatePath(path string) error {
	switch {
	case path == "":
		return New(ErrCodeInvalidPath, "output path cannot be empty")
	case len(path) > maxPathLength:
		return New(ErrCodeInvalidPath, "output path too long (max %d characters)", maxPathLength)
	case hasControl(path):
		return New(ErrCodeInvalidPath, "output path contains invalid characters")
	case strings.Contains(path, `\`):
		return New(ErrCodeInvalidPath, "output path cannot contain backslashes: %q", path)
	case !filepath.IsLocal(path):
		return New(ErrCodeInvalidPath, "output path must stay inside the output directory: %q", path)
	}
	return nil
}

func hasControl(s string) bool {
	return strings.ContainsFunc(s, unicode.IsControl)
}
