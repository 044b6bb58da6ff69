package launcher

import (
	"fmt"
	"os"
	"path/filepath"
	"unicode/utf16"
)

// MaxPath is the Windows path limit in UTF-16 code units, terminator included.
const MaxPath = 260

// ResolveExecutable returns the canonical absolute path of an existing
// regular file. The result must fit in MaxPath.
func ResolveExecutable(path string) (string, error) {
	if path == "" {
		return "", fmt.Errorf("%w: empty path", ErrPathResolution)
	}

	abs, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrPathResolution, path, err)
	}
	canonical, err := filepath.EvalSymlinks(abs)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrPathResolution, path, err)
	}
	info, err := os.Stat(canonical)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrPathResolution, path, err)
	}
	if !info.Mode().IsRegular() {
		return "", fmt.Errorf("%w: %s is not a regular file", ErrPathResolution, canonical)
	}

	if n := len(utf16.Encode([]rune(canonical))); n >= MaxPath {
		return "", fmt.Errorf("%w: %d units", ErrPathTooLong, n)
	}
	return canonical, nil
}
