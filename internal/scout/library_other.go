//go:build !windows

package scout

import "fmt"

// Open is unavailable off Windows.
func Open(path string, version int) (Facility, error) {
	return nil, fmt.Errorf("%s: %w", path, ErrUnsupportedPlatform)
}
