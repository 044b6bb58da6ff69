//go:build !windows

package window

// System returns the platform enumerator; off Windows every walk fails.
func System() Enumerator { return unsupported{} }

type unsupported struct{}

func (unsupported) Windows(func(Window) bool) error { return ErrUnsupported }
