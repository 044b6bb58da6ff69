// Package interrupt routes console interrupts (Ctrl+C, Ctrl+Break, window
// close) to a handler. When the handler reports the event as handled the
// default action is suppressed; otherwise the process gets the default
// behaviour.
package interrupt

import "sync"

// Handler returns true when it handled the interrupt.
type Handler func() bool

// Once wraps f so it runs at most once; later and concurrent calls return
// the first result. The interrupt path and the normal exit path both shut
// the library down through it.
func Once(f func() bool) func() bool {
	var (
		once   sync.Once
		result bool
	)
	return func() bool {
		once.Do(func() { result = f() })
		return result
	}
}
