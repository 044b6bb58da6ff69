package console

import "sync"

// Gate serializes library calls against a shutdown coming from another
// goroutine, such as the interrupt handler. Once closed, Do runs nothing.
type Gate struct {
	mu     sync.Mutex
	closed bool
}

// Do runs fn unless the gate is closed and reports whether it ran. Close
// waits for a running fn to return.
func (g *Gate) Do(fn func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	fn()
	return true
}

// Close runs shutdown while no Do is in progress and closes the gate,
// whatever shutdown reports. Later calls run shutdown again, which lets a
// once-wrapped shutdown hand back its first result.
func (g *Gate) Close(shutdown func() bool) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.closed = true
	return shutdown()
}

// Closed reports whether Close has been called.
func (g *Gate) Closed() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.closed
}
