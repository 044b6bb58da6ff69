// Package session tracks which game processes the library is attached to
// and which one commands are currently aimed at.
package session

import (
	"errors"
	"sync"

	"github.com/zjrosen/scoutcon/internal/scout"
)

var (
	// ErrAlreadyAttached is returned when a pid is added twice.
	ErrAlreadyAttached = errors.New("process already attached")
	// ErrNotAttached reports a selection of a pid the library does not know.
	ErrNotAttached = errors.New("process not attached")
)

// Entry pairs a pid with the context the library returned for it.
type Entry struct {
	PID     int
	Context scout.Context
}

// Registry is an insertion-ordered pid -> context map. Entries are only
// added after a successful attach and are never removed.
type Registry struct {
	mu      sync.RWMutex
	order   []int
	entries map[int]scout.Context
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[int]scout.Context)}
}

// Add records pid. ctx must be valid.
func (r *Registry) Add(pid int, ctx scout.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.entries[pid]; ok {
		return ErrAlreadyAttached
	}
	r.entries[pid] = ctx
	r.order = append(r.order, pid)
	return nil
}

// Lookup returns the context for pid.
func (r *Registry) Lookup(pid int) (scout.Context, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ctx, ok := r.entries[pid]
	return ctx, ok
}

// Len returns the number of attached processes.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// Pids returns attached pids in attach order.
func (r *Registry) Pids() []int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return append([]int(nil), r.order...)
}

// Only returns the single entry when exactly one process is attached.
func (r *Registry) Only() (Entry, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if len(r.order) != 1 {
		return Entry{}, false
	}
	pid := r.order[0]
	return Entry{PID: pid, Context: r.entries[pid]}, true
}
