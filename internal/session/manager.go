package session

import (
	"fmt"
	"io"
	"sync"

	"github.com/zjrosen/scoutcon/internal/log"
	"github.com/zjrosen/scoutcon/internal/scout"
)

// Manager attaches processes and owns the active selection. Operator-facing
// progress goes to out, attach failures to errOut.
type Manager struct {
	facility scout.Facility
	catalog  *scout.ErrorCatalog
	registry *Registry
	out      io.Writer
	errOut   io.Writer

	mu     sync.Mutex
	active Entry
}

// NewManager returns a Manager with an empty registry.
func NewManager(f scout.Facility, catalog *scout.ErrorCatalog, out, errOut io.Writer) *Manager {
	if catalog == nil {
		catalog = scout.NewErrorCatalog(f)
	}
	return &Manager{
		facility: f,
		catalog:  catalog,
		registry: NewRegistry(),
		out:      out,
		errOut:   errOut,
	}
}

// Registry exposes the attached processes.
func (m *Manager) Registry() *Registry { return m.registry }

// Attach attaches to pid once. Failures are reported and not retried.
func (m *Manager) Attach(pid int) bool {
	if _, ok := m.registry.Lookup(pid); ok {
		log.Debug(log.CatAttach, "already attached", "pid", pid)
		return false
	}

	fmt.Fprintf(m.out, "Attaching to process with id: %d...\n", pid)
	ctx := m.facility.AttachProcess(pid)
	if !ctx.Valid() {
		err := m.catalog.Last()
		fmt.Fprintf(m.errOut, "Could not attach to process with id: %d\n", pid)
		fmt.Fprintf(m.errOut, "Last error: %v\n", describe(err))
		log.ErrorErr(log.CatAttach, "attach failed", err, "pid", pid)
		return false
	}

	if err := m.registry.Add(pid, ctx); err != nil {
		log.ErrorErr(log.CatAttach, "record attach", err, "pid", pid)
		return false
	}
	fmt.Fprintf(m.out, "Attached to process with id: %d.\n", pid)
	log.Info(log.CatAttach, "attached", "pid", pid)
	return true
}

// AttachAll attaches each pid independently and returns how many succeeded.
func (m *Manager) AttachAll(pids []int) int {
	n := 0
	for _, pid := range pids {
		if m.Attach(pid) {
			n++
		}
	}
	return n
}

// SelectDefault targets the only attached process, or broadcasts when there
// are zero or several.
func (m *Manager) SelectDefault() {
	if e, ok := m.registry.Only(); ok {
		fmt.Fprintf(m.out, "Setting context to %d...\n", e.PID)
		m.setActive(e)
		return
	}
	fmt.Fprintln(m.out, "Setting context to NULL...")
	m.setActive(Entry{})
}

// Select targets pid. A pid the library does not know about falls back to
// broadcast and Select returns false.
func (m *Manager) Select(pid int) bool {
	ctx, ok := m.registry.Lookup(pid)
	if !ok {
		// Attached outside this session, e.g. by a previous console.
		ctx = m.facility.ContextForPid(pid)
	}
	if !ctx.Valid() {
		m.setActive(Entry{})
		return false
	}
	m.setActive(Entry{PID: pid, Context: ctx})
	return true
}

// Broadcast clears the selection.
func (m *Manager) Broadcast() {
	m.setActive(Entry{})
}

// Active returns the current selection; a zero Entry means broadcast.
func (m *Manager) Active() Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

func (m *Manager) setActive(e Entry) {
	m.mu.Lock()
	m.active = e
	m.mu.Unlock()
	m.facility.SetActiveContext(e.Context)
	log.Debug(log.CatAttach, "active context", "pid", e.PID, "broadcast", !e.Context.Valid())
}

func describe(err error) string {
	if err == nil {
		return scout.Success.String()
	}
	return err.Error()
}
