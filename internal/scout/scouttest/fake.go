// Package scouttest provides an in-memory scout.Facility for tests.
package scouttest

import (
	"sync"

	"github.com/zjrosen/scoutcon/internal/scout"
)

// Executed records one ExecuteCommand call and the context active at the time.
type Executed struct {
	Command string
	Context scout.Context
}

// Fake is a scout.Facility backed by maps and slices. The exported fields
// configure behaviour and must be set before the fake is shared.
type Fake struct {
	// InitFails makes Init return false and set LastError to InitError.
	InitFails bool
	InitError scout.ErrorCode

	// ShutdownFails makes Shutdown return false with SystemCall as the error.
	ShutdownFails bool

	// AttachErrors maps pids that fail to attach to the error they set.
	AttachErrors map[int]scout.ErrorCode

	// FailCommands makes ExecuteCommand return false for these commands.
	FailCommands map[string]bool

	// OnExecute runs inside ExecuteCommand; its return value is queued as
	// log output for the next fetch.
	OnExecute func(command string) string

	mu          sync.Mutex
	initialized bool
	lastErr     scout.ErrorCode
	contexts    map[int]scout.Context
	next        scout.Context
	active      scout.Context
	executed    []Executed
	logs        [][]byte
	fetches     int
	shutdowns   int
	late        int
	detached    []scout.Context
}

var _ scout.Facility = (*Fake)(nil)

// New returns an empty fake.
func New() *Fake {
	return &Fake{
		AttachErrors: map[int]scout.ErrorCode{},
		FailCommands: map[string]bool{},
		contexts:     map[int]scout.Context{},
		next:         0x1000,
	}
}

func (f *Fake) Init() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.InitFails {
		f.lastErr = f.InitError
		return false
	}
	f.initialized = true
	f.lastErr = scout.Success
	return true
}

func (f *Fake) Shutdown() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.shutdowns++
	if f.ShutdownFails {
		f.lastErr = scout.SystemCall
		return false
	}
	f.initialized = false
	return true
}

func (f *Fake) Version() int { return scout.APIVersion }

func (f *Fake) LastError() scout.ErrorCode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.lastErr
}

func (f *Fake) ErrorString(code scout.ErrorCode) string {
	return "scout error: " + code.String()
}

func (f *Fake) AttachProcess(pid int) scout.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lateCall()
	if code, ok := f.AttachErrors[pid]; ok {
		f.lastErr = code
		return scout.NoContext
	}
	if ctx, ok := f.contexts[pid]; ok {
		return ctx
	}
	f.next += 0x10
	f.contexts[pid] = f.next
	f.lastErr = scout.Success
	return f.next
}

func (f *Fake) DetachProcess(ctx scout.Context) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for pid, c := range f.contexts {
		if c == ctx {
			delete(f.contexts, pid)
			f.detached = append(f.detached, ctx)
			return true
		}
	}
	f.lastErr = scout.InvalidHandle
	return false
}

func (f *Fake) SetActiveContext(ctx scout.Context) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lateCall()
	f.active = ctx
}

func (f *Fake) ContextForPid(pid int) scout.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.contexts[pid]
}

func (f *Fake) ExecuteCommand(command string) bool {
	f.mu.Lock()
	f.lateCall()
	f.executed = append(f.executed, Executed{Command: command, Context: f.active})
	fail := f.FailCommands[command]
	hook := f.OnExecute
	f.mu.Unlock()

	if hook != nil {
		if out := hook(command); out != "" {
			f.QueueLog(out)
		}
	}
	if fail {
		f.mu.Lock()
		f.lastErr = scout.RemoteInterop
		f.mu.Unlock()
		return false
	}
	return true
}

func (f *Fake) FetchLogEntries(buf []byte) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.lateCall()
	f.fetches++
	if len(f.logs) == 0 {
		return 0
	}
	chunk := f.logs[0]
	n := copy(buf, chunk)
	if n < len(chunk) {
		f.logs[0] = chunk[n:]
	} else {
		f.logs = f.logs[1:]
	}
	return n
}

// lateCall counts a call made after a successful Shutdown. Callers hold f.mu.
func (f *Fake) lateCall() {
	if f.shutdowns > 0 && !f.initialized {
		f.late++
	}
}

// CallsAfterShutdown returns how many attach, select, execute or fetch calls
// arrived after a successful Shutdown.
func (f *Fake) CallsAfterShutdown() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.late
}

// QueueLog makes text available to the next FetchLogEntries call.
func (f *Fake) QueueLog(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.logs = append(f.logs, []byte(text))
}

// Executed returns every command passed to ExecuteCommand, in order.
func (f *Fake) Executed() []Executed {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Executed(nil), f.executed...)
}

// Commands returns just the command strings passed to ExecuteCommand.
func (f *Fake) Commands() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.executed))
	for i, e := range f.executed {
		out[i] = e.Command
	}
	return out
}

// Active returns the context most recently passed to SetActiveContext.
func (f *Fake) Active() scout.Context {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.active
}

// Fetches returns how many times FetchLogEntries was called.
func (f *Fake) Fetches() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fetches
}

// Shutdowns returns how many times Shutdown was called.
func (f *Fake) Shutdowns() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.shutdowns
}

// Initialized reports whether Init succeeded and Shutdown has not.
func (f *Fake) Initialized() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.initialized
}
