package console

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// PendingCommand is one operator line waiting for the dispatch loop.
type PendingCommand struct {
	ID      string
	Keyword string // lower-cased first token
	Args    string // raw text after the keyword
	Input   string // the full line as typed

	done chan struct{}
	once sync.Once
}

// ParseCommand splits line into keyword and arguments. It reports false for
// lines with no token.
func ParseCommand(line string) (*PendingCommand, bool) {
	trimmed := strings.TrimLeft(line, " \t\r\n\v\f")
	if trimmed == "" {
		return nil, false
	}
	end := strings.IndexAny(trimmed, " \t\r\n\v\f")
	keyword, args := trimmed, ""
	if end >= 0 {
		keyword, args = trimmed[:end], trimmed[end:]
	}
	return &PendingCommand{
		ID:      uuid.NewString(),
		Keyword: strings.ToLower(keyword),
		Args:    args,
		Input:   line,
		done:    make(chan struct{}),
	}, true
}

// Done is closed once the command has been dispatched and the log drained.
func (c *PendingCommand) Done() <-chan struct{} { return c.done }

func (c *PendingCommand) complete() { c.once.Do(func() { close(c.done) }) }

// Result is what a handler reports about a dispatched command.
type Result struct {
	Success bool
	// Target is the pid commands were aimed at, 0 for broadcast.
	Target int
	Err    error
}
