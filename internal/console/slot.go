package console

import (
	"errors"
	"sync"
)

// ErrSlotBusy is returned by Publish while a command is still pending.
var ErrSlotBusy = errors.New("a command is already pending")

// SlotState tags whether the slot holds a command.
type SlotState int

const (
	SlotEmpty SlotState = iota
	SlotPopulated
)

func (s SlotState) String() string {
	if s == SlotPopulated {
		return "populated"
	}
	return "empty"
}

// Slot hands one command at a time from the input reader to the dispatch
// loop. The same mutex covers publishing, dispatch, the log drain and
// completion, so a command's output is always drained before its issuer
// is released.
type Slot struct {
	mu    sync.Mutex
	state SlotState
	cmd   *PendingCommand
}

// Publish stores cmd if the slot is empty and returns its completion channel.
func (s *Slot) Publish(cmd *PendingCommand) (<-chan struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == SlotPopulated {
		return nil, ErrSlotBusy
	}
	s.cmd = cmd
	s.state = SlotPopulated
	return cmd.Done(), nil
}

// Cycle runs fn with the pending command, or nil when empty, then completes
// the command and empties the slot before releasing the lock. It reports
// whether a command was processed.
func (s *Slot) Cycle(fn func(cmd *PendingCommand)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	cmd := s.cmd
	fn(cmd)
	if cmd == nil {
		return false
	}
	s.cmd = nil
	s.state = SlotEmpty
	cmd.complete()
	return true
}

// State returns the current tag.
func (s *Slot) State() SlotState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}
