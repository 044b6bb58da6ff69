package console

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/zjrosen/scoutcon/internal/clock"
	"github.com/zjrosen/scoutcon/internal/log"
)

// DefaultTickInterval is the dispatch cadence.
const DefaultTickInterval = 50 * time.Millisecond

// Loop is the dispatch side of the slot.
type Loop struct {
	slot       *Slot
	dispatcher *Dispatcher
	drainer    *Drainer
	gate       *Gate
	clock      clock.Clock
	interval   time.Duration
	running    *atomic.Bool
}

// Cycle dispatches the pending command if there is one, drains the log
// unconditionally, then completes the command. All of it runs under the
// slot lock. Once the gate is closed the command is completed without
// touching the library.
func (l *Loop) Cycle(ctx context.Context) bool {
	return l.slot.Cycle(func(cmd *PendingCommand) {
		ran := l.gate.Do(func() {
			if cmd != nil {
				if _, err := l.dispatcher.Dispatch(ctx, cmd); err != nil {
					log.ErrorErr(log.CatConsole, "dispatch", err, "command_id", cmd.ID)
				}
			}
			l.drainer.Drain()
		})
		if !ran && cmd != nil {
			log.Warn(log.CatConsole, "library closed, command dropped", "command_id", cmd.ID)
		}
	})
}

// Run cycles every interval until the running flag is cleared or ctx ends.
func (l *Loop) Run(ctx context.Context) error {
	ticker := l.clock.NewTicker(l.interval)
	defer ticker.Stop()

	for l.running.Load() {
		l.Cycle(ctx)

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
	return nil
}
