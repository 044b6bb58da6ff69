package history

import (
	"context"
	"time"

	"github.com/zjrosen/scoutcon/internal/console"
	"github.com/zjrosen/scoutcon/internal/log"
)

// Recorder is the write side of Store.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// NewMiddleware records every dispatched command. Recording failures are
// logged and never affect the command.
func NewMiddleware(rec Recorder, sessionID string) console.Middleware {
	return func(next console.Handler) console.Handler {
		return console.HandlerFunc(func(ctx context.Context, cmd *console.PendingCommand) (*console.Result, error) {
			start := time.Now()
			result, err := next.Handle(ctx, cmd)

			e := Entry{
				ID:        cmd.ID,
				SessionID: sessionID,
				Keyword:   cmd.Keyword,
				Input:     cmd.Input,
				Duration:  time.Since(start),
				CreatedAt: start,
			}
			switch {
			case err != nil:
				e.Error = err.Error()
			case result != nil:
				e.Success = result.Success
				e.TargetPID = result.Target
				if result.Err != nil {
					e.Error = result.Err.Error()
				}
			}

			if recErr := rec.Record(context.WithoutCancel(ctx), e); recErr != nil {
				log.ErrorErr(log.CatHistory, "record command", recErr, "command_id", cmd.ID)
			}
			return result, err
		})
	}
}
