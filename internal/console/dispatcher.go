package console

import (
	"context"
	"time"

	"github.com/zjrosen/scoutcon/internal/log"
)

// Handler processes one command.
type Handler interface {
	Handle(ctx context.Context, cmd *PendingCommand) (*Result, error)
}

// HandlerFunc adapts a function to Handler.
type HandlerFunc func(ctx context.Context, cmd *PendingCommand) (*Result, error)

func (f HandlerFunc) Handle(ctx context.Context, cmd *PendingCommand) (*Result, error) {
	return f(ctx, cmd)
}

// Middleware wraps a Handler.
type Middleware func(Handler) Handler

// ChainMiddleware applies middlewares so the first one is outermost:
// ChainMiddleware(h, a, b) is a(b(h)).
func ChainMiddleware(h Handler, middlewares ...Middleware) Handler {
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// Dispatcher routes commands by keyword, falling back to a default handler.
type Dispatcher struct {
	handlers    map[string]Handler
	fallback    Handler
	middlewares []Middleware
}

// NewDispatcher returns a dispatcher whose unknown keywords go to fallback.
func NewDispatcher(fallback Handler, middlewares ...Middleware) *Dispatcher {
	return &Dispatcher{
		handlers:    make(map[string]Handler),
		fallback:    fallback,
		middlewares: middlewares,
	}
}

// RegisterHandler binds keyword (lower case) to h.
func (d *Dispatcher) RegisterHandler(keyword string, h Handler) {
	d.handlers[keyword] = h
}

// Use appends middleware. Later calls wrap inside earlier ones.
func (d *Dispatcher) Use(middlewares ...Middleware) {
	d.middlewares = append(d.middlewares, middlewares...)
}

// Dispatch runs the handler for cmd.Keyword through the middleware chain.
func (d *Dispatcher) Dispatch(ctx context.Context, cmd *PendingCommand) (*Result, error) {
	h, ok := d.handlers[cmd.Keyword]
	if !ok {
		h = d.fallback
	}
	return ChainMiddleware(h, d.middlewares...).Handle(ctx, cmd)
}

// Forward runs cmd through the default handler regardless of its keyword.
// Startup commands take this path.
func (d *Dispatcher) Forward(ctx context.Context, cmd *PendingCommand) (*Result, error) {
	return ChainMiddleware(d.fallback, d.middlewares...).Handle(ctx, cmd)
}

// NewLoggingMiddleware logs every dispatched command to the debug log.
// Failures are never echoed to the console.
func NewLoggingMiddleware() Middleware {
	return func(next Handler) Handler {
		return HandlerFunc(func(ctx context.Context, cmd *PendingCommand) (*Result, error) {
			start := time.Now()
			result, err := next.Handle(ctx, cmd)
			duration := time.Since(start)

			switch {
			case err != nil:
				log.Error(log.CatConsole, "command failed",
					"command_id", cmd.ID,
					"keyword", cmd.Keyword,
					"duration", duration,
					"error", err.Error(),
				)
			case result != nil && !result.Success:
				errMsg := ""
				if result.Err != nil {
					errMsg = result.Err.Error()
				}
				log.Warn(log.CatConsole, "command rejected by library",
					"command_id", cmd.ID,
					"keyword", cmd.Keyword,
					"target", result.Target,
					"duration", duration,
					"error", errMsg,
				)
			default:
				log.Debug(log.CatConsole, "command completed",
					"command_id", cmd.ID,
					"keyword", cmd.Keyword,
					"duration", duration,
				)
			}
			return result, err
		})
	}
}
