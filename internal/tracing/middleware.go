package tracing

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/zjrosen/scoutcon/internal/console"
)

// Span attribute keys.
const (
	AttrCommandID      = "command.id"
	AttrCommandKeyword = "command.keyword"
	AttrCommandInput   = "command.input"
	AttrTargetPID      = "target.pid"
	AttrBroadcast      = "target.broadcast"
	AttrSessionID      = "session.id"
)

// SpanPrefixCommand prefixes command span names, e.g. "console.command.setproc".
const SpanPrefixCommand = "console.command."

// NewMiddleware starts a span around every dispatched command. A nil tracer
// yields a pass-through.
func NewMiddleware(tracer trace.Tracer, sessionID string) console.Middleware {
	if tracer == nil {
		return func(next console.Handler) console.Handler { return next }
	}
	return func(next console.Handler) console.Handler {
		return console.HandlerFunc(func(ctx context.Context, cmd *console.PendingCommand) (*console.Result, error) {
			ctx, span := tracer.Start(ctx, SpanPrefixCommand+cmd.Keyword,
				trace.WithSpanKind(trace.SpanKindInternal),
				trace.WithAttributes(
					attribute.String(AttrCommandID, cmd.ID),
					attribute.String(AttrCommandKeyword, cmd.Keyword),
					attribute.String(AttrCommandInput, cmd.Input),
					attribute.String(AttrSessionID, sessionID),
				),
			)
			defer span.End()

			result, err := next.Handle(ctx, cmd)

			switch {
			case err != nil:
				span.RecordError(err)
				span.SetStatus(codes.Error, err.Error())
			case result == nil:
				span.SetStatus(codes.Ok, "")
			default:
				span.SetAttributes(
					attribute.Int(AttrTargetPID, result.Target),
					attribute.Bool(AttrBroadcast, result.Target == 0),
				)
				if result.Success {
					span.SetStatus(codes.Ok, "")
				} else if result.Err != nil {
					span.RecordError(result.Err)
					span.SetStatus(codes.Error, result.Err.Error())
				} else {
					span.SetStatus(codes.Error, "command rejected")
				}
			}
			return result, err
		})
	}
}
