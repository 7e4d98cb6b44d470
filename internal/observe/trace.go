package observe

import (
	"context"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const tracerName = "github.com/MrWong99/broodcaster"

// Span attribute keys shared by turn spans.
const (
	AttrGameID   = attribute.Key("game.id")
	AttrEvents   = attribute.Key("situation.events")
	AttrOutcome  = attribute.Key("turn.outcome")
	AttrAttempts = attribute.Key("turn.attempts")
)

// StartSpan starts a span on the global tracer. The caller must end it.
func StartSpan(ctx context.Context, name string, opts ...trace.SpanStartOption) (context.Context, trace.Span) {
	return otel.Tracer(tracerName).Start(ctx, name, opts...)
}

// StartTurn starts the span of one commentary turn. The returned logger
// carries the game id and the ids of the new span.
func StartTurn(ctx context.Context, gameID string, events int) (context.Context, trace.Span, *slog.Logger) {
	ctx, span := StartSpan(ctx, "commentary.turn", trace.WithAttributes(
		AttrGameID.String(gameID),
		AttrEvents.Int(events),
	))
	return ctx, span, Logger(ctx).With("game_id", gameID)
}

// EndSpan records err on span, if any, and ends it.
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	span.End()
}

// CorrelationID returns the trace id of the span in ctx, or "" without one.
func CorrelationID(ctx context.Context) string {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return ""
	}
	return sc.TraceID().String()
}

// Logger returns the default logger, with trace_id and span_id when ctx
// carries a span.
func Logger(ctx context.Context) *slog.Logger {
	sc := trace.SpanContextFromContext(ctx)
	if !sc.HasTraceID() {
		return slog.Default()
	}
	return slog.Default().With(
		slog.String("trace_id", sc.TraceID().String()),
		slog.String("span_id", sc.SpanID().String()),
	)
}
