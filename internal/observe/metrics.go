// Package observe provides the observability primitives of broodcaster:
// OpenTelemetry metrics, tracing, trace-aware logging and HTTP middleware for
// the metrics and health listener.
//
// Metrics are recorded through the OpenTelemetry Metrics API and exposed for
// Prometheus scraping by [InitProvider]. [DefaultMetrics] uses the global
// meter provider; tests should call [NewMetrics] with their own provider.
package observe

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// meterName is the instrumentation scope of all broodcaster metrics.
const meterName = "github.com/MrWong99/broodcaster"

// Turn outcomes recorded on [Metrics.Turns].
const (
	TurnSpoken  = "spoken"  // the backend answered and text was produced
	TurnSilent  = "silent"  // nothing to say: no filler, filler declined or retries exhausted
	TurnFailed  = "failed"  // a terminal error was surfaced
	TurnInvalid = "invalid" // the request was rejected before touching state
)

// Metrics holds all metric instruments. The OTel types synchronise
// themselves.
type Metrics struct {
	// Turns counts commentary turns by "outcome" and "source"
	// (situation or filler).
	Turns metric.Int64Counter

	// BackendDuration tracks single conversational exchanges by "backend" and
	// "status".
	BackendDuration metric.Float64Histogram

	// BackendRetries counts repeated exchanges by "backend".
	BackendRetries metric.Int64Counter

	// BackendErrors counts failed turns by "backend" and "kind" (terminal or
	// exhausted).
	BackendErrors metric.Int64Counter

	// Fillers counts produced filler lines by "filler".
	Fillers metric.Int64Counter

	// CatchphraseSuppressed counts replies the catchphrase was stripped from.
	CatchphraseSuppressed metric.Int64Counter

	// StatsLookups counts tournament statistics lookups by "status".
	StatsLookups metric.Int64Counter

	// TTSDuration tracks speech synthesis latency.
	TTSDuration metric.Float64Histogram

	// ActiveSessions tracks the number of tracked games.
	ActiveSessions metric.Int64UpDownCounter

	// HTTPRequestDuration tracks requests to the metrics and health listener
	// by "method" and "path".
	HTTPRequestDuration metric.Float64Histogram
}

// latencyBuckets are histogram boundaries in seconds sized for remote model
// and speech calls.
var latencyBuckets = []float64{
	0.05, 0.1, 0.25, 0.5, 1, 2, 4, 8, 15, 30,
}

// NewMetrics creates all instruments on mp.
func NewMetrics(mp metric.MeterProvider) (*Metrics, error) {
	m := mp.Meter(meterName)
	var err error
	met := &Metrics{}

	if met.Turns, err = m.Int64Counter("broodcaster.turns",
		metric.WithDescription("Commentary turns by outcome and source."),
	); err != nil {
		return nil, err
	}
	if met.BackendDuration, err = m.Float64Histogram("broodcaster.backend.duration",
		metric.WithDescription("Latency of a single conversational exchange."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.BackendRetries, err = m.Int64Counter("broodcaster.backend.retries",
		metric.WithDescription("Repeated conversational exchanges."),
	); err != nil {
		return nil, err
	}
	if met.BackendErrors, err = m.Int64Counter("broodcaster.backend.errors",
		metric.WithDescription("Turns whose exchange failed, by kind."),
	); err != nil {
		return nil, err
	}
	if met.Fillers, err = m.Int64Counter("broodcaster.fillers",
		metric.WithDescription("Filler lines produced, by filler id."),
	); err != nil {
		return nil, err
	}
	if met.CatchphraseSuppressed, err = m.Int64Counter("broodcaster.catchphrase.suppressed",
		metric.WithDescription("Replies the overused catchphrase was removed from."),
	); err != nil {
		return nil, err
	}
	if met.StatsLookups, err = m.Int64Counter("broodcaster.stats.lookups",
		metric.WithDescription("Tournament statistics lookups by status."),
	); err != nil {
		return nil, err
	}
	if met.TTSDuration, err = m.Float64Histogram("broodcaster.tts.duration",
		metric.WithDescription("Latency of speech synthesis."),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(latencyBuckets...),
	); err != nil {
		return nil, err
	}
	if met.ActiveSessions, err = m.Int64UpDownCounter("broodcaster.active_sessions",
		metric.WithDescription("Number of tracked games."),
	); err != nil {
		return nil, err
	}
	if met.HTTPRequestDuration, err = m.Float64Histogram("broodcaster.http.request.duration",
		metric.WithDescription("HTTP request latency by method and path."),
		metric.WithUnit("s"),
	); err != nil {
		return nil, err
	}
	return met, nil
}

var (
	defaultMetrics     *Metrics
	defaultMetricsOnce sync.Once
)

// DefaultMetrics returns the package-level [Metrics], created on first use
// from [otel.GetMeterProvider]. It panics if instrument creation fails.
func DefaultMetrics() *Metrics {
	defaultMetricsOnce.Do(func() {
		var err error
		defaultMetrics, err = NewMetrics(otel.GetMeterProvider())
		if err != nil {
			panic("observe: failed to create default metrics: " + err.Error())
		}
	})
	return defaultMetrics
}

// Attr is shorthand for [attribute.String].
func Attr(key, value string) attribute.KeyValue {
	return attribute.String(key, value)
}

// RecordTurn counts one finished turn.
func (m *Metrics) RecordTurn(ctx context.Context, outcome, source string) {
	m.Turns.Add(ctx, 1, metric.WithAttributes(Attr("outcome", outcome), Attr("source", source)))
}

// RecordExchange records the latency of one conversational exchange.
func (m *Metrics) RecordExchange(ctx context.Context, backend string, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.BackendDuration.Record(ctx, d.Seconds(), metric.WithAttributes(Attr("backend", backend), Attr("status", status)))
}

// RecordRetry counts one repeated exchange.
func (m *Metrics) RecordRetry(ctx context.Context, backend string) {
	m.BackendRetries.Add(ctx, 1, metric.WithAttributes(Attr("backend", backend)))
}

// RecordBackendError counts a turn whose exchange failed.
func (m *Metrics) RecordBackendError(ctx context.Context, backend, kind string) {
	m.BackendErrors.Add(ctx, 1, metric.WithAttributes(Attr("backend", backend), Attr("kind", kind)))
}

// RecordFiller counts a produced filler line.
func (m *Metrics) RecordFiller(ctx context.Context, id string) {
	m.Fillers.Add(ctx, 1, metric.WithAttributes(Attr("filler", id)))
}

// RecordSuppressed counts a reply the catchphrase was stripped from.
func (m *Metrics) RecordSuppressed(ctx context.Context) {
	m.CatchphraseSuppressed.Add(ctx, 1)
}

// RecordStatsLookup counts a statistics lookup. status is "ok", "not_found"
// or "error".
func (m *Metrics) RecordStatsLookup(ctx context.Context, status string) {
	m.StatsLookups.Add(ctx, 1, metric.WithAttributes(Attr("status", status)))
}

// RecordSynthesis records the latency of one speech synthesis call.
func (m *Metrics) RecordSynthesis(ctx context.Context, d time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.TTSDuration.Record(ctx, d.Seconds(), metric.WithAttributes(Attr("status", status)))
}

// SessionOpened and SessionClosed track the number of live games.
func (m *Metrics) SessionOpened(ctx context.Context) { m.ActiveSessions.Add(ctx, 1) }

func (m *Metrics) SessionClosed(ctx context.Context) { m.ActiveSessions.Add(ctx, -1) }
