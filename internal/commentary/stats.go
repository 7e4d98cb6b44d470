package commentary

import (
	"context"
	"errors"

	"github.com/MrWong99/broodcaster/internal/observe"
	"github.com/MrWong99/broodcaster/pkg/stats"
)

var _ stats.Source = (*observedStats)(nil)

type observedStats struct {
	src     stats.Source
	metrics *observe.Metrics
}

// ObserveStats wraps src so every lookup is counted by status.
func ObserveStats(src stats.Source, m *observe.Metrics) stats.Source {
	return &observedStats{src: src, metrics: m}
}

func (o *observedStats) Lookup(ctx context.Context, bot string) (stats.Record, error) {
	r, err := o.src.Lookup(ctx, bot)
	switch {
	case err == nil:
		o.metrics.RecordStatsLookup(ctx, "ok")
	case errors.Is(err, stats.ErrNotFound):
		o.metrics.RecordStatsLookup(ctx, "not_found")
	default:
		o.metrics.RecordStatsLookup(ctx, "error")
	}
	return r, err
}
