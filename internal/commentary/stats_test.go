package commentary_test

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"

	"github.com/MrWong99/broodcaster/internal/commentary"
	"github.com/MrWong99/broodcaster/pkg/stats"
	statsmock "github.com/MrWong99/broodcaster/pkg/stats/mock"
)

func TestObserveStats(t *testing.T) {
	t.Parallel()
	m, reader := testMetrics(t)
	src := &statsmock.Source{Records: map[string]stats.Record{"Flash": {Bot: "Flash", Wins: 3, Losses: 1}}}
	observed := commentary.ObserveStats(src, m)
	ctx := context.Background()

	if r, err := observed.Lookup(ctx, "Flash"); err != nil || r.Wins != 3 {
		t.Fatalf("Lookup(Flash) = %+v, %v", r, err)
	}
	if _, err := observed.Lookup(ctx, "nobody"); !errors.Is(err, stats.ErrNotFound) {
		t.Fatalf("Lookup(nobody) err = %v, want ErrNotFound", err)
	}
	src.Err = errors.New("down")
	if _, err := observed.Lookup(ctx, "Flash"); err == nil {
		t.Fatal("expected error")
	}

	var rm metricdata.ResourceMetrics
	if err := reader.Collect(ctx, &rm); err != nil {
		t.Fatalf("Collect: %v", err)
	}
	got := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, met := range sm.Metrics {
			if met.Name != "broodcaster.stats.lookups" {
				continue
			}
			for _, dp := range met.Data.(metricdata.Sum[int64]).DataPoints {
				v, _ := dp.Attributes.Value(attribute.Key("status"))
				got[v.AsString()] = dp.Value
			}
		}
	}
	for _, status := range []string{"ok", "not_found", "error"} {
		if got[status] != 1 {
			t.Errorf("lookups[%s] = %d, want 1 (all: %v)", status, got[status], got)
		}
	}
}
