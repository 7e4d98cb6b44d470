package stats_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/MrWong99/broodcaster/pkg/stats"
	"github.com/MrWong99/broodcaster/pkg/stats/mock"
)

func TestRecord_WinRate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		rec  stats.Record
		want int
	}{
		{stats.Record{Wins: 1, Losses: 2}, 33},
		{stats.Record{Wins: 2, Losses: 1}, 67},
		{stats.Record{Wins: 10, Losses: 0}, 100},
		{stats.Record{}, 0},
	}
	for _, tt := range tests {
		if got := tt.rec.WinRate(); got != tt.want {
			t.Errorf("%+v.WinRate() = %d, want %d", tt.rec, got, tt.want)
		}
	}
}

func TestLookupPair(t *testing.T) {
	t.Parallel()
	src := &mock.Source{Records: map[string]stats.Record{
		"A": {Bot: "A", Wins: 3, Losses: 1},
		"B": {Bot: "B", Wins: 1, Losses: 3},
	}}

	r1, r2, err := stats.LookupPair(context.Background(), src, "A", "B")
	if err != nil {
		t.Fatalf("LookupPair: %v", err)
	}
	if r1.Bot != "A" || r2.Bot != "B" {
		t.Errorf("got %+v, %+v", r1, r2)
	}
	if src.CallCount() != 2 {
		t.Errorf("calls = %d, want 2", src.CallCount())
	}
}

func TestLookupPair_OneMissing(t *testing.T) {
	t.Parallel()
	src := &mock.Source{Records: map[string]stats.Record{"A": {Bot: "A", Wins: 1}}}

	_, _, err := stats.LookupPair(context.Background(), src, "A", "nobody")
	if !errors.Is(err, stats.ErrNotFound) {
		t.Fatalf("err = %v, want ErrNotFound", err)
	}
}

func TestCached(t *testing.T) {
	t.Parallel()
	src := &mock.Source{Records: map[string]stats.Record{"A": {Bot: "A", Wins: 1}}}
	c := stats.NewCached(src, 8, time.Hour)

	for range 3 {
		if _, err := c.Lookup(context.Background(), "A"); err != nil {
			t.Fatalf("Lookup: %v", err)
		}
	}
	if src.CallCount() != 1 {
		t.Errorf("underlying calls = %d, want 1", src.CallCount())
	}

	// Failures are not cached.
	for range 2 {
		_, _ = c.Lookup(context.Background(), "missing")
	}
	if src.CallCount() != 3 {
		t.Errorf("underlying calls = %d, want 3", src.CallCount())
	}
}
