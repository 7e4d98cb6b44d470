package resilience

import (
	"errors"
	"testing"
	"time"
)

func TestExecute_PrimarySuccess(t *testing.T) {
	t.Parallel()
	g := NewFallbackGroup("primary", "a", CircuitBreakerConfig{MaxFailures: 3})
	g.Add("secondary", "b")

	var calls []string
	got, err := Execute(g, func(v string) (string, error) {
		calls = append(calls, v)
		return "from-" + v, nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != "from-a" || len(calls) != 1 {
		t.Errorf("got %q after calls %v, want from-a after one call", got, calls)
	}
}

func TestExecute_Failover(t *testing.T) {
	t.Parallel()
	g := NewFallbackGroup("ten", 10, CircuitBreakerConfig{MaxFailures: 3})
	g.Add("twenty", 20)

	got, err := Execute(g, func(v int) (int, error) {
		if v == 10 {
			return 0, errTest
		}
		return v * 2, nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != 40 {
		t.Errorf("got %d, want 40", got)
	}
}

func TestExecute_AllFail(t *testing.T) {
	t.Parallel()
	g := NewFallbackGroup("a", 1, CircuitBreakerConfig{})
	g.Add("b", 2)

	_, err := Execute(g, func(int) (struct{}, error) { return struct{}{}, errTest })
	if !errors.Is(err, ErrAllFailed) {
		t.Fatalf("err = %v, want ErrAllFailed", err)
	}
	if !errors.Is(err, errTest) {
		t.Errorf("err = %v, want the backend errors joined in", err)
	}
}

func TestExecute_OpenBreakerSkipsEntry(t *testing.T) {
	t.Parallel()
	g := NewFallbackGroup("primary", "primary", CircuitBreakerConfig{MaxFailures: 2, ResetTimeout: time.Hour})
	g.Add("secondary", "secondary")

	for range 2 {
		_, _ = Execute(g, func(v string) (string, error) {
			if v == "primary" {
				return "", errTest
			}
			return v, nil
		})
	}

	var called []string
	got, err := Execute(g, func(v string) (string, error) {
		called = append(called, v)
		return v, nil
	})
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if got != "secondary" || len(called) != 1 {
		t.Errorf("got %q after %v, want secondary only", got, called)
	}
}

func TestFallbackGroup_Len(t *testing.T) {
	t.Parallel()
	g := NewFallbackGroup("a", 1, CircuitBreakerConfig{})
	g.Add("b", 2)
	g.Add("c", 3)
	if g.Len() != 3 {
		t.Errorf("Len = %d, want 3", g.Len())
	}
}
