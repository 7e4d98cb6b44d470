// Package health serves the liveness and readiness probes of the commentary
// process.
//
//   - /healthz answers 200 while the process can serve HTTP.
//   - /readyz answers 200 when every registered [Checker] passes and the
//     process is not draining.
//
// Responses are JSON objects with a "status" of "ok" or "fail" and a "checks"
// map naming each checker's result.
package health

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrDraining is reported by /readyz after [Handler.Drain].
var ErrDraining = errors.New("health: draining")

const defaultCheckTimeout = 5 * time.Second

// Checker is a named readiness probe, e.g. "conversation" or "tts".
type Checker struct {
	Name string

	// Check returns nil when the dependency is usable. It must respect ctx.
	Check func(ctx context.Context) error
}

type result struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks,omitempty"`
}

// Option configures a [Handler].
type Option func(*Handler)

// WithCheckTimeout bounds each checker. Default: 5s.
func WithCheckTimeout(d time.Duration) Option {
	return func(h *Handler) {
		if d > 0 {
			h.timeout = d
		}
	}
}

// Handler serves /healthz and /readyz. It is safe for concurrent use.
type Handler struct {
	checkers []Checker
	timeout  time.Duration
	draining atomic.Bool
}

// New creates a Handler evaluating checkers on every /readyz request.
func New(checkers []Checker, opts ...Option) *Handler {
	h := &Handler{
		checkers: append([]Checker(nil), checkers...),
		timeout:  defaultCheckTimeout,
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// Drain makes /readyz fail from now on so load balancers stop routing work
// here while in-flight games finish.
func (h *Handler) Drain() {
	h.draining.Store(true)
}

// Healthz always answers 200.
func (h *Handler) Healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, result{Status: "ok"})
}

// Readyz runs all checkers concurrently and answers 503 if any fails.
func (h *Handler) Readyz(w http.ResponseWriter, r *http.Request) {
	checks := h.Check(r.Context())

	res := result{Status: "ok", Checks: make(map[string]string, len(checks))}
	status := http.StatusOK
	for name, err := range checks {
		if err != nil {
			res.Checks[name] = "fail: " + err.Error()
			res.Status = "fail"
			status = http.StatusServiceUnavailable
			continue
		}
		res.Checks[name] = "ok"
	}
	writeJSON(w, status, res)
}

// Check evaluates every checker and returns their errors by name. A draining
// handler additionally reports "draining".
func (h *Handler) Check(ctx context.Context) map[string]error {
	out := make(map[string]error, len(h.checkers)+1)
	var mu sync.Mutex

	var g errgroup.Group
	for _, c := range h.checkers {
		g.Go(func() error {
			cctx, cancel := context.WithTimeout(ctx, h.timeout)
			defer cancel()
			err := c.Check(cctx)
			mu.Lock()
			out[c.Name] = err
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait()

	if h.draining.Load() {
		out["draining"] = ErrDraining
	}
	return out
}

// Register adds the probe routes to mux.
func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", h.Healthz)
	mux.HandleFunc("GET /readyz", h.Readyz)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
