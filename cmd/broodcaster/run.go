package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/broodcaster/internal/commentary"
	"github.com/MrWong99/broodcaster/internal/config"
	"github.com/MrWong99/broodcaster/internal/health"
	"github.com/MrWong99/broodcaster/internal/observe"
	"github.com/MrWong99/broodcaster/internal/resilience"
)

const shutdownTimeout = 15 * time.Second

type runOptions struct {
	configPath  string
	outDir      string
	metricsAddr string
}

func runCmd() *cobra.Command {
	var opts runOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Comment on game events read as JSON lines from stdin",
		Long: `Reads one JSON object per line from stdin:

  {"gameId": "g1", "situation": ["Player 1 is called Flash and plays as Terran"]}

and writes one JSON result per line to stdout. Turns of the same game run in
order; different games run concurrently. Synthesised speech is written as WAV
files into --out.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runCommentary(cmd.Context(), opts, cmd.InOrStdin(), cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&opts.configPath, "config", "config.yaml", "path to the YAML configuration file")
	cmd.Flags().StringVar(&opts.outDir, "out", "", "directory for synthesised WAV files")
	cmd.Flags().StringVar(&opts.metricsAddr, "metrics-addr", "", "listen address for /metrics, /healthz and /readyz (overrides server.metrics_addr)")
	return cmd
}

func runCommentary(ctx context.Context, opts runOptions, in io.Reader, out io.Writer) error {
	// ── Configuration & logger ────────────────────────────────────────────────
	level := new(slog.LevelVar)
	var live atomic.Pointer[commentary.Commentator]
	watcher, err := config.NewWatcher(opts.configPath, func(_, new *config.Config, d config.ConfigDiff) {
		if d.LogLevelChanged {
			level.Set(d.NewLogLevel.Level())
			slog.Info("broodcaster: log level changed", "level", d.NewLogLevel)
		}
		if c := live.Load(); d.SanitizerChanged && c != nil {
			c.SetSanitizer(newSanitizer(new.Sanitizer))
			slog.Info("broodcaster: sanitizer reloaded")
		}
		if len(d.RestartRequired) > 0 {
			slog.Warn("broodcaster: config sections changed that need a restart", "sections", d.RestartRequired)
		}
	})
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("config file %q not found", opts.configPath)
		}
		return err
	}
	cfg := watcher.Current()

	level.Set(cfg.Server.LogLevel.Level())
	slog.SetDefault(newLogger(level))
	slog.Info("broodcaster starting",
		"version", version,
		"config", opts.configPath,
		"backend", cfg.Conversation.Backend,
		"log_level", cfg.Server.LogLevel,
	)

	// ── Telemetry ─────────────────────────────────────────────────────────────
	tel, err := observe.InitProvider(ctx, observe.ProviderConfig{ServiceVersion: version})
	if err != nil {
		return fmt.Errorf("init telemetry: %w", err)
	}
	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(sctx); err != nil {
			slog.Warn("broodcaster: telemetry shutdown", "err", err)
		}
	}()
	metrics, err := observe.NewMetrics(otel.GetMeterProvider())
	if err != nil {
		return fmt.Errorf("init metrics: %w", err)
	}

	// ── Providers ─────────────────────────────────────────────────────────────
	reg := config.NewRegistry()
	registerBuiltinProviders(reg)

	backend, err := buildBackend(cfg.Conversation, reg)
	if err != nil {
		return fmt.Errorf("create conversation backend: %w", err)
	}
	backendName := string(cfg.Conversation.Backend)
	if backendName == "" {
		backendName = string(config.BackendResponses)
	}
	statsSrc, err := buildStats(cfg.Stats, reg, metrics)
	if err != nil {
		return err
	}
	synth, voice, err := buildSynthesizer(cfg.TTS, reg)
	if err != nil {
		return err
	}

	// ── Commentary ────────────────────────────────────────────────────────────
	scorer, err := newScorer(cfg.Readability)
	if err != nil {
		return fmt.Errorf("readability: %w", err)
	}
	breaker := newBreaker(cfg.Conversation.CircuitBreaker, backendName)
	copts := []commentary.Option{
		commentary.WithNormalizer(newNormalizer(cfg.Readability, scorer)),
		commentary.WithFillers(newFillers(cfg.Filler, statsSrc)),
		commentary.WithFormatter(newFormatter(cfg.Prompt)),
		commentary.WithSanitizer(newSanitizer(cfg.Sanitizer)),
		commentary.WithRetrier(newRetrier(cfg.Conversation, backend, breaker, backendName)),
		commentary.WithMetrics(metrics),
		commentary.WithBackendName(backendName),
		commentary.WithMinEvents(cfg.Filler.MinEvents),
		commentary.WithRequestTimeout(cfg.Conversation.RequestTimeout),
	}
	if synth != nil {
		if err := checkVoice(ctx, synth, voice); err != nil {
			slog.Warn("broodcaster: configured voice may not work", "voice", voice.ID, "provider", voice.Provider, "err", err)
		}
		copts = append(copts, commentary.WithSynthesizer(synth, voice))
	}
	commentator, err := commentary.New(backend, newSessions(cfg.Sessions, metrics), copts...)
	if err != nil {
		return err
	}
	live.Store(commentator)

	if opts.outDir != "" {
		if err := os.MkdirAll(opts.outDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
	}

	// ── Serve ─────────────────────────────────────────────────────────────────
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)
	go watcher.Run(gctx)

	hc := health.New(readinessChecks(breaker))
	addr := opts.metricsAddr
	if addr == "" {
		addr = cfg.Server.MetricsAddr
	}
	if addr != "" {
		mux := http.NewServeMux()
		hc.Register(mux)
		mux.Handle("GET /metrics", tel.MetricsHandler)
		srv := &http.Server{
			Addr:              addr,
			Handler:           observe.Middleware(metrics)(mux),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			slog.Info("broodcaster: metrics listener started", "addr", addr)
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics listener: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			sctx, scancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer scancel()
			return srv.Shutdown(sctx)
		})
	}

	d := &dispatcher{c: commentator, out: newResultWriter(out, opts.outDir)}
	g.Go(func() error {
		defer cancel()
		defer hc.Drain()
		return d.Run(gctx, in)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	slog.Info("goodbye")
	return nil
}

// readinessChecks reports the process unready while the conversation
// backend's breaker is open.
func readinessChecks(cb *resilience.CircuitBreaker) []health.Checker {
	if cb == nil {
		return nil
	}
	return []health.Checker{{
		Name: "conversation",
		Check: func(context.Context) error {
			if cb.State() == resilience.StateOpen {
				return resilience.ErrCircuitOpen
			}
			return nil
		},
	}}
}

func checkCmd() *cobra.Command {
	var configPath string
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate a configuration file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := config.Load(configPath); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: ok\n", configPath)
			return nil
		},
	}
	cmd.Flags().StringVar(&configPath, "config", "config.yaml", "path to the YAML configuration file")
	return cmd
}
