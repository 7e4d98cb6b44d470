package config

import (
	"bytes"
	"context"
	"crypto/sha256"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
)

// reloadDebounce lets a burst of write events from one save settle before the
// file is read.
const reloadDebounce = 300 * time.Millisecond

// ReloadFunc receives the previous and the new config together with their
// difference. It runs on the goroutine that called [Watcher.Reload].
type ReloadFunc func(old, new *Config, d ConfigDiff)

// Watcher holds the current config of a file and swaps it when the file
// changes to new, valid content. Invalid edits are logged and ignored.
type Watcher struct {
	path     string
	interval time.Duration
	onReload ReloadFunc

	current atomic.Pointer[Config]

	// mu serialises Reload calls and guards seen.
	mu   sync.Mutex
	seen fileStamp
}

// fileStamp identifies one version of the file on disk.
type fileStamp struct {
	mtime time.Time
	sum   [sha256.Size]byte
}

// WatcherOption configures a [Watcher].
type WatcherOption func(*Watcher)

// WithInterval sets how often [Watcher.Run] re-checks the file when no
// change notification arrived. The default is 30 seconds.
func WithInterval(d time.Duration) WatcherOption {
	return func(w *Watcher) {
		if d > 0 {
			w.interval = d
		}
	}
}

// NewWatcher loads path once. onReload may be nil. Call [Watcher.Run] to
// follow later edits.
func NewWatcher(path string, onReload ReloadFunc, opts ...WatcherOption) (*Watcher, error) {
	w := &Watcher{path: path, interval: 30 * time.Second, onReload: onReload}
	for _, opt := range opts {
		opt(w)
	}
	cfg, stamp, err := w.read()
	if err != nil {
		return nil, fmt.Errorf("config: watch %s: %w", path, err)
	}
	w.current.Store(cfg)
	w.seen = stamp
	return w, nil
}

// Current returns the most recently loaded valid config.
func (w *Watcher) Current() *Config {
	return w.current.Load()
}

// Run follows the file until ctx is done. Change notifications for the file
// trigger a reload once writes settle. The poll interval catches edits no
// notification reported, e.g. on network file systems.
func (w *Watcher) Run(ctx context.Context) {
	var (
		events <-chan fsnotify.Event
		errs   <-chan error
	)
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("config: change notifications unavailable, polling only", "err", err)
	} else {
		defer fsw.Close()
		// Editors save by renaming a temp file over the original, so the
		// directory is watched rather than the file.
		if err := fsw.Add(filepath.Dir(w.path)); err != nil {
			slog.Warn("config: cannot watch config directory, polling only", "path", w.path, "err", err)
		} else {
			events, errs = fsw.Events, fsw.Errors
		}
	}

	poll := time.NewTicker(w.interval)
	defer poll.Stop()
	base := filepath.Base(w.path)
	var settle <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			if filepath.Base(ev.Name) == base && ev.Has(fsnotify.Write|fsnotify.Create|fsnotify.Rename) {
				settle = time.After(reloadDebounce)
			}
		case err, ok := <-errs:
			if !ok {
				errs = nil
				continue
			}
			slog.Warn("config: change notification error", "err", err)
		case <-settle:
			settle = nil
			w.reloadLogged()
		case <-poll.C:
			w.reloadLogged()
		}
	}
}

func (w *Watcher) reloadLogged() {
	if _, err := w.Reload(); err != nil {
		slog.Warn("config: keeping previous config", "path", w.path, "err", err)
	}
}

// Reload checks the file once. It reports whether a new config was applied.
// A file whose modification time moved but whose content is unchanged is not
// a change. On error the current config stays in place.
func (w *Watcher) Reload() (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	info, err := os.Stat(w.path)
	if err != nil {
		return false, fmt.Errorf("config: stat %s: %w", w.path, err)
	}
	if info.ModTime().Equal(w.seen.mtime) {
		return false, nil
	}

	cfg, stamp, err := w.read()
	if err != nil {
		return false, err
	}
	if stamp.sum == w.seen.sum {
		w.seen = stamp
		return false, nil
	}
	w.seen = stamp

	old := w.current.Swap(cfg)
	d := Diff(old, cfg)
	slog.Info("config: reloaded", "path", w.path,
		"log_level_changed", d.LogLevelChanged,
		"sanitizer_changed", d.SanitizerChanged,
		"restart_required", d.RestartRequired,
	)
	if w.onReload != nil {
		w.onReload(old, cfg, d)
	}
	return true, nil
}

func (w *Watcher) read() (*Config, fileStamp, error) {
	info, err := os.Stat(w.path)
	if err != nil {
		return nil, fileStamp{}, err
	}
	data, err := os.ReadFile(w.path)
	if err != nil {
		return nil, fileStamp{}, err
	}
	cfg, err := LoadFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fileStamp{}, err
	}
	return cfg, fileStamp{mtime: info.ModTime(), sum: sha256.Sum256(data)}, nil
}
