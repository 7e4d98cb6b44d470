package main

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/MrWong99/broodcaster/internal/commentary"
)

const (
	maxLineBytes = 1 << 20
	queueDepth   = 16
)

// commenter runs turns and forgets finished games.
type commenter interface {
	Comment(ctx context.Context, req commentary.Request) (commentary.Result, error)
	EndGame(gameID string) bool
}

// output is one line written to stdout per input line.
type output struct {
	GameID         string `json:"gameId,omitempty"`
	Spoken         bool   `json:"spoken"`
	Text           string `json:"text,omitempty"`
	Filler         string `json:"filler,omitempty"`
	ConversationID string `json:"conversationId,omitempty"`
	MessageID      string `json:"messageId,omitempty"`
	Audio          string `json:"audio,omitempty"`
	Ended          bool   `json:"ended,omitempty"`
	Error          string `json:"error,omitempty"`
}

// resultWriter serialises output lines and stores audio files.
type resultWriter struct {
	mu     sync.Mutex
	enc    *json.Encoder
	outDir string
}

func newResultWriter(w io.Writer, outDir string) *resultWriter {
	return &resultWriter{enc: json.NewEncoder(w), outDir: outDir}
}

func (w *resultWriter) write(o output) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.enc.Encode(o); err != nil {
		slog.Error("broodcaster: write result", "game_id", o.GameID, "err", err)
	}
}

// saveAudio writes wav to a uniquely named file and returns its path. Audio is
// dropped when no output directory is configured.
func (w *resultWriter) saveAudio(wav []byte) (string, error) {
	if w.outDir == "" || len(wav) == 0 {
		return "", nil
	}
	path := filepath.Join(w.outDir, uuid.NewString()+".wav")
	if err := os.WriteFile(path, wav, 0o644); err != nil {
		return "", fmt.Errorf("save audio: %w", err)
	}
	return path, nil
}

// dispatcher reads requests line by line and runs them in arrival order per
// game, with different games running concurrently. Each game has one worker;
// an end line retires it once the game's queued turns are done.
type dispatcher struct {
	c   commenter
	out *resultWriter

	// live counts running game workers.
	live atomic.Int64
}

// worker is the queue of one running game. done closes when the worker has
// drained its queue.
type worker struct {
	q    chan commentary.Request
	done chan struct{}
}

// Run consumes r until EOF or ctx ends and waits for every queued turn.
func (d *dispatcher) Run(ctx context.Context, r io.Reader) error {
	lines := make(chan []byte)
	readErr := make(chan error, 1)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)
		for sc.Scan() {
			line := append([]byte(nil), sc.Bytes()...)
			select {
			case lines <- line:
			case <-ctx.Done():
				return
			}
		}
		readErr <- sc.Err()
	}()

	g, gctx := errgroup.WithContext(ctx)
	workers := make(map[string]worker)
	// retiring holds workers of ended games that may still be draining. A new
	// worker for the same id waits for them so the end is not applied to the
	// next game.
	retiring := make(map[string]chan struct{})

	for {
		var line []byte
		var ok bool
		select {
		case line, ok = <-lines:
		case <-ctx.Done():
		}
		if !ok {
			break
		}
		if len(line) == 0 {
			continue
		}

		req, err := commentary.DecodeRequest(line)
		if err != nil {
			d.out.write(output{GameID: req.GameID, Error: err.Error()})
			continue
		}
		wk, exists := workers[req.GameID]
		if !exists {
			wk = worker{q: make(chan commentary.Request, queueDepth), done: make(chan struct{})}
			workers[req.GameID] = wk
			after := retiring[req.GameID]
			delete(retiring, req.GameID)
			d.live.Add(1)
			g.Go(func() error {
				defer d.live.Add(-1)
				defer close(wk.done)
				if after != nil {
					select {
					case <-after:
					case <-gctx.Done():
						return nil
					}
				}
				d.work(gctx, wk.q)
				return nil
			})
		}
		select {
		case wk.q <- req:
		case <-ctx.Done():
		}
		if req.End {
			close(wk.q)
			delete(workers, req.GameID)
			sweepRetired(retiring)
			retiring[req.GameID] = wk.done
		}
	}

	for _, wk := range workers {
		close(wk.q)
	}
	waitErr := g.Wait()
	select {
	case err := <-readErr:
		if err != nil {
			return fmt.Errorf("read input: %w", err)
		}
	default:
	}
	return waitErr
}

// sweepRetired forgets retired workers that have finished.
func sweepRetired(retiring map[string]chan struct{}) {
	for id, done := range retiring {
		select {
		case <-done:
			delete(retiring, id)
		default:
		}
	}
}

func (d *dispatcher) work(ctx context.Context, q <-chan commentary.Request) {
	for req := range q {
		if req.End {
			known := d.c.EndGame(req.GameID)
			slog.Info("broodcaster: game ended", "game_id", req.GameID, "known", known, "workers", d.live.Load())
			d.out.write(output{GameID: req.GameID, Ended: true})
			continue
		}
		res, err := d.c.Comment(ctx, req)
		o := output{GameID: req.GameID}
		if err != nil {
			o.Error = err.Error()
			d.out.write(o)
			continue
		}
		o.Spoken = res.Spoken
		o.Text = res.Text
		o.Filler = res.Filler
		o.ConversationID = res.ConversationID
		o.MessageID = res.MessageID
		if path, err := d.out.saveAudio(res.Audio); err != nil {
			slog.Warn("broodcaster: dropping audio", "game_id", req.GameID, "err", err)
		} else {
			o.Audio = path
		}
		d.out.write(o)
	}
}
