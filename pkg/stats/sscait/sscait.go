// Package sscait implements [stats.Source] against the SSCAIT tournament API
// (GET /api/bots.php?bot=<name>).
//
// The API returns a JSON array with one object per matching bot. Win and loss
// counts are sometimes encoded as strings, so both forms are accepted.
//
//	src := sscait.New(sscait.WithTimeout(5*time.Second))
//	rec, err := src.Lookup(ctx, "PurpleWave")
package sscait

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/MrWong99/broodcaster/pkg/stats"
)

// Compile-time interface assertion.
var _ stats.Source = (*Client)(nil)

const (
	// DefaultBaseURL is the public tournament site.
	DefaultBaseURL = "https://sscaitournament.com"
	botsEndpoint   = "/api/bots.php"
	defaultTimeout = 10 * time.Second
	maxBodyBytes   = 1 << 20
)

// Option is a functional option for [New].
type Option func(*Client)

// WithBaseURL overrides [DefaultBaseURL].
func WithBaseURL(u string) Option {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(u, "/")
	}
}

// WithHTTPClient replaces the default HTTP client. A nil client keeps the
// default. The client is not modified; [WithTimeout] applies to a copy.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// WithTimeout sets the per-request timeout. Without it the default client
// times out after 10 seconds and a client from [WithHTTPClient] keeps its own
// timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		c.timeout = &d
	}
}

// WithRateLimit caps outgoing requests to rps per second with the given burst.
// A non-positive rps disables limiting.
func WithRateLimit(rps float64, burst int) Option {
	return func(c *Client) {
		if rps <= 0 {
			c.limiter = nil
			return
		}
		c.limiter = rate.NewLimiter(rate.Limit(rps), max(burst, 1))
	}
}

// Client queries the SSCAIT API. It is safe for concurrent use.
type Client struct {
	baseURL    string
	httpClient *http.Client
	timeout    *time.Duration
	limiter    *rate.Limiter
}

// New returns a Client for [DefaultBaseURL] unless overridden.
func New(opts ...Option) *Client {
	c := &Client{baseURL: DefaultBaseURL}
	for _, o := range opts {
		o(c)
	}
	switch {
	case c.httpClient == nil:
		c.httpClient = &http.Client{Timeout: defaultTimeout}
		if c.timeout != nil {
			c.httpClient.Timeout = *c.timeout
		}
	case c.timeout != nil:
		hc := *c.httpClient
		hc.Timeout = *c.timeout
		c.httpClient = &hc
	}
	return c
}

// botEntry is one element of the bots.php response.
type botEntry struct {
	Name   string  `json:"name"`
	Wins   flexInt `json:"wins"`
	Losses flexInt `json:"losses"`
}

// flexInt decodes a JSON number or a numeric string. Empty strings and null
// decode as 0.
type flexInt int

func (f *flexInt) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*f = 0
		return nil
	}
	s := string(b)
	if b[0] == '"' {
		var err error
		if s, err = strconv.Unquote(s); err != nil {
			return fmt.Errorf("sscait: decode count %s: %w", b, err)
		}
		if s = strings.TrimSpace(s); s == "" {
			*f = 0
			return nil
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return fmt.Errorf("sscait: decode count %q: %w", s, err)
	}
	*f = flexInt(v)
	return nil
}

// Lookup implements [stats.Source]. Only the first entry of the response is
// used. An empty array yields [stats.ErrNotFound].
func (c *Client) Lookup(ctx context.Context, bot string) (stats.Record, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return stats.Record{}, fmt.Errorf("sscait: lookup %q: %w", bot, err)
		}
	}

	u := c.baseURL + botsEndpoint + "?bot=" + url.QueryEscape(bot)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return stats.Record{}, fmt.Errorf("sscait: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return stats.Record{}, fmt.Errorf("sscait: lookup %q: %w", bot, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return stats.Record{}, fmt.Errorf("sscait: read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return stats.Record{}, fmt.Errorf("sscait: lookup %q: status %d: %s", bot, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var entries []botEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return stats.Record{}, fmt.Errorf("sscait: decode response: %w", err)
	}
	if len(entries) == 0 {
		return stats.Record{}, fmt.Errorf("sscait: lookup %q: %w", bot, stats.ErrNotFound)
	}
	return stats.Record{
		Bot:    bot,
		Wins:   int(entries[0].Wins),
		Losses: int(entries[0].Losses),
	}, nil
}
