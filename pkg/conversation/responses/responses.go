// Package responses implements [conversation.Backend] on the OpenAI Responses
// API, which keeps conversation state server-side.
//
// The first turn creates a stored response; each later turn passes the previous
// response id as previous_response_id. The id of the opening response doubles
// as the conversation id.
//
//	b, err := responses.New("gpt-4o-mini", responses.EnvKey("OPENAI_API_KEY"))
//	reply, err := b.Send(ctx, prompt, nil)
//	reply, err = b.Send(ctx, next, reply.Continuation())
package responses

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	oai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/packages/param"
	oairesponses "github.com/openai/openai-go/responses"

	"github.com/MrWong99/broodcaster/pkg/conversation"
)

// Compile-time interface assertions.
var (
	_ conversation.Backend   = (*Backend)(nil)
	_ conversation.Refresher = (*Backend)(nil)
)

// KeySource returns the API key to use. It is consulted at construction and on
// every [Backend.Refresh].
type KeySource func(ctx context.Context) (string, error)

// StaticKey returns a KeySource that always yields key.
func StaticKey(key string) KeySource {
	return func(context.Context) (string, error) {
		if key == "" {
			return "", errors.New("responses: empty api key")
		}
		return key, nil
	}
}

// EnvKey returns a KeySource reading the named environment variable.
func EnvKey(name string) KeySource {
	return func(context.Context) (string, error) {
		key := os.Getenv(name)
		if key == "" {
			return "", fmt.Errorf("responses: environment variable %s is empty", name)
		}
		return key, nil
	}
}

// FileKey returns a KeySource reading the key from a file, so a rotated key is
// picked up on refresh.
func FileKey(path string) KeySource {
	return func(context.Context) (string, error) {
		b, err := os.ReadFile(path)
		if err != nil {
			return "", fmt.Errorf("responses: read key file: %w", err)
		}
		key := strings.TrimSpace(string(b))
		if key == "" {
			return "", fmt.Errorf("responses: key file %s is empty", path)
		}
		return key, nil
	}
}

type config struct {
	baseURL         string
	timeout         time.Duration
	httpClient      *http.Client
	instructions    string
	temperature     float64
	maxOutputTokens int
}

// Option is a functional option for [New].
type Option func(*config)

// WithBaseURL overrides the default OpenAI API base URL.
func WithBaseURL(url string) Option {
	return func(c *config) {
		c.baseURL = url
	}
}

// WithTimeout sets a per-request HTTP timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *config) {
		c.timeout = d
	}
}

// WithHTTPClient replaces the HTTP client. It takes precedence over
// [WithTimeout].
func WithHTTPClient(hc *http.Client) Option {
	return func(c *config) {
		c.httpClient = hc
	}
}

// WithInstructions sets a system instruction sent with every turn. Instructions
// are not carried over by previous_response_id, so they are repeated.
func WithInstructions(s string) Option {
	return func(c *config) {
		c.instructions = s
	}
}

// WithTemperature sets the sampling temperature. Zero keeps the model default.
func WithTemperature(t float64) Option {
	return func(c *config) {
		c.temperature = t
	}
}

// WithMaxOutputTokens caps the reply length. Zero keeps the model default.
func WithMaxOutputTokens(n int) Option {
	return func(c *config) {
		c.maxOutputTokens = n
	}
}

// Backend talks to the Responses API. It is safe for concurrent use.
type Backend struct {
	model string
	keys  KeySource
	cfg   config

	mu     sync.RWMutex
	client oai.Client
}

// New builds a Backend for model, reading the API key from keys.
func New(model string, keys KeySource, opts ...Option) (*Backend, error) {
	if model == "" {
		return nil, errors.New("responses: model must not be empty")
	}
	if keys == nil {
		return nil, errors.New("responses: key source must not be nil")
	}
	b := &Backend{model: model, keys: keys}
	for _, o := range opts {
		o(&b.cfg)
	}
	if err := b.Refresh(context.Background()); err != nil {
		return nil, err
	}
	return b, nil
}

// Refresh implements [conversation.Refresher]. It re-reads the API key and
// rebuilds the client. Conversations survive a refresh because their state is
// stored server-side.
func (b *Backend) Refresh(ctx context.Context) error {
	key, err := b.keys(ctx)
	if err != nil {
		return fmt.Errorf("responses: refresh: %w", err)
	}

	reqOpts := []option.RequestOption{
		option.WithAPIKey(key),
		option.WithMaxRetries(0),
	}
	if b.cfg.baseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(b.cfg.baseURL))
	}
	switch {
	case b.cfg.httpClient != nil:
		reqOpts = append(reqOpts, option.WithHTTPClient(b.cfg.httpClient))
	case b.cfg.timeout > 0:
		reqOpts = append(reqOpts, option.WithHTTPClient(&http.Client{Timeout: b.cfg.timeout}))
	}

	client := oai.NewClient(reqOpts...)
	b.mu.Lock()
	b.client = client
	b.mu.Unlock()
	return nil
}

// Send implements [conversation.Backend].
func (b *Backend) Send(ctx context.Context, prompt string, cont *conversation.Continuation) (*conversation.Reply, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("responses: send: %w: empty prompt", conversation.ErrInvalidRequest)
	}

	params := oairesponses.ResponseNewParams{
		Model: b.model,
		Input: oairesponses.ResponseNewParamsInputUnion{OfString: param.NewOpt(prompt)},
		Store: param.NewOpt(true),
	}
	if cont != nil {
		params.PreviousResponseID = param.NewOpt(cont.MessageID)
	}
	if b.cfg.instructions != "" {
		params.Instructions = param.NewOpt(b.cfg.instructions)
	}
	if b.cfg.temperature != 0 {
		params.Temperature = param.NewOpt(b.cfg.temperature)
	}
	if b.cfg.maxOutputTokens > 0 {
		params.MaxOutputTokens = param.NewOpt(int64(b.cfg.maxOutputTokens))
	}

	b.mu.RLock()
	client := b.client
	b.mu.RUnlock()

	resp, err := client.Responses.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("responses: send: %w", classify(err))
	}
	if resp == nil || resp.ID == "" {
		return nil, fmt.Errorf("responses: send: %w: response without id", conversation.ErrUnexpectedResponse)
	}
	if resp.Error.Code != "" {
		if resp.Error.Code == "invalid_prompt" {
			return nil, fmt.Errorf("responses: send: %w: %s", conversation.ErrInvalidRequest, resp.Error.Message)
		}
		return nil, fmt.Errorf("responses: send: model error %s: %s", resp.Error.Code, resp.Error.Message)
	}

	reply := &conversation.Reply{
		Text:           resp.OutputText(),
		ConversationID: resp.ID,
		MessageID:      resp.ID,
	}
	if cont != nil && cont.ConversationID != "" {
		reply.ConversationID = cont.ConversationID
	}
	return reply, nil
}

// classify marks client errors that retrying cannot fix.
func classify(err error) error {
	var apiErr *oai.Error
	if errors.As(err, &apiErr) {
		switch apiErr.StatusCode {
		case http.StatusBadRequest, http.StatusNotFound, http.StatusUnprocessableEntity:
			return fmt.Errorf("%w: %w", conversation.ErrInvalidRequest, err)
		}
	}
	return err
}
