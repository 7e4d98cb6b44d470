// Package chat implements [conversation.Backend] on top of any stateless
// chat-completion [llm.Provider].
//
// Chat-completion APIs do not remember earlier turns, so the backend keeps each
// exchange in a size-bounded, expiring cache keyed by message id and replays
// the parent chain on every continuation. Long chains are cut to the most
// recent turns, but the opening turn of a conversation is always replayed
// since it carries the caster instructions. When the parent has been evicted
// the turn proceeds without history rather than failing.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/MrWong99/broodcaster/pkg/conversation"
	"github.com/MrWong99/broodcaster/pkg/provider/llm"
)

// Compile-time interface assertion.
var _ conversation.Backend = (*Backend)(nil)

const (
	defaultMaxMessages = 4096
	defaultHistoryTTL  = 6 * time.Hour
	defaultMaxTurns    = 20
)

// turn is one stored exchange. rootID names the opening turn of its
// conversation; the opening turn is its own root.
type turn struct {
	conversationID string
	parentID       string
	rootID         string
	user           string
	assistant      string
}

// Option is a functional option for [New].
type Option func(*Backend)

// WithSystemPrompt sets an instruction sent ahead of every request.
func WithSystemPrompt(s string) Option {
	return func(b *Backend) {
		b.systemPrompt = s
	}
}

// WithHistory bounds the message cache to size entries kept for ttl each.
func WithHistory(size int, ttl time.Duration) Option {
	return func(b *Backend) {
		if size > 0 {
			b.cacheSize = size
		}
		if ttl > 0 {
			b.cacheTTL = ttl
		}
	}
}

// WithMaxTurns caps how many earlier turns are replayed in addition to the
// opening turn. Older turns are dropped from the request but stay in the
// cache.
func WithMaxTurns(n int) Option {
	return func(b *Backend) {
		if n > 0 {
			b.maxTurns = n
		}
	}
}

// WithSampling sets temperature and reply token limit. Zero values keep the
// provider defaults.
func WithSampling(temperature float64, maxTokens int) Option {
	return func(b *Backend) {
		b.temperature = temperature
		b.maxTokens = maxTokens
	}
}

// Backend replays locally stored history through a chat-completion provider.
// It is safe for concurrent use.
type Backend struct {
	provider     llm.Provider
	systemPrompt string
	temperature  float64
	maxTokens    int
	maxTurns     int
	cacheSize    int
	cacheTTL     time.Duration

	history *lru.LRU[string, turn]
	newID   func() string
}

// New wraps provider.
func New(provider llm.Provider, opts ...Option) (*Backend, error) {
	if provider == nil {
		return nil, errors.New("chat: provider must not be nil")
	}
	b := &Backend{
		provider:  provider,
		maxTurns:  defaultMaxTurns,
		cacheSize: defaultMaxMessages,
		cacheTTL:  defaultHistoryTTL,
		newID:     uuid.NewString,
	}
	for _, o := range opts {
		o(b)
	}
	b.history = lru.NewLRU[string, turn](b.cacheSize, nil, b.cacheTTL)
	return b, nil
}

// Send implements [conversation.Backend].
func (b *Backend) Send(ctx context.Context, prompt string, cont *conversation.Continuation) (*conversation.Reply, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("chat: send: %w: empty prompt", conversation.ErrInvalidRequest)
	}

	conversationID := b.newID()
	messageID := b.newID()
	rootID := messageID
	var parentID string
	var chain []turn
	if cont != nil {
		conversationID = cont.ConversationID
		parentID = cont.MessageID
		chain = b.chain(parentID)
		if len(chain) == 0 && parentID != "" {
			slog.Warn("chat: history expired, continuing without context",
				"conversation_id", conversationID, "message_id", parentID)
		} else if len(chain) > 0 {
			rootID = chain[0].rootID
		}
	}

	messages := make([]llm.Message, 0, 2*len(chain)+1)
	for _, t := range chain {
		messages = append(messages,
			llm.Message{Role: llm.RoleUser, Content: t.user},
			llm.Message{Role: llm.RoleAssistant, Content: t.assistant},
		)
	}
	messages = append(messages, llm.Message{Role: llm.RoleUser, Content: prompt})

	resp, err := b.provider.Complete(ctx, llm.CompletionRequest{
		Messages:     messages,
		SystemPrompt: b.systemPrompt,
		Temperature:  b.temperature,
		MaxTokens:    b.maxTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("chat: send: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("chat: send: %w: nil completion", conversation.ErrUnexpectedResponse)
	}

	b.history.Add(messageID, turn{
		conversationID: conversationID,
		parentID:       parentID,
		rootID:         rootID,
		user:           prompt,
		assistant:      resp.Content,
	})
	return &conversation.Reply{
		Text:           resp.Content,
		ConversationID: conversationID,
		MessageID:      messageID,
	}, nil
}

// chain returns up to maxTurns stored turns ending at id, oldest first. When
// the walk stops short of the opening turn, the opening turn is put in front.
func (b *Backend) chain(id string) []turn {
	var out []turn
	var rootID string
	for id != "" && len(out) < b.maxTurns {
		t, ok := b.history.Get(id)
		if !ok {
			break
		}
		out = append(out, t)
		rootID = t.rootID
		id = t.parentID
	}
	if id != "" && rootID != "" {
		if root, ok := b.history.Get(rootID); ok {
			out = append(out, root)
		}
	}
	slices.Reverse(out)
	return out
}

// Len returns the number of cached turns.
func (b *Backend) Len() int {
	return b.history.Len()
}
