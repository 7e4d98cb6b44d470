// Package mock provides a test double for the conversation.Backend interface.
//
//	b := &mock.Backend{
//	    Replies: []*conversation.Reply{{Text: "GG", ConversationID: "c1", MessageID: "m1"}},
//	}
package mock

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/MrWong99/broodcaster/pkg/conversation"
)

// Compile-time interface assertions.
var (
	_ conversation.Backend   = (*Backend)(nil)
	_ conversation.Refresher = (*Backend)(nil)
)

// SendCall records a single invocation of Send.
type SendCall struct {
	Prompt string
	// Cont is a copy of the continuation, nil for an opening call.
	Cont *conversation.Continuation
}

// Backend is a mock implementation of conversation.Backend.
//
// When Replies is empty, Send generates replies with ids conv-<n> and
// msg-<n>, continuing the conversation id of the continuation it was given.
type Backend struct {
	mu sync.Mutex

	// Replies[i] answers call i. Calls past the end repeat the last reply.
	Replies []*conversation.Reply

	// Errs[i], if non-nil, is returned by call i instead of a reply.
	Errs []error

	// Text is used for generated replies. Defaults to "reply <n>".
	Text string

	// RefreshErr is returned by Refresh.
	RefreshErr error

	// SendCalls records every invocation of Send in order.
	SendCalls []SendCall

	// RefreshCount counts calls to Refresh.
	RefreshCount int
}

// Send records the call and returns the next scripted error or reply.
func (b *Backend) Send(ctx context.Context, prompt string, cont *conversation.Continuation) (*conversation.Reply, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	call := SendCall{Prompt: prompt}
	if cont != nil {
		c := *cont
		call.Cont = &c
	}
	b.SendCalls = append(b.SendCalls, call)
	idx := len(b.SendCalls) - 1

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if idx < len(b.Errs) && b.Errs[idx] != nil {
		return nil, b.Errs[idx]
	}
	if len(b.Replies) > 0 {
		r := *b.Replies[min(idx, len(b.Replies)-1)]
		return &r, nil
	}

	n := idx + 1
	text := b.Text
	if text == "" {
		text = fmt.Sprintf("reply %d", n)
	}
	convID := fmt.Sprintf("conv-%d", n)
	if cont != nil {
		convID = cont.ConversationID
	}
	return &conversation.Reply{Text: text, ConversationID: convID, MessageID: fmt.Sprintf("msg-%d", n)}, nil
}

// Refresh counts the call and returns RefreshErr.
func (b *Backend) Refresh(context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.RefreshCount++
	return b.RefreshErr
}

// Calls returns a copy of the recorded Send calls.
func (b *Backend) Calls() []SendCall {
	b.mu.Lock()
	defer b.mu.Unlock()
	return slices.Clone(b.SendCalls)
}

// Refreshes returns the number of Refresh calls.
func (b *Backend) Refreshes() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.RefreshCount
}
