// Package mock provides a test double for the llm.Provider interface.
//
// Use Provider to feed controlled replies to the chat conversation backend and
// to inspect the message history it replays.
//
//	p := &mock.Provider{
//	    Responses: []*llm.CompletionResponse{{Content: "What a build!"}},
//	}
package mock

import (
	"context"
	"slices"
	"sync"

	"github.com/MrWong99/broodcaster/pkg/provider/llm"
)

// Ensure Provider implements llm.Provider at compile time.
var _ llm.Provider = (*Provider)(nil)

// CompleteCall records a single invocation of Complete.
type CompleteCall struct {
	// Ctx is the context passed to Complete.
	Ctx context.Context
	// Req is a copy of the CompletionRequest passed to Complete.
	Req llm.CompletionRequest
}

// Provider is a mock implementation of llm.Provider.
type Provider struct {
	mu sync.Mutex

	// Responses[i] answers call i. Calls past the end repeat the last
	// response. A nil entry yields (nil, nil).
	Responses []*llm.CompletionResponse

	// Errs[i], if non-nil, is returned by call i instead of a response.
	Errs []error

	// CompleteCalls records every invocation of Complete in order.
	CompleteCalls []CompleteCall
}

// Complete records the call and returns the next scripted error or response.
func (p *Provider) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	req.Messages = slices.Clone(req.Messages)
	idx := len(p.CompleteCalls)
	p.CompleteCalls = append(p.CompleteCalls, CompleteCall{Ctx: ctx, Req: req})

	if idx < len(p.Errs) && p.Errs[idx] != nil {
		return nil, p.Errs[idx]
	}
	if len(p.Responses) == 0 {
		return nil, nil
	}
	return p.Responses[min(idx, len(p.Responses)-1)], nil
}

// Calls returns a copy of the recorded calls.
func (p *Provider) Calls() []CompleteCall {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.CompleteCalls)
}

// Reset clears all recorded calls.
func (p *Provider) Reset() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.CompleteCalls = nil
}
