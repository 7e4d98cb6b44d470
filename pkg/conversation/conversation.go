// Package conversation defines the Backend interface for multi-turn
// conversational models.
//
// A Backend sends one prompt and returns the reply together with the
// identifiers needed to continue the exchange. Passing a nil [Continuation]
// opens a new conversation; passing the continuation of the previous reply
// extends it. Backends keep no per-caller state beyond what the continuation
// identifiers reference.
//
// Errors are classified with sentinel values so callers can decide whether a
// retry is worthwhile:
//
//   - [ErrInvalidRequest]: the request itself is malformed; retrying cannot help.
//   - [ErrUnexpectedResponse]: the backend answered in a shape the client does
//     not understand.
//   - anything else: transient (network, authentication, rate limiting).
//
// Implementations must be safe for concurrent use.
package conversation

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrInvalidRequest marks failures caused by the request itself.
	ErrInvalidRequest = errors.New("conversation: invalid request")

	// ErrUnexpectedResponse marks replies the client cannot interpret.
	ErrUnexpectedResponse = errors.New("conversation: unexpected response")
)

// Continuation identifies the point a conversation continues from.
type Continuation struct {
	// ConversationID identifies the whole exchange. It is stable across turns.
	ConversationID string

	// MessageID identifies the last reply; the next turn is attached to it.
	MessageID string
}

// Reply is a successful exchange.
type Reply struct {
	// Text is the raw model output.
	Text string

	// ConversationID identifies the exchange this reply belongs to.
	ConversationID string

	// MessageID identifies this reply.
	MessageID string
}

// Continuation returns the continuation that attaches the next turn to r.
func (r *Reply) Continuation() *Continuation {
	return &Continuation{ConversationID: r.ConversationID, MessageID: r.MessageID}
}

// Backend is the abstraction over a conversational model.
type Backend interface {
	// Send delivers prompt. A nil cont opens a new conversation. The returned
	// reply always carries non-empty identifiers.
	Send(ctx context.Context, prompt string, cont *Continuation) (*Reply, error)
}

// Refresher is implemented by backends whose session or credentials can be
// renewed between failed attempts.
type Refresher interface {
	// Refresh renews the backend's session or credentials.
	Refresh(ctx context.Context) error
}

// Validate checks that a reply carries both identifiers. It returns an
// error wrapping [ErrUnexpectedResponse] otherwise.
func Validate(r *Reply) error {
	switch {
	case r == nil:
		return fmt.Errorf("%w: nil reply", ErrUnexpectedResponse)
	case r.MessageID == "":
		return fmt.Errorf("%w: reply without message id", ErrUnexpectedResponse)
	case r.ConversationID == "":
		return fmt.Errorf("%w: reply without conversation id", ErrUnexpectedResponse)
	}
	return nil
}
