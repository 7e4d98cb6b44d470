package chat

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/MrWong99/broodcaster/pkg/conversation"
	"github.com/MrWong99/broodcaster/pkg/provider/llm"
	"github.com/MrWong99/broodcaster/pkg/provider/llm/mock"
)

// sequentialIDs replaces uuid generation with id-1, id-2, ...
func sequentialIDs(b *Backend) {
	n := 0
	b.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
}

func TestSend_OpenThenContinueReplaysHistory(t *testing.T) {
	p := &mock.Provider{Responses: []*llm.CompletionResponse{
		{Content: "Welcome to the game!"},
		{Content: "Flash expands early."},
	}}
	b, err := New(p, WithSystemPrompt("You are a caster."))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	sequentialIDs(b)
	ctx := context.Background()

	first, err := b.Send(ctx, "opening", nil)
	if err != nil {
		t.Fatalf("first Send: %v", err)
	}
	if first.ConversationID != "id-1" || first.MessageID != "id-2" {
		t.Errorf("first reply = %+v", first)
	}

	second, err := b.Send(ctx, "situation:\n- expand", first.Continuation())
	if err != nil {
		t.Fatalf("second Send: %v", err)
	}
	if second.ConversationID != first.ConversationID {
		t.Errorf("conversation id changed: %q -> %q", first.ConversationID, second.ConversationID)
	}
	if second.MessageID == first.MessageID {
		t.Error("message id must change per turn")
	}

	calls := p.Calls()
	if len(calls) != 2 {
		t.Fatalf("provider calls = %d, want 2", len(calls))
	}
	if calls[0].Req.SystemPrompt != "You are a caster." {
		t.Errorf("system prompt = %q", calls[0].Req.SystemPrompt)
	}
	got := calls[1].Req.Messages
	want := []llm.Message{
		{Role: llm.RoleUser, Content: "opening"},
		{Role: llm.RoleAssistant, Content: "Welcome to the game!"},
		{Role: llm.RoleUser, Content: "situation:\n- expand"},
	}
	if len(got) != len(want) {
		t.Fatalf("messages = %+v", got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("messages[%d] = %+v, want %+v", i, got[i], want[i])
		}
	}
}

func TestSend_MaxTurns(t *testing.T) {
	p := &mock.Provider{Responses: []*llm.CompletionResponse{{Content: "ok"}}}
	b, _ := New(p, WithMaxTurns(2))
	ctx := context.Background()

	var cont *conversation.Continuation
	for i := range 5 {
		r, err := b.Send(ctx, fmt.Sprintf("turn %d", i), cont)
		if err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
		cont = r.Continuation()
	}
	last := p.Calls()[4].Req.Messages
	if len(last) != 7 {
		t.Fatalf("messages = %d, want opening + 2 replayed turns + prompt", len(last))
	}
	for i, want := range []string{"turn 0", "turn 2", "turn 3", "turn 4"} {
		if got := last[2*i].Content; got != want {
			t.Errorf("user message %d = %q, want %q", i, got, want)
		}
	}
}

func TestSend_LongGameKeepsOpening(t *testing.T) {
	const opening = "Generate a live commentary. Reply with 55 words or less.\n\nsituation:\n- start"
	p := &mock.Provider{Responses: []*llm.CompletionResponse{{Content: "ok"}}}
	b, _ := New(p)
	ctx := context.Background()

	r, err := b.Send(ctx, opening, nil)
	if err != nil {
		t.Fatalf("opening Send: %v", err)
	}
	cont := r.Continuation()
	for i := range defaultMaxTurns + 5 {
		r, err := b.Send(ctx, fmt.Sprintf("situation:\n- event %d", i), cont)
		if err != nil {
			t.Fatalf("Send %d: %v", i, err)
		}
		cont = r.Continuation()
	}

	calls := p.Calls()
	last := calls[len(calls)-1].Req.Messages
	if last[0].Content != opening {
		t.Errorf("first message = %q, want the opening prompt", last[0].Content)
	}
	// Opening turn, defaultMaxTurns replayed turns and the new prompt.
	if want := 2*(defaultMaxTurns+1) + 1; len(last) != want {
		t.Errorf("messages = %d, want %d", len(last), want)
	}
	if got := last[len(last)-1].Content; got != fmt.Sprintf("situation:\n- event %d", defaultMaxTurns+4) {
		t.Errorf("last message = %q", got)
	}
}

func TestSend_ExpiredParentContinuesWithoutHistory(t *testing.T) {
	p := &mock.Provider{Responses: []*llm.CompletionResponse{{Content: "ok"}}}
	b, _ := New(p)

	r, err := b.Send(context.Background(), "hello", &conversation.Continuation{
		ConversationID: "conv", MessageID: "gone",
	})
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	if r.ConversationID != "conv" {
		t.Errorf("conversation id = %q, want conv", r.ConversationID)
	}
	if n := len(p.Calls()[0].Req.Messages); n != 1 {
		t.Errorf("messages = %d, want only the prompt", n)
	}
}

func TestSend_ProviderErrorIsNotStored(t *testing.T) {
	p := &mock.Provider{Errs: []error{errors.New("rate limited")}}
	b, _ := New(p)

	if _, err := b.Send(context.Background(), "hello", nil); err == nil {
		t.Fatal("expected error")
	}
	if b.Len() != 0 {
		t.Errorf("history len = %d, want 0", b.Len())
	}
}

func TestSend_NilCompletion(t *testing.T) {
	b, _ := New(&mock.Provider{})
	_, err := b.Send(context.Background(), "hello", nil)
	if !errors.Is(err, conversation.ErrUnexpectedResponse) {
		t.Fatalf("err = %v, want ErrUnexpectedResponse", err)
	}
}

func TestSend_EmptyPrompt(t *testing.T) {
	p := &mock.Provider{}
	b, _ := New(p)
	if _, err := b.Send(context.Background(), "", nil); !errors.Is(err, conversation.ErrInvalidRequest) {
		t.Fatalf("err = %v, want ErrInvalidRequest", err)
	}
	if len(p.Calls()) != 0 {
		t.Error("provider must not be called")
	}
}

func TestSend_DistinctConversations(t *testing.T) {
	b, _ := New(&mock.Provider{Responses: []*llm.CompletionResponse{{Content: "ok"}}})
	ctx := context.Background()

	a, _ := b.Send(ctx, "game a", nil)
	c, _ := b.Send(ctx, "game b", nil)
	if a.ConversationID == c.ConversationID || a.MessageID == c.MessageID {
		t.Errorf("conversations share ids: %+v / %+v", a, c)
	}
}

func TestWithHistory_Expiry(t *testing.T) {
	b, _ := New(&mock.Provider{Responses: []*llm.CompletionResponse{{Content: "ok"}}},
		WithHistory(10, 20*time.Millisecond))
	if _, err := b.Send(context.Background(), "hi", nil); err != nil {
		t.Fatalf("Send: %v", err)
	}
	deadline := time.Now().Add(2 * time.Second)
	for b.Len() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("history len = %d after ttl, want 0", b.Len())
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestNew_NilProvider(t *testing.T) {
	if _, err := New(nil); err == nil {
		t.Fatal("expected error")
	}
}
