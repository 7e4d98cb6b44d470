// Package prompt renders game situations into the text sent to the
// conversational backend.
package prompt

import (
	"fmt"
	"strings"
)

// Defaults for [Formatter].
var (
	DefaultCasters  = []string{"Tastless", "Artosis", "Day9"}
	DefaultMaxWords = 55
)

// Option configures a [Formatter].
type Option func(*Formatter)

// WithCasters sets the personas the model should imitate. An empty list keeps
// the defaults.
func WithCasters(casters ...string) Option {
	return func(f *Formatter) {
		if len(casters) > 0 {
			f.casters = casters
		}
	}
}

// WithMaxWords sets the reply length limit. Non-positive values are ignored.
func WithMaxWords(n int) Option {
	return func(f *Formatter) {
		if n > 0 {
			f.maxWords = n
		}
	}
}

// Formatter builds prompt text. It is read-only after construction.
type Formatter struct {
	casters  []string
	maxWords int
	preamble string
}

// New returns a Formatter with the given options applied.
func New(opts ...Option) *Formatter {
	f := &Formatter{casters: DefaultCasters, maxWords: DefaultMaxWords}
	for _, o := range opts {
		o(f)
	}
	f.preamble = fmt.Sprintf(
		"Generate a live commentary of a professional StarCraft: Brood War game in a style of %s.\n"+
			"I will provide a brief summary of current in-game situation and you use that information to cast the game.\n"+
			"Reply with %d words or less.",
		joinOr(f.casters), f.maxWords)
	return f
}

// Situation renders events as a bulleted situation block:
//
//	situation:
//	- first event
//	- second event
func (f *Formatter) Situation(events []string) string {
	var b strings.Builder
	b.WriteString("situation:")
	for _, e := range events {
		b.WriteString("\n- ")
		b.WriteString(e)
	}
	return b.String()
}

// Preamble returns the persona and length instructions sent at the start of
// a conversation.
func (f *Formatter) Preamble() string {
	return f.preamble
}

// Opening prefixes text with the preamble for the first turn of a
// conversation.
func (f *Formatter) Opening(text string) string {
	return f.preamble + "\n\n" + text
}

// joinOr renders "a, b or c".
func joinOr(items []string) string {
	switch len(items) {
	case 0:
		return ""
	case 1:
		return items[0]
	}
	return strings.Join(items[:len(items)-1], ", ") + " or " + items[len(items)-1]
}
