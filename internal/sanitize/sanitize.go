// Package sanitize rewrites model output into text a speech synthesiser reads
// naturally.
package sanitize

import (
	"regexp"
	"slices"
	"strings"
)

// Substitution replaces every case-insensitive occurrence of From with To.
type Substitution struct {
	From string `yaml:"from"`
	To   string `yaml:"to"`
}

// DefaultSubstitutions are applied in order before any configured extras.
var DefaultSubstitutions = []Substitution{
	{From: "Starcraft: Brood War", To: "Starcraft"},
	{From: "Hydralisk", To: "Hi-dra-lisk"},
	{From: "lead", To: "leed"},
	{From: "Patreon", To: "Pae-treon"},
}

// Catchphrase defaults.
const (
	DefaultCatchphrase      = "who will come out on top?"
	DefaultCatchphraseLimit = 2
)

var spaceRun = regexp.MustCompile(`[ \t]{2,}`)

type compiledSub struct {
	re *regexp.Regexp
	to string
}

// Option configures a [Sanitizer].
type Option func(*Sanitizer)

// WithSubstitutions appends extra substitutions after the defaults.
func WithSubstitutions(subs ...Substitution) Option {
	return func(s *Sanitizer) {
		s.extra = append(s.extra, subs...)
	}
}

// WithCatchphrase overrides the suppressed phrase and how many responses may
// contain it before it is stripped. An empty phrase disables suppression.
func WithCatchphrase(phrase string, limit int) Option {
	return func(s *Sanitizer) {
		s.phrase = phrase
		s.limit = limit
	}
}

// Sanitizer is safe for concurrent use. Per-session state (the catchphrase
// counter) is owned by the caller and passed in explicitly.
type Sanitizer struct {
	extra  []Substitution
	phrase string
	limit  int

	subs     []compiledSub
	phraseRe *regexp.Regexp
}

// New compiles a Sanitizer.
func New(opts ...Option) *Sanitizer {
	s := &Sanitizer{phrase: DefaultCatchphrase, limit: DefaultCatchphraseLimit}
	for _, o := range opts {
		o(s)
	}
	for _, sub := range slices.Concat(DefaultSubstitutions, s.extra) {
		if sub.From == "" {
			continue
		}
		s.subs = append(s.subs, compiledSub{
			re: regexp.MustCompile("(?i)" + regexp.QuoteMeta(sub.From)),
			to: sub.To,
		})
	}
	if s.phrase != "" {
		s.phraseRe = regexp.MustCompile("(?i)" + regexp.QuoteMeta(s.phrase))
	}
	return s
}

// Clean applies the substitution table, turns ", " into " ", strips double
// quotes and trims surrounding whitespace.
func (s *Sanitizer) Clean(text string) string {
	for _, sub := range s.subs {
		text = sub.re.ReplaceAllLiteralString(text, sub.to)
	}
	text = strings.ReplaceAll(text, ", ", " ")
	text = strings.ReplaceAll(text, `"`, "")
	return strings.TrimSpace(text)
}

// Result is the outcome of [Sanitizer.Sanitize].
type Result struct {
	Text string
	// Count is the session's updated catchphrase counter.
	Count int
	// Suppressed reports whether the catchphrase was stripped from Text.
	Suppressed bool
}

// Sanitize cleans text and applies the catchphrase limiter. count is the number
// of earlier responses in this session that contained the catchphrase. The
// counter grows by one when the raw text contains the phrase; once it exceeds
// the limit every occurrence is removed.
func (s *Sanitizer) Sanitize(text string, count int) Result {
	out := s.Clean(text)
	if s.phraseRe == nil || !s.phraseRe.MatchString(text) {
		return Result{Text: out, Count: count}
	}
	count++
	if count <= s.limit {
		return Result{Text: out, Count: count}
	}
	out = s.phraseRe.ReplaceAllLiteralString(out, "")
	out = strings.TrimSpace(spaceRun.ReplaceAllString(out, " "))
	return Result{Text: out, Count: count, Suppressed: true}
}
