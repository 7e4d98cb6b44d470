// Package names turns raw bot identifiers from game-start events into labels a
// speech synthesiser can say, and rewrites later event text with them.
//
// Players are introduced by an event of the form
//
//	Player 1 is called <name> and plays as <race>
//
// Each name is classified with a [readability.Scorer]; unreadable names fall
// back to "<race> player". When both labels are the same they become
// "Player 1" and "Player 2".
package names

import (
	"cmp"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/antzucaro/matchr"

	"github.com/MrWong99/broodcaster/internal/readability"
)

// Positional labels used when the two players cannot be told apart.
const (
	Player1Label = "Player 1"
	Player2Label = "Player 2"
)

// Player is a bot as introduced by the game-start events.
type Player struct {
	Name string
	Race string
}

// fallback is the race-based label ("Terran player").
func (p Player) fallback() string {
	return p.Race + " player"
}

var introPattern = regexp.MustCompile(`(?i)is\s+called\s+(.+?)\s+and\s+plays\s+as\s*(.*)$`)

// ExtractPlayer returns the player introduced as number n by the first matching
// event. Detection ignores case and spaces ("Player1 is called", "player 1 is
// called"). An "Unknown" race is reported as "Random". The second return value
// is false when no event introduces player n with a non-empty name.
func ExtractPlayer(events []string, n int) (*Player, bool) {
	marker := fmt.Sprintf("player%discalled", n)
	for _, e := range events {
		squashed := strings.ToLower(strings.ReplaceAll(e, " ", ""))
		if !strings.Contains(squashed, marker) {
			continue
		}
		m := introPattern.FindStringSubmatch(e)
		if m == nil {
			continue
		}
		name := strings.TrimSpace(m[1])
		if name == "" {
			continue
		}
		race := strings.TrimSpace(strings.Replace(m[2], "Unknown", "Random", 1))
		return &Player{Name: name, Race: race}, true
	}
	return nil, false
}

// Rule replaces every occurrence of Original with Replacement.
type Rule struct {
	Original    string
	Replacement string
}

// Option configures a [Normalizer].
type Option func(*Normalizer)

// WithPhoneticCollisions makes labels that share a Double Metaphone encoding
// count as identical. Disabled by default: the codes are at most four
// characters long, so distinct names such as "Stardust" and "Starter" share
// one.
func WithPhoneticCollisions(enabled bool) Option {
	return func(n *Normalizer) {
		n.phonetic = enabled
	}
}

// Normalizer derives replacement rules for a pair of players. It is safe for
// concurrent use.
type Normalizer struct {
	scorer   *readability.Scorer
	phonetic bool
}

// New returns a Normalizer classifying names with scorer.
func New(scorer *readability.Scorer, opts ...Option) *Normalizer {
	n := &Normalizer{scorer: scorer}
	for _, o := range opts {
		o(n)
	}
	return n
}

// Label returns the speakable label for p.
func (n *Normalizer) Label(p Player) string {
	return n.scorer.ReadableName(p.Name, p.fallback())
}

// Rules returns at most two rules, one per known player, in player order.
// Either player may be nil. When both labels coincide (case-insensitively, or
// phonetically if enabled) they are replaced by "Player 1" and "Player 2".
func (n *Normalizer) Rules(p1, p2 *Player) []Rule {
	var rules []Rule
	var l1, l2 string
	if p1 != nil {
		l1 = n.Label(*p1)
		rules = append(rules, Rule{Original: p1.Name, Replacement: l1})
	}
	if p2 != nil {
		l2 = n.Label(*p2)
		rules = append(rules, Rule{Original: p2.Name, Replacement: l2})
	}
	if p1 != nil && p2 != nil && n.coincide(l1, l2) {
		rules[0].Replacement = Player1Label
		rules[1].Replacement = Player2Label
	}
	return rules
}

func (n *Normalizer) coincide(a, b string) bool {
	if strings.EqualFold(a, b) {
		return true
	}
	if !n.phonetic {
		return false
	}
	ca, cb := phoneticKey(a), phoneticKey(b)
	return ca != "" && ca == cb
}

// phoneticKey joins the primary Double Metaphone code of every word in s.
func phoneticKey(s string) string {
	words := strings.Fields(strings.ToLower(s))
	codes := make([]string, 0, len(words))
	for _, w := range words {
		p, _ := matchr.DoubleMetaphone(w)
		if p == "" {
			// Digits and symbols have no encoding; keep them literally so
			// "Bot 1" and "Bot 2" stay distinct.
			p = w
		}
		codes = append(codes, p)
	}
	return strings.Join(codes, " ")
}

// Apply rewrites text with rules. Longer originals are matched first so a name
// that contains the other is not partially replaced. Replacements are never
// themselves rewritten, and identity rules still shield their name.
func Apply(rules []Rule, text string) string {
	if len(rules) == 0 || text == "" {
		return text
	}
	ordered := slices.Clone(rules)
	slices.SortStableFunc(ordered, func(a, b Rule) int {
		return cmp.Compare(len(b.Original), len(a.Original))
	})
	pairs := make([]string, 0, 2*len(ordered))
	for _, r := range ordered {
		if r.Original == "" {
			continue
		}
		pairs = append(pairs, r.Original, r.Replacement)
	}
	if len(pairs) == 0 {
		return text
	}
	return strings.NewReplacer(pairs...).Replace(text)
}

// ApplyAll rewrites every event with rules.
func ApplyAll(rules []Rule, events []string) []string {
	out := make([]string, len(events))
	for i, e := range events {
		out[i] = Apply(rules, e)
	}
	return out
}
