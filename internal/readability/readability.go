// Package readability estimates how well a speech synthesiser will pronounce an
// identifier such as a bot name.
//
// A [Scorer] splits the identifier into words (at whitespace and at camel-case
// boundaries), rewards words found in a reference [Dictionary], and scores the
// rest by how common their letter pairs are in English. The total is normalised
// by the identifier length so long and short names are comparable.
//
// Names scoring at least the threshold (default 0.38) are considered readable;
// everything else should be replaced with a generic label before it reaches the
// synthesiser. Scoring is a pure function of the input and is safe for
// concurrent use.
package readability

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"regexp"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"
)

// DefaultThreshold is the minimum normalised score for a name to be readable.
const DefaultThreshold = 0.38

// minDictionaryWord is the shortest word that is looked up in the dictionary.
// Shorter words are almost always abbreviations.
const minDictionaryWord = 3

// droppedTokens are single-letter race suffixes commonly appended to bot names
// ("Steamhammer Z"). They carry no meaning when read aloud.
var droppedTokens = map[string]struct{}{
	"T": {},
	"Z": {},
	"P": {},
}

// Dictionary reports whether an upper-case word is a known word.
type Dictionary interface {
	Contains(word string) bool
}

// WordSet is a [Dictionary] backed by a set of upper-case words.
type WordSet map[string]struct{}

// Contains implements [Dictionary].
func (w WordSet) Contains(word string) bool {
	_, ok := w[word]
	return ok
}

// words.txt holds base forms only; see [Inflect].
//
//go:embed words.txt
var embeddedWords string

var defaultDictionary = sync.OnceValue(func() WordSet {
	ws, err := LoadDictionary(strings.NewReader(embeddedWords))
	if err != nil {
		panic("readability: embedded word list: " + err.Error())
	}
	return Inflect(ws)
})

// DefaultDictionary returns the built-in English word list with its regular
// inflections.
func DefaultDictionary() WordSet {
	return defaultDictionary()
}

// LoadDictionary reads a newline-separated word list. Blank lines and lines
// starting with '#' are skipped; words are stored upper-cased.
func LoadDictionary(r io.Reader) (WordSet, error) {
	ws := make(WordSet)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		ws[strings.ToUpper(line)] = struct{}{}
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("readability: read word list: %w", err)
	}
	return ws, nil
}

// Option is a functional option for [New].
type Option func(*Scorer)

// WithDictionary replaces the built-in word list.
func WithDictionary(d Dictionary) Option {
	return func(s *Scorer) {
		s.dict = d
	}
}

// WithThreshold overrides [DefaultThreshold]. Non-positive values are ignored.
func WithThreshold(t float64) Option {
	return func(s *Scorer) {
		if t > 0 {
			s.threshold = t
		}
	}
}

// Scorer classifies identifiers as readable or not. It is read-only after
// construction.
type Scorer struct {
	dict      Dictionary
	threshold float64
}

// New returns a Scorer using the built-in dictionary and [DefaultThreshold]
// unless overridden by opts.
func New(opts ...Option) *Scorer {
	s := &Scorer{threshold: DefaultThreshold}
	for _, o := range opts {
		o(s)
	}
	if s.dict == nil {
		s.dict = DefaultDictionary()
	}
	return s
}

// Threshold returns the readability threshold in use.
func (s *Scorer) Threshold() float64 {
	return s.threshold
}

// Score returns the normalised readability score of input. The empty string
// scores 0.
func (s *Scorer) Score(input string) float64 {
	length := utf8.RuneCountInString(input)
	if length == 0 {
		return 0
	}
	var total float64
	for _, w := range SplitWords(input) {
		total += s.wordScore(strings.ToUpper(w))
	}
	return total / float64(length)
}

// Readable reports whether input scores at or above the threshold.
func (s *Scorer) Readable(input string) bool {
	return s.Score(input) >= s.threshold
}

// ReadableName returns a speakable rendition of input, or fallback when input
// is not readable. The rendition is the word list of input with numeric tokens
// and the race suffixes T, Z and P removed, joined by single spaces. If nothing
// is left after filtering, fallback is returned.
func (s *Scorer) ReadableName(input, fallback string) string {
	if !s.Readable(input) {
		return fallback
	}
	var kept []string
	for _, w := range SplitWords(input) {
		if _, drop := droppedTokens[w]; drop || isNumeric(w) {
			continue
		}
		kept = append(kept, w)
	}
	if len(kept) == 0 {
		return fallback
	}
	return strings.Join(kept, " ")
}

// wordScore scores a single upper-case word.
func (s *Scorer) wordScore(word string) float64 {
	runes := []rune(word)
	n := len(runes)
	if n >= minDictionaryWord && s.dict.Contains(word) {
		return float64(n / 2)
	}
	return max(bigramSum(runes, 0), bigramSum(runes, 1))
}

// bigramSum adds the weights of n/2 consecutive, non-overlapping letter pairs
// starting at offset. A trailing single letter contributes nothing.
func bigramSum(runes []rune, offset int) float64 {
	var sum float64
	for j := 0; j < len(runes)/2; j++ {
		start := offset + 2*j
		if start+2 > len(runes) {
			break
		}
		sum += bigramWeights[string(runes[start:start+2])]
	}
	return sum
}

// SplitWords splits input at whitespace and wherever an ASCII lower-case letter
// is directly followed by an upper-case one ("PurpleWave" → "Purple", "Wave").
// Empty fragments are dropped.
func SplitWords(input string) []string {
	var (
		words []string
		cur   []rune
	)
	flush := func() {
		if len(cur) > 0 {
			words = append(words, string(cur))
			cur = cur[:0]
		}
	}
	for _, r := range input {
		if unicode.IsSpace(r) {
			flush()
			continue
		}
		if isASCIIUpper(r) && len(cur) > 0 && isASCIILower(cur[len(cur)-1]) {
			flush()
		}
		cur = append(cur, r)
	}
	flush()
	return words
}

func isASCIIUpper(r rune) bool { return r >= 'A' && r <= 'Z' }
func isASCIILower(r rune) bool { return r >= 'a' && r <= 'z' }

// numberPattern matches plain decimal numbers such as "7", "-3", "2.5" or
// "1e3". Words like "Nan" or "Inf" are not numbers.
var numberPattern = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)([eE][+-]?\d+)?$`)

func isNumeric(w string) bool {
	return numberPattern.MatchString(w)
}
