package readability

import "strings"

// Inflect returns ws extended with the regular inflections of its words of
// three letters or more: plural and third person ("SPARKS", "BOXES",
// "BERRIES"), past tense ("STOPPED"), present participle ("RAISING"),
// comparative and superlative ("BIGGER", "HAPPIEST") and the -ly adverb
// ("SIMPLY"). The rules are applied blindly, so some generated forms are not
// words; they only matter if a name happens to spell one. ws is not modified.
func Inflect(ws WordSet) WordSet {
	out := make(WordSet, len(ws)*8)
	for w := range ws {
		out[w] = struct{}{}
		for _, f := range inflections(w) {
			out[f] = struct{}{}
		}
	}
	return out
}

func inflections(w string) []string {
	n := len(w)
	if n < 3 || !isUpperWord(w) {
		return nil
	}
	forms := make([]string, 0, 8)
	last := w[n-1]
	consonantY := last == 'Y' && isConsonant(w[n-2])
	double := doublesFinal(w)
	stem := w
	if double {
		stem = w + string(last)
	}

	switch {
	case hasAnySuffix(w, "S", "X", "Z", "CH", "SH"):
		forms = append(forms, w+"ES")
	case consonantY:
		forms = append(forms, w[:n-1]+"IES")
	default:
		forms = append(forms, w+"S")
		if last == 'O' && isConsonant(w[n-2]) {
			forms = append(forms, w+"ES")
		}
	}

	switch {
	case last == 'E':
		forms = append(forms, w+"D", w+"R", w+"ST")
	case consonantY:
		forms = append(forms, w[:n-1]+"IED", w[:n-1]+"IER", w[:n-1]+"IEST")
	default:
		forms = append(forms, stem+"ED", stem+"ER", stem+"EST")
	}

	switch {
	case strings.HasSuffix(w, "IE"):
		forms = append(forms, w[:n-2]+"YING")
	case last == 'E' && !hasAnySuffix(w, "EE", "YE", "OE"):
		forms = append(forms, w[:n-1]+"ING")
	default:
		forms = append(forms, stem+"ING")
	}

	switch {
	case consonantY:
		forms = append(forms, w[:n-1]+"ILY")
	case strings.HasSuffix(w, "LE"):
		forms = append(forms, w[:n-1]+"Y")
	case strings.HasSuffix(w, "IC"):
		forms = append(forms, w+"ALLY")
	default:
		forms = append(forms, w+"LY")
	}
	return forms
}

// doublesFinal reports whether w doubles its final consonant before a vowel
// suffix: a one-syllable word ending consonant, vowel, consonant ("STOP",
// "BIG"), where the last letter is not W, X or Y.
func doublesFinal(w string) bool {
	n := len(w)
	if strings.IndexByte("WXY", w[n-1]) >= 0 {
		return false
	}
	if !isConsonant(w[n-1]) || !isVowel(w[n-2]) || !isConsonant(w[n-3]) {
		return false
	}
	return vowelGroups(w) == 1
}

func vowelGroups(w string) int {
	groups := 0
	inVowel := false
	for i := range len(w) {
		v := isVowel(w[i])
		if v && !inVowel {
			groups++
		}
		inVowel = v
	}
	return groups
}

func hasAnySuffix(w string, suffixes ...string) bool {
	for _, s := range suffixes {
		if strings.HasSuffix(w, s) {
			return true
		}
	}
	return false
}

func isVowel(b byte) bool { return strings.IndexByte("AEIOU", b) >= 0 }

func isConsonant(b byte) bool { return b >= 'A' && b <= 'Z' && !isVowel(b) }

func isUpperWord(w string) bool {
	for i := range len(w) {
		if w[i] < 'A' || w[i] > 'Z' {
			return false
		}
	}
	return true
}
