// Package entities provides lightweight named-entity extraction for note
// text. Extraction is heuristic (capitalized spans with stopword
// filtering) and intentionally failure-free: malformed or empty input
// yields an empty slice, never an error, so the enhancement pipeline can
// always proceed to its generation stage.
package entities

import (
	"sort"
	"strings"
	"unicode"
)

// stopwords are common sentence-leading words that capitalization alone
// would misclassify as entities.
var stopwords = map[string]struct{}{
	"a": {}, "an": {}, "the": {}, "this": {}, "that": {}, "these": {},
	"those": {}, "it": {}, "its": {}, "he": {}, "she": {}, "they": {},
	"we": {}, "you": {}, "i": {}, "my": {}, "our": {}, "your": {},
	"is": {}, "are": {}, "was": {}, "were": {}, "be": {}, "been": {},
	"and": {}, "or": {}, "but": {}, "if": {}, "then": {}, "when": {},
	"where": {}, "while": {}, "after": {}, "before": {}, "however": {},
	"also": {}, "there": {}, "here": {}, "what": {}, "which": {}, "who": {},
	"how": {}, "why": {}, "not": {}, "no": {}, "yes": {}, "in": {},
	"on": {}, "at": {}, "for": {}, "with": {}, "as": {}, "by": {},
	"to": {}, "from": {}, "of": {}, "so": {}, "some": {}, "many": {},
	"most": {}, "all": {}, "each": {}, "every": {}, "one": {}, "two": {},
	"first": {}, "second": {}, "new": {}, "today": {}, "yesterday": {},
	"tomorrow": {}, "later": {}, "note": {}, "notes": {},
}

type candidate struct {
	text  string
	count int
	first int
}

// Extract returns distinct entity names found in text, ordered by
// frequency and then by first appearance, capped at max (unlimited when
// max <= 0). Multi-word spans of capitalized words are kept together
// ("Ada Lovelace" is one entity, not two).
func Extract(text string, max int) []string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return []string{}
	}

	found := make(map[string]*candidate)
	order := 0

	var span []string
	flush := func() {
		if len(span) == 0 {
			return
		}
		name := strings.Join(span, " ")
		span = nil

		key := strings.ToLower(name)
		if _, skip := stopwords[key]; skip {
			return
		}
		if c, ok := found[key]; ok {
			c.count++
			return
		}
		order++
		found[key] = &candidate{text: name, count: 1, first: order}
	}

	for i, w := range words {
		cleaned := strings.TrimFunc(w, func(r rune) bool {
			return !unicode.IsLetter(r) && !unicode.IsNumber(r)
		})
		terminal := strings.ContainsAny(w, ".,!?;:")

		if isCapitalizedWord(cleaned) && !isSentenceLeadingStopword(cleaned, i, words) {
			span = append(span, cleaned)
		} else {
			flush()
		}
		if terminal {
			flush()
		}
	}
	flush()

	ranked := make([]*candidate, 0, len(found))
	for _, c := range found {
		ranked = append(ranked, c)
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].count != ranked[j].count {
			return ranked[i].count > ranked[j].count
		}
		return ranked[i].first < ranked[j].first
	})

	names := make([]string, 0, len(ranked))
	for _, c := range ranked {
		names = append(names, c.text)
	}
	if max > 0 && len(names) > max {
		names = names[:max]
	}
	return names
}

func isCapitalizedWord(w string) bool {
	if len(w) < 2 {
		return false
	}
	runes := []rune(w)
	if !unicode.IsUpper(runes[0]) {
		return false
	}
	// Reject shouting (all caps acronyms are fine up to 5 letters).
	if strings.ToUpper(w) == w && len(runes) > 5 {
		return false
	}
	return true
}

// isSentenceLeadingStopword rejects a capitalized word that only looks
// like an entity because it starts a sentence.
func isSentenceLeadingStopword(w string, i int, words []string) bool {
	if _, ok := stopwords[strings.ToLower(w)]; !ok {
		return false
	}
	if i == 0 {
		return true
	}
	return strings.ContainsAny(words[i-1], ".!?")
}
