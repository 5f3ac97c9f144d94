package knowledge

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {},
	"but": {}, "by": {}, "can": {}, "do": {}, "for": {}, "from": {}, "has": {},
	"have": {}, "how": {}, "i": {}, "in": {}, "is": {}, "it": {}, "my": {},
	"of": {}, "on": {}, "or": {}, "please": {}, "that": {}, "the": {},
	"this": {}, "to": {}, "want": {}, "was": {}, "what": {}, "when": {},
	"where": {}, "which": {}, "will": {}, "with": {}, "would": {}, "you": {},
	"your": {},
}

// Tokenize splits query text into lowercase alphanumeric terms with
// stop-words removed. If stop-word removal eats every term, it falls back to
// plain whitespace splitting so a query never tokenizes to nothing unless it
// is genuinely empty.
func Tokenize(text string) []string {
	raw := strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})

	terms := make([]string, 0, len(raw))
	seen := make(map[string]struct{}, len(raw))
	for _, t := range raw {
		if _, stop := stopWords[t]; stop {
			continue
		}
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	if len(terms) > 0 {
		return terms
	}

	// Fallback tokenizer: every whitespace-separated field, deduplicated.
	fields := strings.Fields(strings.ToLower(text))
	terms = terms[:0]
	for _, t := range fields {
		if _, dup := seen[t]; dup {
			continue
		}
		seen[t] = struct{}{}
		terms = append(terms, t)
	}
	return terms
}

// containsWholeWord reports whether term occurs in text as a whole word,
// case-insensitively. Word boundaries are any non-alphanumeric rune.
func containsWholeWord(text, term string) bool {
	if term == "" {
		return false
	}
	lower := strings.ToLower(text)
	idx := 0
	for {
		pos := strings.Index(lower[idx:], term)
		if pos < 0 {
			return false
		}
		start := idx + pos
		end := start + len(term)
		beforeOK := start == 0 || !isWordRune(rune(lower[start-1]))
		afterOK := end == len(lower) || !isWordRune(rune(lower[end]))
		if beforeOK && afterOK {
			return true
		}
		idx = start + 1
	}
}

func isWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
