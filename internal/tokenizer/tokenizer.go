// Package tokenizer turns free text into the ordered token sequences the
// statistics engine consumes. It lower-cases input, splits on
// non-alphanumeric boundaries and can drop common English stop-words.
// Records that already carry token arrays bypass it.
package tokenizer

import (
	"strings"
	"unicode"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"or": {}, "that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {}, "this": {}, "but": {}, "they": {},
	"have": {}, "had": {}, "what": {}, "when": {}, "where": {},
	"who": {}, "which": {}, "their": {}, "if": {}, "each": {},
	"do": {}, "not": {}, "no": {}, "so": {}, "can": {},
	"i": {}, "me": {}, "my": {}, "she": {}, "her": {}, "him": {},
	"his": {}, "we": {}, "you": {}, "your": {}, "our": {}, "them": {},
	"there": {}, "than": {}, "then": {}, "been": {}, "would": {},
	"could": {}, "should": {}, "shall": {}, "upon": {}, "very": {},
}

// Tokenize lower-cases text and splits it on every rune that is neither a
// letter nor a digit. Order is preserved.
func Tokenize(text string) []string {
	text = strings.ToLower(text)
	return strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// RemoveStopwords returns tokens without stop-words, preserving order.
func RemoveStopwords(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if IsStopword(tok) {
			continue
		}
		out = append(out, tok)
	}
	return out
}

// IsStopword reports whether tok is on the stop-word list.
func IsStopword(tok string) bool {
	_, ok := stopWords[strings.ToLower(tok)]
	return ok
}

// Normalize lower-cases and trims each token of an already tokenized field,
// dropping tokens that end up empty.
func Normalize(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		tok = strings.ToLower(strings.TrimSpace(tok))
		if tok == "" {
			continue
		}
		out = append(out, tok)
	}
	return out
}
