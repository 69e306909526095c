// Package tokenizer turns raw words into index terms. A term is lower-cased,
// NFC-composed, stripped of punctuation and made only of letters; stop-words
// never become terms.
package tokenizer

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var stopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {},
	"be": {}, "by": {}, "for": {}, "from": {}, "has": {}, "he": {},
	"in": {}, "is": {}, "it": {}, "its": {}, "of": {}, "on": {},
	"that": {}, "the": {}, "to": {}, "was": {}, "were": {},
	"will": {}, "with": {},
}

// stripped holds the punctuation removed anywhere inside a token.
var stripped = map[rune]struct{}{
	':': {}, ';': {}, '.': {}, ',': {}, '/': {}, '#': {}, '!': {}, '?': {},
	'(': {}, ')': {}, '"': {}, '\'': {},
	'‘': {}, '’': {}, '“': {}, '”': {},
}

// Normalize maps a raw token to its term. ok is false when nothing usable
// is left: empty, containing a non-letter, or a stop-word. Normalize is
// idempotent on accepted terms.
func Normalize(token string) (term string, ok bool) {
	lowered := strings.ToLower(token)
	cleaned := strings.Map(func(r rune) rune {
		if _, drop := stripped[r]; drop {
			return -1
		}
		return r
	}, lowered)
	cleaned = norm.NFC.String(cleaned)
	if cleaned == "" {
		return "", false
	}
	for _, r := range cleaned {
		if !unicode.IsLetter(r) {
			return "", false
		}
	}
	if IsStopWord(cleaned) {
		return "", false
	}
	return cleaned, true
}

// IsStopWord reports whether the lower-case word is in the stop list.
func IsStopWord(word string) bool {
	_, isStop := stopWords[word]
	return isStop
}

// Tokenize splits text on whitespace and returns the surviving terms in
// order, duplicates included.
func Tokenize(text string) []string {
	words := strings.Fields(text)
	terms := make([]string, 0, len(words))
	for _, word := range words {
		if term, ok := Normalize(word); ok {
			terms = append(terms, term)
		}
	}
	return terms
}
