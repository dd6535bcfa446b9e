// Package textnorm turns raw job-posting text into the canonical token stream
// consumed by feature extraction. Normalization is total and deterministic.
package textnorm

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// Punctuation is the ASCII punctuation set removed during normalization.
const Punctuation = "!\"#$%&'()*+,-./:;<=>?@[\\]^_`{|}~"

var (
	htmlTagPattern = regexp.MustCompile(`<[^>]+>`)
	urlPattern     = regexp.MustCompile(`http\S+|www\.\S+`)
)

// Normalizer applies the normalization steps with a fixed stop-word set.
// A Normalizer is immutable and safe for concurrent use.
type Normalizer struct {
	stopWords StopWords
}

// New creates a Normalizer that filters the given stop-words.
func New(stopWords StopWords) *Normalizer {
	return &Normalizer{stopWords: stopWords}
}

// StopWords returns the normalizer's stop-word set.
func (n *Normalizer) StopWords() StopWords {
	return n.stopWords
}

// Normalize cleans v into a single-spaced, lowercase token string.
// Values that are not strings normalize to "".
//
// Steps, in order: Unicode NFKC composition, HTML tag removal, URL removal,
// lowercasing, ASCII punctuation removal, stop-word filtering, whitespace
// collapse.
func (n *Normalizer) Normalize(v any) string {
	text, ok := v.(string)
	if !ok || text == "" {
		return ""
	}

	text = norm.NFKC.String(text)
	text = htmlTagPattern.ReplaceAllString(text, " ")
	text = urlPattern.ReplaceAllString(text, " ")
	text = strings.ToLower(text)
	text = stripPunctuation(text)

	tokens := strings.Fields(text)
	kept := tokens[:0]
	for _, tok := range tokens {
		if n.stopWords.Contains(tok) {
			continue
		}
		kept = append(kept, tok)
	}

	return strings.Join(kept, " ")
}

// NormalizeAll normalizes each text in order.
func (n *Normalizer) NormalizeAll(texts []string) []string {
	out := make([]string, len(texts))
	for i, t := range texts {
		out[i] = n.Normalize(t)
	}
	return out
}

func stripPunctuation(s string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x80 && strings.ContainsRune(Punctuation, r) {
			return -1
		}
		return r
	}, s)
}
