package textnorm

import (
	"bufio"
	_ "embed"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

//go:embed stopwords_en.txt
var englishStopWords string

// StopWords is an immutable set of tokens dropped during normalization.
// The zero value is the empty set.
type StopWords struct {
	set map[string]struct{}
}

// EmptyStopWords returns the empty set, the defined fallback when no
// stop-word resource can be obtained.
func EmptyStopWords() StopWords {
	return StopWords{}
}

// EnglishStopWords returns the built-in English stop-word list.
func EnglishStopWords() StopWords {
	sw, _ := ParseStopWords(strings.NewReader(englishStopWords))
	return sw
}

// ParseStopWords reads newline-delimited stop-words. Blank lines and lines
// starting with '#' are skipped; entries are lowercased.
func ParseStopWords(r io.Reader) (StopWords, error) {
	set := make(map[string]struct{})
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		word := strings.ToLower(strings.TrimSpace(scanner.Text()))
		if word == "" || strings.HasPrefix(word, "#") {
			continue
		}
		set[word] = struct{}{}
	}
	if err := scanner.Err(); err != nil {
		return StopWords{}, fmt.Errorf("scan stop-words: %w", err)
	}
	return StopWords{set: set}, nil
}

// LoadStopWords resolves the stop-word set used by a process.
// An empty path selects the built-in English list. A path that cannot be
// read degrades to the built-in list with a warning rather than failing.
func LoadStopWords(path string, logger *slog.Logger) StopWords {
	if path == "" {
		return EnglishStopWords()
	}

	f, err := os.Open(path)
	if err != nil {
		logger.Warn("stop-word file unavailable, using built-in list", "path", path, "error", err)
		return EnglishStopWords()
	}
	defer f.Close()

	sw, err := ParseStopWords(f)
	if err != nil {
		logger.Warn("stop-word file unreadable, using built-in list", "path", path, "error", err)
		return EnglishStopWords()
	}
	return sw
}

// Contains reports whether word is a stop-word.
func (s StopWords) Contains(word string) bool {
	_, ok := s.set[word]
	return ok
}

// Len returns the number of stop-words in the set.
func (s StopWords) Len() int {
	return len(s.set)
}
