// Package features fits a TF-IDF vocabulary over normalized text and maps
// text onto sparse feature vectors using that frozen vocabulary.
package features

import (
	"cmp"
	"encoding/gob"
	"errors"
	"fmt"
	"io"
	"math"
	"slices"
	"strings"
	"unicode/utf8"
)

// ErrEmptyVocabulary indicates that no term survived the document-frequency
// and size filters during Fit.
var ErrEmptyVocabulary = errors.New("corpus produced an empty vocabulary")

// Options controls vocabulary construction.
type Options struct {
	MaxFeatures int
	MinDF       int
	NGramMin    int
	NGramMax    int
}

// DefaultOptions returns unigram+bigram TF-IDF with at most 10,000 terms,
// each present in at least two documents.
func DefaultOptions() Options {
	return Options{
		MaxFeatures: 10000,
		MinDF:       2,
		NGramMin:    1,
		NGramMax:    2,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.MaxFeatures <= 0 {
		o.MaxFeatures = d.MaxFeatures
	}
	if o.MinDF <= 0 {
		o.MinDF = d.MinDF
	}
	if o.NGramMin <= 0 {
		o.NGramMin = d.NGramMin
	}
	if o.NGramMax < o.NGramMin {
		o.NGramMax = max(d.NGramMax, o.NGramMin)
	}
	return o
}

// Extractor is a fitted TF-IDF vectorizer. Its vocabulary and IDF weights are
// frozen at Fit time; an Extractor is read-only afterwards and safe for
// concurrent Transform calls.
type Extractor struct {
	opts  Options
	vocab map[string]int
	terms []string
	idf   []float64
}

// Fit builds the vocabulary from corpus and returns the extractor together
// with the feature vectors of the corpus documents.
func Fit(corpus []string, opts Options) (*Extractor, []Vector, error) {
	opts = opts.withDefaults()

	docFreq := make(map[string]int)
	termCount := make(map[string]int)
	for _, doc := range corpus {
		seen := make(map[string]struct{})
		for _, term := range analyze(doc, opts) {
			termCount[term]++
			if _, ok := seen[term]; ok {
				continue
			}
			seen[term] = struct{}{}
			docFreq[term]++
		}
	}

	candidates := make([]string, 0, len(docFreq))
	for term, df := range docFreq {
		if df >= opts.MinDF {
			candidates = append(candidates, term)
		}
	}

	if len(candidates) > opts.MaxFeatures {
		slices.SortFunc(candidates, func(a, b string) int {
			if c := cmp.Compare(termCount[b], termCount[a]); c != 0 {
				return c
			}
			return strings.Compare(a, b)
		})
		candidates = candidates[:opts.MaxFeatures]
	}

	if len(candidates) == 0 {
		return nil, nil, ErrEmptyVocabulary
	}

	slices.Sort(candidates)

	n := float64(len(corpus))
	e := &Extractor{
		opts:  opts,
		vocab: make(map[string]int, len(candidates)),
		terms: candidates,
		idf:   make([]float64, len(candidates)),
	}
	for i, term := range candidates {
		e.vocab[term] = i
		e.idf[i] = math.Log((1+n)/(1+float64(docFreq[term]))) + 1
	}

	return e, e.Transform(corpus), nil
}

// Transform maps each text to a feature vector. Out-of-vocabulary terms are
// ignored, so text with no known terms yields an empty vector.
func (e *Extractor) Transform(texts []string) []Vector {
	out := make([]Vector, len(texts))
	for i, t := range texts {
		out[i] = e.TransformOne(t)
	}
	return out
}

// TransformOne maps a single text to its feature vector.
func (e *Extractor) TransformOne(text string) Vector {
	counts := make(map[int]float64)
	for _, term := range analyze(text, e.opts) {
		if idx, ok := e.vocab[term]; ok {
			counts[idx]++
		}
	}

	if len(counts) == 0 {
		return Vector{}
	}

	v := Vector{
		Indices: make([]int, 0, len(counts)),
		Values:  make([]float64, 0, len(counts)),
	}
	for idx := range counts {
		v.Indices = append(v.Indices, idx)
	}
	slices.Sort(v.Indices)

	var norm float64
	for _, idx := range v.Indices {
		w := counts[idx] * e.idf[idx]
		v.Values = append(v.Values, w)
		norm += w * w
	}

	norm = math.Sqrt(norm)
	for i := range v.Values {
		v.Values[i] /= norm
	}

	return v
}

// Size returns the vocabulary size, which is the dimension of every vector.
func (e *Extractor) Size() int {
	return len(e.terms)
}

// Term returns the vocabulary term at index i.
func (e *Extractor) Term(i int) string {
	return e.terms[i]
}

// Index returns the vocabulary index of term.
func (e *Extractor) Index(term string) (int, bool) {
	idx, ok := e.vocab[term]
	return idx, ok
}

// Options returns the options the extractor was fitted with.
func (e *Extractor) Options() Options {
	return e.opts
}

// Describe returns a short human-readable summary of the feature space.
func (e *Extractor) Describe() string {
	return fmt.Sprintf(
		"TF-IDF (max_features=%d, ngram_range=(%d,%d), min_df=%d, vocabulary=%d)",
		e.opts.MaxFeatures, e.opts.NGramMin, e.opts.NGramMax, e.opts.MinDF, len(e.terms),
	)
}

type extractorState struct {
	Options Options
	Terms   []string
	IDF     []float64
}

// Encode writes the frozen extractor in gob format.
func (e *Extractor) Encode(w io.Writer) error {
	return gob.NewEncoder(w).Encode(extractorState{
		Options: e.opts,
		Terms:   e.terms,
		IDF:     e.idf,
	})
}

// Decode reads an extractor previously written by Encode.
func Decode(r io.Reader) (*Extractor, error) {
	var st extractorState
	if err := gob.NewDecoder(r).Decode(&st); err != nil {
		return nil, fmt.Errorf("decode extractor: %w", err)
	}
	if len(st.Terms) == 0 || len(st.Terms) != len(st.IDF) {
		return nil, fmt.Errorf("decode extractor: %d terms with %d idf weights", len(st.Terms), len(st.IDF))
	}

	e := &Extractor{
		opts:  st.Options,
		vocab: make(map[string]int, len(st.Terms)),
		terms: st.Terms,
		idf:   st.IDF,
	}
	for i, term := range st.Terms {
		e.vocab[term] = i
	}
	return e, nil
}

func analyze(text string, opts Options) []string {
	tokens := strings.Fields(text)
	words := tokens[:0]
	for _, tok := range tokens {
		if utf8.RuneCountInString(tok) >= 2 {
			words = append(words, tok)
		}
	}

	var terms []string
	for n := opts.NGramMin; n <= opts.NGramMax; n++ {
		for i := 0; i+n <= len(words); i++ {
			if n == 1 {
				terms = append(terms, words[i])
				continue
			}
			terms = append(terms, strings.Join(words[i:i+n], " "))
		}
	}
	return terms
}
