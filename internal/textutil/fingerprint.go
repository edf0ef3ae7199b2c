package textutil

import (
	"math"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/cases"
)

const minTokenRunes = 3

var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "are": {}, "but": {}, "not": {}, "you": {},
	"all": {}, "any": {}, "can": {}, "has": {}, "have": {}, "had": {}, "was": {},
	"were": {}, "this": {}, "that": {}, "there": {}, "with": {}, "from": {},
	"they": {}, "them": {}, "our": {}, "out": {}, "its": {}, "been": {}, "very": {},
	"into": {}, "near": {}, "please": {},
}

// Fingerprint is a weighted term vector for one piece of text.
type Fingerprint struct {
	tokens map[string]float64
	norm   float64
}

// NewFingerprint returns nil when text has no usable tokens.
func NewFingerprint(text string) *Fingerprint {
	tokens := Tokenize(text)
	if len(tokens) == 0 {
		return nil
	}
	counts := make(map[string]float64, len(tokens))
	for _, token := range tokens {
		counts[token]++
	}
	return newFingerprint(counts)
}

func newFingerprint(weights map[string]float64) *Fingerprint {
	var norm float64
	for _, w := range weights {
		norm += w * w
	}
	return &Fingerprint{tokens: weights, norm: math.Sqrt(norm)}
}

// Tokenize case-folds text and splits it into content words.
func Tokenize(text string) []string {
	folded := cases.Fold().String(text)
	raw := strings.FieldsFunc(folded, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
	terms := make([]string, 0, len(raw))
	for _, token := range raw {
		if utf8.RuneCountInString(token) < minTokenRunes {
			continue
		}
		if _, skip := stopwords[token]; skip {
			continue
		}
		terms = append(terms, token)
	}
	return terms
}

// TokenCount returns the number of distinct terms.
func (f *Fingerprint) TokenCount() int {
	if f == nil {
		return 0
	}
	return len(f.tokens)
}

// WithIDF returns a copy weighted by idf. Terms missing from idf keep their
// count; terms weighted to zero are dropped.
func (f *Fingerprint) WithIDF(idf map[string]float64) *Fingerprint {
	if f == nil || len(idf) == 0 {
		return f
	}
	weighted := make(map[string]float64, len(f.tokens))
	for token, count := range f.tokens {
		w := count
		if v, ok := idf[token]; ok {
			w *= v
		}
		if w == 0 {
			continue
		}
		weighted[token] = w
	}
	if len(weighted) == 0 {
		return nil
	}
	return newFingerprint(weighted)
}

// Corpus accumulates document frequencies across fingerprints.
type Corpus struct {
	docCount int
	docFreq  map[string]int
}

func NewCorpus() *Corpus {
	return &Corpus{docFreq: make(map[string]int)}
}

// Add counts each distinct term of fp once.
func (c *Corpus) Add(fp *Fingerprint) {
	if c == nil || fp == nil {
		return
	}
	c.docCount++
	for token := range fp.tokens {
		c.docFreq[token]++
	}
}

// IDF returns smoothed weights log((N+1)/(1+df)) + 1, so terms present in
// every document still contribute.
func (c *Corpus) IDF() map[string]float64 {
	if c == nil || c.docCount == 0 {
		return nil
	}
	idf := make(map[string]float64, len(c.docFreq))
	n := float64(c.docCount)
	for term, df := range c.docFreq {
		idf[term] = math.Log((n+1)/(1+float64(df))) + 1
	}
	return idf
}
