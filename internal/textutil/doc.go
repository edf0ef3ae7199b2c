// Package textutil fingerprints complaint text for near-duplicate lookup.
//
// Text is case-folded, split on anything that is not a letter or digit, and
// stripped of short tokens and common English stopwords. Fingerprints are
// term-frequency vectors that can be reweighted with IDF statistics from a
// Corpus and compared with CosineSimilarity.
package textutil
