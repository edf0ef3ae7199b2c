package history

import (
	"context"
	"sort"

	"civicrisk/internal/textutil"
)

// DefaultSimilarThreshold is the minimum score used when a query sets none.
const DefaultSimilarThreshold = 0.5

const (
	defaultSimilarLimit = 5
	similarWindow       = maxListLimit
)

// SimilarQuery configures a near-duplicate search over the latest 1000
// records. A nil Threshold selects DefaultSimilarThreshold; an explicit 0
// keeps every scored record. A Limit of zero returns five matches.
type SimilarQuery struct {
	Text      string
	Threshold *float64
	Limit     int
}

// Match is a stored record scored against a query.
type Match struct {
	Record
	Score float64 `json:"score"`
}

// Similar ranks recent records by TF-IDF cosine similarity to q.Text.
func (s *Store) Similar(ctx context.Context, q SimilarQuery) ([]Match, error) {
	query := textutil.NewFingerprint(q.Text)
	if query == nil {
		return nil, nil
	}
	threshold := DefaultSimilarThreshold
	if q.Threshold != nil {
		threshold = *q.Threshold
	}
	limit := q.Limit
	if limit <= 0 {
		limit = defaultSimilarLimit
	}

	records, err := s.List(ctx, Filter{Limit: similarWindow})
	if err != nil {
		return nil, err
	}

	corpus := textutil.NewCorpus()
	corpus.Add(query)
	prints := make([]*textutil.Fingerprint, len(records))
	for i, rec := range records {
		prints[i] = textutil.NewFingerprint(rec.Text)
		corpus.Add(prints[i])
	}
	idf := corpus.IDF()
	weightedQuery := query.WithIDF(idf)

	var matches []Match
	for i, rec := range records {
		score := textutil.CosineSimilarity(weightedQuery, prints[i].WithIDF(idf))
		if score < threshold {
			continue
		}
		matches = append(matches, Match{Record: rec, Score: score})
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	if len(matches) > limit {
		matches = matches[:limit]
	}
	return matches, nil
}
