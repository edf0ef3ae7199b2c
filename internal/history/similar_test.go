package history_test

import (
	"context"
	"testing"
	"time"

	"civicrisk/internal/history"
	"civicrisk/internal/risk"
	"civicrisk/internal/testsupport"
)

func TestSimilarRanksNearDuplicates(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	result := risk.Classification{Intensity: risk.IntensityHigh, Confidence: 0.8, Reason: "r", ModelName: "m"}

	for _, text := range []string{
		"Strong gas smell outside bakery on Elm Street",
		"Pothole on Route 9 damaged my tyre",
		"Gas smell again on Elm Street near the bakery",
		"Neighbour's dog barks all night",
	} {
		if _, err := store.Record(ctx, text, history.SourceCLI, time.Millisecond, result); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	matches, err := store.Similar(ctx, history.SimilarQuery{Text: "gas smell Elm Street bakery", Threshold: threshold(0.3)})
	if err != nil {
		t.Fatalf("Similar: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected 2 matches, got %d: %+v", len(matches), matches)
	}
	for _, m := range matches {
		if m.Score < 0.3 || m.Score > 1 {
			t.Fatalf("score out of range: %v", m.Score)
		}
	}
	if matches[0].Score < matches[1].Score {
		t.Fatal("matches not sorted by score")
	}

	limited, err := store.Similar(ctx, history.SimilarQuery{Text: "gas smell Elm Street bakery", Threshold: threshold(0.3), Limit: 1})
	if err != nil {
		t.Fatalf("Similar: %v", err)
	}
	if len(limited) != 1 {
		t.Fatalf("expected limit to apply, got %d", len(limited))
	}
}

func TestSimilarWithoutContentWords(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	matches, err := store.Similar(context.Background(), history.SimilarQuery{Text: "it is"})
	if err != nil {
		t.Fatalf("Similar: %v", err)
	}
	if matches != nil {
		t.Fatalf("expected no matches, got %+v", matches)
	}
}

func TestSimilarZeroThresholdKeepsEveryRecord(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	result := risk.Classification{Intensity: risk.IntensityLow, Confidence: 0.4, Reason: "r", ModelName: "m"}
	for _, text := range []string{"Broken streetlight on Cedar Lane", "Overflowing bins behind the library"} {
		if _, err := store.Record(ctx, text, history.SourceCLI, time.Millisecond, result); err != nil {
			t.Fatalf("Record: %v", err)
		}
	}

	matches, err := store.Similar(ctx, history.SimilarQuery{Text: "streetlight flickering", Threshold: threshold(0), Limit: 10})
	if err != nil {
		t.Fatalf("Similar: %v", err)
	}
	if len(matches) != 2 {
		t.Fatalf("expected every record with threshold 0, got %d: %+v", len(matches), matches)
	}
	if matches[1].Score != 0 {
		t.Fatalf("expected unrelated record to score 0, got %v", matches[1].Score)
	}
}

func threshold(v float64) *float64 {
	return &v
}
