package history_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"civicrisk/internal/history"
	"civicrisk/internal/risk"
	"civicrisk/internal/testsupport"
)

func classified(intensity risk.Intensity, confidence float64) risk.Classification {
	return risk.Classification{
		Intensity:  intensity,
		Confidence: confidence,
		Reason:     "test reason",
		ModelName:  "test-model",
		Outcome:    risk.OutcomeClassified,
	}
}

func TestRecordRoundTrip(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	result := risk.DegradedClassification("test-model", errors.New("boom"))
	rec, err := store.Record(ctx, "water main burst", history.SourceAPI, 1500*time.Millisecond, result)
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if rec.ID == "" {
		t.Fatal("expected id to be assigned")
	}

	fetched, err := store.Get(ctx, rec.ID)
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if fetched == nil {
		t.Fatal("expected record")
	}
	if fetched.Text != "water main burst" || fetched.Source != history.SourceAPI || fetched.ElapsedMS != 1500 {
		t.Fatalf("unexpected record %+v", fetched)
	}
	if fetched.Classification() != result {
		t.Fatalf("classification mismatch: got %+v want %+v", fetched.Classification(), result)
	}
	if !fetched.CreatedAt.Equal(rec.CreatedAt) {
		t.Fatalf("created_at mismatch: got %v want %v", fetched.CreatedAt, rec.CreatedAt)
	}
}

func TestGetMissingReturnsNil(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	rec, err := store.Get(context.Background(), "does-not-exist")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if rec != nil {
		t.Fatalf("expected nil record, got %+v", rec)
	}
}

func TestRecordDefaultsSource(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	rec, err := store.Record(context.Background(), "x", "  ", 0, classified(risk.IntensityLow, 0.4))
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if rec.Source != history.SourceCLI {
		t.Fatalf("expected cli source, got %q", rec.Source)
	}
}

func TestListNewestFirstWithFilters(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	inputs := []risk.Classification{
		classified(risk.IntensityLow, 0.7),
		classified(risk.IntensityHigh, 0.9),
		risk.DegradedClassification("test-model", errors.New("down")),
		classified(risk.IntensityHigh, 0.8),
	}
	var ids []string
	for i, c := range inputs {
		rec, err := store.Record(ctx, "complaint", history.SourceBatch, time.Duration(i)*time.Millisecond, c)
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
		ids = append(ids, rec.ID)
	}

	all, err := store.List(ctx, history.Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 records, got %d", len(all))
	}
	for i := range all {
		if all[i].ID != ids[len(ids)-1-i] {
			t.Fatalf("record %d = %s, want %s (newest first)", i, all[i].ID, ids[len(ids)-1-i])
		}
	}

	high, err := store.List(ctx, history.Filter{Intensity: "high"})
	if err != nil {
		t.Fatalf("List high failed: %v", err)
	}
	if len(high) != 2 || high[0].Confidence != 0.8 {
		t.Fatalf("unexpected high records %+v", high)
	}

	degraded, err := store.List(ctx, history.Filter{Outcome: string(risk.OutcomeDegraded)})
	if err != nil {
		t.Fatalf("List degraded failed: %v", err)
	}
	if len(degraded) != 1 || degraded[0].ErrorKind != "transient" {
		t.Fatalf("unexpected degraded records %+v", degraded)
	}

	limited, err := store.List(ctx, history.Filter{Limit: 1})
	if err != nil {
		t.Fatalf("List limited failed: %v", err)
	}
	if len(limited) != 1 || limited[0].ID != ids[3] {
		t.Fatalf("unexpected limited records %+v", limited)
	}
}

func TestStats(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	empty, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if empty.Total != 0 || empty.AverageConfidence != 0 {
		t.Fatalf("unexpected empty stats %+v", empty)
	}

	for _, c := range []risk.Classification{
		classified(risk.IntensityHigh, 0.9),
		classified(risk.IntensityLow, 0.5),
		risk.DegradedClassification("test-model", errors.New("down")),
	} {
		if _, err := store.Record(ctx, "c", history.SourceCLI, 0, c); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.Total != 3 {
		t.Fatalf("total = %d, want 3", stats.Total)
	}
	if stats.ByOutcome["classified"] != 2 || stats.ByOutcome["degraded"] != 1 {
		t.Fatalf("unexpected outcome counts %v", stats.ByOutcome)
	}
	if stats.ByIntensity["high"] != 1 || stats.ByIntensity["low"] != 1 || stats.ByIntensity["medium"] != 0 {
		t.Fatalf("unexpected intensity counts %v", stats.ByIntensity)
	}
	if diff := stats.AverageConfidence - 0.7; diff > 1e-9 || diff < -1e-9 {
		t.Fatalf("average confidence = %v, want 0.7", stats.AverageConfidence)
	}
}

func TestPrune(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	for range 3 {
		if _, err := store.Record(ctx, "c", history.SourceCLI, 0, classified(risk.IntensityLow, 0.3)); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	removed, err := store.Prune(ctx, time.Now().Add(-time.Hour))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 0 {
		t.Fatalf("expected nothing pruned, got %d", removed)
	}

	removed, err = store.Prune(ctx, time.Now().Add(time.Minute))
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if removed != 3 {
		t.Fatalf("expected 3 pruned, got %d", removed)
	}
	remaining, err := store.List(ctx, history.Filter{})
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(remaining) != 0 {
		t.Fatalf("expected empty history, got %d", len(remaining))
	}
}

func TestReopenKeepsRecords(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	rec, err := store.Record(context.Background(), "c", history.SourceCLI, 0, classified(risk.IntensityMedium, 0.6))
	if err != nil {
		t.Fatalf("Record failed: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenStore(t, cfg)
	fetched, err := reopened.Get(context.Background(), rec.ID)
	if err != nil || fetched == nil {
		t.Fatalf("expected record after reopen, got %v, %v", fetched, err)
	}
	if reopened.Path() != cfg.HistoryPath() {
		t.Fatalf("unexpected path %q", reopened.Path())
	}
}
