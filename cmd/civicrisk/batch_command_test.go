package main

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"testing"
)

func TestBatchClassifiesEachLine(t *testing.T) {
	env := setupCLITestEnv(t, http.StatusOK, `{"intensity":"high","confidence":0.8,"reason":"Hazard"}`)
	path := filepath.Join(t.TempDir(), "complaints.txt")
	content := "# city complaints\nfallen tree on road\n\nflooded underpass\nbroken traffic light\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write complaints: %v", err)
	}

	out, _, err := runCLI(t, env, "", "batch", path, "--json", "--workers", "2")
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	var payload struct {
		Results []batchResult `json:"results"`
		Summary batchSummary  `json:"summary"`
	}
	if err := json.Unmarshal([]byte(out), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(payload.Results) != 3 {
		t.Fatalf("expected 3 results, got %d", len(payload.Results))
	}
	if payload.Results[1].Text != "flooded underpass" || payload.Results[1].Index != 2 {
		t.Fatalf("results out of order: %+v", payload.Results)
	}
	for _, r := range payload.Results {
		if r.ID == "" {
			t.Fatalf("expected history id for %q", r.Text)
		}
	}
	if payload.Summary.Total != 3 || payload.Summary.ByIntensity["high"] != 3 {
		t.Fatalf("unexpected summary %+v", payload.Summary)
	}
	if env.llm.Calls() != 3 {
		t.Fatalf("expected 3 LLM calls, got %d", env.llm.Calls())
	}
}

func TestBatchTableFromStdin(t *testing.T) {
	env := setupCLITestEnv(t, http.StatusOK, `{"intensity":"low","confidence":0.4,"reason":"Minor"}`)

	out, _, err := runCLI(t, env, "litter near bus stop\n", "batch", "-", "--no-store")
	if err != nil {
		t.Fatalf("batch: %v", err)
	}
	requireContains(t, out, "Intensity")
	requireContains(t, out, "Low")
	requireContains(t, out, "litter near bus stop")
	requireContains(t, out, "1 classified: 0 high, 0 medium, 1 low, 0 degraded")
}

func TestBatchRejectsEmptyInput(t *testing.T) {
	env := setupCLITestEnv(t, http.StatusOK, `{}`)
	if _, _, err := runCLI(t, env, "\n# only comments\n", "batch", "-"); err == nil {
		t.Fatal("expected error for empty batch")
	}
}
