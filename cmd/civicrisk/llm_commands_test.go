package main

import (
	"encoding/json"
	"net/http"
	"testing"

	"civicrisk/internal/risk"
)

func TestLLMHealth(t *testing.T) {
	env := setupCLITestEnv(t, http.StatusOK, `{"ok":true}`)
	out, _, err := runCLI(t, env, "", "llm", "health")
	if err != nil {
		t.Fatalf("llm health: %v", err)
	}
	requireContains(t, out, "Model test-model is reachable")
}

func TestLLMHealthFailure(t *testing.T) {
	env := setupCLITestEnv(t, http.StatusUnauthorized, "")
	if _, _, err := runCLI(t, env, "", "llm", "health"); err == nil {
		t.Fatal("expected health failure")
	}
}

func TestLLMTestShowsPrompt(t *testing.T) {
	env := setupCLITestEnv(t, http.StatusOK, `{"intensity":"high","confidence":"0.75","reason":"Fire"}`)
	out, errOut, err := runCLI(t, env, "", "llm", "test", "--show-prompt", "smoke from manhole")
	if err != nil {
		t.Fatalf("llm test: %v", err)
	}
	requireContains(t, errOut, "smoke from manhole")
	var got risk.Classification
	if err := json.Unmarshal([]byte(out), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Intensity != risk.IntensityHigh || got.Confidence != 0.75 {
		t.Fatalf("unexpected result %+v", got)
	}
}
