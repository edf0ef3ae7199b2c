package main

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync/atomic"
	"testing"
)

func enableNtfy(t *testing.T, env *cliTestEnv) (*atomic.Int32, *atomic.Value) {
	t.Helper()
	var calls atomic.Int32
	var lastBody atomic.Value
	ntfy := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		lastBody.Store(string(body))
		calls.Add(1)
	}))
	t.Cleanup(ntfy.Close)

	f, err := os.OpenFile(env.configPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open config: %v", err)
	}
	defer f.Close()
	if _, err := fmt.Fprintf(f, "\n[notifications]\nntfy_topic = %q\nmin_intensity = \"high\"\n", ntfy.URL); err != nil {
		t.Fatalf("append config: %v", err)
	}
	return &calls, &lastBody
}

func TestTestNotifyRequiresTopic(t *testing.T) {
	env := setupCLITestEnv(t, http.StatusOK, `{}`)
	_, _, err := runCLI(t, env, "", "test-notify")
	if err == nil || !strings.Contains(err.Error(), "ntfy_topic") {
		t.Fatalf("expected missing topic error, got %v", err)
	}
}

func TestTestNotifySends(t *testing.T) {
	env := setupCLITestEnv(t, http.StatusOK, `{}`)
	calls, _ := enableNtfy(t, env)
	out, _, err := runCLI(t, env, "", "test-notify")
	if err != nil {
		t.Fatalf("test-notify: %v", err)
	}
	requireContains(t, out, "Test notification sent")
	if calls.Load() != 1 {
		t.Fatalf("expected 1 ntfy call, got %d", calls.Load())
	}
}

func TestClassifyAlertsOnHighRisk(t *testing.T) {
	env := setupCLITestEnv(t, http.StatusOK, `{"intensity":"high","confidence":0.9,"reason":"Collapse risk"}`)
	calls, body := enableNtfy(t, env)
	if _, _, err := runCLI(t, env, "", "classify", "--no-store", "balcony", "railing", "detached"); err != nil {
		t.Fatalf("classify: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("expected 1 alert, got %d", calls.Load())
	}
	requireContains(t, body.Load().(string), "balcony railing detached")
}
