package main

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestConfigInitWritesSample(t *testing.T) {
	target := filepath.Join(t.TempDir(), "nested", "config.toml")

	out, _, err := runCLI(t, nil, "", "config", "init", "--path", target)
	if err != nil {
		t.Fatalf("config init: %v", err)
	}
	requireContains(t, out, "Wrote sample configuration")
	data, err := os.ReadFile(target)
	if err != nil {
		t.Fatalf("read sample: %v", err)
	}
	if !strings.Contains(string(data), "[llm]") {
		t.Fatalf("sample missing llm section: %s", data)
	}

	if _, _, err := runCLI(t, nil, "", "config", "init", "--path", target); err == nil {
		t.Fatal("expected error when config exists")
	}
	if _, _, err := runCLI(t, nil, "", "config", "init", "--path", target, "--overwrite"); err != nil {
		t.Fatalf("overwrite: %v", err)
	}
}

func TestConfigValidate(t *testing.T) {
	env := setupCLITestEnv(t, http.StatusOK, `{}`)
	out, _, err := runCLI(t, env, "", "config", "validate")
	if err != nil {
		t.Fatalf("config validate: %v", err)
	}
	requireContains(t, out, "Config path: "+env.configPath)
	requireContains(t, out, "Model: test-model")
	requireContains(t, out, "Configuration valid")
	if strings.Contains(out, "Warning") {
		t.Fatalf("unexpected warning: %s", out)
	}
}
