package main

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"civicrisk/internal/testsupport"
)

type cliTestEnv struct {
	llm        *testsupport.LLMServer
	configPath string
	dataDir    string
}

func setupCLITestEnv(t *testing.T, status int, content string) *cliTestEnv {
	t.Helper()

	base := t.TempDir()
	homeDir := filepath.Join(base, "home")
	if err := os.MkdirAll(homeDir, 0o755); err != nil {
		t.Fatalf("mkdir home: %v", err)
	}
	t.Setenv("HOME", homeDir)
	for _, key := range []string{"GROQ_API_KEY", "GROQ_MODEL", "GROQ_BASE_URL", "CIVICRISK_API_TOKEN", "NO_COLOR"} {
		t.Setenv(key, "")
		_ = os.Unsetenv(key)
	}

	server := testsupport.NewLLMServer(t, status, content)
	dataDir := filepath.Join(base, "data")
	configPath := filepath.Join(base, "config.toml")
	writeTestConfig(t, configPath, server.URL, dataDir, true)

	return &cliTestEnv{llm: server, configPath: configPath, dataDir: dataDir}
}

func writeTestConfig(t *testing.T, path, baseURL, dataDir string, historyEnabled bool) {
	t.Helper()
	content := fmt.Sprintf(`[llm]
api_key = "test"
base_url = %q
model = "test-model"

[paths]
data_dir = %q
log_dir = ""

[history]
enabled = %t

[logging]
level = "error"
`, baseURL, dataDir, historyEnabled)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
}

func runCLI(t *testing.T, env *cliTestEnv, stdin string, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetIn(strings.NewReader(stdin))
	if env != nil {
		args = append([]string{"--config", env.configPath}, args...)
	}
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func requireContains(t *testing.T, output, substr string) {
	t.Helper()
	if !strings.Contains(output, substr) {
		t.Fatalf("expected %q to contain %q", output, substr)
	}
}
