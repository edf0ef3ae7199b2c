package testsupport

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
)

// LLMServer is an httptest server speaking the chat completions protocol.
type LLMServer struct {
	*httptest.Server
	calls atomic.Int32
}

// Calls reports how many completion requests the server received.
func (s *LLMServer) Calls() int {
	return int(s.calls.Load())
}

// NewLLMServer replies to every completion request with content as the
// assistant message. A status >= 300 is returned as an HTTP error instead.
func NewLLMServer(t testing.TB, status int, content string) *LLMServer {
	t.Helper()
	srv := &LLMServer{}
	srv.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		srv.calls.Add(1)
		if status >= http.StatusMultipleChoices {
			w.WriteHeader(status)
			_, _ = w.Write([]byte(`{"error":{"message":"test failure"}}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{
				"finish_reason": "stop",
				"message":       map[string]any{"content": content},
			}},
		})
	}))
	t.Cleanup(srv.Close)
	return srv
}
