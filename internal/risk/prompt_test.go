package risk

import (
	"strings"
	"testing"
)

func TestRenderPromptEmbedsTextOnce(t *testing.T) {
	rendered := RenderPrompt("Sewage overflowing near school {text}")
	if !strings.Contains(rendered, "Text: Sewage overflowing near school {text}\n") {
		t.Fatalf("expected verbatim text, got %q", rendered)
	}
	if strings.Count(rendered, "{text}") != 1 {
		t.Fatalf("expected only the complaint's own placeholder to remain, got %q", rendered)
	}
	for _, want := range []string{`"intensity": "low" | "medium" | "high"`, "Confidence must be a float between 0 and 1.", `- "high": Immediate danger`} {
		if !strings.Contains(rendered, want) {
			t.Fatalf("prompt missing %q", want)
		}
	}
}

func TestDegradedClassificationWithoutError(t *testing.T) {
	got := DegradedClassification("m", nil)
	if got.Reason != "Error during analysis: " || got.ErrorKind != "transient" || got.Outcome != OutcomeDegraded {
		t.Fatalf("unexpected fallback %+v", got)
	}
}
