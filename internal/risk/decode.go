package risk

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"civicrisk/internal/services"
	"civicrisk/internal/services/llm"
)

const (
	fieldIntensity  = "intensity"
	fieldConfidence = "confidence"
	fieldReason     = "reason"
)

// parseClassification turns raw model output into a Classification. Missing
// fields take their defaults; a confidence that cannot be read as a number is
// an error.
func parseClassification(content, model string) (Classification, error) {
	var fields map[string]json.RawMessage
	if err := llm.DecodeLLMJSON(content, &fields); err != nil {
		return Classification{}, services.Wrap(services.ErrParse, "risk classify", "decode model output", "", err)
	}
	if fields == nil {
		return Classification{}, services.Wrap(services.ErrParse, "risk classify", "decode model output", "expected a JSON object, got null", nil)
	}

	confidence, err := decodeConfidence(fields)
	if err != nil {
		return Classification{}, services.Wrap(services.ErrParse, "risk classify", "coerce confidence", "", err)
	}

	return Classification{
		Intensity:  Intensity(decodeString(fields, fieldIntensity, string(DefaultIntensity))),
		Confidence: confidence,
		Reason:     decodeString(fields, fieldReason, DefaultReason),
		ModelName:  model,
		Outcome:    OutcomeClassified,
	}, nil
}

// decodeString returns the string stored at key, or fallback when the key is
// absent, null, or holds a non-string value.
func decodeString(fields map[string]json.RawMessage, key, fallback string) string {
	raw, ok := fields[key]
	if !ok {
		return fallback
	}
	if isJSONNull(raw) {
		return fallback
	}
	var value string
	if err := json.Unmarshal(raw, &value); err != nil {
		return fallback
	}
	return value
}

func decodeConfidence(fields map[string]json.RawMessage) (float64, error) {
	raw, ok := fields[fieldConfidence]
	if !ok {
		return DefaultConfidence, nil
	}
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || isJSONNull(raw) {
		return 0, errors.New("confidence: cannot convert null to float")
	}
	switch trimmed[0] {
	case '"':
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return 0, fmt.Errorf("confidence: %w", err)
		}
		value, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
		if err != nil {
			return 0, fmt.Errorf("confidence: could not convert string to float: %q", text)
		}
		return finiteConfidence(value)
	case 't':
		return 1, nil
	case 'f':
		return 0, nil
	case '{', '[':
		return 0, fmt.Errorf("confidence: cannot convert %s to float", jsonKind(trimmed[0]))
	default:
		var value float64
		if err := json.Unmarshal(raw, &value); err != nil {
			return 0, fmt.Errorf("confidence: %w", err)
		}
		return finiteConfidence(value)
	}
}

// finiteConfidence rejects NaN and infinities.
func finiteConfidence(value float64) (float64, error) {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return 0, fmt.Errorf("confidence: non-finite value %v", value)
	}
	return value, nil
}

func isJSONNull(raw json.RawMessage) bool {
	return strings.TrimSpace(string(raw)) == "null"
}

func jsonKind(first byte) string {
	if first == '{' {
		return "object"
	}
	return "array"
}
