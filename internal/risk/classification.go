package risk

import "civicrisk/internal/services"

// Intensity is the severity tier assigned to a complaint. Values returned by
// the model outside the three known tiers are kept as-is.
type Intensity string

const (
	IntensityLow    Intensity = "low"
	IntensityMedium Intensity = "medium"
	IntensityHigh   Intensity = "high"
)

// Known reports whether the intensity is one of low, medium, or high.
func (i Intensity) Known() bool {
	switch i {
	case IntensityLow, IntensityMedium, IntensityHigh:
		return true
	default:
		return false
	}
}

// Outcome distinguishes a model-produced classification from the fallback.
type Outcome string

const (
	OutcomeClassified Outcome = "classified"
	OutcomeDegraded   Outcome = "degraded"
)

const (
	DefaultIntensity  = IntensityMedium
	DefaultConfidence = 0.5
	DefaultReason     = "Standard classification applied."

	degradedConfidence   = 0.0
	degradedReasonPrefix = "Error during analysis: "
)

// Classification is the result of one analysis. It is a plain value; callers
// own their copy.
type Classification struct {
	Intensity  Intensity `json:"intensity"`
	Confidence float64   `json:"confidence"`
	Reason     string    `json:"reason"`
	ModelName  string    `json:"model_name"`
	Outcome    Outcome   `json:"outcome"`
	ErrorKind  string    `json:"error_kind,omitempty"`
}

// Degraded reports whether the classification is the failure fallback.
func (c Classification) Degraded() bool {
	return c.Outcome == OutcomeDegraded
}

// DegradedClassification builds the fallback result for err.
func DegradedClassification(model string, err error) Classification {
	reason := degradedReasonPrefix
	kind := services.KindTransient
	if err != nil {
		reason += err.Error()
		kind = services.Kind(err)
	}
	return Classification{
		Intensity:  IntensityMedium,
		Confidence: degradedConfidence,
		Reason:     reason,
		ModelName:  model,
		Outcome:    OutcomeDegraded,
		ErrorKind:  kind,
	}
}
