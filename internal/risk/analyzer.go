package risk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"civicrisk/internal/config"
	"civicrisk/internal/logging"
	"civicrisk/internal/services"
	"civicrisk/internal/services/llm"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "llama-3.3-70b-versatile"

// Completer sends a prompt to a language model and returns its raw text.
// *llm.Client satisfies it.
type Completer interface {
	Complete(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}

// Recorder observes every finished classification.
type Recorder interface {
	ObserveClassification(result Classification, elapsed time.Duration)
}

// Settings fixes the model identity and sampling temperature for an Analyzer.
type Settings struct {
	Model       string
	Temperature float64
}

// Analyzer classifies complaint text. It holds no mutable state and is safe
// for concurrent use.
type Analyzer struct {
	settings  Settings
	completer Completer
	logger    *slog.Logger
	recorder  Recorder
}

// Option customizes an Analyzer.
type Option func(*Analyzer)

// WithLogger sets the logger used for classification events.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithRecorder registers an observer for finished classifications.
func WithRecorder(recorder Recorder) Option {
	return func(a *Analyzer) {
		a.recorder = recorder
	}
}

// New constructs an Analyzer around completer.
func New(settings Settings, completer Completer, opts ...Option) (*Analyzer, error) {
	if completer == nil {
		return nil, services.Wrap(services.ErrConfiguration, "risk analyzer", "", "completer required", nil)
	}
	settings.Model = strings.TrimSpace(settings.Model)
	if settings.Model == "" {
		settings.Model = DefaultModel
	}
	a := &Analyzer{settings: settings, completer: completer}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = logging.NewComponentLogger(a.logger, "risk")
	return a, nil
}

// NewFromConfig builds the LLM client from cfg and wraps it in an Analyzer.
// It fails with a configuration error when no API key is available.
func NewFromConfig(cfg *config.Config, logger *slog.Logger, opts ...Option) (*Analyzer, error) {
	if cfg == nil {
		return nil, services.Wrap(services.ErrConfiguration, "risk analyzer", "", "config required", nil)
	}
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "risk analyzer", "", "", err)
	}
	settings := cfg.GetLLM()
	client := llm.NewClient(llm.Config{
		APIKey:         settings.APIKey,
		BaseURL:        settings.BaseURL,
		Model:          settings.Model,
		Temperature:    settings.Temperature,
		TimeoutSeconds: settings.TimeoutSeconds,
		JSONMode:       settings.JSONMode,
	}, llm.WithRetryMaxAttempts(settings.RetryAttempts))
	opts = append([]Option{WithLogger(logger)}, opts...)
	return New(Settings{Model: settings.Model, Temperature: settings.Temperature}, client, opts...)
}

// Model returns the configured model identifier.
func (a *Analyzer) Model() string {
	return a.settings.Model
}

// Settings returns the analyzer's fixed settings.
func (a *Analyzer) Settings() Settings {
	return a.settings
}

// Classify asks the model to rate text. It always returns a complete
// Classification; failures are reported through Outcome and ErrorKind.
func (a *Analyzer) Classify(ctx context.Context, text string) (result Classification) {
	if ctx == nil {
		ctx = context.Background()
	}
	start := time.Now()
	logger := logging.WithContext(ctx, a.logger)

	defer func() {
		if r := recover(); r != nil {
			err := services.Wrap(services.ErrProvider, "risk classify", "", fmt.Sprintf("completer panic: %v", r), nil)
			result = a.degrade(logger, text, err)
		}
		if a.recorder != nil {
			a.recorder.ObserveClassification(result, time.Since(start))
		}
	}()

	content, err := a.completer.Complete(ctx, "", RenderPrompt(text))
	if err != nil {
		return a.degrade(logger, text, err)
	}
	result, err = parseClassification(content, a.settings.Model)
	if err != nil {
		return a.degrade(logger, text, err)
	}

	if !result.Intensity.Known() {
		logging.WarnWithContext(logger, "model returned unrecognized intensity", "risk_intensity_unrecognized",
			logging.String("intensity", string(result.Intensity)),
			logging.String(logging.FieldModel, a.settings.Model),
			logging.String(logging.FieldErrorHint, "review the prompt or model; value passed through unchanged"),
			logging.String(logging.FieldImpact, "callers may receive an intensity outside low/medium/high"),
		)
	}
	logger.Info("complaint classified",
		logging.String("intensity", string(result.Intensity)),
		logging.Float64("confidence", result.Confidence),
		logging.String(logging.FieldModel, a.settings.Model),
		logging.Duration("elapsed", time.Since(start)),
	)
	return result
}

func (a *Analyzer) degrade(logger *slog.Logger, text string, err error) Classification {
	result := DegradedClassification(a.settings.Model, err)
	logging.ErrorWithContext(logger, "risk analysis failed", "risk_classification_failed",
		logging.Error(err),
		logging.String(logging.FieldErrorKind, result.ErrorKind),
		logging.String(logging.FieldModel, a.settings.Model),
		logging.Int("text_length", len(text)),
		logging.String(logging.FieldErrorHint, hintFor(err)),
	)
	return result
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, services.ErrConfiguration):
		return "set GROQ_API_KEY or llm.api_key"
	case errors.Is(err, services.ErrParse):
		return "model did not return the expected JSON object"
	case errors.Is(err, services.ErrTimeout), errors.Is(err, context.DeadlineExceeded):
		return "increase llm.timeout_seconds or retry later"
	case errors.Is(err, services.ErrProvider):
		return "check provider status, model name, and API key"
	default:
		return "check network connectivity to llm.base_url"
	}
}
