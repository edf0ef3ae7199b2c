package history

import (
	"database/sql"
	"fmt"
	"time"

	"civicrisk/internal/risk"
)

// Entry points recorded with each classification.
const (
	SourceCLI   = "cli"
	SourceBatch = "batch"
	SourceAPI   = "api"
)

// Record is one persisted classification.
type Record struct {
	ID         string         `json:"id"`
	Text       string         `json:"text"`
	Source     string         `json:"source"`
	Intensity  risk.Intensity `json:"intensity"`
	Confidence float64        `json:"confidence"`
	Reason     string         `json:"reason"`
	ModelName  string         `json:"model_name"`
	Outcome    risk.Outcome   `json:"outcome"`
	ErrorKind  string         `json:"error_kind,omitempty"`
	ElapsedMS  int64          `json:"elapsed_ms"`
	CreatedAt  time.Time      `json:"created_at"`
}

// Classification returns the stored result as a risk.Classification.
func (r Record) Classification() risk.Classification {
	return risk.Classification{
		Intensity:  r.Intensity,
		Confidence: r.Confidence,
		Reason:     r.Reason,
		ModelName:  r.ModelName,
		Outcome:    r.Outcome,
		ErrorKind:  r.ErrorKind,
	}
}

// Filter narrows List results. A zero Limit selects the default page size.
type Filter struct {
	Limit     int
	Intensity string
	Outcome   string
}

func (f Filter) limit() int {
	switch {
	case f.Limit <= 0:
		return defaultListLimit
	case f.Limit > maxListLimit:
		return maxListLimit
	default:
		return f.Limit
	}
}

// Stats summarizes the history table. ByIntensity counts classified results
// only; degraded results always report medium and would skew it.
type Stats struct {
	Total             int64            `json:"total"`
	ByIntensity       map[string]int64 `json:"by_intensity"`
	ByOutcome         map[string]int64 `json:"by_outcome"`
	AverageConfidence float64          `json:"average_confidence"`
}

const recordColumns = `id, text, source, intensity, confidence, reason, model_name, outcome, error_kind, elapsed_ms, created_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*Record, error) {
	var (
		rec       Record
		intensity string
		outcome   string
		errorKind sql.NullString
		createdAt string
	)
	if err := row.Scan(
		&rec.ID,
		&rec.Text,
		&rec.Source,
		&intensity,
		&rec.Confidence,
		&rec.Reason,
		&rec.ModelName,
		&outcome,
		&errorKind,
		&rec.ElapsedMS,
		&createdAt,
	); err != nil {
		return nil, err
	}
	rec.Intensity = risk.Intensity(intensity)
	rec.Outcome = risk.Outcome(outcome)
	if errorKind.Valid {
		rec.ErrorKind = errorKind.String
	}
	parsed, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", createdAt, err)
	}
	rec.CreatedAt = parsed
	return &rec, nil
}

func nullableString(value string) any {
	if value == "" {
		return nil
	}
	return value
}
