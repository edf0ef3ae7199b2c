package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"civicrisk/internal/config"
	"civicrisk/internal/risk"
)

// Store manages classification history backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

const (
	sqliteBusyCode          = 5
	busyRetryAttempts       = 5
	busyRetryInitialBackoff = 10 * time.Millisecond
	busyRetryMaxBackoff     = 200 * time.Millisecond

	// Fixed-width timestamps keep lexical and chronological order identical.
	timeLayout = "2006-01-02T15:04:05.000000000Z"

	defaultListLimit = 50
	maxListLimit     = 1000
)

// Open initializes or connects to the history database at cfg.HistoryPath().
func Open(cfg *config.Config) (*Store, error) {
	if cfg == nil {
		return nil, errors.New("open history: config required")
	}
	if err := cfg.EnsureDirectories(); err != nil {
		return nil, fmt.Errorf("ensure directories: %w", err)
	}

	dbPath := cfg.HistoryPath()
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}

	store := &Store{db: db, path: dbPath}
	if err := store.initSchema(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Path returns the database file location.
func (s *Store) Path() string {
	return s.path
}

// Record stores one classification and returns the persisted row.
func (s *Store) Record(ctx context.Context, text, source string, elapsed time.Duration, result risk.Classification) (Record, error) {
	ctx = ensureContext(ctx)
	rec := Record{
		ID:         uuid.NewString(),
		Text:       text,
		Source:     strings.TrimSpace(source),
		Intensity:  result.Intensity,
		Confidence: result.Confidence,
		Reason:     result.Reason,
		ModelName:  result.ModelName,
		Outcome:    result.Outcome,
		ErrorKind:  result.ErrorKind,
		ElapsedMS:  elapsed.Milliseconds(),
		CreatedAt:  time.Now().UTC(),
	}
	if rec.Source == "" {
		rec.Source = SourceCLI
	}
	if rec.Outcome == "" {
		rec.Outcome = risk.OutcomeClassified
	}

	_, err := s.execWithRetry(ctx,
		`INSERT INTO classifications (
            id, text, source, intensity, confidence, reason,
            model_name, outcome, error_kind, elapsed_ms, created_at
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID,
		rec.Text,
		rec.Source,
		string(rec.Intensity),
		rec.Confidence,
		rec.Reason,
		rec.ModelName,
		string(rec.Outcome),
		nullableString(rec.ErrorKind),
		rec.ElapsedMS,
		rec.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		return Record{}, fmt.Errorf("insert classification: %w", err)
	}
	return rec, nil
}

// Get fetches a record by id. It returns nil, nil when no record matches.
func (s *Store) Get(ctx context.Context, id string) (*Record, error) {
	ctx = ensureContext(ctx)
	row := s.db.QueryRowContext(ctx, `SELECT `+recordColumns+` FROM classifications WHERE id = ?`, strings.TrimSpace(id))
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get classification: %w", err)
	}
	return rec, nil
}

// List returns records matching filter, newest first.
func (s *Store) List(ctx context.Context, filter Filter) ([]Record, error) {
	ctx = ensureContext(ctx)
	var (
		clauses []string
		args    []any
	)
	if intensity := strings.TrimSpace(filter.Intensity); intensity != "" {
		clauses = append(clauses, "intensity = ?")
		args = append(args, intensity)
	}
	if outcome := strings.TrimSpace(filter.Outcome); outcome != "" {
		clauses = append(clauses, "outcome = ?")
		args = append(args, outcome)
	}
	query := `SELECT ` + recordColumns + ` FROM classifications`
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}
	query += " ORDER BY created_at DESC, rowid DESC LIMIT ?"
	args = append(args, filter.limit())

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list classifications: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan classification: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate classifications: %w", err)
	}
	return records, nil
}

// Stats summarizes stored classifications.
func (s *Store) Stats(ctx context.Context) (Stats, error) {
	ctx = ensureContext(ctx)
	stats := Stats{
		ByIntensity: map[string]int64{},
		ByOutcome:   map[string]int64{},
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT intensity, outcome, COUNT(1) FROM classifications GROUP BY intensity, outcome`)
	if err != nil {
		return Stats{}, fmt.Errorf("count classifications: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			intensity, outcome string
			count              int64
		)
		if err := rows.Scan(&intensity, &outcome, &count); err != nil {
			return Stats{}, fmt.Errorf("scan counts: %w", err)
		}
		stats.Total += count
		stats.ByOutcome[outcome] += count
		if outcome == string(risk.OutcomeClassified) {
			stats.ByIntensity[intensity] += count
		}
	}
	if err := rows.Err(); err != nil {
		return Stats{}, fmt.Errorf("iterate counts: %w", err)
	}

	var avg sql.NullFloat64
	if err := s.db.QueryRowContext(ctx,
		`SELECT AVG(confidence) FROM classifications WHERE outcome = ?`, string(risk.OutcomeClassified),
	).Scan(&avg); err != nil {
		return Stats{}, fmt.Errorf("average confidence: %w", err)
	}
	if avg.Valid {
		stats.AverageConfidence = avg.Float64
	}
	return stats, nil
}

// Prune deletes records created before olderThan and returns how many were removed.
func (s *Store) Prune(ctx context.Context, olderThan time.Time) (int64, error) {
	res, err := s.execWithRetry(ctx,
		`DELETE FROM classifications WHERE created_at < ?`,
		olderThan.UTC().Format(timeLayout),
	)
	if err != nil {
		return 0, fmt.Errorf("prune classifications: %w", err)
	}
	removed, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return removed, nil
}

func ensureContext(ctx context.Context) context.Context {
	if ctx != nil {
		return ctx
	}
	return context.Background()
}

func isSQLiteBusy(err error) bool {
	if err == nil {
		return false
	}
	var coder interface{ Code() int }
	if errors.As(err, &coder) && coder.Code()&0xff == sqliteBusyCode {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "SQLITE_BUSY") || strings.Contains(msg, "database is locked")
}

func retryOnBusy(ctx context.Context, op func() error) error {
	delay := busyRetryInitialBackoff
	var lastErr error
	for attempt := 0; attempt < busyRetryAttempts; attempt++ {
		lastErr = op()
		if lastErr == nil {
			return nil
		}
		if !isSQLiteBusy(lastErr) || attempt == busyRetryAttempts-1 {
			break
		}
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return ctx.Err()
		}
		if next := delay * 2; next <= busyRetryMaxBackoff {
			delay = next
		}
	}
	return lastErr
}

func (s *Store) execWithRetry(ctx context.Context, query string, args ...any) (sql.Result, error) {
	ctx = ensureContext(ctx)
	var (
		res     sql.Result
		execErr error
	)
	if err := retryOnBusy(ctx, func() error {
		res, execErr = s.db.ExecContext(ctx, query, args...)
		return execErr
	}); err != nil {
		return nil, err
	}
	return res, nil
}
