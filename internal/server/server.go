package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"civicrisk/internal/history"
	"civicrisk/internal/logging"
	"civicrisk/internal/notifications"
	"civicrisk/internal/risk"
	"civicrisk/internal/services"
)

const (
	maxBodyBytes    = 1 << 20
	requestIDHeader = "X-Request-ID"
)

// Store is the slice of the history store the API needs.
type Store interface {
	Record(ctx context.Context, text, source string, elapsed time.Duration, result risk.Classification) (history.Record, error)
	Get(ctx context.Context, id string) (*history.Record, error)
	List(ctx context.Context, filter history.Filter) ([]history.Record, error)
	Stats(ctx context.Context) (history.Stats, error)
	Similar(ctx context.Context, q history.SimilarQuery) ([]history.Match, error)
}

// Options configures a Server. Store, Notifier, and Metrics may be nil.
type Options struct {
	Bind     string
	Token    string
	LockPath string
	Provider *risk.Provider
	Store    Store
	Notifier notifications.Service
	Metrics  http.Handler
	Logger   *slog.Logger
}

// Server exposes the classifier over HTTP.
type Server struct {
	bind     string
	lockPath string
	provider *risk.Provider
	store    Store
	notifier notifications.Service
	logger   *slog.Logger

	handler  http.Handler
	lock     *flock.Flock
	listener net.Listener
	server   *http.Server
}

// ClassifyRequest is the body accepted by POST /api/risk/classify.
type ClassifyRequest struct {
	Text string `json:"text"`
}

// ClassifyResponse is the classification plus the history id when stored.
type ClassifyResponse struct {
	risk.Classification
	ID string `json:"id,omitempty"`
}

// HistoryResponse wraps a page of history records.
type HistoryResponse struct {
	Records []history.Record `json:"records"`
}

// SimilarResponse lists stored complaints resembling the query text.
type SimilarResponse struct {
	Matches []history.Match `json:"matches"`
}

// New builds a server. It does not listen until Start.
func New(opts Options) (*Server, error) {
	if opts.Provider == nil {
		return nil, services.Wrap(services.ErrConfiguration, "server", "new", "analyzer provider is required", nil)
	}
	bind := strings.TrimSpace(opts.Bind)
	if bind == "" {
		return nil, services.Wrap(services.ErrConfiguration, "server", "new", "bind address is required", nil)
	}
	s := &Server{
		bind:     bind,
		lockPath: opts.LockPath,
		provider: opts.Provider,
		store:    opts.Store,
		notifier: opts.Notifier,
		logger:   logging.NewComponentLogger(opts.Logger, "server"),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/health", s.handleHealth)
	mux.HandleFunc("/api/risk/classify", authMiddleware(opts.Token, s.handleClassify))
	mux.HandleFunc("/api/risk/history", authMiddleware(opts.Token, s.handleHistory))
	mux.HandleFunc("/api/risk/history/", authMiddleware(opts.Token, s.handleHistoryItem))
	mux.HandleFunc("/api/risk/stats", authMiddleware(opts.Token, s.handleStats))
	mux.HandleFunc("/api/risk/similar", authMiddleware(opts.Token, s.handleSimilar))
	if opts.Metrics != nil {
		mux.Handle("/metrics", opts.Metrics)
	}
	s.handler = s.withRequestID(mux)

	s.server = &http.Server{
		Handler:           s.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s, nil
}

// Handler returns the routed handler, for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Addr reports the listening address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}

// Start takes the instance lock, listens, and serves in the background
// until ctx is cancelled or Stop is called.
func (s *Server) Start(ctx context.Context) error {
	if s.lockPath != "" {
		lock := flock.New(s.lockPath)
		ok, err := lock.TryLock()
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			return errors.New("another civicrisk server is already running")
		}
		s.lock = lock
	}

	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		s.releaseLock()
		return fmt.Errorf("api listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("api server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Run starts the server and blocks until ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	return nil
}

// Stop shuts the server down and releases the lock. It is safe to call twice.
func (s *Server) Stop() {
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	s.releaseLock()
}

func (s *Server) releaseLock() {
	if s.lock != nil {
		_ = s.lock.Unlock()
	}
}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(requestIDHeader, id)
		ctx := services.WithRequestID(r.Context(), id)
		ctx = services.WithSource(ctx, history.SourceAPI)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req ClassifyRequest
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	analyzer, err := s.provider.Get()
	if err != nil {
		logging.ErrorWithContext(logging.WithContext(r.Context(), s.logger), "analyzer unavailable", "analyzer_unavailable",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "set GROQ_API_KEY or run civicrisk config init"),
		)
		s.writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}

	start := time.Now()
	result := analyzer.Classify(r.Context(), req.Text)
	resp := ClassifyResponse{Classification: result}
	if s.store != nil {
		record, err := s.store.Record(r.Context(), req.Text, history.SourceAPI, time.Since(start), result)
		if err != nil {
			logging.WarnWithContext(logging.WithContext(r.Context(), s.logger), "history write failed", "history_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "classification returned but not stored"),
			)
		} else {
			resp.ID = record.ID
		}
	}
	if s.notifier != nil {
		if err := s.notifier.NotifyRisk(r.Context(), req.Text, result); err != nil {
			logging.WarnWithContext(logging.WithContext(r.Context(), s.logger), "risk notification failed", "notification_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "no alert sent for this complaint"),
			)
		}
	}
	s.writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, "history is disabled")
		return
	}
	query := r.URL.Query()
	filter := history.Filter{
		Intensity: strings.TrimSpace(query.Get("intensity")),
		Outcome:   strings.TrimSpace(query.Get("outcome")),
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		filter.Limit = limit
	}
	records, err := s.store.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if records == nil {
		records = []history.Record{}
	}
	s.writeJSON(w, http.StatusOK, HistoryResponse{Records: records})
}

func (s *Server) handleHistoryItem(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, "history is disabled")
		return
	}
	id := strings.TrimPrefix(r.URL.Path, "/api/risk/history/")
	if id == "" || strings.Contains(id, "/") {
		s.writeError(w, http.StatusNotFound, "record not found")
		return
	}
	record, err := s.store.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if record == nil {
		s.writeError(w, http.StatusNotFound, "record not found")
		return
	}
	s.writeJSON(w, http.StatusOK, record)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, "history is disabled")
		return
	}
	stats, err := s.store.Stats(r.Context())
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	s.writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleSimilar(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	if s.store == nil {
		s.writeError(w, http.StatusNotFound, "history is disabled")
		return
	}
	query := r.URL.Query()
	q := history.SimilarQuery{Text: strings.TrimSpace(query.Get("text"))}
	if q.Text == "" {
		s.writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if raw := strings.TrimSpace(query.Get("threshold")); raw != "" {
		threshold, err := strconv.ParseFloat(raw, 64)
		if err != nil || threshold < 0 || threshold > 1 {
			s.writeError(w, http.StatusBadRequest, "invalid threshold")
			return
		}
		q.Threshold = &threshold
	}
	if raw := strings.TrimSpace(query.Get("limit")); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			s.writeError(w, http.StatusBadRequest, "invalid limit")
			return
		}
		q.Limit = limit
	}
	matches, err := s.store.Similar(r.Context(), q)
	if err != nil {
		s.writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if matches == nil {
		matches = []history.Match{}
	}
	s.writeJSON(w, http.StatusOK, SimilarResponse{Matches: matches})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Warn("api response encode failed", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}
