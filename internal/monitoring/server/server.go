// Package server exposes the node checks over HTTP and gRPC.
package server

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/vietddude/aleph-monitor/internal/core/domain"
)

//go:embed templates/index.html
var indexPage []byte

// SyncChecker evaluates the sync status of the monitored node.
type SyncChecker interface {
	NodeSyncStatus(ctx context.Context) (domain.SyncStatus, error)
}

// AgeChecker evaluates the age of the published network metrics.
type AgeChecker interface {
	MetricsAgeByNode(ctx context.Context) (domain.MetricsAge, error)
}

// Server provides the HTTP check endpoints.
type Server struct {
	sync   SyncChecker
	age    AgeChecker
	logger *slog.Logger
	server *http.Server
}

// NewServer creates a new HTTP server listening on port.
func NewServer(sync SyncChecker, age AgeChecker, port int, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		sync:   sync,
		age:    age,
		logger: logger,
	}
	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", port),
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the HTTP handler serving all routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /check/scoring/node_sync", s.handleNodeSync)
	mux.HandleFunc("GET /check/metrics/age", s.handleMetricsAge)
	mux.Handle("GET /metrics", promhttp.Handler())
	return s.withRequestID(mux)
}

// Start starts the HTTP server. It blocks until the server stops.
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop stops the HTTP server.
func (s *Server) Stop(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

type requestIDKey struct{}

func (s *Server) withRequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = w.Write(indexPage)
}

func (s *Server) handleNodeSync(w http.ResponseWriter, r *http.Request) {
	status, err := s.sync.NodeSyncStatus(r.Context())
	if err != nil {
		s.writeError(w, r, "node_sync", err)
		return
	}
	s.logger.Info("Node sync checked",
		"request_id", requestID(r.Context()),
		"acceptable", status.Acceptable,
	)
	s.writeJSON(w, checkStatusCode(status.Acceptable), status)
}

func (s *Server) handleMetricsAge(w http.ResponseWriter, r *http.Request) {
	age, err := s.age.MetricsAgeByNode(r.Context())
	if err != nil {
		s.writeError(w, r, "metrics_age", err)
		return
	}
	s.logger.Info("Metrics age checked",
		"request_id", requestID(r.Context()),
		"acceptable", age.Acceptable,
	)
	s.writeJSON(w, checkStatusCode(age.Acceptable), age)
}

// checkStatusCode returns 201 for an acceptable result and 503 otherwise, so
// that "healthy", "unhealthy" and "could not check" are distinct classes.
func checkStatusCode(acceptable bool) int {
	if acceptable {
		return http.StatusCreated
	}
	return http.StatusServiceUnavailable
}

// errorStatusCode maps a check failure to an HTTP status.
func errorStatusCode(kind domain.ErrorKind) int {
	switch kind {
	case domain.KindUpstreamUnreachable, domain.KindMalformedPayload, domain.KindEmptyFeed:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse is the body returned when a check could not be evaluated.
type ErrorResponse struct {
	Error string           `json:"error"`
	Kind  domain.ErrorKind `json:"kind"`
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, check string, err error) {
	kind := domain.ClassifyError(err)
	s.logger.Error("Check could not be evaluated",
		"check", check,
		"request_id", requestID(r.Context()),
		"kind", kind,
		"error", err,
	)
	s.writeJSON(w, errorStatusCode(kind), ErrorResponse{Error: err.Error(), Kind: kind})
}

// writeJSON encodes v before sending any header so that an unencodable value
// (NaN or an infinity read from a node) becomes a 500 with an error body.
func (s *Server) writeJSON(w http.ResponseWriter, code int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		s.logger.Error("Failed to encode response", "error", err)
		buf.Reset()
		code = http.StatusInternalServerError
		_ = json.NewEncoder(&buf).Encode(ErrorResponse{
			Error: fmt.Sprintf("encode response: %v", err),
			Kind:  domain.KindInternal,
		})
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if _, err := w.Write(buf.Bytes()); err != nil {
		s.logger.Error("Failed to write response", "error", err)
	}
}
