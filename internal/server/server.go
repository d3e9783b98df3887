// Package server exposes the recognition engine over HTTP for development
// and batch tooling. The engine serializes inferences internally, so the
// server needs no request queue of its own.
package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/meowai/catscan/internal/config"
	"github.com/meowai/catscan/internal/engine"
)

// Recognizer is the slice of the engine the server needs.
type Recognizer interface {
	RecognizeBytes(data []byte, source string) engine.Outcome
	State() engine.State
}

// Server handles HTTP classification requests.
type Server struct {
	cfg     config.ServerConfig
	rec     Recognizer
	metrics *Metrics
	mux     *http.ServeMux
}

// New creates a server around a recognizer.
func New(cfg config.ServerConfig, rec Recognizer) *Server {
	s := &Server{
		cfg:     cfg,
		rec:     rec,
		metrics: NewMetrics(),
		mux:     http.NewServeMux(),
	}
	s.mux.HandleFunc("POST /api/v1/classify", s.handleClassify)
	s.mux.HandleFunc("GET /healthz", s.handleHealth)
	s.mux.Handle("GET /metrics", s.metrics.Handler())
	return s
}

// Handler returns the HTTP handler, for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.mux
}

// ListenAndServe blocks serving requests.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.mux,
		ReadTimeout:  time.Duration(s.cfg.TimeoutSec) * time.Second,
		WriteTimeout: time.Duration(s.cfg.TimeoutSec) * time.Second,
	}
	slog.Info("HTTP server listening", "addr", addr)
	return srv.ListenAndServe()
}

func (s *Server) handleClassify(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	maxBytes := int64(s.cfg.MaxUploadMB) << 20
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	data, source, err := readImageUpload(r)
	if err != nil {
		s.metrics.ObserveRequest("bad_request", time.Since(start))
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	outcome := s.rec.RecognizeBytes(data, source)
	s.metrics.ObserveRequest(outcomeLabel(outcome), time.Since(start))

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusFor(outcome))
	if err := json.NewEncoder(w).Encode(outcome); err != nil {
		slog.Warn("Failed to encode response", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{
		"status": "ok",
		"engine": s.rec.State().String(),
	})
}

// readImageUpload accepts either a multipart form with an "image" field or
// a raw image body.
func readImageUpload(r *http.Request) ([]byte, string, error) {
	ct := r.Header.Get("Content-Type")
	if strings.HasPrefix(ct, "multipart/form-data") {
		file, header, err := r.FormFile("image")
		if err != nil {
			return nil, "", fmt.Errorf("missing image field: %w", err)
		}
		defer func() { _ = file.Close() }()
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, "", fmt.Errorf("failed to read upload: %w", err)
		}
		return data, header.Filename, nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, "", fmt.Errorf("failed to read request body: %w", err)
	}
	if len(data) == 0 {
		return nil, "", errors.New("empty request body")
	}
	return data, "upload", nil
}

// statusFor maps outcomes onto HTTP statuses. A low-confidence result is a
// legitimate 200 response; only engine unavailability is a 5xx.
func statusFor(o engine.Outcome) int {
	if o.OK || o.Reason == engine.ReasonNoConfidentPrediction {
		return http.StatusOK
	}
	if o.Reason == engine.ReasonDecodeFailed {
		return http.StatusBadRequest
	}
	return http.StatusServiceUnavailable
}

func outcomeLabel(o engine.Outcome) string {
	if o.OK {
		return "success"
	}
	return o.Reason.String()
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
