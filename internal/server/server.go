// Package server exposes the verification engine over HTTP.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"certcheck/internal/artifact"
	"certcheck/internal/certcheck"
)

// multipartOverhead is the allowance for multipart framing on top of the
// artifact size cap.
const multipartOverhead = 64 << 10

// Server handles certificate checks.
type Server struct {
	analyzer certcheck.Analyzer
	loader   *artifact.Loader
	gatherer prometheus.Gatherer
	logger   *slog.Logger
}

// New creates a Server. gatherer backs GET /metrics.
func New(analyzer certcheck.Analyzer, loader *artifact.Loader, gatherer prometheus.Gatherer, logger *slog.Logger) *Server {
	return &Server{
		analyzer: analyzer,
		loader:   loader,
		gatherer: gatherer,
		logger:   logger,
	}
}

// Router returns the HTTP handler for all routes.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	r.Post("/api/v1/check", s.handleCheck)
	return r
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return err
		}
		if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := middleware.GetReqID(ctx)

	if max := s.loader.MaxSize(); max > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, max+multipartOverhead)
	}

	f, hdr, err := r.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		switch {
		case errors.As(err, &tooLarge):
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
		case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
			writeError(w, http.StatusBadRequest, "multipart field \"file\" is required")
		default:
			s.logger.WarnContext(ctx, "invalid check request", "request_id", requestID, "error", err)
			writeError(w, http.StatusBadRequest, "invalid multipart body")
		}
		return
	}
	defer f.Close()

	mediaType := hdr.Header.Get("Content-Type")
	if mediaType == "application/octet-stream" {
		mediaType = ""
	}
	a, err := s.loader.Read(hdr.Filename, mediaType, f)
	if err != nil {
		if errors.Is(err, artifact.ErrTooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "file too large")
			return
		}
		s.logger.ErrorContext(ctx, "reading upload", "request_id", requestID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to read upload")
		return
	}

	v := s.analyzer.Analyze(ctx, a)
	s.logger.InfoContext(ctx, "check completed",
		"request_id", requestID,
		"file", a.Name,
		"status", v.Status,
	)
	writeJSON(w, http.StatusOK, v)
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
