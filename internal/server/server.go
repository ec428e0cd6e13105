// Package server exposes a Source as an OData collection endpoint.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/rebeliceyang/lazygrid/internal/filter"
	"github.com/rebeliceyang/lazygrid/internal/logger"
	"github.com/rebeliceyang/lazygrid/internal/models"
	"github.com/rebeliceyang/lazygrid/internal/odata"
	"github.com/rebeliceyang/lazygrid/internal/source"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-Id"

// Config configures a Server
type Config struct {
	Collection string
	Dialect    odata.Dialect
	Logger     *slog.Logger
	Metrics    *Metrics
}

// Server answers GET /{collection} from a source
type Server struct {
	src        source.Source
	collection string
	dialect    odata.Dialect
	logger     *slog.Logger
	metrics    *Metrics
}

// New creates a server over src
func New(src source.Source, cfg Config) *Server {
	if cfg.Logger == nil {
		cfg.Logger = logger.Get()
	}
	if cfg.Metrics == nil {
		cfg.Metrics = NewMetrics()
	}
	if cfg.Dialect.Version == 0 {
		cfg.Dialect = odata.V4
	}
	return &Server{
		src:        src,
		collection: cfg.Collection,
		dialect:    cfg.Dialect,
		logger:     cfg.Logger,
		metrics:    cfg.Metrics,
	}
}

// Handler returns the routed handler
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(s.requestID)
	r.Use(s.metrics.Middleware)
	r.Use(s.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())
	r.Get("/{collection}", s.handleCollection)

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "not found")
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})
	return r
}

// ListenAndServe serves until ctx is canceled, then shuts down gracefully
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("serving collection", "addr", addr, "collection", s.collection, "dialect", s.dialect.String())
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("failed to shut down: %w", err)
		}
		return nil
	}
}

func (s *Server) handleCollection(w http.ResponseWriter, r *http.Request) {
	if s.collection != "" && chi.URLParam(r, "collection") != s.collection {
		writeError(w, http.StatusNotFound, fmt.Sprintf("unknown collection %q", chi.URLParam(r, "collection")))
		return
	}

	q, err := odata.ParseQuery(s.dialect, r.URL.Query())
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	page, err := s.src.Load(r.Context(), q.Request).Wait()
	if err != nil {
		s.metrics.LoadsTotal.WithLabelValues(s.src.Name(), "error").Inc()
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			logger.FromContext(r.Context(), s.logger).Error("load failed", "error", err)
		}
		writeError(w, status, err.Error())
		return
	}
	s.metrics.LoadsTotal.WithLabelValues(s.src.Name(), "ok").Inc()

	writeJSON(w, http.StatusOK, odata.Encode(s.dialect, page, q.Count))
}

// statusFor maps request errors to 400 and everything else to 500
func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrUnknownOperator),
		errors.Is(err, models.ErrUnknownSortDirection),
		errors.Is(err, models.ErrInvalidFilterValue),
		errors.Is(err, models.ErrInvalidPaging),
		errors.Is(err, filter.ErrInvalidIdentifier):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get(RequestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(logger.WithRequestID(r.Context(), id)))
	})
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		logger.FromContext(r.Context(), s.logger).Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"elapsed", time.Since(start))
	})
}

type errorBody struct {
	Error errorDetail `json:"error"`
}

type errorDetail struct {
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorBody{Error: errorDetail{Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
