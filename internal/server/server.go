// Package server exposes the generated stats document over HTTP for the
// site-generation layer and other read-only consumers.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"os"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"fdstats/internal/config"
	"fdstats/internal/stats"
)

// Server wires configuration, logging and HTTP routing together.
type Server struct {
	cfg       *config.AppConfig
	log       zerolog.Logger
	startedAt time.Time
}

// New instantiates the HTTP server.
func New(cfg *config.AppConfig, log zerolog.Logger) *Server {
	return &Server{
		cfg:       cfg,
		log:       log,
		startedAt: time.Now().UTC(),
	}
}

// Run starts the HTTP server and blocks until the context is cancelled or an
// unrecoverable error occurs.
func (s *Server) Run(ctx context.Context) error {
	httpServer := &http.Server{
		Addr:         s.cfg.ListenAddr,
		Handler:      s.routes(),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.log.Info().Str("addr", s.cfg.ListenAddr).Msg("Stats server listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}

func (s *Server) routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.loggingMiddleware)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.handleHealth)
	r.Get("/stats", s.handleStats)

	return r
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Dur("duration", time.Since(start)).
			Msg("request")
	})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"status": "ok",
		"uptime": time.Since(s.startedAt).String(),
	})
}

// handleStats serves the most recently generated document. The document is
// re-read per request: the aggregate command may replace it (atomically) at
// any time while the server runs.
func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	doc, err := stats.LoadDocument(s.cfg.OutputPath)
	if err != nil {
		if os.IsNotExist(err) {
			s.writeJSON(w, http.StatusNotFound, map[string]string{"error": "no stats document generated yet"})
			return
		}
		s.log.Error().Err(err).Str("path", s.cfg.OutputPath).Msg("Failed to load stats document")
		s.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "stats document unavailable"})
		return
	}
	s.writeJSON(w, http.StatusOK, doc)
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.log.Error().Err(err).Msg("Failed to encode response")
	}
}
