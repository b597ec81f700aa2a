// Package server exposes the engine's latest results to the overlay over
// HTTP (pull) and WebSocket (push).
package server

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"riftwatch/internal/data"
	"riftwatch/internal/engine"
)

// StateProvider returns the latest engine snapshot
type StateProvider interface {
	Latest() engine.Snapshot
}

// TimelineReader returns the current match's samples
type TimelineReader interface {
	Samples(ctx context.Context) ([]data.Sample, error)
}

// Config holds the server's settings
type Config struct {
	Addr           string
	AllowedOrigins []string
}

// Server serves the overlay API
type Server struct {
	cfg      Config
	state    StateProvider
	timeline TimelineReader
	hub      *Hub
	logger   *zap.SugaredLogger
}

// New creates a server. timeline may be nil when the timeline is disabled.
func New(cfg Config, state StateProvider, timeline TimelineReader, logger *zap.Logger) *Server {
	s := &Server{
		cfg:      cfg,
		state:    state,
		timeline: timeline,
		logger:   logger.Sugar(),
	}
	s.hub = NewHub(s.allowOrigin, logger)
	return s
}

// Hub returns the WebSocket hub used for pushes
func (s *Server) Hub() *Hub {
	return s.hub
}

// Publish pushes a snapshot to every connected overlay
func (s *Server) Publish(snap engine.Snapshot) {
	s.hub.Broadcast(NewGameData(snap))
}

func (s *Server) allowOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	return slices.Contains(s.cfg.AllowedOrigins, "*") || slices.Contains(s.cfg.AllowedOrigins, origin)
}

// Router returns the HTTP handler with every route mounted
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.AllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/healthz", s.health)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/ws", s.hub.HandleWS)

	r.Route("/api", func(r chi.Router) {
		r.Get("/game-data", s.gameData)
		r.Get("/state", s.rawState)
		r.Get("/timeline", s.timelineSamples)
	})
	return r
}

// Run serves until ctx is cancelled, then shuts down gracefully
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Infow("HTTP server listening", "addr", s.cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	s.hub.Close()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) errorResponse(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

func (s *Server) health(w http.ResponseWriter, r *http.Request) {
	snap := s.state.Latest()
	body := map[string]any{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
		"ready":     snap.Ready(),
		"clients":   s.hub.Clients(),
	}
	if snap.Ready() {
		body["lastUpdated"] = snap.UpdatedAt
	}
	writeJSON(w, http.StatusOK, body)
}

func (s *Server) gameData(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, NewGameData(s.state.Latest()))
}

func (s *Server) rawState(w http.ResponseWriter, r *http.Request) {
	snap := s.state.Latest()
	if !snap.Ready() {
		s.errorResponse(w, http.StatusServiceUnavailable, "no game data yet")
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) timelineSamples(w http.ResponseWriter, r *http.Request) {
	if s.timeline == nil {
		s.errorResponse(w, http.StatusNotFound, "timeline disabled")
		return
	}

	samples, err := s.timeline.Samples(r.Context())
	if err != nil {
		s.logger.Errorw("Failed to read timeline", "error", err)
		s.errorResponse(w, http.StatusInternalServerError, "failed to read timeline")
		return
	}
	writeJSON(w, http.StatusOK, samples)
}
