// Package server provides the HTTP server for the handtracker service.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/ayusman/handtracker/internal/server/api"
	"github.com/ayusman/handtracker/internal/store"
	"github.com/ayusman/handtracker/internal/tracker"
)

const shutdownTimeout = 5 * time.Second

// Tracker is what the server needs from the tracking application.
type Tracker interface {
	api.Tracker
	OnResults(fn tracker.ResultFunc)
}

// Config holds the server configuration.
type Config struct {
	StaticDir string
	Store     *store.Store
	Tracker   Tracker
	Overlay   Snapshotter
	// Video is the latest camera frame. The overlay is drawn over it.
	Video Snapshotter
	// Mirror reports whether the video streams are flipped horizontally.
	Mirror func() bool
}

// Server represents the HTTP server for the handtracker application.
type Server struct {
	config    Config
	mux       *http.ServeMux
	start     time.Time
	landmarks *LandmarksHandler
}

// New creates a new Server with the given configuration.
func New(config Config) *Server {
	s := &Server{
		config: config,
		mux:    http.NewServeMux(),
		start:  time.Now(),
	}
	s.setupRoutes()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)

	if s.config.Store != nil {
		s.mux.Handle("/api/settings", api.NewSettingsHandler(s.config.Store))
	}

	if s.config.Tracker != nil {
		s.mux.Handle("/api/tracking", api.NewTrackingHandler(s.config.Tracker))

		s.landmarks = NewLandmarksHandler()
		s.config.Tracker.OnResults(s.landmarks.Broadcast)
		s.mux.Handle("/api/landmarks", s.landmarks)
	}

	s.mux.Handle("/api/compare", api.NewCompareHandler())

	if s.config.Overlay != nil {
		s.mux.Handle("/api/overlay", NewOverlayHandler(s.config.Video, s.config.Overlay, s.config.Mirror))
	}

	if s.config.Video != nil {
		s.mux.Handle("/api/stream", NewStreamHandler(s.config.Video, s.config.Mirror))
	}

	// Serve static files if StaticDir is configured
	if s.config.StaticDir != "" {
		fs := http.FileServer(http.Dir(s.config.StaticDir))
		s.mux.Handle("/", fs)
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}
	if s.config.Tracker != nil {
		response["tracker"] = s.config.Tracker.State().String()
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe serves on addr until ctx is cancelled, then shuts down
// gracefully.
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
		// Streaming handlers exit when the base context ends.
		BaseContext: func(net.Listener) context.Context { return ctx },
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
