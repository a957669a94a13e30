package http

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
	"github.com/couchcryptid/storm-track-playback/internal/playback"
	"github.com/couchcryptid/storm-track-playback/internal/session"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Controller is the session surface the API drives.
type Controller interface {
	sharedobs.ReadinessChecker
	RequestYear(ctx context.Context, year string) error
	SetSpeed(multiplier float64) error
	SetKeepTrails(keep bool)
	TogglePlayPause() (playback.State, error)
	OnMarkerPicked() (bool, error)
	Facts() (session.StormFacts, error)
	Years(ctx context.Context) ([]string, error)
	View() playback.View
	Message() string
}

// Server exposes the playback API plus health, readiness, and metrics.
type Server struct {
	httpServer *http.Server
	ctrl       Controller
	logger     *slog.Logger
}

// NewServer creates an HTTP server with /healthz, /readyz, /metrics, and
// the /api routes.
func NewServer(addr string, ctrl Controller, logger *slog.Logger) *Server {
	mux := http.NewServeMux()

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      mux,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		ctrl:   ctrl,
		logger: logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ctrl))
	mux.Handle("GET /metrics", promhttp.Handler())

	mux.HandleFunc("GET /api/view", s.handleView)
	mux.HandleFunc("GET /api/trail.geojson", s.handleTrailGeoJSON)
	mux.HandleFunc("GET /api/facts", s.handleFacts)
	mux.HandleFunc("GET /api/years", s.handleYears)
	mux.HandleFunc("POST /api/year", s.handleYear)
	mux.HandleFunc("POST /api/play-pause", s.handlePlayPause)
	mux.HandleFunc("POST /api/speed", s.handleSpeed)
	mux.HandleFunc("POST /api/keep-trails", s.handleKeepTrails)
	mux.HandleFunc("POST /api/select", s.handleSelect)

	return s
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.logger.Info("http server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the underlying handler, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.httpServer.Handler.ServeHTTP(w, r)
}
