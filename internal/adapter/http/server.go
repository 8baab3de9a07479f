// Package http serves the location API, the admin upload routes, and the
// health, readiness and metrics endpoints.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/couchcryptid/crossroads-etl-service/internal/observability"
	"github.com/couchcryptid/crossroads-etl-service/internal/pipeline"
	sharedobs "github.com/couchcryptid/storm-data-shared/observability"
)

// LocationService answers location requests.
type LocationService interface {
	Locations(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

// Options configures routes and timeouts.
type Options struct {
	Addr            string
	DefaultFileName string
	AdminToken      string
	IngestTimeout   time.Duration
}

// Deps are the handlers' collaborators. Uploader and Presigner may be nil, in
// which case the corresponding admin route is not served. A nil Ready is
// always ready.
type Deps struct {
	Locations LocationService
	Ready     sharedobs.ReadinessChecker
	Uploader  Uploader
	Presigner Presigner
	Clock     clockwork.Clock
	Metrics   *observability.Metrics
	Logger    *slog.Logger
}

// Server is the service's HTTP front end.
type Server struct {
	httpServer *http.Server
	deps       Deps
	opts       Options
	clock      clockwork.Clock
	logger     *slog.Logger
}

// NewServer creates the HTTP server and registers every route.
func NewServer(opts Options, deps Deps) *Server {
	mux := http.NewServeMux()
	clock := deps.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	ready := deps.Ready
	if ready == nil {
		ready = alwaysReady{}
	}
	if opts.IngestTimeout <= 0 {
		opts.IngestTimeout = 2 * time.Minute
	}

	s := &Server{
		httpServer: &http.Server{
			Addr:         opts.Addr,
			Handler:      mux,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: opts.IngestTimeout + 10*time.Second,
			IdleTimeout:  60 * time.Second,
		},
		deps:   deps,
		opts:   opts,
		clock:  clock,
		logger: deps.Logger,
	}

	mux.HandleFunc("GET /healthz", sharedobs.LivenessHandler())
	mux.HandleFunc("GET /readyz", sharedobs.ReadinessHandler(ready))
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.Handle("GET /api/map/csv-data", s.instrument("/api/map/csv-data", s.handleLocations))
	if deps.Uploader != nil {
		mux.Handle("POST /api/admin/upload-csv", s.instrument("/api/admin/upload-csv", s.requireAdmin(s.handleUpload)))
	}
	if deps.Presigner != nil {
		mux.Handle("GET /api/admin/upload-csv", s.instrument("/api/admin/upload-csv", s.requireAdmin(s.handlePresign)))
	}

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

type alwaysReady struct{}

func (alwaysReady) CheckReadiness(context.Context) error { return nil }

// instrument records request duration by route and status code.
func (s *Server) instrument(route string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := s.clock.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next(rec, r)
		if s.deps.Metrics != nil {
			s.deps.Metrics.RequestDuration.
				WithLabelValues(route, strconv.Itoa(rec.status)).
				Observe(s.clock.Since(start).Seconds())
		}
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

func (s *Server) timestamp() string {
	return formatTimestamp(s.clock.Now())
}

// formatTimestamp renders millisecond-precision UTC ISO-8601.
func formatTimestamp(t time.Time) string {
	return t.UTC().Format("2006-01-02T15:04:05.000Z")
}
