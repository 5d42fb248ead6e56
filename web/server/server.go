package server

import (
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	actx "go.hackfix.me/switchyard/app/context"
	"go.hackfix.me/switchyard/web/server/api/v1"
	"go.hackfix.me/switchyard/web/server/middleware"
	"go.hackfix.me/switchyard/web/server/router"
)

const metricsPath = "/metrics"

// Server is a wrapper around http.Server with some custom behavior.
type Server struct {
	*http.Server
	router *router.Router
	logger *slog.Logger
}

// Options configure the server.
type Options struct {
	// API configures the access control of the API routes.
	API api.Options
	// Strict makes malformed route chains panic. The panic is recovered and
	// results in a 500 response.
	Strict bool
}

// New returns a new web Server instance that will listen on addr.
func New(appCtx *actx.Context, addr string, opts Options) *Server {
	logger := appCtx.Logger.With("component", "web-server")

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	r := NewRouter(appCtx, logger, opts, router.NewMetrics(reg))

	srv := &Server{
		Server: &http.Server{
			Handler:           SetupHandlers(r, reg, logger),
			Addr:              addr,
			ReadHeaderTimeout: 10 * time.Second,
			ReadTimeout:       30 * time.Second,
			WriteTimeout:      time.Minute,
		},
		router: r,
		logger: logger,
	}

	return srv
}

// NewRouter returns a router with all API routes registered. metrics can be
// nil.
func NewRouter(
	appCtx *actx.Context, logger *slog.Logger, opts Options, metrics *router.Metrics,
) *router.Router {
	r := router.New(
		router.WithLogger(logger.With("component", "router")),
		router.WithStrict(opts.Strict),
		router.WithMetrics(metrics),
	)
	api.SetupRoutes(r, appCtx, logger, opts.API)

	return r
}

// Router returns the router that serves API requests.
func (s *Server) Router() *router.Router {
	return s.router
}

// ListenAndServe starts the HTTP server. It stores the actual listen address,
// which is convenient when the address is dynamically determined by the system
// (e.g. ':0').
func (s *Server) ListenAndServe() error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		//nolint:wrapcheck // This is fine.
		return err
	}

	s.Addr = ln.Addr().String()
	s.logger.Info("started listener", "address", s.Addr)

	//nolint:wrapcheck // This is fine.
	return s.Serve(ln)
}

// SetupHandlers configures the server HTTP handlers. Metrics gathered by reg
// are exposed at GET /metrics, and everything else is handled by r. Request
// paths reach r unmodified.
func SetupHandlers(r *router.Router, reg *prometheus.Registry, logger *slog.Logger) http.Handler {
	metrics := promhttp.HandlerFor(reg, promhttp.HandlerOpts{})
	h := http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		if req.Method == http.MethodGet && req.URL.Path == metricsPath {
			metrics.ServeHTTP(w, req)
			return
		}
		r.ServeHTTP(w, req)
	})

	return middleware.Wrap(h, middleware.RequestID(), middleware.Logger(logger))
}
