package router

import (
	"log/slog"

	"go.hackfix.me/switchyard/web/server/handler"
)

// Option is a function that allows configuring the Router.
type Option func(*Router)

// WithStrict enables strict chain checking. Malformed chains panic instead of
// degrading gracefully, which surfaces programming errors early in tests and
// development.
func WithStrict(strict bool) Option {
	return func(r *Router) {
		r.strict = strict
	}
}

// WithLogger sets the logger used by the router and passed to request
// contexts.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Router) {
		r.logger = logger
	}
}

// WithMetrics enables recording request metrics.
func WithMetrics(m *Metrics) Option {
	return func(r *Router) {
		r.metrics = m
	}
}

// WithNotFound sets the step that produces the response for requests that
// don't match any route. It must return a response.
func WithNotFound(step handler.Step) Option {
	return func(r *Router) {
		r.notFound = step
	}
}
