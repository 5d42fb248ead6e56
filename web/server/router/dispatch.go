package router

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"
	"time"

	aerrors "go.hackfix.me/switchyard/app/errors"
	"go.hackfix.me/switchyard/web/server/handler"
	"go.hackfix.me/switchyard/web/server/types"
)

const msgInternalError = "Internal server error"

// ServeHTTP dispatches the request and writes the response. The response is
// encoded before anything is written, so a serialization failure results in a
// clean 500 response.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	resp := r.Dispatch(req)
	if err := resp.Write(w); err != nil {
		if !errors.Is(err, handler.ErrEncodeResponse) {
			r.requestLogger(req).Debug("failed writing response", "error", err.Error())
			return
		}
		aerrors.LogTo(r.requestLogger(req), "failed encoding response", err)
		_ = internalError().Write(w)
	}
}

// Dispatch resolves the request to a route, runs its chain and returns the
// response. It always returns a response: requests without a matching route
// get a 404, and failed chains get the response of their error.
func (r *Router) Dispatch(req *http.Request) (resp *handler.Response) {
	var (
		start = time.Now()
		route = notFoundRoute
	)
	defer func() {
		r.metrics.observe(methodLabel(req.Method), route, resp.StatusCode(), time.Since(start))
	}()

	logger := r.requestLogger(req)

	match, ok := r.Resolve(req.Method, req.URL.EscapedPath())
	if !ok {
		logger.Info("route not found")
		if r.notFound != nil {
			c := handler.NewContext(req, nil, handler.WithLogger(logger), handler.WithStrict(r.strict))
			return r.run(c, r.notFound.Serve)
		}
		return handler.Error(http.StatusNotFound, fmt.Sprintf("Route %s not found", req.URL.Path))
	}

	route = match.Pattern
	logger = logger.With("route", match.Pattern)
	c := handler.NewContext(req, match.Params, handler.WithLogger(logger), handler.WithStrict(r.strict))

	return r.run(c, match.Chain.Run)
}

func (r *Router) run(
	c *handler.Context, run func(*handler.Context) (*handler.Response, error),
) (resp *handler.Response) {
	defer func() {
		if rec := recover(); rec != nil {
			r.metrics.panicked()
			aerrors.LogTo(c.Logger(), "recovered from panic",
				aerrors.NewWith(fmt.Sprint(rec), "stack", string(debug.Stack())))
			resp = internalError()
		}
	}()

	resp, err := run(c)
	if err != nil {
		return errorResponse(c.Logger(), err)
	}
	if resp == nil {
		c.Logger().Error("chain finished without a response")
		return internalError()
	}

	return resp
}

// errorResponse converts a chain error into a response. Client errors are
// reported with their message, anything else is logged and hidden behind a
// generic 500.
func errorResponse(logger *slog.Logger, err error) *handler.Response {
	var terr *types.Error
	if errors.As(err, &terr) && terr.StatusCode >= 400 && terr.StatusCode < 500 {
		logger.Debug("request rejected", "status", terr.StatusCode, "reason", terr.Message)
		return handler.Error(terr.StatusCode, terr.Message)
	}

	aerrors.LogTo(logger, "failed handling request", err)

	return internalError()
}

func internalError() *handler.Response {
	return handler.Error(http.StatusInternalServerError, msgInternalError)
}

func (r *Router) requestLogger(req *http.Request) *slog.Logger {
	logger := r.logger.With("method", req.Method, "path", req.URL.Path)
	if id := handler.RequestID(req.Context()); id != "" {
		logger = logger.With("request_id", id)
	}
	return logger
}

func methodLabel(m string) string {
	switch m {
	case http.MethodGet, http.MethodHead, http.MethodPost, http.MethodPut, http.MethodPatch,
		http.MethodDelete, http.MethodConnect, http.MethodOptions, http.MethodTrace:
		return m
	default:
		return "OTHER"
	}
}
