package router

import (
	"bytes"
	"errors"
	"log/slog"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/switchyard/web/server/handler"
	"go.hackfix.me/switchyard/web/server/types"
)

type testLogger struct {
	buf bytes.Buffer
}

func (l *testLogger) logger() *slog.Logger {
	return slog.New(slog.NewTextHandler(&l.buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func TestDispatch(t *testing.T) {
	t.Parallel()

	errSecret := errors.New("secret database failure")

	newRouter := func(opts ...Option) *Router {
		r := New(opts...)
		r.Get("/", text("Welcome!"))
		r.Post("/users", text("create"))
		r.Get("/users/:id", handler.StepFunc(func(c *handler.Context) (*handler.Response, error) {
			return handler.JSON(http.StatusOK, map[string]string{"id": c.Param("id")}), nil
		}))
		r.Get("/student",
			handler.Authenticate(handler.StaticAuth(handler.Identity{Role: "student"})),
			handler.RequireRole("admin"),
			text("admin only"))
		r.Get("/fail", handler.StepFunc(func(*handler.Context) (*handler.Response, error) {
			return nil, errSecret
		}))
		r.Get("/server-error", handler.StepFunc(func(*handler.Context) (*handler.Response, error) {
			return nil, types.NewError(http.StatusServiceUnavailable, "upstream details")
		}))
		r.Get("/panic", handler.StepFunc(func(*handler.Context) (*handler.Response, error) {
			panic("boom")
		}))
		r.Get("/malformed", handler.StepFunc(func(c *handler.Context) (*handler.Response, error) {
			return c.Next()
		}))
		r.Get("/nan", handler.StepFunc(func(*handler.Context) (*handler.Response, error) {
			return handler.JSON(http.StatusOK, math.NaN()), nil
		}))
		return r
	}

	tests := []struct {
		name      string
		strict    bool
		method    string
		target    string
		expStatus int
		expBody   string
		expJSON   bool
		expLog    []string
		notExpLog []string
	}{
		{
			name: "ok/text", method: "GET", target: "/",
			expStatus: http.StatusOK, expBody: "Welcome!",
		},
		{
			name: "ok/params", method: "GET", target: "/users/42",
			expStatus: http.StatusOK, expBody: `{"id":"42"}`, expJSON: true,
		},
		{
			name: "err/not_found", method: "DELETE", target: "/users",
			expStatus: http.StatusNotFound,
			expBody:   `{"success":false,"message":"Route /users not found"}`, expJSON: true,
			expLog: []string{"level=INFO", `msg="route not found"`},
		},
		{
			name: "err/forbidden", method: "GET", target: "/student",
			expStatus: http.StatusForbidden,
			expBody:   `{"success":false,"message":"Access denied. This route is only for admins."}`,
			expJSON:   true,
		},
		{
			name: "err/internal", method: "GET", target: "/fail",
			expStatus: http.StatusInternalServerError,
			expBody:   `{"success":false,"message":"Internal server error"}`, expJSON: true,
			expLog: []string{"level=ERROR", "secret database failure"},
		},
		{
			name: "err/5xx_contract_error_hidden", method: "GET", target: "/server-error",
			expStatus: http.StatusInternalServerError,
			expBody:   `{"success":false,"message":"Internal server error"}`, expJSON: true,
			expLog: []string{"upstream details"},
		},
		{
			name: "err/panic", method: "GET", target: "/panic",
			expStatus: http.StatusInternalServerError,
			expBody:   `{"success":false,"message":"Internal server error"}`, expJSON: true,
			expLog: []string{`msg="recovered from panic"`, "error=boom", "stack="},
		},
		{
			name: "err/malformed", method: "GET", target: "/malformed",
			expStatus: http.StatusInternalServerError,
			expBody:   `{"success":false,"message":"Internal server error"}`, expJSON: true,
			expLog:    []string{"level=WARN", "malformed chain"},
			notExpLog: []string{"recovered from panic"},
		},
		{
			name: "err/malformed_strict", strict: true, method: "GET", target: "/malformed",
			expStatus: http.StatusInternalServerError,
			expBody:   `{"success":false,"message":"Internal server error"}`, expJSON: true,
			expLog: []string{"recovered from panic", "malformed chain"},
		},
		{
			name: "err/encode", method: "GET", target: "/nan",
			expStatus: http.StatusInternalServerError,
			expBody:   `{"success":false,"message":"Internal server error"}`, expJSON: true,
			expLog: []string{"failed encoding response"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var tl testLogger
			r := newRouter(WithStrict(tt.strict), WithLogger(tl.logger()))

			req := httptest.NewRequest(tt.method, tt.target, nil)
			rec := httptest.NewRecorder()
			r.ServeHTTP(rec, req)

			assert.Equal(t, tt.expStatus, rec.Code)
			if tt.expJSON {
				assert.JSONEq(t, tt.expBody, rec.Body.String())
			} else {
				assert.Equal(t, tt.expBody, rec.Body.String())
			}

			logs := tl.buf.String()
			for _, l := range tt.expLog {
				assert.Contains(t, logs, l)
			}
			for _, l := range tt.notExpLog {
				assert.NotContains(t, logs, l)
			}
		})
	}
}

func TestDispatchNotFoundHandler(t *testing.T) {
	t.Parallel()

	r := New(WithNotFound(handler.StepFunc(func(c *handler.Context) (*handler.Response, error) {
		return handler.HTML(http.StatusNotFound, "<p>"+c.Request().URL.Path+"</p>"), nil
	})))

	resp := r.Dispatch(httptest.NewRequest(http.MethodGet, "/missing", nil))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode())
	assert.Equal(t, "<p>/missing</p>", body(t, resp))
}

func TestDispatchRequestID(t *testing.T) {
	t.Parallel()

	var tl testLogger
	r := New(WithLogger(tl.logger()))
	r.Get("/", handler.StepFunc(func(c *handler.Context) (*handler.Response, error) {
		c.Logger().Info("handling")
		return handler.Text(http.StatusOK, "ok"), nil
	}))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req = req.WithContext(handler.WithRequestID(req.Context(), "req-42"))
	resp := r.Dispatch(req)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.Contains(t, tl.buf.String(), "request_id=req-42")
	assert.Contains(t, tl.buf.String(), "route=/")
}

func TestDispatchMetrics(t *testing.T) {
	t.Parallel()

	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)
	r := New(WithMetrics(m))
	r.Get("/users/:id", text("user"))
	r.Get("/panic", handler.StepFunc(func(*handler.Context) (*handler.Response, error) {
		panic("boom")
	}))

	for _, target := range []string{"/users/1", "/users/2", "/nope", "/other", "/panic"} {
		r.Dispatch(httptest.NewRequest(http.MethodGet, target, nil))
	}
	r.Dispatch(httptest.NewRequest("BREW", "/users/1", nil))

	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/users/:id", "200")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", notFoundRoute, "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("GET", "/panic", "500")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues("OTHER", notFoundRoute, "404")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.panics))

	n, err := testutil.GatherAndCount(reg, "switchyard_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}
