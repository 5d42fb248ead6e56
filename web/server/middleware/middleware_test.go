package middleware

import (
	"bytes"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.hackfix.me/switchyard/web/server/handler"
)

func TestWrapOrder(t *testing.T) {
	t.Parallel()

	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}
	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, "handler")
	}), mw("a"), mw("b"))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, []string{"a", "b", "handler"}, order)

	assert.Panics(t, func() { Wrap(nil) })
	assert.Panics(t, func() { Wrap(http.NotFoundHandler(), nil) })
}

func TestRequestID(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		reqID    string
		expReuse bool
	}{
		{name: "ok/generated", reqID: "", expReuse: false},
		{name: "ok/client", reqID: "abc-123", expReuse: true},
		{name: "ok/too_long", reqID: string(bytes.Repeat([]byte("x"), 200)), expReuse: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			var ctxID string
			h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				ctxID = handler.RequestID(r.Context())
			}), RequestID())

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.reqID != "" {
				req.Header.Set(HeaderRequestID, tt.reqID)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			respID := rec.Header().Get(HeaderRequestID)
			assert.Equal(t, respID, ctxID)
			if tt.expReuse {
				assert.Equal(t, tt.reqID, respID)
			} else {
				_, err := uuid.Parse(respID)
				require.NoError(t, err)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	h := Wrap(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hi"))
	}), RequestID(), Logger(logger))

	req := httptest.NewRequest(http.MethodGet, "/brew", nil)
	req.Header.Set(HeaderRequestID, "req-1")
	h.ServeHTTP(httptest.NewRecorder(), req)

	out := buf.String()
	assert.Contains(t, out, `msg="GET /brew"`)
	assert.Contains(t, out, "response_code=418")
	assert.Contains(t, out, "bytes_sent=2")
	assert.Contains(t, out, "request_id=req-1")
}
