package middleware

import (
	"fmt"
	"log/slog"
	"net/http"

	"github.com/felixge/httpsnoop"

	"go.hackfix.me/switchyard/web/server/handler"
)

// Logger logs request details and response metrics.
func Logger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			m := httpsnoop.CaptureMetrics(next, w, r)
			args := []any{
				"response_code", m.Code,
				"duration", m.Duration,
				"bytes_sent", m.Written,
				"remote_addr", r.RemoteAddr,
			}
			if id := handler.RequestID(r.Context()); id != "" {
				args = append(args, "request_id", id)
			}
			logger.Info(fmt.Sprintf("%s %s", r.Method, r.URL), args...)
		})
	}
}
