package middleware

import (
	"net/http"

	"github.com/google/uuid"

	"go.hackfix.me/switchyard/web/server/handler"
)

// HeaderRequestID is the header that carries the request ID.
const HeaderRequestID = "X-Request-ID"

const maxRequestIDLen = 128

// RequestID assigns an ID to every request, and stores it in the request
// context and the response headers. An ID sent by the client is reused if
// it's reasonably short.
func RequestID() Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := r.Header.Get(HeaderRequestID)
			if id == "" || len(id) > maxRequestIDLen {
				id = uuid.NewString()
			}
			w.Header().Set(HeaderRequestID, id)
			next.ServeHTTP(w, r.WithContext(handler.WithRequestID(r.Context(), id)))
		})
	}
}
