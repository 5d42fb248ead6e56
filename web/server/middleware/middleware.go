package middleware

import (
	"net/http"
)

// Middleware is a function that wraps an http.Handler to provide functionality
// that applies to every request regardless of route, such as access logging
// and request IDs. Route specific processing belongs in handler steps.
type Middleware func(http.Handler) http.Handler

// Wrap wraps h with the middlewares in the exact order specified. The first
// middleware is the outermost, so execution flows from left to right.
func Wrap(h http.Handler, middlewares ...Middleware) http.Handler {
	if h == nil {
		panic("middleware: nil handler")
	}

	// Apply middlewares from right to left to get left-to-right execution
	for i := len(middlewares) - 1; i >= 0; i-- {
		if middlewares[i] == nil {
			panic("middleware: nil middleware")
		}
		h = middlewares[i](h)
	}

	return h
}
