package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"net/http"
	"strconv"

	"go.hackfix.me/switchyard/web/server/types"
)

// ErrEncodeResponse is returned when the response body can't be serialized.
var ErrEncodeResponse = errors.New("failed encoding response")

// Response is the outcome of a chain. It is immutable once constructed;
// WithHeader returns a modified copy.
type Response struct {
	status int
	header http.Header
	// At most one of data or body is set.
	data any
	body []byte
}

// JSON returns a response that encodes v as JSON.
func JSON(status int, v any) *Response {
	return &Response{
		status: status,
		header: http.Header{"Content-Type": {"application/json; charset=utf-8"}},
		data:   v,
	}
}

// Text returns a plain text response.
func Text(status int, s string) *Response {
	return &Response{
		status: status,
		header: http.Header{"Content-Type": {"text/plain; charset=utf-8"}},
		body:   []byte(s),
	}
}

// HTML returns an HTML response. The content is sent as is.
func HTML(status int, s string) *Response {
	return &Response{
		status: status,
		header: http.Header{"Content-Type": {"text/html; charset=utf-8"}},
		body:   []byte(s),
	}
}

// Error returns a JSON error response with the standard failure envelope.
func Error(status int, msg string) *Response {
	return JSON(status, &types.Envelope{Success: false, Message: msg})
}

// StatusCode returns the HTTP status code of the response.
func (r *Response) StatusCode() int {
	return r.status
}

// Header returns a copy of the response headers.
func (r *Response) Header() http.Header {
	return r.header.Clone()
}

// Data returns the value that is encoded as the response body. For text and
// HTML responses it's the body string.
func (r *Response) Data() any {
	if r.data != nil {
		return r.data
	}
	return string(r.body)
}

// WithHeader returns a copy of the response with the header key set to value.
func (r *Response) WithHeader(key, value string) *Response {
	c := *r
	c.header = maps.Clone(r.header)
	if c.header == nil {
		c.header = http.Header{}
	}
	c.header.Set(key, value)

	return &c
}

// Encode serializes the response body.
func (r *Response) Encode() ([]byte, error) {
	if r.body != nil || r.data == nil {
		return r.body, nil
	}

	data, err := json.Marshal(r.data)
	if err != nil {
		return nil, fmt.Errorf("%w as JSON: %w", ErrEncodeResponse, err)
	}

	return data, nil
}

// Write encodes the response and writes it to w. Nothing is written if
// encoding fails.
func (r *Response) Write(w http.ResponseWriter) error {
	data, err := r.Encode()
	if err != nil {
		return err
	}

	h := w.Header()
	for k, v := range r.header {
		h[k] = append([]string(nil), v...)
	}
	h.Set("Content-Length", strconv.Itoa(len(data)))
	w.WriteHeader(r.status)
	_, err = w.Write(data)

	return err //nolint:wrapcheck // Wrapped by caller.
}
