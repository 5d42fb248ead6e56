package handler

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
)

type contextKey string

const contextKeyRequestID contextKey = "request_id"

// RequestID returns the request ID stored in ctx, or an empty string.
func RequestID(ctx context.Context) string {
	if v := ctx.Value(contextKeyRequestID); v != nil {
		return v.(string) //nolint:errcheck,forcetypeassert // Acceptable risk; only set with constant key.
	}
	return ""
}

// WithRequestID returns a copy of ctx that carries the request ID.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, contextKeyRequestID, id)
}

// Identity is the authenticated principal of a request.
type Identity struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Role string `json:"role"`
}

// Param is a single path parameter bound by the route pattern.
type Param struct {
	Name  string
	Value string
}

// Params are the path parameters of a matched route, in pattern order. Names
// are unique.
type Params []Param

// Get returns the value of the named parameter.
func (ps Params) Get(name string) (string, bool) {
	for _, p := range ps {
		if p.Name == name {
			return p.Value, true
		}
	}
	return "", false
}

// Len returns the number of parameters.
func (ps Params) Len() int {
	return len(ps)
}

// Map returns the parameters as a map.
func (ps Params) Map() map[string]string {
	m := make(map[string]string, len(ps))
	for _, p := range ps {
		m[p.Name] = p.Value
	}
	return m
}

// Context is the mutable state of a single request, threaded through every
// step of the chain. It is created by the dispatcher for each request and must
// not be retained or shared once the response is produced.
type Context struct {
	req    *http.Request
	params Params

	body     any
	hasBody  bool
	identity *Identity
	attrs    map[string]any

	logger *slog.Logger
	strict bool
	// continued is the continuation token of the step currently running.
	continued bool
}

// ContextOption configures a Context.
type ContextOption func(*Context)

// WithLogger sets the request-scoped logger.
func WithLogger(logger *slog.Logger) ContextOption {
	return func(c *Context) {
		c.logger = logger
	}
}

// WithStrict enables strict chain checking, where malformed chains panic
// instead of degrading gracefully.
func WithStrict(strict bool) ContextOption {
	return func(c *Context) {
		c.strict = strict
	}
}

// NewContext returns a new Context for the request r, with the path parameters
// extracted by the router.
func NewContext(r *http.Request, params Params, opts ...ContextOption) *Context {
	c := &Context{req: r, params: params}
	for _, opt := range opts {
		opt(c)
	}
	if c.logger == nil {
		c.logger = slog.New(slog.DiscardHandler)
	}

	return c
}

// Request returns the underlying HTTP request.
func (c *Context) Request() *http.Request {
	return c.req
}

// Context returns the context of the underlying HTTP request. It's cancelled
// when the client disconnects.
func (c *Context) Context() context.Context {
	return c.req.Context()
}

// Logger returns the request-scoped logger.
func (c *Context) Logger() *slog.Logger {
	return c.logger
}

// Param returns the value of the named path parameter, or an empty string.
func (c *Context) Param(name string) string {
	v, _ := c.params.Get(name)
	return v
}

// Params returns all path parameters.
func (c *Context) Params() Params {
	return c.params
}

// SetBody stores the parsed request body.
func (c *Context) SetBody(v any) {
	c.body = v
	c.hasBody = true
}

// Body returns the parsed request body, if a previous step set it.
func (c *Context) Body() (any, bool) {
	return c.body, c.hasBody
}

// BodyAs returns the parsed request body as *T. It returns false if the body
// wasn't set or is of a different type.
func BodyAs[T any](c *Context) (*T, bool) {
	v, ok := c.body.(*T)
	return v, ok && c.hasBody
}

// SetIdentity stores the authenticated identity.
func (c *Context) SetIdentity(id *Identity) {
	c.identity = id
	if id != nil {
		c.logger = c.logger.With("user", id.Name)
	}
}

// Identity returns the authenticated identity, if a previous step set it.
func (c *Context) Identity() (*Identity, bool) {
	return c.identity, c.identity != nil
}

// SetAttribute stores an arbitrary value for later steps.
func (c *Context) SetAttribute(key string, value any) {
	if c.attrs == nil {
		c.attrs = make(map[string]any)
	}
	c.attrs[key] = value
}

// Attribute returns the value stored under key. It returns false if no
// previous step set it.
func (c *Context) Attribute(key string) (any, bool) {
	v, ok := c.attrs[key]
	return v, ok
}

// Next marks the current step as continuing the chain. Steps call it as
// `return c.Next()`. It may be called at most once per step invocation; in
// non-strict mode further calls are ignored.
func (c *Context) Next() (*Response, error) {
	if c.continued {
		_ = c.malformed("continuation invoked more than once")
		return nil, nil
	}
	c.continued = true

	return nil, nil
}

// malformed reports a chain programming error. In strict mode it panics,
// otherwise it logs the problem and returns an ErrMalformedChain error.
func (c *Context) malformed(format string, args ...any) error {
	err := fmt.Errorf("%w: %s", ErrMalformedChain, fmt.Sprintf(format, args...))
	if c.strict {
		panic(err)
	}
	c.logger.Warn(err.Error())

	return err
}
