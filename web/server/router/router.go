package router

import (
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"slices"
	"strings"
	"sync"
	"sync/atomic"

	"go.hackfix.me/switchyard/web/server/handler"
)

// Router stores routes and resolves requests to them. Routes can be registered
// at any time, but typically are at startup. Resolution never blocks on
// registration: the route table is replaced atomically on every change.
type Router struct {
	mu    sync.Mutex // serializes writers
	table atomic.Pointer[table]

	strict   bool
	logger   *slog.Logger
	metrics  *Metrics
	notFound handler.Step
}

// New returns a new Router.
func New(opts ...Option) *Router {
	r := &Router{}
	for _, opt := range opts {
		opt(r)
	}
	if r.logger == nil {
		r.logger = slog.New(slog.DiscardHandler)
	}
	r.table.Store(&table{index: map[string]map[int][]*route{}})

	return r
}

// Match is the result of resolving a request.
type Match struct {
	Method  string
	Pattern string
	Params  handler.Params
	Chain   *handler.Chain
}

// RouteInfo describes a registered route.
type RouteInfo struct {
	Method  string
	Pattern string
	Steps   []string
}

type route struct {
	pattern *Pattern
	chain   *handler.Chain
}

// table is an immutable snapshot of the registered routes.
type table struct {
	// index groups routes by method and segment count, in registration order.
	index  map[string]map[int][]*route
	routes []*route
}

// with returns a copy of t with rt added. A route with the same shape as rt
// is replaced in place, keeping its resolution position.
func (t *table) with(rt *route) (nt *table, replaced bool) {
	nt = &table{
		index:  maps.Clone(t.index),
		routes: make([]*route, 0, len(t.routes)+1),
	}

	shape := rt.pattern.shape()
	for _, r := range t.routes {
		if r.pattern.shape() == shape {
			r = rt
			replaced = true
		}
		nt.routes = append(nt.routes, r)
	}
	if !replaced {
		nt.routes = append(nt.routes, rt)
	}

	m := rt.pattern.method
	bySize := maps.Clone(nt.index[m])
	if bySize == nil {
		bySize = map[int][]*route{}
	}
	n := len(rt.pattern.segments)
	bySize[n] = nil
	for _, r := range nt.routes {
		if r.pattern.method == m && len(r.pattern.segments) == n {
			bySize[n] = append(bySize[n], r)
		}
	}
	nt.index[m] = bySize

	return nt, replaced
}

func (t *table) resolve(method string, segs []string) (*route, handler.Params) {
	var (
		best   *route
		params handler.Params
	)
	for _, r := range t.index[method][len(segs)] {
		ps, ok := r.pattern.match(segs)
		if !ok {
			continue
		}
		if best == nil || r.pattern.moreSpecific(best.pattern) {
			best, params = r, ps
		}
	}

	return best, params
}

// Register adds a route for the method and path pattern, processed by the
// chain of steps. It returns an error if the pattern is invalid or the chain
// isn't valid. Registering a pattern with the same method and shape as an
// existing route replaces that route's chain.
func (r *Router) Register(method, pattern string, steps ...handler.Step) error {
	p, err := ParsePattern(method, pattern)
	if err != nil {
		return err
	}
	chain, err := handler.NewChain(steps...)
	if err != nil {
		return fmt.Errorf("invalid chain for %s %s: %w", p.method, pattern, err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	nt, replaced := r.table.Load().with(&route{pattern: p, chain: chain})
	r.table.Store(nt)

	logger := r.logger.With("method", p.method, "pattern", pattern, "steps", chain.Len())
	if replaced {
		logger.Warn("replaced existing route")
	} else {
		logger.Debug("registered route")
	}

	return nil
}

// Handle is like Register, but panics on error.
func (r *Router) Handle(method, pattern string, steps ...handler.Step) {
	if err := r.Register(method, pattern, steps...); err != nil {
		panic(fmt.Sprintf("router: %s", err))
	}
}

// Get registers a route for GET requests. It panics on error.
func (r *Router) Get(pattern string, steps ...handler.Step) {
	r.Handle(http.MethodGet, pattern, steps...)
}

// Post registers a route for POST requests. It panics on error.
func (r *Router) Post(pattern string, steps ...handler.Step) {
	r.Handle(http.MethodPost, pattern, steps...)
}

// Put registers a route for PUT requests. It panics on error.
func (r *Router) Put(pattern string, steps ...handler.Step) {
	r.Handle(http.MethodPut, pattern, steps...)
}

// Delete registers a route for DELETE requests. It panics on error.
func (r *Router) Delete(pattern string, steps ...handler.Step) {
	r.Handle(http.MethodDelete, pattern, steps...)
}

// Patch registers a route for PATCH requests. It panics on error.
func (r *Router) Patch(pattern string, steps ...handler.Step) {
	r.Handle(http.MethodPatch, pattern, steps...)
}

// Group calls fn with a route group mounted at prefix. steps run before the
// steps of every route registered in the group.
func (r *Router) Group(prefix string, fn func(*Group), steps ...handler.Step) {
	g := &Group{router: r, prefix: strings.TrimSuffix(prefix, "/"), steps: slices.Clone(steps)}
	fn(g)
}

// Resolve returns the route that matches the request method and escaped
// path. Among structurally matching routes, the one with a literal at the
// first position where they differ wins, otherwise the one registered first.
func (r *Router) Resolve(method, path string) (*Match, bool) {
	segs, ok := decodePath(path)
	if !ok {
		return nil, false
	}

	rt, params := r.table.Load().resolve(method, segs)
	if rt == nil {
		return nil, false
	}

	return &Match{
		Method:  rt.pattern.method,
		Pattern: rt.pattern.path,
		Params:  params,
		Chain:   rt.chain,
	}, true
}

// Routes returns all registered routes in registration order.
func (r *Router) Routes() []RouteInfo {
	t := r.table.Load()
	infos := make([]RouteInfo, 0, len(t.routes))
	for _, rt := range t.routes {
		info := RouteInfo{Method: rt.pattern.method, Pattern: rt.pattern.path}
		for _, s := range rt.chain.Steps() {
			info.Steps = append(info.Steps, handler.StepName(s))
		}
		infos = append(infos, info)
	}

	return infos
}

// Group registers routes under a common path prefix, with shared leading
// steps.
type Group struct {
	router *Router
	prefix string
	steps  []handler.Step
}

// Use adds steps that run before the steps of routes registered in the group
// afterwards.
func (g *Group) Use(steps ...handler.Step) {
	g.steps = append(g.steps, steps...)
}

// Register is like Router.Register, with the pattern relative to the group
// prefix. The pattern "/" refers to the prefix itself.
func (g *Group) Register(method, pattern string, steps ...handler.Step) error {
	all := make([]handler.Step, 0, len(g.steps)+len(steps))
	all = append(all, g.steps...)
	all = append(all, steps...)

	return g.router.Register(method, g.path(pattern), all...)
}

// Handle is like Register, but panics on error.
func (g *Group) Handle(method, pattern string, steps ...handler.Step) {
	if err := g.Register(method, pattern, steps...); err != nil {
		panic(fmt.Sprintf("router: %s", err))
	}
}

// Get registers a route for GET requests. It panics on error.
func (g *Group) Get(pattern string, steps ...handler.Step) {
	g.Handle(http.MethodGet, pattern, steps...)
}

// Post registers a route for POST requests. It panics on error.
func (g *Group) Post(pattern string, steps ...handler.Step) {
	g.Handle(http.MethodPost, pattern, steps...)
}

// Put registers a route for PUT requests. It panics on error.
func (g *Group) Put(pattern string, steps ...handler.Step) {
	g.Handle(http.MethodPut, pattern, steps...)
}

// Delete registers a route for DELETE requests. It panics on error.
func (g *Group) Delete(pattern string, steps ...handler.Step) {
	g.Handle(http.MethodDelete, pattern, steps...)
}

// Patch registers a route for PATCH requests. It panics on error.
func (g *Group) Patch(pattern string, steps ...handler.Step) {
	g.Handle(http.MethodPatch, pattern, steps...)
}

// Group creates a nested group. The nested group inherits the steps of g.
func (g *Group) Group(prefix string, fn func(*Group), steps ...handler.Step) {
	ng := &Group{
		router: g.router,
		prefix: g.path(strings.TrimSuffix(prefix, "/")),
		steps:  append(append([]handler.Step(nil), g.steps...), steps...),
	}
	if ng.prefix == "/" {
		ng.prefix = ""
	}
	fn(ng)
}

func (g *Group) path(pattern string) string {
	if pattern == "/" || pattern == "" {
		if g.prefix == "" {
			return "/"
		}
		return g.prefix
	}
	return g.prefix + pattern
}
