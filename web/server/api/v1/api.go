package api

import (
	"fmt"
	"log/slog"

	"github.com/zpatrick/rbac"
	"go4.org/netipx"

	actx "go.hackfix.me/switchyard/app/context"
	"go.hackfix.me/switchyard/web/server/handler"
	"go.hackfix.me/switchyard/web/server/router"
	"go.hackfix.me/switchyard/web/server/types"
)

// Handler is the API endpoint handler.
type Handler struct {
	appCtx *actx.Context
	logger *slog.Logger
}

// Options configure the access control of the API routes.
type Options struct {
	// Auth authenticates requests to protected routes. It's required.
	Auth handler.Authenticator
	// AdminNetworks restricts access to the admin dashboard. If nil, any
	// address is allowed.
	AdminNetworks *netipx.IPSet
	// Policy grants roles permissions on resources. DefaultPolicy is used if
	// it's nil.
	Policy *handler.Policy
}

// DefaultPolicy returns the policy where admins can do anything, and students
// can only read.
func DefaultPolicy() *handler.Policy {
	return handler.NewPolicy(
		rbac.Role{
			RoleID:      "admin",
			Permissions: []rbac.Permission{rbac.NewGlobPermission("*", "*")},
		},
		rbac.Role{
			RoleID:      "student",
			Permissions: []rbac.Permission{rbac.NewGlobPermission("read", "*")},
		},
	)
}

// SetupRoutes registers the API routes on r. It panics if a route can't be
// registered, which is a programming error.
func SetupRoutes(r *router.Router, appCtx *actx.Context, logger *slog.Logger, opts Options) {
	h := &Handler{appCtx: appCtx, logger: logger}
	policy := opts.Policy
	if policy == nil {
		policy = DefaultPolicy()
	}
	authed := func() *handler.Pipeline {
		return handler.NewPipeline().Auth(opts.Auth)
	}

	r.Get("/", handler.StepFunc(h.HomeGet))

	r.Group("/users", func(g *router.Group) {
		g.Post("/", handler.StepFunc(h.UserPost))
		g.Put("/:id", handler.StepFunc(h.UserPut))
		g.Delete("/:id", handler.StepFunc(h.UserDelete))
	})

	r.Get("/student", authed().
		Guard(handler.RequireRole("student")).
		Then(handler.StepFunc(h.StudentGet))...)

	admin := authed()
	if opts.AdminNetworks != nil {
		admin.Guard(handler.AllowNetworks(opts.AdminNetworks))
	}
	r.Get("/admin", admin.
		Guard(handler.RequireRole("admin")).
		Then(handler.StepFunc(h.AdminGet))...)

	r.Group("/api/todos", func(g *router.Group) {
		g.Get("/", handler.StepFunc(h.TodosGet))
		g.Get("/:id", handler.StepFunc(h.TodoGet))
		g.Post("/", handler.ParseJSON[types.TodoCreateRequest](), handler.StepFunc(h.TodoPost))
		g.Put("/:id", handler.ParseJSON[types.TodoUpdateRequest](), handler.StepFunc(h.TodoPut))
		g.Delete("/:id", handler.StepFunc(h.TodoDelete))
	})

	r.Group("/api/products", func(g *router.Group) {
		g.Get("/", handler.StepFunc(h.ProductsGet))
		g.Get("/:id", handler.StepFunc(h.ProductGet))

		write := func() *handler.Pipeline {
			return authed().Guard(policy.Require("write", "products"))
		}
		g.Post("/", write().
			Parse(handler.ParseJSON[types.ProductRequest]()).
			Then(handler.StepFunc(h.ProductPost))...)
		g.Put("/:id", write().
			Parse(handler.ParseJSON[types.ProductRequest]()).
			Then(handler.StepFunc(h.ProductPut))...)
		g.Delete("/:id", write().Then(handler.StepFunc(h.ProductDelete))...)
	})
}

var errMissingBody = fmt.Errorf("%w: request body", handler.ErrMissingAttribute)
