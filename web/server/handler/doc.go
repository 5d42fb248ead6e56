// Package handler contains the building blocks of request processing chains.
// A chain is an ordered list of steps bound to a route: authentication,
// authorization, request body parsing and finally the handler that implements
// the business logic of the endpoint. Each step receives the per-request
// Context and either continues the chain, short-circuits it with a Response,
// or fails with an error.
//
// It is similar in principle to HTTP middlewares, but steps run sequentially
// over an index cursor instead of nested closures, and declare the
// capabilities they provide and require, so that ordering mistakes (e.g.
// checking a role before authenticating the user) are caught when the chain is
// assembled rather than when a request arrives.
package handler
