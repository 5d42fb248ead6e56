// Package router maps requests to chains of handler steps. Routes are
// registered with a method and a path pattern made of literal segments and
// named ":param" segments, and are resolved with the most specific pattern
// winning. The Router is also an http.Handler that runs the matched chain and
// converts its outcome into an HTTP response.
package router
