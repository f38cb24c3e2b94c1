package relay

import (
	"context"
	"net/http"
	"strings"
)

// Controller describes a handler group: a base path and the route fragments
// it serves. ID is the identifier handed to the Resolver to obtain the
// instance whose methods handle the routes.
//
//	items := relay.NewController("items", "/api/items").
//	    GET("", "List").
//	    GET("/:id", "Get").
//	    POST("", "Create")
type Controller struct {
	ID       string
	BasePath string
	Routes   []Route
}

// Route is one route fragment of a Controller. Path is local to the
// controller's BasePath and Method names the controller method to invoke.
type Route struct {
	Verb   string
	Path   string
	Method string
}

// ControllerMethod is the signature of a controller method that returns a
// result. The result is normalized into an HTTP envelope.
type ControllerMethod = func(ctx context.Context, req *Request) (any, error)

// ControllerAction is the signature of a controller method without a result.
// A nil error produces a 204.
type ControllerAction = func(ctx context.Context, req *Request) error

// NewController creates a Controller descriptor.
func NewController(id, basePath string) *Controller {
	return &Controller{ID: id, BasePath: basePath}
}

// Handle adds a route fragment for an arbitrary verb.
func (c *Controller) Handle(verb, path, method string) *Controller {
	c.Routes = append(c.Routes, Route{Verb: strings.ToUpper(verb), Path: path, Method: method})
	return c
}

// GET adds a GET route fragment.
func (c *Controller) GET(path, method string) *Controller {
	return c.Handle(http.MethodGet, path, method)
}

// POST adds a POST route fragment.
func (c *Controller) POST(path, method string) *Controller {
	return c.Handle(http.MethodPost, path, method)
}

// PUT adds a PUT route fragment.
func (c *Controller) PUT(path, method string) *Controller {
	return c.Handle(http.MethodPut, path, method)
}

// PATCH adds a PATCH route fragment.
func (c *Controller) PATCH(path, method string) *Controller {
	return c.Handle(http.MethodPatch, path, method)
}

// DELETE adds a DELETE route fragment.
func (c *Controller) DELETE(path, method string) *Controller {
	return c.Handle(http.MethodDelete, path, method)
}

// OPTIONS adds an OPTIONS route fragment.
func (c *Controller) OPTIONS(path, method string) *Controller {
	return c.Handle(http.MethodOptions, path, method)
}

// HEAD adds a HEAD route fragment.
func (c *Controller) HEAD(path, method string) *Controller {
	return c.Handle(http.MethodHead, path, method)
}

// ControllerFunc adapts a single function into a controller. Its only
// method is Serve, so routes name "Serve" as their method.
//
//	c.ProvideValue("health", relay.ControllerFunc(func(ctx context.Context, req *relay.Request) (any, error) {
//	    return map[string]string{"status": "ok"}, nil
//	}))
type ControllerFunc func(ctx context.Context, req *Request) (any, error)

// Serve calls f.
func (f ControllerFunc) Serve(ctx context.Context, req *Request) (any, error) {
	return f(ctx, req)
}
