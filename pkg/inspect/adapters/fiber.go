package adapters

import (
	"context"
	"net/http"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/toyz/weave/pkg/inspect"
)

// FiberAdapter implements inspect.WebServer for Fiber v2
type FiberAdapter struct {
	app *fiber.App
}

// NewFiberAdapter creates a new Fiber adapter
func NewFiberAdapter(app *fiber.App) *FiberAdapter {
	return &FiberAdapter{app: app}
}

// NewDefaultFiberAdapter creates a Fiber adapter with recovery and no startup message
func NewDefaultFiberAdapter() *FiberAdapter {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code, body := inspect.ErrorResponse(err)
			if fiberErr, ok := err.(*fiber.Error); ok {
				code, body = fiberErr.Code, &inspect.HTTPError{Code: fiberErr.Code, Message: fiberErr.Message}
			}
			return c.Status(code).JSON(body)
		},
	})
	app.Use(recover.New())
	return &FiberAdapter{app: app}
}

// RegisterRoute registers a route with the Fiber app
func (fa *FiberAdapter) RegisterRoute(route inspect.Route, handler inspect.HandlerFunc) {
	path := route.Prefix
	if route.Rest != "" {
		path += "/*"
	}
	fa.app.Add(route.Method, path, convertHandlerToFiber(route, handler))
}

// Mount serves a net/http handler at path
func (fa *FiberAdapter) Mount(path string, handler http.Handler) {
	fa.app.Get(path, adaptor.HTTPHandler(handler))
}

// Start starts the Fiber server
func (fa *FiberAdapter) Start(addr string) error {
	return fa.app.Listen(addr)
}

// Stop gracefully shuts the server down
func (fa *FiberAdapter) Stop(ctx context.Context) error {
	return fa.app.ShutdownWithContext(ctx)
}

// Name returns the adapter name
func (fa *FiberAdapter) Name() string {
	return "Fiber"
}

// ServeHTTP implements http.Handler by converting the request for fasthttp
func (fa *FiberAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	adaptor.FiberApp(fa.app)(w, r)
}

// App returns the underlying Fiber app
func (fa *FiberAdapter) App() *fiber.App {
	return fa.app
}

func convertHandlerToFiber(route inspect.Route, handler inspect.HandlerFunc) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if err := handler(&fiberRequestContext{ctx: c, rest: route.Rest}); err != nil {
			code, body := inspect.ErrorResponse(err)
			return c.Status(code).JSON(body)
		}
		return nil
	}
}

// fiberRequestContext wraps fiber.Ctx to implement inspect.RequestContext
type fiberRequestContext struct {
	ctx  *fiber.Ctx
	rest string
}

func (c *fiberRequestContext) Method() string { return c.ctx.Method() }

func (c *fiberRequestContext) Path() string { return c.ctx.Path() }

func (c *fiberRequestContext) Param(name string) string {
	if name == c.rest {
		return c.ctx.Params("*")
	}
	return c.ctx.Params(name)
}

func (c *fiberRequestContext) QueryParam(name string) string { return c.ctx.Query(name) }

func (c *fiberRequestContext) JSON(code int, v interface{}) error {
	return c.ctx.Status(code).JSON(v)
}
