package adapters

import (
	"context"
	stderrors "errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/toyz/weave/pkg/inspect"
)

// EchoAdapter implements inspect.WebServer for Echo v4
type EchoAdapter struct {
	engine *echo.Echo
}

// NewEchoAdapter creates a new Echo adapter
func NewEchoAdapter(e *echo.Echo) *EchoAdapter {
	return &EchoAdapter{engine: e}
}

// NewDefaultEchoAdapter creates an Echo adapter with panic recovery and no banner
func NewDefaultEchoAdapter() *EchoAdapter {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	return &EchoAdapter{engine: e}
}

// RegisterRoute registers a route with the Echo server
func (ea *EchoAdapter) RegisterRoute(route inspect.Route, handler inspect.HandlerFunc) {
	path := route.Prefix
	if route.Rest != "" {
		path += "/*"
	}
	ea.engine.Add(route.Method, path, ea.convertHandler(route, handler))
}

// Mount serves a net/http handler at path
func (ea *EchoAdapter) Mount(path string, handler http.Handler) {
	ea.engine.GET(path, echo.WrapHandler(handler))
}

// Start listens on addr until Stop is called
func (ea *EchoAdapter) Start(addr string) error {
	if err := ea.engine.Start(addr); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down
func (ea *EchoAdapter) Stop(ctx context.Context) error {
	return ea.engine.Shutdown(ctx)
}

// Name returns the adapter name
func (ea *EchoAdapter) Name() string {
	return "Echo"
}

// ServeHTTP implements http.Handler
func (ea *EchoAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ea.engine.ServeHTTP(w, r)
}

// Echo returns the underlying Echo instance
func (ea *EchoAdapter) Echo() *echo.Echo {
	return ea.engine
}

func (ea *EchoAdapter) convertHandler(route inspect.Route, handler inspect.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := handler(&echoRequestContext{ctx: c, rest: route.Rest}); err != nil {
			code, body := inspect.ErrorResponse(err)
			return c.JSON(code, body)
		}
		return nil
	}
}

// echoRequestContext wraps echo.Context to implement inspect.RequestContext
type echoRequestContext struct {
	ctx  echo.Context
	rest string
}

func (c *echoRequestContext) Method() string { return c.ctx.Request().Method }

func (c *echoRequestContext) Path() string { return c.ctx.Request().URL.Path }

func (c *echoRequestContext) Param(name string) string {
	if name == c.rest {
		return c.ctx.Param("*")
	}
	return c.ctx.Param(name)
}

func (c *echoRequestContext) QueryParam(name string) string { return c.ctx.QueryParam(name) }

func (c *echoRequestContext) JSON(code int, v interface{}) error { return c.ctx.JSON(code, v) }
