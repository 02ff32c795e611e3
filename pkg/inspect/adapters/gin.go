package adapters

import (
	"context"
	stderrors "errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/toyz/weave/pkg/inspect"
)

// GinAdapter implements inspect.WebServer for the Gin framework
type GinAdapter struct {
	engine *gin.Engine
	server *http.Server
}

// NewGinAdapter creates a new Gin adapter
func NewGinAdapter(g *gin.Engine) *GinAdapter {
	return &GinAdapter{
		engine: g,
		server: &http.Server{Handler: g, ReadHeaderTimeout: 10 * time.Second},
	}
}

// NewDefaultGinAdapter creates a Gin adapter in release mode with recovery
func NewDefaultGinAdapter() *GinAdapter {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	return NewGinAdapter(engine)
}

// RegisterRoute registers a route with the Gin server
func (ga *GinAdapter) RegisterRoute(route inspect.Route, handler inspect.HandlerFunc) {
	path := route.Prefix
	if route.Rest != "" {
		path += "/*" + route.Rest
	}
	ga.engine.Handle(route.Method, path, ga.convertHandler(route, handler))
}

// Mount serves a net/http handler at path
func (ga *GinAdapter) Mount(path string, handler http.Handler) {
	ga.engine.GET(path, gin.WrapH(handler))
}

// Start listens on addr until Stop is called. Gin has no shutdown of its
// own, so the engine runs inside an http.Server.
func (ga *GinAdapter) Start(addr string) error {
	ga.server.Addr = addr
	if err := ga.server.ListenAndServe(); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Stop gracefully shuts the server down
func (ga *GinAdapter) Stop(ctx context.Context) error {
	return ga.server.Shutdown(ctx)
}

// Name returns the adapter name
func (ga *GinAdapter) Name() string {
	return "Gin"
}

// ServeHTTP implements http.Handler
func (ga *GinAdapter) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ga.engine.ServeHTTP(w, r)
}

// GetEngine returns the underlying Gin engine
func (ga *GinAdapter) GetEngine() *gin.Engine {
	return ga.engine
}

func (ga *GinAdapter) convertHandler(route inspect.Route, handler inspect.HandlerFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := handler(&ginRequestContext{ctx: c, rest: route.Rest}); err != nil {
			code, body := inspect.ErrorResponse(err)
			c.JSON(code, body)
		}
	}
}

// ginRequestContext wraps gin.Context to implement inspect.RequestContext
type ginRequestContext struct {
	ctx  *gin.Context
	rest string
}

func (c *ginRequestContext) Method() string { return c.ctx.Request.Method }

func (c *ginRequestContext) Path() string { return c.ctx.Request.URL.Path }

// Param strips the leading slash Gin keeps on catch-all values
func (c *ginRequestContext) Param(name string) string {
	value := c.ctx.Param(name)
	if name == c.rest {
		value = strings.TrimPrefix(value, "/")
	}
	return value
}

func (c *ginRequestContext) QueryParam(name string) string { return c.ctx.Query(name) }

func (c *ginRequestContext) JSON(code int, v interface{}) error {
	c.ctx.JSON(code, v)
	return nil
}
