// Package inspect serves the registered interception models over HTTP.
// Routes are declared once and mounted on echo, gin or fiber through the
// adapters package.
package inspect

import (
	"context"
	"fmt"
	"net/http"
)

// WebServer is implemented by every framework adapter
type WebServer interface {
	// RegisterRoute adds a route. A route with a Rest parameter also
	// matches every path below its prefix.
	RegisterRoute(route Route, handler HandlerFunc)

	// Mount serves a plain net/http handler at an exact path
	Mount(path string, handler http.Handler)

	Start(addr string) error
	Stop(ctx context.Context) error
	Name() string

	http.Handler
}

// Route describes one inspection endpoint
type Route struct {
	Method string
	Prefix string
	// Rest names the parameter holding the remainder of the path, without
	// its leading slash. Empty for exact routes.
	Rest string
}

// HandlerFunc handles one request
type HandlerFunc func(RequestContext) error

// RequestContext is the part of a framework context handlers need
type RequestContext interface {
	Method() string
	Path() string
	Param(name string) string
	QueryParam(name string) string
	JSON(code int, v interface{}) error
}

// HTTPError is returned by handlers to answer with a status code
type HTTPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Error implements the error interface
func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.Code, e.Message)
}

// NewHTTPError creates an HTTPError
func NewHTTPError(code int, format string, args ...interface{}) *HTTPError {
	return &HTTPError{Code: code, Message: fmt.Sprintf(format, args...)}
}

// ErrorResponse converts a handler error into a status code and body.
// Errors other than HTTPError are reported as internal errors.
func ErrorResponse(err error) (int, *HTTPError) {
	if httpErr, ok := err.(*HTTPError); ok {
		return httpErr.Code, httpErr
	}
	return http.StatusInternalServerError, &HTTPError{Code: http.StatusInternalServerError, Message: err.Error()}
}
