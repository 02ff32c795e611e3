// Package adapters mounts the inspection routes on echo, gin or fiber.
package adapters

import (
	"fmt"

	"github.com/toyz/weave/internal/config"
	"github.com/toyz/weave/internal/errors"
	"github.com/toyz/weave/pkg/inspect"
)

var (
	_ inspect.WebServer = (*EchoAdapter)(nil)
	_ inspect.WebServer = (*GinAdapter)(nil)
	_ inspect.WebServer = (*FiberAdapter)(nil)
)

// New creates the default adapter for a configured framework name
func New(framework string) (inspect.WebServer, error) {
	switch framework {
	case config.FrameworkEcho, "":
		return NewDefaultEchoAdapter(), nil
	case config.FrameworkGin:
		return NewDefaultGinAdapter(), nil
	case config.FrameworkFiber:
		return NewDefaultFiberAdapter(), nil
	default:
		return nil, errors.ConfigurationError("inspect.framework",
			fmt.Sprintf("unknown framework %q", framework)).
			WithSuggestion("Use one of echo, gin or fiber")
	}
}
