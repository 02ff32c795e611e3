package registry

import (
	"github.com/toyz/weave/internal/interception"
	"github.com/toyz/weave/internal/models"
)

// ModelReader is the read side of the model registry, used by the dispatch
// layer and the inspection server
type ModelReader interface {
	Get(class models.ClassID) (*interception.Model, bool)
	Classes() []models.ClassID
	Size() int
}

// Listener is notified after a model is stored
type Listener func(event RegistrationEvent)
