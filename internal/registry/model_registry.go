package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/toyz/weave/internal/interception"
	"github.com/toyz/weave/internal/models"
	"github.com/toyz/weave/internal/utils"
)

// RegistrationEvent describes one model being stored
type RegistrationEvent struct {
	ID       uuid.UUID
	Class    models.ClassID
	Model    *interception.Model
	Replaced bool // a model for the class was already registered
	At       time.Time
}

// ModelRegistry is the process-wide map from class to interception model.
// Concurrent puts are safe and the last write wins. Entries are never
// removed individually; Clear drops all of them on container shutdown.
type ModelRegistry struct {
	models *utils.BaseRegistry[models.ClassID, *interception.Model]

	mu        sync.RWMutex
	listeners []Listener
}

// NewModelRegistry creates an empty model registry
func NewModelRegistry() *ModelRegistry {
	return &ModelRegistry{
		models: utils.NewBaseRegistry[models.ClassID, *interception.Model]("model", "class"),
	}
}

// Put stores the model of a class and notifies listeners
func (r *ModelRegistry) Put(class models.ClassID, model *interception.Model) {
	replaced := r.models.Put(class, model)

	event := RegistrationEvent{
		ID:       uuid.New(),
		Class:    class,
		Model:    model,
		Replaced: replaced,
		At:       time.Now(),
	}

	r.mu.RLock()
	listeners := append([]Listener(nil), r.listeners...)
	r.mu.RUnlock()

	for _, listener := range listeners {
		listener(event)
	}
}

// Get returns the model of a class
func (r *ModelRegistry) Get(class models.ClassID) (*interception.Model, bool) {
	return r.models.Get(class)
}

// Classes returns the registered classes in first-registration order
func (r *ModelRegistry) Classes() []models.ClassID {
	return r.models.Keys()
}

// Size returns the number of registered models
func (r *ModelRegistry) Size() int {
	return r.models.Size()
}

// Subscribe adds a listener called synchronously after every Put
func (r *ModelRegistry) Subscribe(listener Listener) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listeners = append(r.listeners, listener)
}

// Clear removes every model
func (r *ModelRegistry) Clear() {
	r.models.Clear()
}
