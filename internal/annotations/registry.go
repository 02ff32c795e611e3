package annotations

import (
	"fmt"
	"sort"
	"sync"
)

// AnnotationRegistry defines the interface for managing annotation schemas
type AnnotationRegistry interface {
	Register(schema AnnotationSchema) error
	GetSchema(annotationType AnnotationType) (AnnotationSchema, error)
	ListTypes() []AnnotationType
	IsRegistered(annotationType AnnotationType) bool
}

type registry struct {
	mu      sync.RWMutex
	schemas map[AnnotationType]AnnotationSchema
}

// NewRegistry creates an empty annotation registry
func NewRegistry() AnnotationRegistry {
	return &registry{schemas: make(map[AnnotationType]AnnotationSchema)}
}

var (
	defaultRegistry     AnnotationRegistry
	defaultRegistryOnce sync.Once
)

// DefaultRegistry returns the global registry holding the builtin schemas
func DefaultRegistry() AnnotationRegistry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = NewRegistry()
		for _, schema := range BuiltinSchemas {
			if err := defaultRegistry.Register(schema); err != nil {
				panic(fmt.Sprintf("failed to register builtin schema %s: %v", schema.Type, err))
			}
		}
	})
	return defaultRegistry
}

// Register adds a schema
func (r *registry) Register(schema AnnotationSchema) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.schemas[schema.Type]; exists {
		return fmt.Errorf("annotation type %s is already registered", schema.Type)
	}
	if schema.MaxArgs >= 0 && schema.MaxArgs < schema.MinArgs {
		return fmt.Errorf("annotation type %s allows at most %d arguments but requires %d", schema.Type, schema.MaxArgs, schema.MinArgs)
	}
	r.schemas[schema.Type] = schema
	return nil
}

// GetSchema retrieves the schema for an annotation type
func (r *registry) GetSchema(annotationType AnnotationType) (AnnotationSchema, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	schema, exists := r.schemas[annotationType]
	if !exists {
		return AnnotationSchema{}, fmt.Errorf("annotation type %s is not registered", annotationType)
	}
	return schema, nil
}

// ListTypes returns all registered annotation types in declaration order
func (r *registry) ListTypes() []AnnotationType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	types := make([]AnnotationType, 0, len(r.schemas))
	for t := range r.schemas {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}

// IsRegistered checks if an annotation type is registered
func (r *registry) IsRegistered(annotationType AnnotationType) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.schemas[annotationType]
	return exists
}
