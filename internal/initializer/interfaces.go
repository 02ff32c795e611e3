package initializer

import (
	"github.com/toyz/weave/internal/interception"
	"github.com/toyz/weave/internal/models"
)

// BindingCatalog answers questions about binding annotation types
type BindingCatalog interface {
	// FilterBindings keeps only the annotations whose type is a binding type
	FilterBindings(annotations []models.Annotation) []models.Annotation
	// FlattenBindings returns the bindings together with every binding they
	// compose, transitively. Equal annotations appear once.
	FlattenBindings(bindings []models.Annotation) []models.Annotation
	// IsInherited reports whether a binding type declared on a superclass applies to subclasses
	IsInherited(bindingType string) bool
	// StereotypeBindings returns the binding annotations declared by a stereotype
	StereotypeBindings(stereotype string) []models.Annotation
}

// BindingResolver finds the enabled interceptors bound to a set of bindings,
// ordered for invocation
type BindingResolver interface {
	Resolve(kind models.InterceptionKind, bindings []models.Annotation) []models.InterceptorHandle
}

// MetadataReader provides interceptor metadata for resolved handles and for
// interceptor classes named explicitly
type MetadataReader interface {
	InterceptorMetadata(handle models.InterceptorHandle) (models.InterceptorMetadata, error)
	ClassInterceptorMetadata(class models.ClassID) (models.InterceptorMetadata, error)
}

// ModelSink receives every model that needs interception
type ModelSink interface {
	Put(class models.ClassID, model *interception.Model)
}
