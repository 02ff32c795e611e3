package interception

import (
	"github.com/toyz/weave/internal/errors"
	"github.com/toyz/weave/internal/models"
)

// Model is the immutable interception model of one class. Every query
// returns a copy, so a Model can be shared between goroutines.
type Model struct {
	class models.ClassID

	hasTargetClassInterceptors            bool
	hasExternalNonConstructorInterceptors bool

	ignoringGlobal      map[models.MethodRef]bool
	ignoringGlobalOrder []models.MethodRef

	all         []models.InterceptorMetadata
	global      map[models.InterceptionKind][]models.InterceptorMetadata
	methodBound map[models.InterceptionKind]map[models.MethodRef][]models.InterceptorMetadata
	methodOrder map[models.InterceptionKind][]models.MethodRef

	associations []Association
}

func newModel(b *Builder) *Model {
	m := &Model{
		class:                                 b.class,
		hasTargetClassInterceptors:            b.hasTargetClassInterceptors,
		hasExternalNonConstructorInterceptors: b.hasExternalNonConstructorInterceptors,
		ignoringGlobal:                        make(map[models.MethodRef]bool, len(b.ignoringGlobal)),
		ignoringGlobalOrder:                   append([]models.MethodRef(nil), b.ignoringGlobalOrder...),
		all:                                   cloneList(b.all),
		global:                                make(map[models.InterceptionKind][]models.InterceptorMetadata, len(b.global)),
		methodBound:                           make(map[models.InterceptionKind]map[models.MethodRef][]models.InterceptorMetadata, len(b.methodBound)),
		methodOrder:                           make(map[models.InterceptionKind][]models.MethodRef, len(b.methodOrder)),
		associations:                          append([]Association(nil), b.associations...),
	}
	for ref := range b.ignoringGlobal {
		m.ignoringGlobal[ref] = true
	}
	for kind, list := range b.global {
		m.global[kind] = cloneList(list)
	}
	for kind, byMethod := range b.methodBound {
		copied := make(map[models.MethodRef][]models.InterceptorMetadata, len(byMethod))
		for ref, list := range byMethod {
			copied[ref] = cloneList(list)
		}
		m.methodBound[kind] = copied
	}
	for kind, order := range b.methodOrder {
		m.methodOrder[kind] = append([]models.MethodRef(nil), order...)
	}
	return m
}

// Class returns the class the model describes
func (m *Model) Class() models.ClassID {
	return m.class
}

// Interceptors returns the interceptors to run for kind. Lifecycle kinds
// take a nil method; invocation kinds need one and return the class-wide
// interceptors (unless the method ignores them) followed by the method's own.
func (m *Model) Interceptors(kind models.InterceptionKind, method *models.MethodRef) ([]models.InterceptorMetadata, error) {
	if !kind.IsValid() {
		return nil, errors.IllegalKind(kind.String(), "not a declared interception kind")
	}
	if kind.IsLifecycle() {
		if method != nil {
			return nil, errors.IllegalKind(kind.String(), "a lifecycle kind cannot be queried for method "+method.String())
		}
		return cloneList(m.global[kind]), nil
	}
	if method == nil {
		return nil, errors.IllegalKind(kind.String(), "a method is required")
	}

	var result []models.InterceptorMetadata
	if !m.IgnoresGlobalInterceptors(*method) {
		result = append(result, m.global[kind]...)
	}
	result = append(result, m.methodBound[kind][*method]...)
	return result, nil
}

// GlobalInterceptors returns the class-wide list for a kind
func (m *Model) GlobalInterceptors(kind models.InterceptionKind) []models.InterceptorMetadata {
	return cloneList(m.global[kind])
}

// MethodInterceptors returns only the interceptors bound to the method itself
func (m *Model) MethodInterceptors(kind models.InterceptionKind, method models.MethodRef) []models.InterceptorMetadata {
	return cloneList(m.methodBound[kind][method])
}

// InterceptedMethods lists the methods with method-bound interceptors for a kind, in first-binding order
func (m *Model) InterceptedMethods(kind models.InterceptionKind) []models.MethodRef {
	return append([]models.MethodRef(nil), m.methodOrder[kind]...)
}

// ConstructorInvocationInterceptors returns the AROUND_CONSTRUCT interceptors
func (m *Model) ConstructorInvocationInterceptors() []models.InterceptorMetadata {
	return cloneList(m.global[models.AroundConstruct])
}

// AllInterceptors returns every distinct interceptor in first-appended order
func (m *Model) AllInterceptors() []models.InterceptorMetadata {
	return cloneList(m.all)
}

// HasExternalNonConstructorInterceptors reports whether anything other than
// AROUND_CONSTRUCT was appended, even an empty list
func (m *Model) HasExternalNonConstructorInterceptors() bool {
	return m.hasExternalNonConstructorInterceptors
}

// HasTargetClassInterceptors reports whether the class declares its own interceptor methods
func (m *Model) HasTargetClassInterceptors() bool {
	return m.hasTargetClassInterceptors
}

// MethodsIgnoringGlobalInterceptors returns the excluded methods in insertion order
func (m *Model) MethodsIgnoringGlobalInterceptors() []models.MethodRef {
	return append([]models.MethodRef(nil), m.ignoringGlobalOrder...)
}

// IgnoresGlobalInterceptors reports whether class-wide interceptors are skipped for method
func (m *Model) IgnoresGlobalInterceptors(method models.MethodRef) bool {
	return m.ignoringGlobal[method]
}

// Associations returns every appended interceptor together with its origin
func (m *Model) Associations() []Association {
	return append([]Association(nil), m.associations...)
}

// IsEmpty reports whether the class needs no interception at all
func (m *Model) IsEmpty() bool {
	return len(m.all) == 0 && !m.hasTargetClassInterceptors
}

func cloneList(list []models.InterceptorMetadata) []models.InterceptorMetadata {
	if len(list) == 0 {
		return nil
	}
	return append([]models.InterceptorMetadata(nil), list...)
}
