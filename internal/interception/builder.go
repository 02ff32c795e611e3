package interception

import (
	"github.com/toyz/weave/internal/errors"
	"github.com/toyz/weave/internal/models"
)

// Builder accumulates interceptor associations for one class and produces
// an immutable Model exactly once. A Builder is owned by a single goroutine.
type Builder struct {
	class models.ClassID
	built bool

	hasTargetClassInterceptors            bool
	hasExternalNonConstructorInterceptors bool

	ignoringGlobal      map[models.MethodRef]bool
	ignoringGlobalOrder []models.MethodRef

	all     []models.InterceptorMetadata
	allSeen map[models.ClassID]bool

	global      map[models.InterceptionKind][]models.InterceptorMetadata
	methodBound map[models.InterceptionKind]map[models.MethodRef][]models.InterceptorMetadata
	methodOrder map[models.InterceptionKind][]models.MethodRef

	associations []Association
}

// NewBuilder creates a builder for the given class
func NewBuilder(class models.ClassID) *Builder {
	return &Builder{
		class:          class,
		ignoringGlobal: make(map[models.MethodRef]bool),
		allSeen:        make(map[models.ClassID]bool),
		global:         make(map[models.InterceptionKind][]models.InterceptorMetadata),
		methodBound:    make(map[models.InterceptionKind]map[models.MethodRef][]models.InterceptorMetadata),
		methodOrder:    make(map[models.InterceptionKind][]models.MethodRef),
	}
}

// Class returns the class the builder was created for
func (b *Builder) Class() models.ClassID {
	return b.class
}

// Descriptor targets a set of kinds, optionally scoped to a method
type Descriptor struct {
	builder *Builder
	kinds   []models.InterceptionKind
	method  *models.MethodRef
	origin  Origin
}

// Intercept targets class-wide interceptors of one kind
func (b *Builder) Intercept(kind models.InterceptionKind) (*Descriptor, error) {
	if err := b.checkNotBuilt("Intercept"); err != nil {
		return nil, err
	}
	if !kind.IsValid() {
		return nil, errors.IllegalKind(kind.String(), "not a declared interception kind")
	}
	return b.descriptor(nil, kind), nil
}

// InterceptAll targets class-wide interceptors of every kind
func (b *Builder) InterceptAll() (*Descriptor, error) {
	if err := b.checkNotBuilt("InterceptAll"); err != nil {
		return nil, err
	}
	return b.descriptor(nil, models.AllKinds...), nil
}

// InterceptMethod targets interceptors of an invocation kind bound to one method
func (b *Builder) InterceptMethod(kind models.InterceptionKind, method models.MethodRef) (*Descriptor, error) {
	if err := b.checkNotBuilt("InterceptMethod"); err != nil {
		return nil, err
	}
	if !kind.IsValid() || kind.IsLifecycle() {
		return nil, errors.IllegalKind(kind.String(), "only AROUND_INVOKE and AROUND_TIMEOUT can be bound to a method")
	}
	return b.descriptor(&method, kind), nil
}

// InterceptMethodKinds targets several invocation kinds bound to one method
func (b *Builder) InterceptMethodKinds(method models.MethodRef, kinds ...models.InterceptionKind) (*Descriptor, error) {
	if err := b.checkNotBuilt("InterceptMethodKinds"); err != nil {
		return nil, err
	}
	for _, kind := range kinds {
		if kind.IsLifecycle() {
			return nil, errors.LifecycleKindWithMethod(kind.String(), method.String())
		}
	}
	return b.descriptor(&method, kinds...), nil
}

func (b *Builder) descriptor(method *models.MethodRef, kinds ...models.InterceptionKind) *Descriptor {
	copied := make([]models.InterceptionKind, len(kinds))
	copy(copied, kinds)
	return &Descriptor{builder: b, kinds: copied, method: method, origin: OriginExplicit{}}
}

// From records where the interceptors appended through this descriptor were declared
func (d *Descriptor) From(origin Origin) *Descriptor {
	if origin != nil {
		d.origin = origin
	}
	return d
}

// With appends the interceptors for every targeted kind, duplicates included
func (d *Descriptor) With(interceptors ...models.InterceptorMetadata) error {
	for _, kind := range d.kinds {
		if err := d.builder.appendInterceptors(kind, d.method, interceptors, d.origin); err != nil {
			return err
		}
	}
	return nil
}

// WithNew appends only the interceptors whose class is not yet present in
// the global list for the kind or the list for (kind, method)
func (d *Descriptor) WithNew(interceptors ...models.InterceptorMetadata) error {
	for _, kind := range d.kinds {
		filtered := d.builder.filterExisting(kind, d.method, interceptors)
		if err := d.builder.appendInterceptors(kind, d.method, filtered, d.origin); err != nil {
			return err
		}
	}
	return nil
}

// SetHasTargetClassInterceptors records whether the class declares its own interceptor methods
func (b *Builder) SetHasTargetClassInterceptors(has bool) error {
	if err := b.checkNotBuilt("SetHasTargetClassInterceptors"); err != nil {
		return err
	}
	b.hasTargetClassInterceptors = has
	return nil
}

// AddMethodIgnoringGlobalInterceptors excludes class-wide interceptors from a method
func (b *Builder) AddMethodIgnoringGlobalInterceptors(method models.MethodRef) error {
	if err := b.checkNotBuilt("AddMethodIgnoringGlobalInterceptors"); err != nil {
		return err
	}
	if !b.ignoringGlobal[method] {
		b.ignoringGlobal[method] = true
		b.ignoringGlobalOrder = append(b.ignoringGlobalOrder, method)
	}
	return nil
}

// Build produces the immutable model. The builder cannot be used afterwards.
func (b *Builder) Build() (*Model, error) {
	if err := b.checkNotBuilt("Build"); err != nil {
		return nil, err
	}
	b.built = true
	return newModel(b), nil
}

func (b *Builder) appendInterceptors(kind models.InterceptionKind, method *models.MethodRef, interceptors []models.InterceptorMetadata, origin Origin) error {
	if err := b.checkNotBuilt("With"); err != nil {
		return err
	}

	if kind != models.AroundConstruct {
		b.hasExternalNonConstructorInterceptors = true
	}

	if method == nil {
		b.global[kind] = append(b.global[kind], interceptors...)
	} else {
		byMethod, ok := b.methodBound[kind]
		if !ok {
			byMethod = make(map[models.MethodRef][]models.InterceptorMetadata)
			b.methodBound[kind] = byMethod
		}
		if _, ok := byMethod[*method]; !ok {
			b.methodOrder[kind] = append(b.methodOrder[kind], *method)
		}
		byMethod[*method] = append(byMethod[*method], interceptors...)
	}

	for _, interceptor := range interceptors {
		b.associations = append(b.associations, Association{
			Kind:        kind,
			Method:      copyRef(method),
			Interceptor: interceptor.ClassID(),
			Origin:      origin,
		})
		if !b.allSeen[interceptor.ClassID()] {
			b.allSeen[interceptor.ClassID()] = true
			b.all = append(b.all, interceptor)
		}
	}
	return nil
}

func (b *Builder) filterExisting(kind models.InterceptionKind, method *models.MethodRef, interceptors []models.InterceptorMetadata) []models.InterceptorMetadata {
	var filtered []models.InterceptorMetadata
	for _, interceptor := range interceptors {
		if containsClass(b.global[kind], interceptor.ClassID()) {
			continue
		}
		if method != nil && containsClass(b.methodBound[kind][*method], interceptor.ClassID()) {
			continue
		}
		filtered = append(filtered, interceptor)
	}
	return filtered
}

func (b *Builder) checkNotBuilt(operation string) error {
	if b.built {
		return errors.BuilderReused(operation)
	}
	return nil
}

func containsClass(list []models.InterceptorMetadata, id models.ClassID) bool {
	for _, existing := range list {
		if existing.ClassID() == id {
			return true
		}
	}
	return false
}

func copyRef(ref *models.MethodRef) *models.MethodRef {
	if ref == nil {
		return nil
	}
	c := *ref
	return &c
}
