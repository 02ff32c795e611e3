package models

// InterceptorHandle is what binding resolution returns: an opaque reference
// to an enabled interceptor
type InterceptorHandle interface {
	ClassID() ClassID
}

// InterceptorMetadata describes which kinds an interceptor class implements.
// Two metadata values denote the same interceptor when their ClassID matches.
type InterceptorMetadata interface {
	ClassID() ClassID
	Name() string
	IsEligible(kind InterceptionKind) bool
	// Hierarchy lists the classes whose interceptor methods run for this
	// interceptor, outermost superclass first and the class itself last
	Hierarchy() []ClassID
}

// InterceptorClass is the InterceptorMetadata computed from class metadata
type InterceptorClass struct {
	id    ClassID
	name  string
	kinds map[InterceptionKind]bool
	chain []ClassID
}

// NewInterceptorClass derives interceptor metadata from a class
func NewInterceptorClass(class *ClassMetadata) *InterceptorClass {
	hierarchy := class.Hierarchy()
	chain := make([]ClassID, 0, len(hierarchy))
	for i := len(hierarchy) - 1; i >= 0; i-- {
		chain = append(chain, hierarchy[i].ID)
	}
	return &InterceptorClass{
		id:    class.ID,
		name:  class.Name,
		kinds: class.InterceptorMethodKinds(),
		chain: chain,
	}
}

// ClassID returns the interceptor class identity
func (i *InterceptorClass) ClassID() ClassID { return i.id }

// Name returns the interceptor class name
func (i *InterceptorClass) Name() string { return i.name }

// IsEligible reports whether the interceptor declares a method for kind
func (i *InterceptorClass) IsEligible(kind InterceptionKind) bool { return i.kinds[kind] }

// Hierarchy returns the interceptor class chain, superclass first
func (i *InterceptorClass) Hierarchy() []ClassID {
	out := make([]ClassID, len(i.chain))
	copy(out, i.chain)
	return out
}

// Kinds returns the eligible kinds in declaration order
func (i *InterceptorClass) Kinds() []InterceptionKind {
	var kinds []InterceptionKind
	for _, kind := range AllKinds {
		if i.kinds[kind] {
			kinds = append(kinds, kind)
		}
	}
	return kinds
}
