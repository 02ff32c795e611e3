package models

import "fmt"

// InterceptionKind is the closed set of events an interceptor can be bound to
type InterceptionKind int

const (
	AroundInvoke InterceptionKind = iota
	AroundTimeout
	AroundConstruct
	PostConstruct
	PreDestroy
	PrePassivate
	PostActivate
)

// AllKinds lists every interception kind in declaration order
var AllKinds = []InterceptionKind{
	AroundInvoke,
	AroundTimeout,
	AroundConstruct,
	PostConstruct,
	PreDestroy,
	PrePassivate,
	PostActivate,
}

// String returns the string representation of the interception kind
func (k InterceptionKind) String() string {
	switch k {
	case AroundInvoke:
		return "AROUND_INVOKE"
	case AroundTimeout:
		return "AROUND_TIMEOUT"
	case AroundConstruct:
		return "AROUND_CONSTRUCT"
	case PostConstruct:
		return "POST_CONSTRUCT"
	case PreDestroy:
		return "PRE_DESTROY"
	case PrePassivate:
		return "PRE_PASSIVATE"
	case PostActivate:
		return "POST_ACTIVATE"
	default:
		return "UNKNOWN"
	}
}

// Marker returns the annotation marker that declares an interceptor method of this kind
func (k InterceptionKind) Marker() string {
	switch k {
	case AroundInvoke:
		return "around-invoke"
	case AroundTimeout:
		return "around-timeout"
	case AroundConstruct:
		return "around-construct"
	case PostConstruct:
		return "post-construct"
	case PreDestroy:
		return "pre-destroy"
	case PrePassivate:
		return "pre-passivate"
	case PostActivate:
		return "post-activate"
	default:
		return ""
	}
}

// IsLifecycle reports whether the kind applies to the whole component rather than a method
func (k InterceptionKind) IsLifecycle() bool {
	return k != AroundInvoke && k != AroundTimeout
}

// IsValid reports whether k is one of the declared kinds
func (k InterceptionKind) IsValid() bool {
	return k >= AroundInvoke && k <= PostActivate
}

// ParseInterceptionKind converts either the enum name or the marker to a kind
func ParseInterceptionKind(s string) (InterceptionKind, error) {
	for _, kind := range AllKinds {
		if s == kind.String() || s == kind.Marker() {
			return kind, nil
		}
	}
	return 0, fmt.Errorf("unknown interception kind: %s", s)
}

// KindForMarker returns the kind declared by an interceptor method marker
func KindForMarker(marker string) (InterceptionKind, bool) {
	for _, kind := range AllKinds {
		if kind.Marker() == marker {
			return kind, true
		}
	}
	return 0, false
}
