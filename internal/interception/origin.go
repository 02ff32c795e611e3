package interception

import (
	"strings"

	"github.com/toyz/weave/internal/models"
)

// Origin records which declaration mechanism produced an association.
// The set of implementations is closed: OriginExplicit and OriginBinding.
type Origin interface {
	isOrigin()
	String() string
}

// OriginExplicit marks interceptors listed by class on a component, constructor or method
type OriginExplicit struct {
	Member string // "class", constructor name or method name
}

func (OriginExplicit) isOrigin() {}

func (o OriginExplicit) String() string {
	if o.Member == "" {
		return "explicit"
	}
	return "explicit on " + o.Member
}

// OriginBinding marks interceptors resolved from binding annotations
type OriginBinding struct {
	Bindings []models.Annotation
}

func (OriginBinding) isOrigin() {}

func (o OriginBinding) String() string {
	names := make([]string, len(o.Bindings))
	for i, b := range o.Bindings {
		names[i] = b.String()
	}
	return "bindings [" + strings.Join(names, ", ") + "]"
}

// Association is one interceptor appended for a kind, globally or for a method
type Association struct {
	Kind        models.InterceptionKind
	Method      *models.MethodRef // nil for class-wide associations
	Interceptor models.ClassID
	Origin      Origin
}
