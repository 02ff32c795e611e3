package interception

import (
	"github.com/toyz/weave/internal/models"
)

// View is the serializable form of a Model
type View struct {
	Class                                 string              `json:"class"`
	HasTargetClassInterceptors            bool                `json:"has_target_class_interceptors"`
	HasExternalNonConstructorInterceptors bool                `json:"has_external_non_constructor_interceptors"`
	AllInterceptors                       []string            `json:"all_interceptors"`
	Global                                map[string][]string `json:"global,omitempty"`
	Methods                               []MethodView        `json:"methods,omitempty"`
	MethodsIgnoringGlobalInterceptors     []string            `json:"methods_ignoring_global_interceptors,omitempty"`
	Associations                          []AssociationView   `json:"associations,omitempty"`
}

// MethodView lists the effective interceptors of one method for one kind
type MethodView struct {
	Method       string   `json:"method"`
	Kind         string   `json:"kind"`
	Interceptors []string `json:"interceptors"`
}

// AssociationView is the serializable form of an Association
type AssociationView struct {
	Kind        string `json:"kind"`
	Method      string `json:"method,omitempty"`
	Interceptor string `json:"interceptor"`
	Origin      string `json:"origin"`
}

// View converts the model for display
func (m *Model) View() View {
	v := View{
		Class:                                 string(m.class),
		HasTargetClassInterceptors:            m.hasTargetClassInterceptors,
		HasExternalNonConstructorInterceptors: m.hasExternalNonConstructorInterceptors,
		AllInterceptors:                       classNames(m.all),
		Global:                                make(map[string][]string),
	}

	for _, kind := range models.AllKinds {
		if list := m.global[kind]; len(list) > 0 {
			v.Global[kind.String()] = classNames(list)
		}
	}

	for _, kind := range []models.InterceptionKind{models.AroundInvoke, models.AroundTimeout} {
		for _, ref := range m.InterceptedMethods(kind) {
			ref := ref
			effective, _ := m.Interceptors(kind, &ref)
			v.Methods = append(v.Methods, MethodView{
				Method:       ref.String(),
				Kind:         kind.String(),
				Interceptors: classNames(effective),
			})
		}
	}

	for _, ref := range m.MethodsIgnoringGlobalInterceptors() {
		v.MethodsIgnoringGlobalInterceptors = append(v.MethodsIgnoringGlobalInterceptors, ref.String())
	}

	for _, a := range m.associations {
		av := AssociationView{
			Kind:        a.Kind.String(),
			Interceptor: string(a.Interceptor),
			Origin:      a.Origin.String(),
		}
		if a.Method != nil {
			av.Method = a.Method.String()
		}
		v.Associations = append(v.Associations, av)
	}
	return v
}

func classNames(list []models.InterceptorMetadata) []string {
	names := make([]string, len(list))
	for i, interceptor := range list {
		names[i] = string(interceptor.ClassID())
	}
	return names
}
