package annotations

import (
	"fmt"
	"strconv"
	"strings"
)

// Target is a declaration an annotation may be attached to
type Target int

const (
	TargetStruct Target = 1 << iota
	TargetType          // any named type, struct or not
	TargetFunc          // package level function
	TargetMethod
)

// String returns a readable target name
func (t Target) String() string {
	switch t {
	case TargetStruct:
		return "struct"
	case TargetType:
		return "type"
	case TargetFunc:
		return "function"
	case TargetMethod:
		return "method"
	default:
		return "declaration"
	}
}

// Describe lists every target in the mask, e.g. "struct or method"
func (t Target) Describe() string {
	var names []string
	for _, single := range []Target{TargetStruct, TargetType, TargetFunc, TargetMethod} {
		if t&single != 0 {
			names = append(names, single.String())
		}
	}
	if len(names) == 0 {
		return "declaration"
	}
	return strings.Join(names, " or ")
}

// ParameterType defines the type of an annotation parameter
type ParameterType int

const (
	StringType ParameterType = iota
	IntType
	BoolType
	StringSliceType
)

// ParameterSpec describes one -Key parameter
type ParameterSpec struct {
	Type        ParameterType
	Required    bool
	Description string
	Validator   func(value string) error
}

// AnnotationSchema describes where an annotation may appear and what it accepts
type AnnotationSchema struct {
	Type        AnnotationType
	Description string
	Targets     Target // bitmask of allowed targets
	MinArgs     int
	MaxArgs     int // -1 for unbounded
	Parameters  map[string]ParameterSpec
	OpenParams  bool // any -Key is accepted (binding members)
	Examples    []string
}

// Allows reports whether the annotation may be attached to target
func (s AnnotationSchema) Allows(target Target) bool {
	if s.Targets&target != 0 {
		return true
	}
	// struct declarations are also types
	return target == TargetStruct && s.Targets&TargetType != 0
}

func noParams() map[string]ParameterSpec { return map[string]ParameterSpec{} }

// BuiltinSchemas lists the schema of every //weave:: annotation
var BuiltinSchemas = []AnnotationSchema{
	{
		Type:        ComponentAnnotation,
		Description: "Marks a struct as a managed component",
		Targets:     TargetStruct,
		Parameters:  noParams(),
		Examples:    []string{"//weave::component"},
	},
	{
		Type:        InterceptorAnnotation,
		Description: "Marks a struct as an interceptor class",
		Targets:     TargetStruct,
		Parameters: map[string]ParameterSpec{
			"Priority": {
				Type:        IntType,
				Description: "Enables the interceptor globally with the given priority; lower runs first",
			},
		},
		Examples: []string{"//weave::interceptor", "//weave::interceptor -Priority=100"},
	},
	{
		Type:        BindingTypeAnnotation,
		Description: "Declares an interceptor binding type",
		Targets:     TargetType,
		Parameters: map[string]ParameterSpec{
			"Inherited":  {Type: BoolType, Description: "Applies to subclasses of annotated classes"},
			"Nonbinding": {Type: StringSliceType, Description: "Members ignored when matching interceptors"},
		},
		Examples: []string{"//weave::bindingtype -Inherited", "//weave::bindingtype -Nonbinding=comment"},
	},
	{
		Type:        StereotypeAnnotation,
		Description: "Declares a stereotype bundling binding annotations",
		Targets:     TargetType,
		Parameters:  noParams(),
		Examples:    []string{"//weave::stereotype"},
	},
	{
		Type:        StereotypesAnnotation,
		Description: "Applies stereotypes to a component",
		Targets:     TargetStruct,
		MinArgs:     1,
		MaxArgs:     -1,
		Parameters:  noParams(),
		Examples:    []string{"//weave::stereotypes Service, Audited"},
	},
	{
		Type:        BindingAnnotation,
		Description: "Declares a binding annotation instance; parameters are binding members",
		Targets:     TargetStruct | TargetType | TargetFunc | TargetMethod,
		MinArgs:     1,
		MaxArgs:     1,
		Parameters:  noParams(),
		OpenParams:  true,
		Examples:    []string{"//weave::binding Transactional", "//weave::binding Secure -level=2"},
	},
	{
		Type:        InterceptorsAnnotation,
		Description: "Lists interceptor classes explicitly",
		Targets:     TargetStruct | TargetFunc | TargetMethod,
		MinArgs:     1,
		MaxArgs:     -1,
		Parameters:  noParams(),
		Examples:    []string{"//weave::interceptors TxInterceptor, AuditInterceptor"},
	},
	{
		Type:        FinalAnnotation,
		Description: "Marks a struct as not extensible or a method as not overridable",
		Targets:     TargetStruct | TargetMethod,
		Parameters:  noParams(),
	},
	{
		Type:        ExcludeClassInterceptorsAnnotation,
		Description: "Skips class-level interceptors for a constructor or method",
		Targets:     TargetFunc | TargetMethod,
		Parameters:  noParams(),
	},
	{
		Type:        TimeoutAnnotation,
		Description: "Marks a timer callback method",
		Targets:     TargetMethod,
		Parameters:  noParams(),
	},
	{
		Type:        InjectAnnotation,
		Description: "Marks an initializer method, which is never intercepted",
		Targets:     TargetMethod,
		Parameters:  noParams(),
	},
	{
		Type:        StaticAnnotation,
		Description: "Marks a method that is not bound to an instance",
		Targets:     TargetMethod,
		Parameters:  noParams(),
	},
	{
		Type:        ConstructorAnnotation,
		Description: "Marks a function as the constructor of a component",
		Targets:     TargetFunc,
		MinArgs:     1,
		MaxArgs:     1,
		Parameters:  noParams(),
		Examples:    []string{"//weave::constructor Orders"},
	},
	{
		Type:        InterceptorMethodAnnotation,
		Description: "Marks an interceptor method of the given kind",
		Targets:     TargetMethod,
		Parameters:  noParams(),
		Examples:    []string{"//weave::around-invoke", "//weave::post-construct"},
	},
}

// ValidateParameter checks a parameter value against its spec
func (s ParameterSpec) ValidateParameter(name, value string) error {
	switch s.Type {
	case IntType:
		if _, err := strconv.Atoi(value); err != nil {
			return fmt.Errorf("parameter '%s' must be an integer, got '%s'", name, value)
		}
	case BoolType:
		if _, err := strconv.ParseBool(value); err != nil {
			return fmt.Errorf("parameter '%s' must be true or false, got '%s'", name, value)
		}
	}
	if s.Validator != nil {
		return s.Validator(value)
	}
	return nil
}
