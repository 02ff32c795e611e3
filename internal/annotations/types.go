package annotations

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/toyz/weave/internal/errors"
	"github.com/toyz/weave/internal/models"
)

// AnnotationType represents the type of a //weave:: annotation
type AnnotationType int

const (
	ComponentAnnotation AnnotationType = iota
	InterceptorAnnotation
	BindingTypeAnnotation
	StereotypeAnnotation
	StereotypesAnnotation
	BindingAnnotation
	InterceptorsAnnotation
	FinalAnnotation
	ExcludeClassInterceptorsAnnotation
	TimeoutAnnotation
	InjectAnnotation
	StaticAnnotation
	ConstructorAnnotation
	InterceptorMethodAnnotation // around-invoke, post-construct, ...
)

var annotationNames = map[AnnotationType]string{
	ComponentAnnotation:                "component",
	InterceptorAnnotation:              "interceptor",
	BindingTypeAnnotation:              "bindingtype",
	StereotypeAnnotation:               "stereotype",
	StereotypesAnnotation:              "stereotypes",
	BindingAnnotation:                  "binding",
	InterceptorsAnnotation:             "interceptors",
	FinalAnnotation:                    "final",
	ExcludeClassInterceptorsAnnotation: "exclude-class-interceptors",
	TimeoutAnnotation:                  "timeout",
	InjectAnnotation:                   "inject",
	StaticAnnotation:                   "static",
	ConstructorAnnotation:              "constructor",
	InterceptorMethodAnnotation:        "interceptor-method",
}

// String returns the string representation of the annotation type
func (a AnnotationType) String() string {
	if name, ok := annotationNames[a]; ok {
		return name
	}
	return "unknown"
}

// ParseAnnotationType converts an annotation name to its type. Interceptor
// method markers all map to InterceptorMethodAnnotation.
func ParseAnnotationType(s string) (AnnotationType, error) {
	if _, ok := models.KindForMarker(s); ok {
		return InterceptorMethodAnnotation, nil
	}
	for t, name := range annotationNames {
		if name == s && t != InterceptorMethodAnnotation {
			return t, nil
		}
	}
	return 0, fmt.Errorf("unknown annotation type: %s", s)
}

// ParsedAnnotation is one //weave:: comment after parsing
type ParsedAnnotation struct {
	Type       AnnotationType
	Name       string            // annotation name as written, e.g. "around-invoke"
	Args       []string          // positional arguments
	Parameters map[string]string // -Key=Value parameters, comma lists joined with ","
	Flags      []string          // -Flag parameters without a value
	Location   errors.SourceLocation
	Raw        string
}

// Arg returns the positional argument at index, or "" when missing
func (p *ParsedAnnotation) Arg(index int) string {
	if index < len(p.Args) {
		return p.Args[index]
	}
	return ""
}

// HasFlag reports whether -name was given without a value, or with a true value
func (p *ParsedAnnotation) HasFlag(name string) bool {
	for _, f := range p.Flags {
		if f == name {
			return true
		}
	}
	if v, ok := p.Parameters[name]; ok {
		b, err := strconv.ParseBool(v)
		return err == nil && b
	}
	return false
}

// GetString returns a string parameter value with optional default
func (p *ParsedAnnotation) GetString(paramName string, defaultValue ...string) string {
	if value, exists := p.Parameters[paramName]; exists {
		return value
	}
	if len(defaultValue) > 0 {
		return defaultValue[0]
	}
	return ""
}

// GetInt returns an integer parameter value
func (p *ParsedAnnotation) GetInt(paramName string) (int, bool, error) {
	value, exists := p.Parameters[paramName]
	if !exists {
		return 0, false, nil
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return 0, true, fmt.Errorf("parameter '%s' must be an integer, got '%s'", paramName, value)
	}
	return n, true, nil
}

// GetStringSlice returns a comma separated parameter as a slice
func (p *ParsedAnnotation) GetStringSlice(paramName string) []string {
	value, exists := p.Parameters[paramName]
	if !exists || value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Kind returns the interception kind of an interceptor method marker
func (p *ParsedAnnotation) Kind() (models.InterceptionKind, bool) {
	if p.Type != InterceptorMethodAnnotation {
		return 0, false
	}
	return models.KindForMarker(p.Name)
}

// AsBinding converts a binding annotation into a models.Annotation whose
// members are the annotation parameters
func (p *ParsedAnnotation) AsBinding() models.Annotation {
	members := make(map[string]string, len(p.Parameters)+len(p.Flags))
	for k, v := range p.Parameters {
		members[k] = v
	}
	for _, f := range p.Flags {
		members[f] = "true"
	}
	return models.NewAnnotation(p.Arg(0), members)
}
