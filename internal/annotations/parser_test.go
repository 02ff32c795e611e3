package annotations

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/toyz/weave/internal/errors"
	"github.com/toyz/weave/internal/models"
)

var testLocation = errors.SourceLocation{File: "orders.go", Line: 12, Column: 1}

func TestParser_ParseAnnotation(t *testing.T) {
	tests := []struct {
		name       string
		comment    string
		wantType   AnnotationType
		wantName   string
		wantArgs   []string
		wantParams map[string]string
		wantFlags  []string
	}{
		{
			name:       "bare marker",
			comment:    "//weave::component",
			wantType:   ComponentAnnotation,
			wantName:   "component",
			wantParams: map[string]string{},
		},
		{
			name:       "space after slashes",
			comment:    "// weave::final",
			wantType:   FinalAnnotation,
			wantName:   "final",
			wantParams: map[string]string{},
		},
		{
			name:       "interceptor with priority",
			comment:    "//weave::interceptor -Priority=100",
			wantType:   InterceptorAnnotation,
			wantName:   "interceptor",
			wantParams: map[string]string{"Priority": "100"},
		},
		{
			name:       "binding with members",
			comment:    `//weave::binding Secure -level=2 -comment="needs review"`,
			wantType:   BindingAnnotation,
			wantName:   "binding",
			wantArgs:   []string{"Secure"},
			wantParams: map[string]string{"level": "2", "comment": "needs review"},
		},
		{
			name:       "interceptor list with commas",
			comment:    "//weave::interceptors TxInterceptor, audit.Interceptor",
			wantType:   InterceptorsAnnotation,
			wantName:   "interceptors",
			wantArgs:   []string{"TxInterceptor", "audit.Interceptor"},
			wantParams: map[string]string{},
		},
		{
			name:       "interceptor list with spaces only",
			comment:    "//weave::stereotypes Service Audited",
			wantType:   StereotypesAnnotation,
			wantName:   "stereotypes",
			wantArgs:   []string{"Service", "Audited"},
			wantParams: map[string]string{},
		},
		{
			name:       "binding type flags and lists",
			comment:    "//weave::bindingtype -Inherited -Nonbinding=comment,reason",
			wantType:   BindingTypeAnnotation,
			wantName:   "bindingtype",
			wantParams: map[string]string{"Nonbinding": "comment,reason"},
			wantFlags:  []string{"Inherited"},
		},
		{
			name:       "hyphenated marker",
			comment:    "//weave::exclude-class-interceptors",
			wantType:   ExcludeClassInterceptorsAnnotation,
			wantName:   "exclude-class-interceptors",
			wantParams: map[string]string{},
		},
		{
			name:       "interceptor method marker",
			comment:    "//weave::around-timeout",
			wantType:   InterceptorMethodAnnotation,
			wantName:   "around-timeout",
			wantParams: map[string]string{},
		},
	}

	parser := NewParser(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			parsed, err := parser.ParseAnnotation(tt.comment, testLocation)
			require.NoError(t, err)

			assert.Equal(t, tt.wantType, parsed.Type)
			assert.Equal(t, tt.wantName, parsed.Name)
			assert.Equal(t, tt.wantArgs, parsed.Args)
			assert.Equal(t, tt.wantParams, parsed.Parameters)
			assert.Equal(t, tt.wantFlags, parsed.Flags)
			assert.Equal(t, testLocation, parsed.Location)
		})
	}
}

func TestParser_Errors(t *testing.T) {
	tests := []struct {
		name     string
		comment  string
		wantCode errors.ErrorCode
		contains string
	}{
		{name: "unknown annotation", comment: "//weave::service", wantCode: errors.SyntaxErrorCode, contains: "unknown annotation type"},
		{name: "not an annotation", comment: "// plain comment", wantCode: errors.SyntaxErrorCode},
		{name: "dangling equals", comment: "//weave::interceptor -Priority=", wantCode: errors.SyntaxErrorCode},
		{name: "missing binding type", comment: "//weave::binding", wantCode: errors.ValidationErrorCode, contains: "at least 1"},
		{name: "too many constructor args", comment: "//weave::constructor A B", wantCode: errors.ValidationErrorCode, contains: "at most 1"},
		{name: "unexpected argument", comment: "//weave::component Orders", wantCode: errors.ValidationErrorCode},
		{name: "unknown parameter", comment: "//weave::interceptor -Order=1", wantCode: errors.ValidationErrorCode, contains: "-Order"},
		{name: "non integer priority", comment: "//weave::interceptor -Priority=high", wantCode: errors.ValidationErrorCode},
		{name: "flag needing a value", comment: "//weave::interceptor -Priority", wantCode: errors.ValidationErrorCode},
	}

	parser := NewParser(nil)
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := parser.ParseAnnotation(tt.comment, testLocation)
			require.Error(t, err)
			assert.True(t, errors.HasCode(err, tt.wantCode), "got %v", err)
			if tt.contains != "" {
				assert.Contains(t, err.Error(), tt.contains)
			}
			assert.Contains(t, err.Error(), "orders.go:12")
		})
	}
}

func TestParsedAnnotation_Accessors(t *testing.T) {
	parser := NewParser(nil)

	binding, err := parser.ParseAnnotation("//weave::binding Secure -level=2 -audited", testLocation)
	require.NoError(t, err)
	a := binding.AsBinding()
	assert.Equal(t, "Secure", a.Type)
	assert.Equal(t, map[string]string{"level": "2", "audited": "true"}, a.Members)

	bt, err := parser.ParseAnnotation("//weave::bindingtype -Inherited -Nonbinding=a, b", testLocation)
	require.NoError(t, err)
	assert.True(t, bt.HasFlag("Inherited"))
	assert.Equal(t, []string{"a", "b"}, bt.GetStringSlice("Nonbinding"))

	ic, err := parser.ParseAnnotation("//weave::interceptor -Priority=7", testLocation)
	require.NoError(t, err)
	p, ok, err := ic.GetInt("Priority")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, 7, p)

	marker, err := parser.ParseAnnotation("//weave::pre-passivate", testLocation)
	require.NoError(t, err)
	kind, ok := marker.Kind()
	assert.True(t, ok)
	assert.Equal(t, models.PrePassivate, kind)
}

func TestIsAnnotation(t *testing.T) {
	assert.True(t, IsAnnotation("//weave::component"))
	assert.True(t, IsAnnotation("  // weave::binding X"))
	assert.False(t, IsAnnotation("// weave is a tool"))
	assert.False(t, IsAnnotation("//inject::core"))
}

func TestRegistry(t *testing.T) {
	r := DefaultRegistry()
	for _, schema := range BuiltinSchemas {
		assert.True(t, r.IsRegistered(schema.Type), schema.Type.String())
	}
	assert.Len(t, r.ListTypes(), len(BuiltinSchemas))

	err := r.Register(AnnotationSchema{Type: ComponentAnnotation})
	assert.Error(t, err)

	custom := NewRegistry()
	assert.Error(t, custom.Register(AnnotationSchema{Type: BindingAnnotation, MinArgs: 2, MaxArgs: 1}))
	_, err = custom.GetSchema(BindingAnnotation)
	assert.Error(t, err)
}

func TestSchema_Allows(t *testing.T) {
	bindingType, err := DefaultRegistry().GetSchema(BindingTypeAnnotation)
	require.NoError(t, err)
	assert.True(t, bindingType.Allows(TargetType))
	assert.True(t, bindingType.Allows(TargetStruct))
	assert.False(t, bindingType.Allows(TargetMethod))

	timeout, err := DefaultRegistry().GetSchema(TimeoutAnnotation)
	require.NoError(t, err)
	assert.True(t, timeout.Allows(TargetMethod))
	assert.False(t, timeout.Allows(TargetFunc))
}

func TestParser_ParseAnnotationOn(t *testing.T) {
	parser := NewParser(nil)

	parsed, err := parser.ParseAnnotationOn("//weave::timeout", TargetMethod, testLocation)
	require.NoError(t, err)
	assert.Equal(t, TimeoutAnnotation, parsed.Type)

	_, err = parser.ParseAnnotationOn("//weave::component", TargetMethod, testLocation)
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ValidationErrorCode))
	assert.Contains(t, err.Error(), "expected a struct, got a method")

	_, err = parser.ParseAnnotationOn("//weave::interceptors Tx", TargetType, testLocation)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "struct or function or method")
}
