package annotations

import (
	stderrors "errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/toyz/weave/internal/errors"
)

// Prefix starts every weave annotation comment
const Prefix = "weave::"

var annotationLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Prefix", Pattern: `//\s*weave::`},
	{Name: "String", Pattern: `"(\\"|[^"])*"`},
	{Name: "Number", Pattern: `[0-9]+(\.[0-9]+)?`},
	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_.]*(-[a-zA-Z0-9_.]+)*`},
	{Name: "Dash", Pattern: `-`},
	{Name: "Equals", Pattern: `=`},
	{Name: "Comma", Pattern: `,`},
	{Name: "Whitespace", Pattern: `\s+`},
})

// annotationAST is the grammar of one annotation:
//
//	//weave::name arg, arg -Key=value,value -Flag
type annotationAST struct {
	Prefix string      `parser:"@Prefix"`
	Name   string      `parser:"@Ident"`
	Args   []*valueAST `parser:"( @@ Comma? )*"`
	Params []*paramAST `parser:"@@*"`
}

type paramAST struct {
	Key    string      `parser:"Dash @Ident"`
	Values []*valueAST `parser:"( Equals @@ ( Comma @@ )* )?"`
}

type valueAST struct {
	String *string `parser:"  @String"`
	Number *string `parser:"| @Number"`
	Ident  *string `parser:"| @Ident"`
}

func (v *valueAST) text() (string, error) {
	switch {
	case v.String != nil:
		return strconv.Unquote(*v.String)
	case v.Number != nil:
		return *v.Number, nil
	case v.Ident != nil:
		return *v.Ident, nil
	default:
		return "", nil
	}
}

// Parser parses //weave:: comments and validates them against schemas
type Parser struct {
	parser   *participle.Parser[annotationAST]
	registry AnnotationRegistry
}

// NewParser creates a parser validating against registry. A nil registry
// uses the builtin schemas.
func NewParser(registry AnnotationRegistry) *Parser {
	if registry == nil {
		registry = DefaultRegistry()
	}
	return &Parser{
		parser: participle.MustBuild[annotationAST](
			participle.Lexer(annotationLexer),
			participle.Elide("Whitespace"),
			participle.UseLookahead(2),
		),
		registry: registry,
	}
}

// IsAnnotation reports whether a comment line is a weave annotation
func IsAnnotation(comment string) bool {
	content := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(comment), "//"))
	return strings.HasPrefix(content, Prefix)
}

// ParseAnnotation parses one annotation comment
func (p *Parser) ParseAnnotation(comment string, location errors.SourceLocation) (*ParsedAnnotation, error) {
	comment = strings.TrimSpace(comment)

	ast, err := p.parser.ParseString(location.File, comment)
	if err != nil {
		return nil, p.syntaxError(comment, location, err)
	}

	annotationType, err := ParseAnnotationType(ast.Name)
	if err != nil {
		return nil, errors.NewSyntaxError(err.Error()).
			WithToken(ast.Name).
			WithLocation(location).
			WithSuggestion(fmt.Sprintf("Known annotations: %s", strings.Join(knownNames(), ", ")))
	}

	parsed := &ParsedAnnotation{
		Type:       annotationType,
		Name:       ast.Name,
		Parameters: make(map[string]string),
		Location:   location,
		Raw:        comment,
	}

	for _, arg := range ast.Args {
		text, err := arg.text()
		if err != nil {
			return nil, errors.WrapSyntaxError("argument", err).WithLocation(location)
		}
		parsed.Args = append(parsed.Args, text)
	}

	for _, param := range ast.Params {
		if len(param.Values) == 0 {
			parsed.Flags = append(parsed.Flags, param.Key)
			continue
		}
		values := make([]string, 0, len(param.Values))
		for _, v := range param.Values {
			text, err := v.text()
			if err != nil {
				return nil, errors.WrapSyntaxError("parameter "+param.Key, err).WithLocation(location)
			}
			values = append(values, text)
		}
		parsed.Parameters[param.Key] = strings.Join(values, ",")
	}

	if err := p.validate(parsed); err != nil {
		return nil, err
	}
	return parsed, nil
}

// ParseAnnotationOn parses an annotation and checks that it may be attached to target
func (p *Parser) ParseAnnotationOn(comment string, target Target, location errors.SourceLocation) (*ParsedAnnotation, error) {
	parsed, err := p.ParseAnnotation(comment, location)
	if err != nil {
		return nil, err
	}
	schema, err := p.registry.GetSchema(parsed.Type)
	if err != nil {
		return nil, errors.NewValidationError(parsed.Name, "registered annotation", parsed.Name).WithLocation(location)
	}
	if !schema.Allows(target) {
		return nil, errors.NewValidationError(parsed.Name, "a "+schema.Targets.Describe(), "a "+target.String()).
			WithLocation(location).
			WithSuggestion(exampleHint(schema))
	}
	return parsed, nil
}

func (p *Parser) validate(parsed *ParsedAnnotation) error {
	schema, err := p.registry.GetSchema(parsed.Type)
	if err != nil {
		return errors.NewValidationError(parsed.Name, "registered annotation", parsed.Name).WithLocation(parsed.Location)
	}

	if len(parsed.Args) < schema.MinArgs {
		return errors.NewValidationError(parsed.Name, fmt.Sprintf("at least %d argument(s)", schema.MinArgs), fmt.Sprintf("%d", len(parsed.Args))).
			WithLocation(parsed.Location).
			WithSuggestion(exampleHint(schema))
	}
	if schema.MaxArgs >= 0 && len(parsed.Args) > schema.MaxArgs {
		return errors.NewValidationError(parsed.Name, fmt.Sprintf("at most %d argument(s)", schema.MaxArgs), fmt.Sprintf("%d", len(parsed.Args))).
			WithLocation(parsed.Location).
			WithSuggestion(exampleHint(schema))
	}

	if schema.OpenParams {
		return nil
	}

	for _, flag := range parsed.Flags {
		spec, ok := schema.Parameters[flag]
		if !ok {
			return unknownParameter(parsed, flag, schema)
		}
		if spec.Type != BoolType {
			return errors.NewValidationError(parsed.Name+" -"+flag, "a value", "flag").WithLocation(parsed.Location)
		}
	}
	for key, value := range parsed.Parameters {
		spec, ok := schema.Parameters[key]
		if !ok {
			return unknownParameter(parsed, key, schema)
		}
		if err := spec.ValidateParameter(key, value); err != nil {
			return errors.NewValidationError(parsed.Name+" -"+key, "valid value", value).
				WithLocation(parsed.Location).
				WithSuggestion(err.Error())
		}
	}
	for key, spec := range schema.Parameters {
		if !spec.Required {
			continue
		}
		if _, ok := parsed.Parameters[key]; !ok {
			return errors.NewValidationError(parsed.Name+" -"+key, "required parameter", "missing").WithLocation(parsed.Location)
		}
	}
	return nil
}

func unknownParameter(parsed *ParsedAnnotation, key string, schema AnnotationSchema) error {
	known := make([]string, 0, len(schema.Parameters))
	for name := range schema.Parameters {
		known = append(known, "-"+name)
	}
	err := errors.NewValidationError(parsed.Name, "known parameter", "-"+key).WithLocation(parsed.Location)
	if len(known) > 0 {
		err.WithSuggestion("Valid parameters: " + strings.Join(known, ", "))
	}
	return err
}

func (p *Parser) syntaxError(comment string, location errors.SourceLocation, err error) error {
	var perr participle.Error
	if stderrors.As(err, &perr) {
		pos := perr.Position()
		loc := location
		if pos.Column > 0 {
			loc.Column = location.Column + pos.Column - 1
		}
		return errors.NewSyntaxError(perr.Message()).
			WithLocation(loc).
			WithSuggestion("Annotations look like //weave::name Arg -Key=Value")
	}
	return errors.WrapSyntaxError(comment, err).WithLocation(location)
}

func exampleHint(schema AnnotationSchema) string {
	if len(schema.Examples) == 0 {
		return schema.Description
	}
	return "Example: " + schema.Examples[0]
}

func knownNames() []string {
	var names []string
	for _, schema := range BuiltinSchemas {
		if schema.Type == InterceptorMethodAnnotation {
			continue
		}
		names = append(names, schema.Type.String())
	}
	return append(names, "around-invoke", "around-timeout", "around-construct", "post-construct", "pre-destroy", "pre-passivate", "post-activate")
}
