package parser

import (
	"fmt"
	"go/ast"
	"go/token"
	"path"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/toyz/weave/internal/annotations"
	"github.com/toyz/weave/internal/errors"
	"github.com/toyz/weave/internal/models"
	"github.com/toyz/weave/internal/registry"
)

// scan collects the declarations of every package, then links classes
// across packages
type scan struct {
	*Parser
	result *Result

	embedded     map[models.ClassID][]models.ClassID // embedded struct fields in field order
	packageNames map[string]string                   // import path to package clause name
	interceptors []*models.ClassMetadata
}

func (p *Parser) build(pkgs []packageSource, errs *errors.MultipleErrors) (*Result, error) {
	s := &scan{
		Parser:       p,
		result:       newResult(errs),
		embedded:     make(map[models.ClassID][]models.ClassID),
		packageNames: make(map[string]string, len(pkgs)),
	}
	for _, pkg := range pkgs {
		if len(pkg.files) > 0 {
			s.packageNames[pkg.path] = pkg.files[0].Name.Name
		}
	}
	for _, pkg := range pkgs {
		s.scanPackage(pkg)
	}
	s.link()

	p.logger.Debug("scan complete",
		"components", len(s.result.Components),
		"interceptors", len(s.result.Interceptors),
		"binding_types", len(s.result.BindingTypes),
		"errors", errs.Count())
	return s.result, errs.ErrorOrNil()
}

func (s *scan) fail(err error) {
	s.result.errs.Append(err)
}

// scanPackage runs two passes: types first so that methods and
// constructors in any file of the package find their struct
func (s *scan) scanPackage(pkg packageSource) {
	local := make(map[string]*models.ClassMetadata)
	var order []string

	for _, file := range pkg.files {
		for _, decl := range file.Decls {
			gen, ok := decl.(*ast.GenDecl)
			if !ok || gen.Tok != token.TYPE {
				continue
			}
			for _, spec := range gen.Specs {
				typeSpec := spec.(*ast.TypeSpec)
				doc := typeSpec.Doc
				if doc == nil && len(gen.Specs) == 1 {
					doc = gen.Doc
				}
				if class := s.scanType(pkg.path, file, typeSpec, doc); class != nil {
					local[class.Name] = class
					order = append(order, class.Name)
				}
			}
		}
	}

	explicit := make(map[string]*models.ConstructorMetadata)
	named := make(map[string]*models.ConstructorMetadata)
	for _, file := range pkg.files {
		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok {
				continue
			}
			if fn.Recv != nil && len(fn.Recv.List) > 0 {
				s.scanMethod(fn, local)
			} else {
				s.scanFunc(fn, local, explicit, named)
			}
		}
	}

	for _, name := range order {
		if ctor, ok := explicit[name]; ok {
			local[name].Constructor = ctor
		} else if ctor, ok := named[name]; ok {
			local[name].Constructor = ctor
		}
	}
}

// annotationsOn parses the weave annotations of a doc comment. Invalid
// annotations are reported and left out.
func (s *scan) annotationsOn(doc *ast.CommentGroup, target annotations.Target) []*annotations.ParsedAnnotation {
	if doc == nil {
		return nil
	}
	var parsed []*annotations.ParsedAnnotation
	for _, comment := range doc.List {
		if !annotations.IsAnnotation(comment.Text) {
			continue
		}
		a, err := s.annotations.ParseAnnotationOn(comment.Text, target, s.location(comment.Slash))
		if err != nil {
			s.fail(err)
			continue
		}
		parsed = append(parsed, a)
	}
	return parsed
}

// scanType handles one type declaration. Every struct becomes a class so
// that unannotated structs can serve as superclasses.
func (s *scan) scanType(pkgPath string, file *ast.File, spec *ast.TypeSpec, doc *ast.CommentGroup) *models.ClassMetadata {
	name := spec.Name.Name
	loc := s.location(spec.Name.Pos())
	structType, isStruct := spec.Type.(*ast.StructType)

	target := annotations.TargetType
	if isStruct {
		target = annotations.TargetStruct
	}
	parsed := s.annotationsOn(doc, target)

	var class *models.ClassMetadata
	if isStruct {
		class = &models.ClassMetadata{
			ID:       models.NewClassID(pkgPath, name),
			Name:     name,
			Package:  pkgPath,
			Location: loc,
		}
		if err := s.result.classes.Register(class.ID, class); err != nil {
			s.fail(errors.NewRegistrationError("class", string(class.ID), err.Error()).WithLocation(loc))
			return nil
		}
		s.embedded[class.ID] = embeddedTypes(pkgPath, file, structType, s.packageNames)
	}

	var (
		bindingType *registry.BindingType
		stereotype  *registry.Stereotype
		bindings    []models.Annotation
		component   bool
	)
	for _, a := range parsed {
		switch a.Type {
		case annotations.ComponentAnnotation:
			component = true
		case annotations.InterceptorAnnotation:
			class.Interceptor = true
			if priority, ok, err := a.GetInt("Priority"); err == nil && ok {
				class.Priority = &priority
			}
		case annotations.BindingTypeAnnotation:
			bindingType = &registry.BindingType{
				Name:       name,
				Inherited:  a.HasFlag("Inherited"),
				Nonbinding: toSet(a.GetStringSlice("Nonbinding")),
				Location:   loc,
			}
		case annotations.StereotypeAnnotation:
			stereotype = &registry.Stereotype{Name: name, Location: loc}
		case annotations.StereotypesAnnotation:
			class.Stereotypes = append(class.Stereotypes, a.Args...)
		case annotations.BindingAnnotation:
			bindings = append(bindings, a.AsBinding())
		case annotations.InterceptorsAnnotation:
			class.Interceptors = append(class.Interceptors, classRefs(a.Args)...)
		case annotations.FinalAnnotation:
			class.Final = true
		}
	}

	switch {
	case bindingType != nil && stereotype != nil:
		s.fail(errors.NewValidationError(name, "binding type or stereotype", "both").WithLocation(loc))
	case bindingType != nil:
		bindingType.Composed = bindings
		s.result.BindingTypes = append(s.result.BindingTypes, bindingType)
	case stereotype != nil:
		stereotype.Bindings = bindings
		s.result.Stereotypes = append(s.result.Stereotypes, stereotype)
	case class != nil:
		class.Annotations = bindings
	case len(bindings) > 0:
		s.fail(errors.NewValidationError(name, "struct, binding type or stereotype", "type").
			WithLocation(loc).
			WithSuggestion("Add //weave::bindingtype or //weave::stereotype to the type"))
	}

	if class == nil {
		return nil
	}
	if component && class.Interceptor {
		s.fail(errors.NewValidationError(name, "component or interceptor", "both").WithLocation(loc))
		return class
	}
	if component {
		s.result.Components = append(s.result.Components, class)
	}
	if class.Interceptor {
		s.interceptors = append(s.interceptors, class)
	}
	return class
}

func (s *scan) scanMethod(fn *ast.FuncDecl, local map[string]*models.ClassMetadata) {
	parsed := s.annotationsOn(fn.Doc, annotations.TargetMethod)
	recv := receiverName(fn.Recv.List[0].Type)
	loc := s.location(fn.Name.Pos())

	class, ok := local[recv]
	if !ok {
		if len(parsed) > 0 {
			s.fail(errors.NewValidationError(recv+"."+fn.Name.Name, "method of a struct", "receiver "+recv).WithLocation(loc))
		}
		return
	}

	m := &models.MethodMetadata{
		Name:      fn.Name.Name,
		Declaring: class.ID,
		Private:   !fn.Name.IsExported(),
		Location:  loc,
	}
	for _, a := range parsed {
		switch a.Type {
		case annotations.BindingAnnotation:
			m.Annotations = append(m.Annotations, a.AsBinding())
		case annotations.InterceptorsAnnotation:
			m.Interceptors = append(m.Interceptors, classRefs(a.Args)...)
		case annotations.FinalAnnotation:
			m.Final = true
		case annotations.ExcludeClassInterceptorsAnnotation:
			m.ExcludeClassInterceptors = true
		case annotations.TimeoutAnnotation:
			m.Timeout = true
		case annotations.InjectAnnotation:
			m.Initializer = true
		case annotations.StaticAnnotation:
			m.Static = true
		case annotations.InterceptorMethodAnnotation:
			if kind, ok := a.Kind(); ok {
				m.InterceptorKinds = append(m.InterceptorKinds, kind)
			}
		}
	}
	class.Methods = append(class.Methods, m)
}

// scanFunc records constructors: functions marked //weave::constructor T,
// or named NewT or newT
func (s *scan) scanFunc(fn *ast.FuncDecl, local map[string]*models.ClassMetadata, explicit, named map[string]*models.ConstructorMetadata) {
	parsed := s.annotationsOn(fn.Doc, annotations.TargetFunc)
	name := fn.Name.Name
	loc := s.location(fn.Name.Pos())

	ctor := &models.ConstructorMetadata{
		Name:     name,
		Private:  !fn.Name.IsExported(),
		Location: loc,
	}
	target := ""
	for _, a := range parsed {
		switch a.Type {
		case annotations.ConstructorAnnotation:
			target = a.Arg(0)
		case annotations.BindingAnnotation:
			ctor.Annotations = append(ctor.Annotations, a.AsBinding())
		case annotations.InterceptorsAnnotation:
			ctor.Interceptors = append(ctor.Interceptors, classRefs(a.Args)...)
		case annotations.ExcludeClassInterceptorsAnnotation:
			ctor.ExcludeClassInterceptors = true
		}
	}

	if target != "" {
		if _, ok := local[target]; !ok {
			s.fail(errors.NewValidationError("constructor "+name, "struct declared in the package", target).WithLocation(loc))
			return
		}
		if previous, dup := explicit[target]; dup {
			s.fail(errors.NewValidationError("constructor "+name, "one constructor for "+target, "also "+previous.Name).WithLocation(loc))
			return
		}
		explicit[target] = ctor
		return
	}

	if className, ok := constructorTarget(name, local); ok {
		if _, dup := named[className]; !dup {
			named[className] = ctor
		}
		return
	}
	if len(parsed) > 0 {
		s.fail(errors.NewValidationError(name, "constructor", "function").
			WithLocation(loc).
			WithSuggestion(fmt.Sprintf("Name the function New<Type> or add //weave::constructor <Type> above %s", name)))
	}
}

// link resolves superclasses and explicit interceptor names once every
// package is scanned, then derives interceptor definitions
func (s *scan) link() {
	classes := s.result.Classes()
	for _, class := range classes {
		for _, candidate := range s.embedded[class.ID] {
			if candidate == class.ID {
				continue
			}
			if super, ok := s.result.Class(candidate); ok {
				class.Superclass = super
				break
			}
		}
	}

	referenced := make(map[models.ClassID]bool)
	var explicitOnly []*models.ClassMetadata
	resolve := func(refs []models.ClassID, loc errors.SourceLocation) []models.ClassID {
		out := make([]models.ClassID, 0, len(refs))
		for _, ref := range refs {
			id := s.resolveClass(string(ref), loc)
			out = append(out, id)
			target, ok := s.result.Class(id)
			if ok && !target.Interceptor && !referenced[id] {
				referenced[id] = true
				explicitOnly = append(explicitOnly, target)
			}
		}
		return out
	}

	for _, class := range classes {
		class.Interceptors = resolve(class.Interceptors, class.Location)
		if class.Constructor != nil {
			class.Constructor.Interceptors = resolve(class.Constructor.Interceptors, class.Constructor.Location)
		}
		for _, m := range class.Methods {
			m.Interceptors = resolve(m.Interceptors, m.Location)
		}
	}

	for _, class := range append(s.interceptors, explicitOnly...) {
		s.result.Interceptors = append(s.result.Interceptors, registry.NewInterceptorDefinition(class, class.Annotations))
	}
}

// resolveClass maps an interceptor name to a class id: an exact id, an
// unqualified type name or a pkg.Type suffix. Unknown names are kept as
// written and reported when the model is built.
func (s *scan) resolveClass(name string, loc errors.SourceLocation) models.ClassID {
	if _, ok := s.result.Class(models.ClassID(name)); ok {
		return models.ClassID(name)
	}
	matches := s.result.classes.Filter(func(id models.ClassID, _ *models.ClassMetadata) bool {
		if !strings.Contains(name, ".") {
			return id.Name() == name
		}
		return strings.HasSuffix(string(id), "/"+name)
	})
	switch len(matches) {
	case 1:
		return matches[0].ID
	case 0:
		return models.ClassID(name)
	default:
		ids := make([]string, len(matches))
		for i, m := range matches {
			ids[i] = string(m.ID)
		}
		s.fail(errors.NewValidationError(name, "a unique interceptor class", strings.Join(ids, ", ")).
			WithLocation(loc).
			WithSuggestion("Qualify the name with its package, e.g. audit." + name))
		return models.ClassID(name)
	}
}

func classRefs(names []string) []models.ClassID {
	refs := make([]models.ClassID, len(names))
	for i, n := range names {
		refs[i] = models.ClassID(n)
	}
	return refs
}

func toSet(values []string) map[string]bool {
	set := make(map[string]bool, len(values))
	for _, v := range values {
		set[v] = true
	}
	return set
}

// embeddedTypes lists the class ids of the embedded fields of a struct
func embeddedTypes(pkgPath string, file *ast.File, st *ast.StructType, packageNames map[string]string) []models.ClassID {
	var ids []models.ClassID
	for _, field := range st.Fields.List {
		if len(field.Names) > 0 {
			continue
		}
		switch t := unwrapType(field.Type).(type) {
		case *ast.Ident:
			ids = append(ids, models.NewClassID(pkgPath, t.Name))
		case *ast.SelectorExpr:
			pkg, ok := t.X.(*ast.Ident)
			if !ok {
				continue
			}
			if importPath, ok := importedAs(file, pkg.Name, packageNames); ok {
				ids = append(ids, models.NewClassID(importPath, t.Sel.Name))
			}
		}
	}
	return ids
}

// unwrapType strips pointers and type arguments
func unwrapType(expr ast.Expr) ast.Expr {
	for {
		switch t := expr.(type) {
		case *ast.StarExpr:
			expr = t.X
		case *ast.IndexExpr:
			expr = t.X
		case *ast.IndexListExpr:
			expr = t.X
		case *ast.ParenExpr:
			expr = t.X
		default:
			return expr
		}
	}
}

func receiverName(expr ast.Expr) string {
	if ident, ok := unwrapType(expr).(*ast.Ident); ok {
		return ident.Name
	}
	return ""
}

// importedAs finds the import path bound to name in file. Unnamed imports
// use the package clause of scanned packages; other packages fall back to
// the last path element without a major version suffix.
func importedAs(file *ast.File, name string, packageNames map[string]string) (string, bool) {
	for _, imp := range file.Imports {
		importPath, err := strconv.Unquote(imp.Path.Value)
		if err != nil {
			continue
		}
		local, ok := packageNames[importPath]
		if !ok {
			local = defaultImportName(importPath)
		}
		if imp.Name != nil {
			local = imp.Name.Name
		}
		if local == name {
			return importPath, true
		}
	}
	return "", false
}

// defaultImportName guesses the package name of an import path outside the
// scan: "example.com/lib/v2" is lib, "gopkg.in/yaml.v3" is yaml
func defaultImportName(importPath string) string {
	base := path.Base(importPath)
	if isMajorVersion(base) && path.Dir(importPath) != "." {
		base = path.Base(path.Dir(importPath))
	}
	if i := strings.LastIndex(base, ".v"); i > 0 && isMajorVersion(base[i+1:]) {
		base = base[:i]
	}
	return base
}

func isMajorVersion(s string) bool {
	if len(s) < 2 || s[0] != 'v' {
		return false
	}
	_, err := strconv.Atoi(s[1:])
	return err == nil
}

// constructorTarget maps NewOrders and newOrders to Orders, and newOrders
// to orders for unexported types
func constructorTarget(name string, local map[string]*models.ClassMetadata) (string, bool) {
	for _, prefix := range []string{ExportedConstructorPrefix, UnexportedConstructorPrefix} {
		rest, ok := strings.CutPrefix(name, prefix)
		if !ok || rest == "" {
			continue
		}
		if _, ok := local[rest]; ok {
			return rest, true
		}
		if lowered := lowerFirst(rest); lowered != rest {
			if _, ok := local[lowered]; ok {
				return lowered, true
			}
		}
	}
	return "", false
}

func lowerFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	return string(unicode.ToLower(r)) + s[size:]
}
