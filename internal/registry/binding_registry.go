package registry

import (
	"fmt"

	"github.com/toyz/weave/internal/errors"
	"github.com/toyz/weave/internal/models"
	"github.com/toyz/weave/internal/utils"
)

// BindingType is an annotation type usable as an interceptor binding
type BindingType struct {
	Name       string
	Inherited  bool                // declared on a superclass, applies to subclasses
	Nonbinding map[string]bool     // members ignored when matching interceptors
	Composed   []models.Annotation // bindings implied by this binding
	Location   errors.SourceLocation
}

// Stereotype bundles binding annotations applied to a class as a unit
type Stereotype struct {
	Name     string
	Bindings []models.Annotation
	Location errors.SourceLocation
}

// BindingTypeRegistry knows every binding type and stereotype
type BindingTypeRegistry struct {
	types       *utils.BaseRegistry[string, *BindingType]
	stereotypes *utils.BaseRegistry[string, *Stereotype]
}

// NewBindingTypeRegistry creates an empty binding type registry
func NewBindingTypeRegistry() *BindingTypeRegistry {
	types := utils.NewBaseRegistry[string, *BindingType]("binding type", "binding type")
	types.SetValidator(utils.ChainValidators(
		utils.NotEmptyKeyValidator[string, *BindingType]("binding type"),
		utils.NoDuplicateValidator[string, *BindingType]("binding type"),
	))

	stereotypes := utils.NewBaseRegistry[string, *Stereotype]("stereotype", "stereotype")
	stereotypes.SetValidator(utils.ChainValidators(
		utils.NotEmptyKeyValidator[string, *Stereotype]("stereotype"),
		utils.NoDuplicateValidator[string, *Stereotype]("stereotype"),
	))

	return &BindingTypeRegistry{types: types, stereotypes: stereotypes}
}

// RegisterBindingType adds a binding type
func (r *BindingTypeRegistry) RegisterBindingType(bindingType *BindingType) error {
	if bindingType == nil {
		return fmt.Errorf("binding type cannot be nil")
	}
	if err := r.types.Register(bindingType.Name, bindingType); err != nil {
		return errors.NewRegistrationError("binding type", bindingType.Name, err.Error()).WithLocation(bindingType.Location)
	}
	return nil
}

// RegisterStereotype adds a stereotype
func (r *BindingTypeRegistry) RegisterStereotype(stereotype *Stereotype) error {
	if stereotype == nil {
		return fmt.Errorf("stereotype cannot be nil")
	}
	if err := r.stereotypes.Register(stereotype.Name, stereotype); err != nil {
		return errors.NewRegistrationError("stereotype", stereotype.Name, err.Error()).WithLocation(stereotype.Location)
	}
	return nil
}

// BindingType returns a registered binding type
func (r *BindingTypeRegistry) BindingType(name string) (*BindingType, bool) {
	return r.types.Get(name)
}

// BindingTypes returns every binding type name in registration order
func (r *BindingTypeRegistry) BindingTypes() []string {
	return r.types.Keys()
}

// Stereotypes returns every stereotype name in registration order
func (r *BindingTypeRegistry) Stereotypes() []string {
	return r.stereotypes.Keys()
}

// IsBindingType reports whether name is a registered binding type
func (r *BindingTypeRegistry) IsBindingType(name string) bool {
	return r.types.Has(name)
}

// FilterBindings keeps the annotations whose type is a binding type
func (r *BindingTypeRegistry) FilterBindings(annotations []models.Annotation) []models.Annotation {
	var bindings []models.Annotation
	for _, a := range annotations {
		if r.types.Has(a.Type) {
			bindings = append(bindings, a)
		}
	}
	return bindings
}

// FlattenBindings returns the bindings followed by the bindings they compose,
// transitively, with equal annotations kept once
func (r *BindingTypeRegistry) FlattenBindings(bindings []models.Annotation) []models.Annotation {
	var flattened []models.Annotation
	visiting := make(map[string]bool)

	var visit func(binding models.Annotation)
	visit = func(binding models.Annotation) {
		for _, existing := range flattened {
			if existing.Equal(binding) {
				return
			}
		}
		flattened = append(flattened, binding)

		bindingType, ok := r.types.Get(binding.Type)
		if !ok || visiting[binding.Type] {
			return
		}
		visiting[binding.Type] = true
		for _, composed := range bindingType.Composed {
			visit(composed)
		}
		visiting[binding.Type] = false
	}

	for _, binding := range bindings {
		visit(binding)
	}
	return flattened
}

// IsInherited reports whether a binding type is inherited by subclasses
func (r *BindingTypeRegistry) IsInherited(bindingType string) bool {
	t, ok := r.types.Get(bindingType)
	return ok && t.Inherited
}

// StereotypeBindings returns the bindings declared by a stereotype
func (r *BindingTypeRegistry) StereotypeBindings(stereotype string) []models.Annotation {
	s, ok := r.stereotypes.Get(stereotype)
	if !ok {
		return nil
	}
	return append([]models.Annotation(nil), s.Bindings...)
}

// Nonbinding returns the members of a binding type ignored when matching
func (r *BindingTypeRegistry) Nonbinding(bindingType string) map[string]bool {
	t, ok := r.types.Get(bindingType)
	if !ok {
		return nil
	}
	return t.Nonbinding
}

// Matches reports whether a target binding satisfies an interceptor binding
func (r *BindingTypeRegistry) Matches(interceptorBinding, targetBinding models.Annotation) bool {
	return interceptorBinding.EqualIgnoring(targetBinding, r.Nonbinding(interceptorBinding.Type))
}

// Validate checks that composed and stereotype bindings name known binding types
func (r *BindingTypeRegistry) Validate() error {
	multi := errors.NewMultipleErrors()
	r.types.ForEach(func(name string, t *BindingType) {
		for _, composed := range t.Composed {
			if !r.types.Has(composed.Type) {
				multi.Add(errors.NewValidationError(name, "binding type", composed.Type).
					WithLocation(t.Location).
					WithSuggestion(fmt.Sprintf("Declare %s with //weave::bindingtype", composed.Type)))
			}
		}
	})
	r.stereotypes.ForEach(func(name string, s *Stereotype) {
		for _, b := range s.Bindings {
			if !r.types.Has(b.Type) {
				multi.Add(errors.NewValidationError(name, "binding type", b.Type).WithLocation(s.Location))
			}
		}
	})
	return multi.ErrorOrNil()
}
