package parser

import (
	"github.com/toyz/weave/internal/errors"
	"github.com/toyz/weave/internal/models"
	"github.com/toyz/weave/internal/registry"
	"github.com/toyz/weave/internal/utils"
)

// Result is everything found in the scanned packages
type Result struct {
	Components   []*models.ClassMetadata           // structs marked //weave::component
	Interceptors []*registry.InterceptorDefinition // interceptor classes, including classes only named explicitly
	BindingTypes []*registry.BindingType
	Stereotypes  []*registry.Stereotype

	classes *utils.BaseRegistry[models.ClassID, *models.ClassMetadata]
	errs    *errors.MultipleErrors
}

func newResult(errs *errors.MultipleErrors) *Result {
	classes := utils.NewBaseRegistry[models.ClassID, *models.ClassMetadata]("class", "class")
	classes.SetValidator(utils.NoDuplicateValidator[models.ClassID, *models.ClassMetadata]("class"))
	return &Result{classes: classes, errs: errs}
}

// Class returns any scanned struct by id
func (r *Result) Class(id models.ClassID) (*models.ClassMetadata, bool) {
	return r.classes.Get(id)
}

// Classes returns every scanned struct in discovery order
func (r *Result) Classes() []*models.ClassMetadata {
	return r.classes.Values()
}

// Component returns a component by id or by unambiguous type name
func (r *Result) Component(name string) (*models.ClassMetadata, bool) {
	var found *models.ClassMetadata
	for _, c := range r.Components {
		if string(c.ID) == name {
			return c, true
		}
		if c.Name == name {
			if found != nil {
				return nil, false
			}
			found = c
		}
	}
	return found, found != nil
}

// Register adds the binding types, stereotypes and interceptors to the
// given registries. Every failure is collected.
func (r *Result) Register(bindings *registry.BindingTypeRegistry, interceptors *registry.InterceptorRegistry) error {
	errs := errors.NewMultipleErrors()
	for _, bt := range r.BindingTypes {
		errs.Append(bindings.RegisterBindingType(bt))
	}
	for _, st := range r.Stereotypes {
		errs.Append(bindings.RegisterStereotype(st))
	}
	errs.Append(bindings.Validate())
	for _, d := range r.Interceptors {
		errs.Append(interceptors.Register(d))
	}
	return errs.ErrorOrNil()
}
