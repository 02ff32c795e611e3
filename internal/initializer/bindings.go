package initializer

import (
	"github.com/toyz/weave/internal/errors"
	"github.com/toyz/weave/internal/models"
)

// classBindings merges the bindings of a class. Top-level bindings are the
// ones declared on the class and those inherited from superclasses; they
// override any binding of the same type reached through composition or a
// stereotype. Only the composed and stereotype bindings can conflict with
// each other.
func classBindings(catalog BindingCatalog, class *models.ClassMetadata) (*models.BindingSet, error) {
	topLevel := catalog.FilterBindings(ownAndInheritedAnnotations(catalog, class))

	merged := models.NewBindingSet()
	for _, binding := range topLevel {
		if previous, ok := merged.Get(binding.Type); ok && !previous.Equal(binding) {
			return nil, errors.ConflictingClassBindings(string(class.ID), binding.Type).WithLocation(class.Location)
		}
		merged.Put(binding)
	}

	indirect := catalog.FlattenBindings(topLevel)
	for _, stereotype := range class.Stereotypes {
		indirect = append(indirect, catalog.FlattenBindings(catalog.FilterBindings(catalog.StereotypeBindings(stereotype)))...)
	}

	secondary := models.NewBindingSet()
	for _, binding := range indirect {
		if merged.Has(binding.Type) {
			continue
		}
		if previous, ok := secondary.Get(binding.Type); ok {
			if !previous.Equal(binding) {
				return nil, errors.ConflictingClassBindings(string(class.ID), binding.Type).WithLocation(class.Location)
			}
			continue
		}
		secondary.Put(binding)
	}
	for _, binding := range secondary.Values() {
		merged.Put(binding)
	}
	return merged, nil
}

// ownAndInheritedAnnotations returns the annotations declared on the class
// followed by inherited binding annotations of its superclasses that the
// subclass does not redeclare
func ownAndInheritedAnnotations(catalog BindingCatalog, class *models.ClassMetadata) []models.Annotation {
	annotations := append([]models.Annotation(nil), class.Annotations...)
	present := make(map[string]bool)
	for _, a := range class.Annotations {
		present[a.Type] = true
	}

	hierarchy := class.Hierarchy()
	for _, super := range hierarchy[1:] {
		for _, a := range super.Annotations {
			if present[a.Type] || !catalog.IsInherited(a.Type) {
				continue
			}
			present[a.Type] = true
			annotations = append(annotations, a)
		}
	}
	return annotations
}

// memberBindings merges a constructor's or method's own bindings over the
// class bindings. The class set is not modified. Two bindings of one type on
// the member, after flattening, are a conflict.
func memberBindings(catalog BindingCatalog, class models.ClassID, member string, loc errors.SourceLocation, classSet *models.BindingSet, annotations []models.Annotation) (*models.BindingSet, error) {
	own := catalog.FlattenBindings(catalog.FilterBindings(annotations))

	merged := classSet.Clone()
	processed := make(map[string]bool, len(own))
	for _, binding := range own {
		if processed[binding.Type] {
			return nil, errors.ConflictingBindings(string(class), member, binding.Type).WithLocation(loc)
		}
		processed[binding.Type] = true
		merged.Put(binding)
	}
	return merged, nil
}
