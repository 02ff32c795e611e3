package models

import (
	"sort"
	"strings"
)

// Annotation is one annotation instance: its type name and member values
type Annotation struct {
	Type    string
	Members map[string]string
}

// NewAnnotation creates an annotation, copying members
func NewAnnotation(annotationType string, members map[string]string) Annotation {
	copied := make(map[string]string, len(members))
	for k, v := range members {
		copied[k] = v
	}
	return Annotation{Type: annotationType, Members: copied}
}

// Member returns a member value
func (a Annotation) Member(name string) (string, bool) {
	v, ok := a.Members[name]
	return v, ok
}

// Equal compares type and every member
func (a Annotation) Equal(other Annotation) bool {
	return a.EqualIgnoring(other, nil)
}

// EqualIgnoring compares type and every member not listed in ignored
func (a Annotation) EqualIgnoring(other Annotation, ignored map[string]bool) bool {
	if a.Type != other.Type {
		return false
	}
	for k, v := range a.Members {
		if ignored[k] {
			continue
		}
		if ov, ok := other.Members[k]; !ok || ov != v {
			return false
		}
	}
	for k := range other.Members {
		if ignored[k] {
			continue
		}
		if _, ok := a.Members[k]; !ok {
			return false
		}
	}
	return true
}

// String renders the annotation as Type(k=v, ...) with members sorted
func (a Annotation) String() string {
	if len(a.Members) == 0 {
		return a.Type
	}
	keys := make([]string, 0, len(a.Members))
	for k := range a.Members {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = k + "=" + a.Members[k]
	}
	return a.Type + "(" + strings.Join(parts, ", ") + ")"
}

// BindingSet maps binding annotation type to its instance. Each type appears
// once; Put on an existing type replaces the instance in place.
type BindingSet struct {
	types  []string
	byType map[string]Annotation
}

// NewBindingSet creates an empty binding set
func NewBindingSet() *BindingSet {
	return &BindingSet{byType: make(map[string]Annotation)}
}

// Put stores a binding and reports whether it replaced one of the same type
func (s *BindingSet) Put(binding Annotation) bool {
	_, exists := s.byType[binding.Type]
	if !exists {
		s.types = append(s.types, binding.Type)
	}
	s.byType[binding.Type] = binding
	return exists
}

// Get returns the binding of the given type
func (s *BindingSet) Get(annotationType string) (Annotation, bool) {
	a, ok := s.byType[annotationType]
	return a, ok
}

// Has reports whether a binding of the given type is present
func (s *BindingSet) Has(annotationType string) bool {
	_, ok := s.byType[annotationType]
	return ok
}

// Len returns the number of binding types
func (s *BindingSet) Len() int {
	return len(s.types)
}

// Values returns the bindings in first-insertion order
func (s *BindingSet) Values() []Annotation {
	values := make([]Annotation, len(s.types))
	for i, t := range s.types {
		values[i] = s.byType[t]
	}
	return values
}

// Clone returns an independent copy
func (s *BindingSet) Clone() *BindingSet {
	clone := NewBindingSet()
	for _, t := range s.types {
		clone.Put(s.byType[t])
	}
	return clone
}
