package models

import (
	"strings"

	"github.com/toyz/weave/internal/errors"
)

// ClassID is the stable identity of a class: its package path and type name
type ClassID string

// NewClassID joins a package path and a type name
func NewClassID(pkg, name string) ClassID {
	if pkg == "" {
		return ClassID(name)
	}
	return ClassID(pkg + "." + name)
}

// Name returns the unqualified type name
func (c ClassID) Name() string {
	s := string(c)
	if i := strings.LastIndex(s, "."); i >= 0 {
		return s[i+1:]
	}
	return s
}

// MethodRef identifies a method by its declaring class and name
type MethodRef struct {
	Class ClassID
	Name  string
}

// String returns Class.Method
func (m MethodRef) String() string {
	return string(m.Class) + "." + m.Name
}

// MethodMetadata describes one method of a class
type MethodMetadata struct {
	Name                     string
	Declaring                ClassID
	Annotations              []Annotation       // every annotation declared on the method
	Interceptors             []ClassID          // explicitly declared interceptor classes
	Final                    bool               // cannot be overridden
	Private                  bool               // unexported
	Static                   bool               // not bound to an instance
	Initializer              bool               // injection initializer, never a business method
	Timeout                  bool               // timer callback, intercepted as AROUND_TIMEOUT
	ExcludeClassInterceptors bool               // class-level interceptors are skipped
	InterceptorKinds         []InterceptionKind // interceptor method markers
	Location                 errors.SourceLocation
}

// Ref returns the identity of the method
func (m *MethodMetadata) Ref() MethodRef {
	return MethodRef{Class: m.Declaring, Name: m.Name}
}

// IsInterceptorMethod reports whether the method is itself an interceptor method
func (m *MethodMetadata) IsInterceptorMethod() bool {
	return len(m.InterceptorKinds) > 0
}

// IsBusinessMethod reports whether the method can be intercepted
func (m *MethodMetadata) IsBusinessMethod() bool {
	return !m.Static && !m.Initializer && !m.IsInterceptorMethod()
}

// ConstructorMetadata describes the constructor used to create instances
type ConstructorMetadata struct {
	Name                     string
	Annotations              []Annotation
	Interceptors             []ClassID
	Private                  bool
	ExcludeClassInterceptors bool
	Implicit                 bool // no constructor declared; the zero value is used
	Location                 errors.SourceLocation
}

// ClassMetadata describes a component or interceptor class
type ClassMetadata struct {
	ID           ClassID
	Name         string
	Package      string
	Final        bool // cannot be extended
	Interceptor  bool // the class is an interceptor
	Priority     *int // interceptor priority, when declared
	Annotations  []Annotation
	Stereotypes  []string
	Interceptors []ClassID
	Constructor  *ConstructorMetadata
	Methods      []*MethodMetadata
	Superclass   *ClassMetadata
	Location     errors.SourceLocation
}

// Hierarchy returns the class followed by its superclasses
func (c *ClassMetadata) Hierarchy() []*ClassMetadata {
	var chain []*ClassMetadata
	seen := make(map[ClassID]bool)
	for current := c; current != nil; current = current.Superclass {
		if seen[current.ID] {
			break
		}
		seen[current.ID] = true
		chain = append(chain, current)
	}
	return chain
}

// BeanConstructor returns the declared constructor or an implicit public one
func (c *ClassMetadata) BeanConstructor() *ConstructorMetadata {
	if c.Constructor != nil {
		return c.Constructor
	}
	return &ConstructorMetadata{Name: "New" + c.Name, Implicit: true, Location: c.Location}
}

// EffectiveMethods returns own methods followed by inherited methods that
// are not overridden by name further down the hierarchy
func (c *ClassMetadata) EffectiveMethods() []*MethodMetadata {
	var methods []*MethodMetadata
	seen := make(map[string]bool)
	for _, class := range c.Hierarchy() {
		for _, m := range class.Methods {
			if seen[m.Name] {
				continue
			}
			seen[m.Name] = true
			methods = append(methods, m)
		}
	}
	return methods
}

// InterceptableMethods returns the business methods of the class and its superclasses
func (c *ClassMetadata) InterceptableMethods() []*MethodMetadata {
	var methods []*MethodMetadata
	for _, m := range c.EffectiveMethods() {
		if m.IsBusinessMethod() {
			methods = append(methods, m)
		}
	}
	return methods
}

// InterceptorMethodKinds returns the kinds for which the hierarchy declares interceptor methods
func (c *ClassMetadata) InterceptorMethodKinds() map[InterceptionKind]bool {
	kinds := make(map[InterceptionKind]bool)
	for _, m := range c.EffectiveMethods() {
		for _, kind := range m.InterceptorKinds {
			kinds[kind] = true
		}
	}
	return kinds
}

// MethodNamed finds an effective method by name
func (c *ClassMetadata) MethodNamed(name string) *MethodMetadata {
	for _, m := range c.EffectiveMethods() {
		if m.Name == name {
			return m
		}
	}
	return nil
}
