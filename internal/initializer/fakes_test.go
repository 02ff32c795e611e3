package initializer

import (
	"fmt"
	"sort"

	"github.com/toyz/weave/internal/interception"
	"github.com/toyz/weave/internal/models"
)

type fakeCatalog struct {
	bindingTypes map[string]bool
	inherited    map[string]bool
	composed     map[string][]models.Annotation
	stereotypes  map[string][]models.Annotation
}

func newFakeCatalog(types ...string) *fakeCatalog {
	c := &fakeCatalog{
		bindingTypes: make(map[string]bool),
		inherited:    make(map[string]bool),
		composed:     make(map[string][]models.Annotation),
		stereotypes:  make(map[string][]models.Annotation),
	}
	for _, t := range types {
		c.bindingTypes[t] = true
	}
	return c
}

func (c *fakeCatalog) FilterBindings(annotations []models.Annotation) []models.Annotation {
	var out []models.Annotation
	for _, a := range annotations {
		if c.bindingTypes[a.Type] {
			out = append(out, a)
		}
	}
	return out
}

func (c *fakeCatalog) FlattenBindings(bindings []models.Annotation) []models.Annotation {
	var out []models.Annotation
	var visit func(a models.Annotation)
	visit = func(a models.Annotation) {
		for _, existing := range out {
			if existing.Equal(a) {
				return
			}
		}
		out = append(out, a)
		for _, inner := range c.composed[a.Type] {
			visit(inner)
		}
	}
	for _, b := range bindings {
		visit(b)
	}
	return out
}

func (c *fakeCatalog) IsInherited(bindingType string) bool { return c.inherited[bindingType] }

func (c *fakeCatalog) StereotypeBindings(stereotype string) []models.Annotation {
	return c.stereotypes[stereotype]
}

type fakeInterceptor struct {
	meta     models.InterceptorMetadata
	bindings []models.Annotation
	priority int
}

type fakeResolver struct {
	interceptors []fakeInterceptor
}

func (r *fakeResolver) add(meta models.InterceptorMetadata, priority int, bindings ...models.Annotation) {
	r.interceptors = append(r.interceptors, fakeInterceptor{meta: meta, bindings: bindings, priority: priority})
}

func (r *fakeResolver) Resolve(kind models.InterceptionKind, bindings []models.Annotation) []models.InterceptorHandle {
	var matched []fakeInterceptor
	for _, candidate := range r.interceptors {
		if !candidate.meta.IsEligible(kind) {
			continue
		}
		ok := true
		for _, required := range candidate.bindings {
			found := false
			for _, b := range bindings {
				if b.Equal(required) {
					found = true
					break
				}
			}
			if !found {
				ok = false
				break
			}
		}
		if ok {
			matched = append(matched, candidate)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool { return matched[i].priority < matched[j].priority })

	handles := make([]models.InterceptorHandle, len(matched))
	for i, m := range matched {
		handles[i] = m.meta
	}
	return handles
}

type fakeReader struct {
	classes map[models.ClassID]models.InterceptorMetadata
	calls   map[models.ClassID]int
}

func newFakeReader(metas ...models.InterceptorMetadata) *fakeReader {
	r := &fakeReader{
		classes: make(map[models.ClassID]models.InterceptorMetadata),
		calls:   make(map[models.ClassID]int),
	}
	for _, m := range metas {
		r.classes[m.ClassID()] = m
	}
	return r
}

func (r *fakeReader) InterceptorMetadata(handle models.InterceptorHandle) (models.InterceptorMetadata, error) {
	return r.ClassInterceptorMetadata(handle.ClassID())
}

func (r *fakeReader) ClassInterceptorMetadata(class models.ClassID) (models.InterceptorMetadata, error) {
	r.calls[class]++
	m, ok := r.classes[class]
	if !ok {
		return nil, fmt.Errorf("no interceptor %s", class)
	}
	return m, nil
}

type fakeSink struct {
	models map[models.ClassID]*interception.Model
}

func newFakeSink() *fakeSink {
	return &fakeSink{models: make(map[models.ClassID]*interception.Model)}
}

func (s *fakeSink) Put(class models.ClassID, model *interception.Model) {
	s.models[class] = model
}

// interceptorClass declares an interceptor class with interceptor methods for the given kinds
func interceptorClass(name string, super *models.ClassMetadata, kinds ...models.InterceptionKind) *models.ClassMetadata {
	id := models.NewClassID("app", name)
	class := &models.ClassMetadata{ID: id, Name: name, Package: "app", Interceptor: true, Superclass: super}
	for _, kind := range kinds {
		class.Methods = append(class.Methods, &models.MethodMetadata{
			Name:             name + "_" + kind.Marker(),
			Declaring:        id,
			InterceptorKinds: []models.InterceptionKind{kind},
		})
	}
	return class
}

func component(name string, methods ...*models.MethodMetadata) *models.ClassMetadata {
	id := models.NewClassID("app", name)
	class := &models.ClassMetadata{ID: id, Name: name, Package: "app"}
	for _, m := range methods {
		m.Declaring = id
		class.Methods = append(class.Methods, m)
	}
	return class
}

func binding(t string, members ...string) models.Annotation {
	m := make(map[string]string)
	for i := 0; i+1 < len(members); i += 2 {
		m[members[i]] = members[i+1]
	}
	return models.NewAnnotation(t, m)
}

func names(list []models.InterceptorMetadata) []string {
	out := make([]string, len(list))
	for i, m := range list {
		out[i] = m.Name()
	}
	return out
}
