package registry

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/toyz/weave/internal/errors"
	"github.com/toyz/weave/internal/models"
	"github.com/toyz/weave/internal/utils"
)

// InterceptorDefinition is an interceptor class known to the container
type InterceptorDefinition struct {
	Class    *models.ClassMetadata
	Metadata *models.InterceptorClass
	Bindings []models.Annotation // bindings the interceptor is bound to
	Priority *int                // enables the interceptor globally when set
}

// NewInterceptorDefinition derives a definition from an interceptor class
func NewInterceptorDefinition(class *models.ClassMetadata, bindings []models.Annotation) *InterceptorDefinition {
	var priority *int
	if class.Priority != nil {
		p := *class.Priority
		priority = &p
	}
	return &InterceptorDefinition{
		Class:    class,
		Metadata: models.NewInterceptorClass(class),
		Bindings: append([]models.Annotation(nil), bindings...),
		Priority: priority,
	}
}

// ClassID implements models.InterceptorHandle
func (d *InterceptorDefinition) ClassID() models.ClassID {
	return d.Class.ID
}

// InterceptorRegistry tracks interceptor classes, which of them are enabled
// and in what order, and resolves interceptors for a set of bindings
type InterceptorRegistry struct {
	definitions *utils.BaseRegistry[models.ClassID, *InterceptorDefinition]
	bindings    *BindingTypeRegistry

	mu      sync.RWMutex
	enabled []models.ClassID // explicit enablement order
}

// NewInterceptorRegistry creates an interceptor registry matching bindings
// through the given binding type registry
func NewInterceptorRegistry(bindings *BindingTypeRegistry) *InterceptorRegistry {
	definitions := utils.NewBaseRegistry[models.ClassID, *InterceptorDefinition]("interceptor", "interceptor class")
	definitions.SetValidator(utils.ChainValidators(
		utils.NotEmptyKeyValidator[models.ClassID, *InterceptorDefinition]("interceptor class"),
		utils.NoDuplicateValidator[models.ClassID, *InterceptorDefinition]("interceptor class"),
	))
	return &InterceptorRegistry{definitions: definitions, bindings: bindings}
}

// Register adds an interceptor definition
func (r *InterceptorRegistry) Register(definition *InterceptorDefinition) error {
	if definition == nil || definition.Class == nil {
		return fmt.Errorf("interceptor definition cannot be nil")
	}
	if err := r.definitions.Register(definition.Class.ID, definition); err != nil {
		return errors.NewRegistrationError("interceptor", string(definition.Class.ID), err.Error()).WithLocation(definition.Class.Location)
	}
	return nil
}

// Get returns the definition of an interceptor class
func (r *InterceptorRegistry) Get(class models.ClassID) (*InterceptorDefinition, bool) {
	return r.definitions.Get(class)
}

// Definitions returns every definition in registration order
func (r *InterceptorRegistry) Definitions() []*InterceptorDefinition {
	return r.definitions.Values()
}

// Lookup finds a definition by class id or, failing that, by unqualified
// name when that name is unambiguous
func (r *InterceptorRegistry) Lookup(name string) (*InterceptorDefinition, bool) {
	if d, ok := r.definitions.Get(models.ClassID(name)); ok {
		return d, true
	}
	matches := r.definitions.Filter(func(id models.ClassID, _ *InterceptorDefinition) bool {
		return id.Name() == name
	})
	if len(matches) == 1 {
		return matches[0], true
	}
	return nil, false
}

// Validate checks that all interceptor names exist in the registry
func (r *InterceptorRegistry) Validate(names []string) error {
	var missing []string
	for _, name := range names {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		if _, ok := r.Lookup(name); !ok {
			missing = append(missing, name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("unknown interceptor(s): %s", strings.Join(missing, ", "))
	}
	return nil
}

// Enable enables interceptors in the given order, after any already enabled
func (r *InterceptorRegistry) Enable(names ...string) error {
	if err := r.Validate(names); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, name := range names {
		d, _ := r.Lookup(strings.TrimSpace(name))
		if d == nil || r.isEnabledLocked(d.Class.ID) {
			continue
		}
		r.enabled = append(r.enabled, d.Class.ID)
	}
	return nil
}

// SetPriority sets the priority of an interceptor, which enables it globally
func (r *InterceptorRegistry) SetPriority(name string, priority int) error {
	d, ok := r.Lookup(name)
	if !ok {
		return fmt.Errorf("unknown interceptor(s): %s", name)
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	p := priority
	d.Priority = &p
	return nil
}

func (r *InterceptorRegistry) isEnabledLocked(id models.ClassID) bool {
	for _, enabled := range r.enabled {
		if enabled == id {
			return true
		}
	}
	return false
}

// Enabled returns the enabled interceptors in invocation order: globally
// enabled interceptors by ascending priority, then explicitly enabled ones
// in enablement order
func (r *InterceptorRegistry) Enabled() []*InterceptorDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type ranked struct {
		definition *InterceptorDefinition
		priority   int
		global     bool
		index      int
	}

	var candidates []ranked
	for i, d := range r.definitions.Values() {
		if d.Priority != nil {
			candidates = append(candidates, ranked{definition: d, priority: *d.Priority, global: true, index: i})
		}
	}
	for i, id := range r.enabled {
		d, ok := r.definitions.Get(id)
		if !ok || d.Priority != nil {
			continue
		}
		candidates = append(candidates, ranked{definition: d, index: i})
	}

	sort.SliceStable(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.global != b.global {
			return a.global
		}
		if a.priority != b.priority {
			return a.priority < b.priority
		}
		return a.index < b.index
	})

	result := make([]*InterceptorDefinition, len(candidates))
	for i, c := range candidates {
		result[i] = c.definition
	}
	return result
}

// Resolve returns the enabled interceptors eligible for kind whose every
// binding is matched by one of the given bindings
func (r *InterceptorRegistry) Resolve(kind models.InterceptionKind, bindings []models.Annotation) []models.InterceptorHandle {
	if len(bindings) == 0 {
		return nil
	}
	flattened := r.bindings.FlattenBindings(bindings)

	var resolved []models.InterceptorHandle
	for _, d := range r.Enabled() {
		if len(d.Bindings) == 0 || !d.Metadata.IsEligible(kind) {
			continue
		}
		if r.boundTo(d, flattened) {
			resolved = append(resolved, d)
		}
	}
	return resolved
}

func (r *InterceptorRegistry) boundTo(d *InterceptorDefinition, targetBindings []models.Annotation) bool {
	for _, required := range d.Bindings {
		matched := false
		for _, candidate := range targetBindings {
			if r.bindings.Matches(required, candidate) {
				matched = true
				break
			}
		}
		if !matched {
			return false
		}
	}
	return true
}

// InterceptorMetadata returns the metadata of a resolved interceptor
func (r *InterceptorRegistry) InterceptorMetadata(handle models.InterceptorHandle) (models.InterceptorMetadata, error) {
	if d, ok := handle.(*InterceptorDefinition); ok {
		return d.Metadata, nil
	}
	return r.ClassInterceptorMetadata(handle.ClassID())
}

// ClassInterceptorMetadata returns the metadata of an interceptor class,
// enabled or not
func (r *InterceptorRegistry) ClassInterceptorMetadata(class models.ClassID) (models.InterceptorMetadata, error) {
	d, err := r.definitions.GetOrError(class)
	if err != nil {
		return nil, err
	}
	return d.Metadata, nil
}
