package utils

import (
	"fmt"
	"sync"
)

// RegistryValidator is a function that validates a key-value pair before registration
type RegistryValidator[K comparable, V any] func(key K, value V, existing map[K]V) error

// BaseRegistry provides a generic, thread-safe registry that remembers the
// order in which keys were first registered
type BaseRegistry[K comparable, V any] struct {
	mu            sync.RWMutex
	items         map[K]V
	order         []K
	validator     RegistryValidator[K, V]
	registryName  string
	keyDescriptor string // e.g. "interceptor class", "binding type"
}

// NewBaseRegistry creates a new base registry with the specified configuration
func NewBaseRegistry[K comparable, V any](registryName, keyDesc string) *BaseRegistry[K, V] {
	return &BaseRegistry[K, V]{
		items:         make(map[K]V),
		registryName:  registryName,
		keyDescriptor: keyDesc,
	}
}

// SetValidator sets the validation function for this registry
func (r *BaseRegistry[K, V]) SetValidator(validator RegistryValidator[K, V]) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.validator = validator
}

// Register adds an item to the registry after validation
func (r *BaseRegistry[K, V]) Register(key K, value V) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.validator != nil {
		if err := r.validator(key, value, r.items); err != nil {
			return fmt.Errorf("%s registry: %w", r.registryName, err)
		}
	}

	r.store(key, value)
	return nil
}

// Put stores an item without validation, replacing any previous value
func (r *BaseRegistry[K, V]) Put(key K, value V) (replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	_, replaced = r.items[key]
	r.store(key, value)
	return replaced
}

func (r *BaseRegistry[K, V]) store(key K, value V) {
	if _, exists := r.items[key]; !exists {
		r.order = append(r.order, key)
	}
	r.items[key] = value
}

// Get retrieves an item from the registry
func (r *BaseRegistry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, exists := r.items[key]
	return value, exists
}

// GetOrError retrieves an item or returns an error if not found
func (r *BaseRegistry[K, V]) GetOrError(key K) (V, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	value, exists := r.items[key]
	if !exists {
		var zero V
		return zero, fmt.Errorf("%s '%v' is not registered", r.keyDescriptor, key)
	}
	return value, nil
}

// Has checks if a key exists in the registry
func (r *BaseRegistry[K, V]) Has(key K) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, exists := r.items[key]
	return exists
}

// Keys returns all keys in first-registration order
func (r *BaseRegistry[K, V]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()

	keys := make([]K, len(r.order))
	copy(keys, r.order)
	return keys
}

// Values returns all values in first-registration order
func (r *BaseRegistry[K, V]) Values() []V {
	r.mu.RLock()
	defer r.mu.RUnlock()

	values := make([]V, len(r.order))
	for i, key := range r.order {
		values[i] = r.items[key]
	}
	return values
}

// Clear removes all items from the registry
func (r *BaseRegistry[K, V]) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.items = make(map[K]V)
	r.order = nil
}

// Size returns the number of items in the registry
func (r *BaseRegistry[K, V]) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.items)
}

// ForEach applies a function to each item in first-registration order
func (r *BaseRegistry[K, V]) ForEach(fn func(K, V)) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, k := range r.order {
		fn(k, r.items[k])
	}
}

// Filter returns the values that match the predicate, in first-registration order
func (r *BaseRegistry[K, V]) Filter(predicate func(K, V) bool) []V {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var result []V
	for _, k := range r.order {
		if v := r.items[k]; predicate(k, v) {
			result = append(result, v)
		}
	}
	return result
}

// Common validators for reuse across different registry types

// NotEmptyKeyValidator validates that a string-like key is not empty
func NotEmptyKeyValidator[K ~string, V any](keyDesc string) RegistryValidator[K, V] {
	return func(key K, value V, existing map[K]V) error {
		if key == "" {
			return fmt.Errorf("%s cannot be empty", keyDesc)
		}
		return nil
	}
}

// NoDuplicateValidator validates that a key doesn't already exist
func NoDuplicateValidator[K comparable, V any](keyDesc string) RegistryValidator[K, V] {
	return func(key K, value V, existing map[K]V) error {
		if _, exists := existing[key]; exists {
			return fmt.Errorf("%s '%v' is already registered", keyDesc, key)
		}
		return nil
	}
}

// ChainValidators combines multiple validators into one
func ChainValidators[K comparable, V any](validators ...RegistryValidator[K, V]) RegistryValidator[K, V] {
	return func(key K, value V, existing map[K]V) error {
		for _, validator := range validators {
			if validator == nil {
				continue
			}
			if err := validator(key, value, existing); err != nil {
				return err
			}
		}
		return nil
	}
}
