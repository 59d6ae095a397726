package core

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"sort"
	"sync"
)

// ErrUnknownType is returned by Registry lookups for unregistered keys.
var ErrUnknownType = errors.New("unknown record type")

// ErrInvalidListParams is wrapped by a ListFunc that rejects its parameters.
var ErrInvalidListParams = errors.New("invalid list parameters")

// TypeInfo contains display information about a record type.
type TypeInfo struct {
	Key   string // Unique identifier: "todo-items"
	Group string // Owning module: "Todo"
	Label string // Display name: "To-do items"
}

// ListParams narrows the records a ListFunc returns. Keys are specific to
// the type; a ListFunc ignores keys it does not know and treats a missing or
// empty value as no restriction.
type ListParams map[string]string

// ListFunc returns the records to export, as a slice of the record type.
type ListFunc func(ctx context.Context, params ListParams) (any, error)

// ApplyFunc persists imported records and returns how many were changed.
type ApplyFunc func(ctx context.Context, records []any) (int, error)

// TypeDefinition contains everything needed to export and import one
// record type by key.
type TypeDefinition struct {
	Info  TypeInfo
	Type  reflect.Type // struct type of the records
	List  ListFunc
	Apply ApplyFunc // optional; nil means import is preview only
}

// CanApply reports whether imported records can be persisted.
func (d TypeDefinition) CanApply() bool {
	return d.Apply != nil
}

// Registry holds the exportable record types by key. It is safe for
// concurrent use.
type Registry struct {
	mu    sync.RWMutex
	types map[string]TypeDefinition
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{types: make(map[string]TypeDefinition)}
}

// Register adds a type definition. Keys must be unique.
func (r *Registry) Register(def TypeDefinition) error {
	if def.Info.Key == "" {
		return errors.New("type definition needs a key")
	}
	if def.Type == nil || def.List == nil {
		return fmt.Errorf("type %s needs a Type and a List func", def.Info.Key)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[def.Info.Key]; exists {
		return fmt.Errorf("type already registered: %s", def.Info.Key)
	}
	r.types[def.Info.Key] = def
	return nil
}

// Get returns a type definition by key.
func (r *Registry) Get(key string) (TypeDefinition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	def, ok := r.types[key]
	if !ok {
		return TypeDefinition{}, fmt.Errorf("%w: %s", ErrUnknownType, key)
	}
	return def, nil
}

// All returns all type definitions, sorted by group then by key.
func (r *Registry) All() []TypeDefinition {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]TypeDefinition, 0, len(r.types))
	for _, def := range r.types {
		result = append(result, def)
	}

	sort.Slice(result, func(i, j int) bool {
		if result[i].Info.Group != result[j].Info.Group {
			return result[i].Info.Group < result[j].Info.Group
		}
		return result[i].Info.Key < result[j].Info.Key
	})
	return result
}

// Keys returns all registered keys in the order of All.
func (r *Registry) Keys() []string {
	all := r.All()
	keys := make([]string, len(all))
	for i, def := range all {
		keys[i] = def.Info.Key
	}
	return keys
}
