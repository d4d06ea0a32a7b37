package model

import (
	"sync"

	"github.com/graphql-go/graphql"

	"gql-listkit/internal/qerr"
)

// Registry maps entity names to their descriptors and generated GraphQL
// object types. It is owned by the schema-construction context; nothing in
// this module keeps a process-wide registry.
type Registry struct {
	mu           sync.RWMutex
	entities     map[string]*Entity
	types        map[string]*graphql.Object
	filterPrints map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		entities:     make(map[string]*Entity),
		types:        make(map[string]*graphql.Object),
		filterPrints: make(map[string]string),
	}
}

// Register adds an entity. Registering two different descriptors under one
// name is a configuration error; re-registering the same descriptor is a
// no-op so independent field declarations can share an entity.
func (r *Registry) Register(e *Entity) error {
	if e == nil || e.Name == "" {
		return qerr.Configf("cannot register entity without a name")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.entities[e.Name]; ok {
		if existing != e {
			return qerr.Configf("entity %q is already registered with a different descriptor", e.Name)
		}
		return nil
	}
	r.entities[e.Name] = e
	return nil
}

// Entity returns the registered entity, or nil.
func (r *Registry) Entity(name string) *Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entities[name]
}

// Entities returns the registered entity names in no particular order.
func (r *Registry) Entities() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.entities))
	for name := range r.entities {
		names = append(names, name)
	}
	return names
}

// BindType associates the generated GraphQL object type with an entity so
// independently-declared fields reuse one type instance.
func (r *Registry) BindType(entityName string, obj *graphql.Object) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.types[entityName]; ok && existing != obj {
		return qerr.Configf("entity %q already has a bound GraphQL type", entityName)
	}
	r.types[entityName] = obj
	return nil
}

// Type returns the GraphQL object type bound to an entity, or nil.
func (r *Registry) Type(entityName string) *graphql.Object {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.types[entityName]
}

// BindFilterFingerprint records the canonical fingerprint of the filter spec
// compiled for an entity. Two GraphQL fields declared for the same entity
// must not diverge in filter semantics, so a second bind with a different
// fingerprint fails.
func (r *Registry) BindFilterFingerprint(entityName, fingerprint string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if existing, ok := r.filterPrints[entityName]; ok {
		if existing != fingerprint {
			return qerr.Configf("entity %q already has a filter spec with different semantics", entityName)
		}
		return nil
	}
	r.filterPrints[entityName] = fingerprint
	return nil
}
