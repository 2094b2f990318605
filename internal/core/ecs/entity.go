package ecs

import (
	"fmt"
	"math"
)

// EntityID is a direct index into the registry's mask rows and component pools.
type EntityID uint64

// InvalidEntityID marks an unbound entity.
const InvalidEntityID EntityID = math.MaxUint64

func (id EntityID) IsValid() bool { return id != InvalidEntityID }

// Entity is a non-owning handle: a registry plus an id. Copies alias the same
// entity, and dropping a handle never touches stored data. The zero Entity is
// unbound.
type Entity struct {
	registry *Registry
	id       EntityID
}

// NewEntity binds id to r without checking liveness.
func NewEntity(r *Registry, id EntityID) Entity {
	return Entity{registry: r, id: id}
}

func (e Entity) ID() EntityID {
	if e.registry == nil {
		return InvalidEntityID
	}
	return e.id
}

func (e Entity) Registry() *Registry { return e.registry }

// Valid reports whether the handle is bound and its id is live.
func (e Entity) Valid() bool {
	return e.registry != nil && e.registry.IsAlive(e.id)
}

func (e Entity) String() string {
	if e.registry == nil {
		return "Entity(unbound)"
	}
	return fmt.Sprintf("Entity(%d)", e.id)
}

// Add attaches value to e. See AddComponent.
func Add[T any](e Entity, value T) (*T, error) {
	if e.registry == nil {
		return nil, ErrUnboundEntity
	}
	return AddComponent(e.registry, e.id, value)
}

// Get returns e's component of type T. See GetComponent.
func Get[T any](e Entity) (*T, error) {
	if e.registry == nil {
		return nil, ErrUnboundEntity
	}
	return GetComponent[T](e.registry, e.id)
}

// Has reports whether e holds a component of type T.
func Has[T any](e Entity) bool {
	return e.registry != nil && HasComponent[T](e.registry, e.id)
}

// Remove detaches e's component of type T, if any.
func Remove[T any](e Entity) {
	if e.registry != nil {
		RemoveComponent[T](e.registry, e.id)
	}
}
