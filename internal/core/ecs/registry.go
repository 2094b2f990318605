package ecs

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrMissingComponent is returned when an entity lacks a requested component.
	ErrMissingComponent = errors.New("ecs: missing component")

	// ErrDeadEntity is returned for ids that were never created or were destroyed.
	ErrDeadEntity = errors.New("ecs: entity is not alive")

	// ErrUnboundEntity is returned by Entity helpers called on the zero Entity.
	ErrUnboundEntity = errors.New("ecs: entity is not bound to a registry")
)

// Registry stores components keyed by (EntityID, component type).
//
// Every pool is sized to the high-water mark of created entities, so an id
// indexes a pool directly. Presence is tracked only by the per-entity mask;
// pool bytes of absent components are zeroed but not reclaimed.
//
// A Registry is not safe for concurrent use.
type Registry struct {
	componentIDs map[reflect.Type]ComponentID
	pools        []*componentPool // one per component type, indexed by ComponentID
	masks        []mask           // one per entity id ever created

	free    []EntityID // recycled ids, reissued LIFO
	freeSet map[EntityID]struct{}
}

func NewRegistry() *Registry {
	return &Registry{
		componentIDs: make(map[reflect.Type]ComponentID, 16),
		pools:        make([]*componentPool, 0, 16),
		masks:        make([]mask, 0, 256),
		freeSet:      make(map[EntityID]struct{}),
	}
}

// CreateEntity reissues a freed id when one exists, otherwise appends a new
// mask row. No component data is touched.
func (r *Registry) CreateEntity() Entity {
	if n := len(r.free); n > 0 {
		id := r.free[n-1]
		r.free = r.free[:n-1]
		delete(r.freeSet, id)
		return Entity{registry: r, id: id}
	}
	r.masks = append(r.masks, nil)
	return Entity{registry: r, id: EntityID(len(r.masks) - 1)}
}

// DestroyEntity detaches every component of id and returns the id to the free set.
func (r *Registry) DestroyEntity(id EntityID) error {
	if !r.IsAlive(id) {
		return fmt.Errorf("%w: %d", ErrDeadEntity, id)
	}
	m := r.masks[id]
	m.each(func(cid ComponentID) {
		r.pools[cid].destroy(r.pools[cid].at(id))
	})
	m.reset()
	r.free = append(r.free, id)
	r.freeSet[id] = struct{}{}
	return nil
}

// IsAlive reports whether id has a mask row and is not in the free set.
func (r *Registry) IsAlive(id EntityID) bool {
	if id >= EntityID(len(r.masks)) {
		return false
	}
	_, freed := r.freeSet[id]
	return !freed
}

// EntityCount is the number of mask rows, i.e. the highest id ever issued plus one.
func (r *Registry) EntityCount() int { return len(r.masks) }

// LiveCount is the number of ids currently in use.
func (r *Registry) LiveCount() int { return len(r.masks) - len(r.free) }

// PoolCount is the number of component types registered so far.
func (r *Registry) PoolCount() int { return len(r.pools) }

// ComponentCount returns how many components id currently holds.
func (r *Registry) ComponentCount(id EntityID) int {
	if !r.IsAlive(id) {
		return 0
	}
	return r.masks[id].count()
}

func (r *Registry) String() string {
	return fmt.Sprintf("EntityRegistry with %d component pools and %d entities", len(r.pools), len(r.masks))
}

// componentID returns the id of T, registering a new pool on first use.
func componentID[T any](r *Registry) ComponentID {
	t := reflect.TypeFor[T]()
	if id, ok := r.componentIDs[t]; ok {
		return id
	}
	id := ComponentID(len(r.pools))
	r.componentIDs[t] = id
	r.pools = append(r.pools, newComponentPool[T]())
	return id
}

// lookupComponentID returns the id of T without registering it.
func lookupComponentID[T any](r *Registry) (ComponentID, bool) {
	id, ok := r.componentIDs[reflect.TypeFor[T]()]
	return id, ok
}

// ComponentIDOf returns the registry-scoped id of T, registering T if needed.
func ComponentIDOf[T any](r *Registry) ComponentID {
	return componentID[T](r)
}

// AddComponent stores value as id's component of type T and returns a pointer
// to the stored instance. If id already holds a T the existing instance is
// returned unchanged and value is discarded; a discarded value implementing
// Detachable is detached so resources it owns are not leaked.
//
// The pointer stays valid until a later AddComponent grows the pool of T.
func AddComponent[T any](r *Registry, id EntityID, value T) (*T, error) {
	if !r.IsAlive(id) {
		return nil, fmt.Errorf("%w: %d", ErrDeadEntity, id)
	}
	cid := componentID[T](r)
	pool := r.pools[cid]
	if r.masks[id].has(cid) {
		if d, ok := any(&value).(Detachable); ok {
			d.Detach()
		}
		return poolAt[T](pool, id), nil
	}
	r.masks[id].set(cid)
	return poolAdd(pool, id, len(r.masks), value), nil
}

// GetComponent returns id's component of type T, or an error wrapping
// ErrMissingComponent that names the entity and the type.
func GetComponent[T any](r *Registry, id EntityID) (*T, error) {
	cid, ok := lookupComponentID[T](r)
	if !ok || !r.IsAlive(id) || !r.masks[id].has(cid) {
		return nil, fmt.Errorf("%w: entity %d does not have the requested component %s",
			ErrMissingComponent, id, reflect.TypeFor[T]())
	}
	return poolAt[T](r.pools[cid], id), nil
}

// GetComponents2 fetches A then B, failing on the first missing type.
func GetComponents2[A, B any](r *Registry, id EntityID) (*A, *B, error) {
	a, err := GetComponent[A](r, id)
	if err != nil {
		return nil, nil, err
	}
	b, err := GetComponent[B](r, id)
	if err != nil {
		return nil, nil, err
	}
	return a, b, nil
}

// GetComponents3 fetches A, B then C, failing on the first missing type.
func GetComponents3[A, B, C any](r *Registry, id EntityID) (*A, *B, *C, error) {
	a, b, err := GetComponents2[A, B](r, id)
	if err != nil {
		return nil, nil, nil, err
	}
	c, err := GetComponent[C](r, id)
	if err != nil {
		return nil, nil, nil, err
	}
	return a, b, c, nil
}

// HasComponent is false when T was never registered, when id is not alive,
// or when id's mask bit for T is unset.
func HasComponent[T any](r *Registry, id EntityID) bool {
	cid, ok := lookupComponentID[T](r)
	if !ok || !r.IsAlive(id) {
		return false
	}
	return r.masks[id].has(cid)
}

func HasComponents2[A, B any](r *Registry, id EntityID) bool {
	return HasComponent[A](r, id) && HasComponent[B](r, id)
}

func HasComponents3[A, B, C any](r *Registry, id EntityID) bool {
	return HasComponents2[A, B](r, id) && HasComponent[C](r, id)
}

// RemoveComponent detaches id's component of type T. Absent components are a no-op.
func RemoveComponent[T any](r *Registry, id EntityID) {
	cid, ok := lookupComponentID[T](r)
	if !ok || !r.IsAlive(id) || !r.masks[id].has(cid) {
		return
	}
	r.masks[id].clear(cid)
	pool := r.pools[cid]
	pool.destroy(pool.at(id))
}
