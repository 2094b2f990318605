package ecs

import (
	"reflect"
	"unsafe"
)

// ComponentID identifies a component type inside one Registry.
// IDs are assigned in first-use order and are never reused.
type ComponentID uint32

// Detachable is implemented by components that own resources which must be
// released when the component leaves an entity (RemoveComponent or DestroyEntity).
// Detach is called on the stored instance before its slot is zeroed.
type Detachable interface {
	Detach()
}

// componentPool is type-erased, stride-addressed storage for one component
// type. Slot i lives at base + i*stride.
//
// The backing array is allocated with reflect.MakeSlice of the component type
// rather than as raw bytes, so pointers held inside components stay visible to
// the garbage collector.
type componentPool struct {
	typ    reflect.Type
	stride uintptr

	storage reflect.Value // []T, keeps the backing array alive
	base    unsafe.Pointer
	slots   int

	// destroy runs the component's teardown and zeroes the slot.
	destroy func(slot unsafe.Pointer)
}

func newComponentPool[T any]() *componentPool {
	typ := reflect.TypeFor[T]()
	return &componentPool{
		typ:    typ,
		stride: typ.Size(),
		destroy: func(slot unsafe.Pointer) {
			c := (*T)(slot)
			if d, ok := any(c).(Detachable); ok {
				d.Detach()
			}
			var zero T
			*c = zero
		},
	}
}

// grow resizes the pool to exactly entityCount slots when it is smaller.
// Existing slots are copied; pointers handed out before a grow keep pointing
// at the old array.
func (p *componentPool) grow(entityCount int) {
	if p.slots >= entityCount {
		return
	}
	s := reflect.MakeSlice(reflect.SliceOf(p.typ), entityCount, entityCount)
	if p.slots > 0 {
		reflect.Copy(s, p.storage)
	}
	p.storage = s
	p.base = s.UnsafePointer()
	p.slots = entityCount
}

// at returns the address of slot index. The caller guarantees index < p.slots.
func (p *componentPool) at(index EntityID) unsafe.Pointer {
	return unsafe.Add(p.base, uintptr(index)*p.stride)
}

// poolAdd stores value at slot id, growing the pool to entityCount slots first.
// Precondition: id < entityCount.
func poolAdd[T any](p *componentPool, id EntityID, entityCount int, value T) *T {
	p.grow(entityCount)
	slot := (*T)(p.at(id))
	*slot = value
	return slot
}

// poolAt reinterprets slot index as *T. No type tag is checked: the registry
// only reaches a pool through the ComponentID of T.
func poolAt[T any](p *componentPool, index EntityID) *T {
	return (*T)(p.at(index))
}
