package event

import (
	"reflect"
	"sync"
)

// Handler receives an event and reports whether it consumed it. Dispatch stops
// at the first handler returning true.
type Handler[T any] func(T) bool

// Subscription identifies a registered handler.
type Subscription struct {
	typ reflect.Type
	id  uint64
}

type entry struct {
	id uint64
	fn func(any) bool
}

type queued struct {
	typ reflect.Type
	ev  any
}

// Bus delivers typed events either immediately (Dispatch) or double-buffered
// (Emit): events emitted during frame N are delivered by DispatchAll after
// the SwapBuffers that starts frame N+1.
type Bus struct {
	mu       sync.Mutex // only protects handler registration
	nextID   uint64
	front    []queued
	back     []queued
	handlers map[reflect.Type][]entry
}

func NewBus() *Bus {
	return &Bus{
		handlers: make(map[reflect.Type][]entry),
	}
}

// Subscribe registers fn for events of type T. Handlers run in registration order.
func Subscribe[T any](b *Bus, fn Handler[T]) Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()
	t := reflect.TypeFor[T]()
	b.nextID++
	b.handlers[t] = append(b.handlers[t], entry{
		id: b.nextID,
		fn: func(ev any) bool { return fn(ev.(T)) },
	})
	return Subscription{typ: t, id: b.nextID}
}

// Unsubscribe removes the handler behind s. Unknown subscriptions are ignored.
func (b *Bus) Unsubscribe(s Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	hs := b.handlers[s.typ]
	for i, h := range hs {
		if h.id == s.id {
			b.handlers[s.typ] = append(hs[:i:i], hs[i+1:]...)
			return
		}
	}
}

// HandlerCount returns the number of handlers subscribed to T.
func HandlerCount[T any](b *Bus) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.handlers[reflect.TypeFor[T]()])
}

// Dispatch delivers ev to T's handlers now and reports whether one consumed it.
func Dispatch[T any](b *Bus, ev T) bool {
	return b.deliver(reflect.TypeFor[T](), ev)
}

// Emit queues ev into the back buffer.
func Emit[T any](b *Bus, ev T) {
	b.back = append(b.back, queued{typ: reflect.TypeFor[T](), ev: ev})
}

// SwapBuffers rotates back to front and clears the new back buffer.
// Called once at frame start.
func (b *Bus) SwapBuffers() {
	b.front, b.back = b.back, b.front[:0]
}

// DispatchAll delivers all front-buffer events in emission order.
func (b *Bus) DispatchAll() {
	for _, q := range b.front {
		b.deliver(q.typ, q.ev)
	}
}

// Pending is the number of events waiting in the back buffer.
func (b *Bus) Pending() int { return len(b.back) }

func (b *Bus) deliver(t reflect.Type, ev any) bool {
	b.mu.Lock()
	hs := b.handlers[t]
	b.mu.Unlock()
	for _, h := range hs {
		if h.fn(ev) {
			return true
		}
	}
	return false
}
