package rhi

import (
	"fmt"
	"reflect"
)

// Retainable is the intrusive reference-counting contract shared by every
// RHI resource.
type Retainable interface {
	Retain()
	Release()
	RetainCount() int
}

// Object is an embeddable intrusive reference count. The zero value holds one
// reference, owned by whoever constructed the enclosing resource; that owner
// must wrap it in a Ref or call Release itself.
//
// Counts are plain integers. Objects must not be shared across goroutines
// without external synchronization.
type Object struct {
	extra     int // references beyond the constructing one
	destroyed bool
	onDestroy func()
}

// OnDestroy installs the teardown run exactly once, when the count drops from
// one to zero. Resources call it from their constructor.
func (o *Object) OnDestroy(fn func()) { o.onDestroy = fn }

func (o *Object) Retain() {
	if o.destroyed {
		panic("rhi: Retain on destroyed object")
	}
	o.extra++
}

// Release drops one reference and destroys the object on the last one.
// Releasing a destroyed object panics, as sync.WaitGroup does for a negative
// counter.
func (o *Object) Release() {
	if o.destroyed {
		panic("rhi: negative retain count")
	}
	if o.extra > 0 {
		o.extra--
		return
	}
	o.destroyed = true
	if o.onDestroy != nil {
		o.onDestroy()
	}
}

func (o *Object) RetainCount() int {
	if o.destroyed {
		return 0
	}
	return o.extra + 1
}

// Destroyed reports whether the last reference has been released.
func (o *Object) Destroyed() bool { return o.destroyed }

// Ref owns one reference to a T. Go has no copy constructors or destructors,
// so ownership transfers are spelled out: Clone copies (retain), Move
// transfers, Release ends the scope.
//
// The zero Ref is empty.
type Ref[T Retainable] struct {
	obj   T
	valid bool
}

// NewRef adopts the reference the caller already holds on obj, typically the
// one returned by a Device factory. A nil obj yields an empty Ref.
func NewRef[T Retainable](obj T) Ref[T] {
	if isNil(obj) {
		return Ref[T]{}
	}
	return Ref[T]{obj: obj, valid: true}
}

// Retained takes a new reference on a borrowed obj.
func Retained[T Retainable](obj T) Ref[T] {
	r := NewRef(obj)
	if r.valid {
		r.obj.Retain()
	}
	return r
}

// Adopt wraps the result of a factory call so that
//
//	buf, err := rhi.Adopt(device.CreateBuffer(desc))
//
// yields an owning Ref or the factory error.
func Adopt[T Retainable](obj T, err error) (Ref[T], error) {
	if err != nil {
		return Ref[T]{}, err
	}
	return NewRef(obj), nil
}

func (r Ref[T]) Get() T      { return r.obj }
func (r Ref[T]) Valid() bool { return r.valid }

// RetainCount is the shared count of the pointee, or zero for an empty Ref.
func (r Ref[T]) RetainCount() int {
	if !r.valid {
		return 0
	}
	return r.obj.RetainCount()
}

// Clone returns a second owning Ref to the same object.
func (r Ref[T]) Clone() Ref[T] {
	if r.valid {
		r.obj.Retain()
	}
	return r
}

// Move transfers ownership to the returned Ref and empties r.
func (r *Ref[T]) Move() Ref[T] {
	out := *r
	*r = Ref[T]{}
	return out
}

// Release drops r's reference, if any, and empties r. It is safe to call on
// an empty Ref.
func (r *Ref[T]) Release() {
	if !r.valid {
		return
	}
	obj := r.obj
	*r = Ref[T]{}
	obj.Release()
}

// Assign makes r share other's object. The new object is retained before the
// old one is released, so assigning an alias never drops the count to zero.
func (r *Ref[T]) Assign(other Ref[T]) {
	if other.valid {
		other.obj.Retain()
	}
	old := *r
	*r = other
	if old.valid {
		old.obj.Release()
	}
}

// Reset adopts obj's existing reference in place of r's current one.
func (r *Ref[T]) Reset(obj T) {
	old := *r
	*r = NewRef(obj)
	if old.valid {
		old.obj.Release()
	}
}

func (r *Ref[T]) Swap(other *Ref[T]) { *r, *other = *other, *r }

func (r Ref[T]) String() string {
	if !r.valid {
		return "Ref(nil)"
	}
	return fmt.Sprintf("Ref(%T, count=%d)", r.obj, r.obj.RetainCount())
}

// As converts r to a Ref of another view of the same object, sharing its single
// count. The conversion is checked at run time; on success the result holds
// its own reference and must be released independently of r.
func As[U, T Retainable](r Ref[T]) (Ref[U], bool) {
	if !r.valid {
		return Ref[U]{}, false
	}
	u, ok := any(r.obj).(U)
	if !ok {
		return Ref[U]{}, false
	}
	u.Retain()
	return Ref[U]{obj: u, valid: true}, true
}

func isNil(v any) bool {
	if v == nil {
		return true
	}
	switch rv := reflect.ValueOf(v); rv.Kind() {
	case reflect.Pointer, reflect.Interface, reflect.Map, reflect.Slice, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
