package ecs

// Queries walk ids in ascending order and visit only live entities whose mask
// holds every requested type. Entities created during a walk are not visited.

// Each visits every entity holding a T.
func Each[T any](r *Registry, fn func(EntityID, *T)) {
	cid, ok := lookupComponentID[T](r)
	if !ok {
		return
	}
	n := EntityID(len(r.masks))
	for id := EntityID(0); id < n; id++ {
		if r.masks[id].has(cid) {
			fn(id, poolAt[T](r.pools[cid], id))
		}
	}
}

// Each2 visits every entity holding both an A and a B.
func Each2[A, B any](r *Registry, fn func(EntityID, *A, *B)) {
	ca, okA := lookupComponentID[A](r)
	cb, okB := lookupComponentID[B](r)
	if !okA || !okB {
		return
	}
	n := EntityID(len(r.masks))
	for id := EntityID(0); id < n; id++ {
		m := r.masks[id]
		if m.has(ca) && m.has(cb) {
			fn(id, poolAt[A](r.pools[ca], id), poolAt[B](r.pools[cb], id))
		}
	}
}

// Each3 visits every entity holding an A, a B and a C.
func Each3[A, B, C any](r *Registry, fn func(EntityID, *A, *B, *C)) {
	ca, okA := lookupComponentID[A](r)
	cb, okB := lookupComponentID[B](r)
	cc, okC := lookupComponentID[C](r)
	if !okA || !okB || !okC {
		return
	}
	n := EntityID(len(r.masks))
	for id := EntityID(0); id < n; id++ {
		m := r.masks[id]
		if m.has(ca) && m.has(cb) && m.has(cc) {
			fn(id, poolAt[A](r.pools[ca], id), poolAt[B](r.pools[cb], id), poolAt[C](r.pools[cc], id))
		}
	}
}

// Count returns the number of live entities holding a T.
func Count[T any](r *Registry) int {
	n := 0
	Each(r, func(EntityID, *T) { n++ })
	return n
}
