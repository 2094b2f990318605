package ecs

import "math/bits"

// mask records which component types an entity currently holds. It grows on
// demand when a higher ComponentID is set; bits past the end read as unset.
type mask []uint64

func (m mask) has(id ComponentID) bool {
	w := int(id >> 6)
	if w >= len(m) {
		return false
	}
	return m[w]&(1<<(id&63)) != 0
}

func (m *mask) set(id ComponentID) {
	w := int(id >> 6)
	if w >= len(*m) {
		grown := make(mask, w+1)
		copy(grown, *m)
		*m = grown
	}
	(*m)[w] |= 1 << (id & 63)
}

func (m mask) clear(id ComponentID) {
	w := int(id >> 6)
	if w < len(m) {
		m[w] &^= 1 << (id & 63)
	}
}

// each calls fn for every set bit in ascending order.
func (m mask) each(fn func(ComponentID)) {
	for w, word := range m {
		for word != 0 {
			b := bits.TrailingZeros64(word)
			fn(ComponentID(w<<6 | b))
			word &= word - 1
		}
	}
}

func (m mask) count() int {
	n := 0
	for _, word := range m {
		n += bits.OnesCount64(word)
	}
	return n
}

func (m mask) reset() {
	for i := range m {
		m[i] = 0
	}
}
