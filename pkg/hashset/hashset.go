// Package hashset is a minimal generic set built on a map.
package hashset

type Set[T comparable] map[T]struct{}

func NewSet[T comparable]() Set[T] {
	return map[T]struct{}{}
}

func SetFromSlice[T comparable](vals []T) Set[T] {
	set := make(Set[T], len(vals))
	for _, v := range vals {
		set.Set(v)
	}
	return set
}

func (vs Set[T]) Set(v T) {
	vs[v] = struct{}{}
}

// Add inserts v and reports whether it was not already present.
func (vs Set[T]) Add(v T) bool {
	if vs.Has(v) {
		return false
	}
	vs[v] = struct{}{}
	return true
}

func (vs Set[T]) Has(v T) bool {
	_, ok := vs[v]
	return ok
}

func (vs Set[T]) HasAny(xs Set[T]) bool {
	for x := range xs {
		if vs.Has(x) {
			return true
		}
	}
	return false
}

// Remove returns the elements of vs that are not in xs.
func (vs Set[T]) Remove(xs Set[T]) Set[T] {
	result := NewSet[T]()
	for v := range vs {
		if !xs.Has(v) {
			result.Set(v)
		}
	}
	return result
}

func (vs Set[T]) Len() int {
	return len(vs)
}

// AsSlice returns the elements in no particular order.
func (vs Set[T]) AsSlice() []T {
	slice := make([]T, 0, len(vs))
	for s := range vs {
		slice = append(slice, s)
	}
	return slice
}
