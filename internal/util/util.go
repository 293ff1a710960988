// Package util holds small generic helpers shared across packages,
// adapted from the teacher's util/util.go.
package util

import (
	"sort"
)

// TransformSlice applies converter to each element of in and returns a
// new slice of the results.
func TransformSlice[T any, R any](in []T, converter func(T) R) []R {
	out := make([]R, len(in))
	for i, v := range in {
		out[i] = converter(v)
	}
	return out
}

// CanonicalMapIter returns a push iterator that yields map entries in
// sorted key order, for deterministic rendering regardless of Go's
// randomized map iteration.
func CanonicalMapIter[T any](m map[string]T) func(yield func(string, T) bool) {
	return func(yield func(string, T) bool) {
		keys := make([]string, 0, len(m))
		for k := range m {
			keys = append(keys, k)
		}
		sort.Strings(keys)

		for _, k := range keys {
			if !yield(k, m[k]) {
				return
			}
		}
	}
}
