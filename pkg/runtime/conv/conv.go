// Package conv projects collection elements for generated conversion
// constructors.
package conv

// Slice maps every element of in through fn. A nil slice stays nil.
func Slice[S ~[]E, E, R any](in S, fn func(E) R) []R {
	if in == nil {
		return nil
	}
	out := make([]R, len(in))
	for i, e := range in {
		out[i] = fn(e)
	}
	return out
}

// Set maps every member of in through fn. A nil set stays nil.
func Set[M ~map[K]struct{}, K, R comparable](in M, fn func(K) R) map[R]struct{} {
	if in == nil {
		return nil
	}
	out := make(map[R]struct{}, len(in))
	for k := range in {
		out[fn(k)] = struct{}{}
	}
	return out
}
