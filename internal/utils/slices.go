package utils

// Filter reduces s, in place, to the elements keep returns true for.
func Filter[T any](s []T, keep func(T) bool) []T {
	out := s[:0]
	for _, e := range s {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}
