package utils

// UniqueSlice drops repeated values in place, keeping first occurrences
// in their original order.
func UniqueSlice[K comparable](a []K) []K {
	seen := make(map[K]bool, len(a))
	unique := a[:0]
	for _, v := range a {
		if seen[v] {
			continue
		}
		seen[v] = true
		unique = append(unique, v)
	}
	return unique
}
