package models

// SortPair orders two user ids lexicographically.
func SortPair(a, b string) (string, string) {
	if a < b {
		return a, b
	}
	return b, a
}

// PairID derives the deterministic id for an unordered user pair. Both
// participants compute the same id independently, and distinct pairs map to
// distinct ids because user ids never contain the separator.
func PairID(a, b string) string {
	lo, hi := SortPair(a, b)
	return lo + "_" + hi
}
