package algorithms

import (
	"iter"
	"math"
)

// Nearest scans all candidates and returns the strictly closest one. On a tie
// the first candidate seen wins. ok is false when there are no candidates.
func Nearest[K comparable](query Point, candidates iter.Seq2[K, Point]) (key K, dist float64, ok bool) {
	dist = math.Inf(1)
	for k, p := range candidates {
		d := Distance(query, p)
		if d < dist {
			key, dist, ok = k, d, true
		}
	}
	return key, dist, ok
}
