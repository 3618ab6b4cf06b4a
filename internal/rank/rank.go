// Package rank scores a match set against reference signatures and orders
// the results.
package rank

import (
	"math"
	"sort"

	"kite/internal/shingle"
)

// Result is the containment score of one reference.
type Result struct {
	Name  string
	Score float64
}

// Containment returns |match ∩ sig| / |sig|. An empty signature yields NaN.
func Containment(match shingle.Member, sig shingle.Set) float64 {
	if sig.Len() == 0 {
		return math.NaN()
	}
	return float64(sig.IntersectionSize(match)) / float64(sig.Len())
}

// Crosscheck scores every name (in the given order) and returns the results
// sorted by Less.
func Crosscheck(names []string, sig func(string) shingle.Set, match shingle.Member) []Result {
	rs := make([]Result, 0, len(names))
	for _, n := range names {
		rs = append(rs, Result{Name: n, Score: Containment(match, sig(n))})
	}
	Sort(rs)
	return rs
}

// Less orders by score descending, then name ascending. NaN scores sort after
// every number so the order stays total.
func Less(a, b Result) bool {
	an, bn := math.IsNaN(a.Score), math.IsNaN(b.Score)
	switch {
	case an != bn:
		return bn
	case !an && a.Score != b.Score:
		return a.Score > b.Score
	}
	return a.Name < b.Name
}

func Sort(rs []Result) {
	sort.Slice(rs, func(i, j int) bool { return Less(rs[i], rs[j]) })
}

// Top returns the first k results; k <= 0 keeps all.
func Top(rs []Result, k int) []Result {
	if k <= 0 || k >= len(rs) {
		return rs
	}
	return rs[:k]
}
