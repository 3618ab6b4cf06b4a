// Package matrix computes the all-vs-all containment matrix of the reference
// signatures, a sanity check of how distinguishable the references are.
package matrix

import "strings"

// NaturalLess orders strings by alternating non-digit and digit runs; digit
// runs compare numerically, so "HPV2" < "HPV16" < "HPV16a".
func NaturalLess(a, b string) bool { return naturalCompare(a, b) < 0 }

func naturalCompare(a, b string) int {
	for a != "" && b != "" {
		var ta, da, tb, db string
		ta, da, a = nextRun(a)
		tb, db, b = nextRun(b)
		if c := strings.Compare(ta, tb); c != 0 {
			return c
		}
		switch {
		case da == "" && db == "":
			continue
		case da == "":
			return -1
		case db == "":
			return 1
		}
		if c := compareDigits(da, db); c != 0 {
			return c
		}
	}
	switch {
	case a == "" && b == "":
		return 0
	case a == "":
		return -1
	}
	return 1
}

// nextRun splits s into its leading non-digit run, the digit run after it,
// and the remainder.
func nextRun(s string) (text, digits, rest string) {
	i := 0
	for i < len(s) && !isDigit(s[i]) {
		i++
	}
	j := i
	for j < len(s) && isDigit(s[j]) {
		j++
	}
	return s[:i], s[i:j], s[j:]
}

func compareDigits(a, b string) int {
	a = strings.TrimLeft(a, "0")
	b = strings.TrimLeft(b, "0")
	if len(a) != len(b) {
		if len(a) < len(b) {
			return -1
		}
		return 1
	}
	return strings.Compare(a, b)
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }
