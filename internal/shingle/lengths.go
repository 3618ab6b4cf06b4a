// internal/shingle/lengths.go
package shingle

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Lengths is an ascending, de-duplicated list of positive shingle lengths.
type Lengths []int

// ParseLengths parses a comma separated list such as "31" or "21,31".
// Fields that are not positive integers are dropped; at least one must remain.
func ParseLengths(s string) (Lengths, error) {
	seen := make(map[int]struct{})
	var out Lengths
	for _, f := range strings.Split(s, ",") {
		f = strings.TrimSpace(f)
		if f == "" {
			continue
		}
		n, err := strconv.Atoi(f)
		if err != nil || n <= 0 {
			continue
		}
		if _, dup := seen[n]; dup {
			continue
		}
		seen[n] = struct{}{}
		out = append(out, n)
	}
	if len(out) == 0 {
		return nil, errors.Errorf("no valid shingle length in %q", s)
	}
	sort.Ints(out)
	return out, nil
}

// NewLengths normalizes ls (sort, dedupe, drop non-positive).
func NewLengths(ls ...int) (Lengths, error) {
	parts := make([]string, len(ls))
	for i, l := range ls {
		parts[i] = strconv.Itoa(l)
	}
	return ParseLengths(strings.Join(parts, ","))
}

// Max returns the longest configured length (0 when empty).
func (ls Lengths) Max() int {
	if len(ls) == 0 {
		return 0
	}
	return ls[len(ls)-1]
}

// Overlap is the number of trailing bases a chunk must hand over to the next
// one so that no shingle spanning the cut is lost.
func (ls Lengths) Overlap() int {
	if m := ls.Max(); m > 0 {
		return m - 1
	}
	return 0
}

func (ls Lengths) String() string {
	switch len(ls) {
	case 0:
		return "-"
	case 1:
		return strconv.Itoa(ls[0])
	default:
		return fmt.Sprint([]int(ls))
	}
}
