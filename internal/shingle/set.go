// internal/shingle/set.go
package shingle

import "sort"

// Set is a set of shingles. The zero value is not usable; use NewSet.
type Set map[string]struct{}

func NewSet(capacity int) Set { return make(Set, capacity) }

func (s Set) Add(sh string) { s[sh] = struct{}{} }

func (s Set) Has(sh string) bool {
	_, ok := s[sh]
	return ok
}

func (s Set) Len() int { return len(s) }

// Union adds every member of o to s.
func (s Set) Union(o Set) {
	for k := range o {
		s[k] = struct{}{}
	}
}

// Member is the read side shared by Set and concurrent match sets.
type Member interface {
	Has(string) bool
	Len() int
}

// IntersectionSize counts members of s that are also in o, walking the
// smaller side when both are plain sets.
func (s Set) IntersectionSize(o Member) int {
	if os, ok := o.(Set); ok && len(os) < len(s) {
		return os.IntersectionSize(s)
	}
	n := 0
	for k := range s {
		if o.Has(k) {
			n++
		}
	}
	return n
}

// Slice returns the members in lexical order.
func (s Set) Slice() []string {
	out := make([]string, 0, len(s))
	for k := range s {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
