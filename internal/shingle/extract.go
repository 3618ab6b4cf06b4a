// internal/shingle/extract.go
package shingle

// Each calls fn for every shingle of every configured length that starts at an
// offset i with i+lmax <= len(seq). Sequences shorter than lmax yield nothing.
func Each(seq []byte, ls Lengths, fn func(string)) {
	each(seq, ls, len(seq)-ls.Max()+1, fn)
}

// EachRef applies the reference-database rule: start offsets run over
// [0, len(seq)-lmax), so a record of length L yields max(0, L-l) offsets.
func EachRef(seq []byte, ls Lengths, fn func(string)) {
	each(seq, ls, len(seq)-ls.Max(), fn)
}

func each(seq []byte, ls Lengths, offsets int, fn func(string)) {
	if len(ls) == 0 {
		return
	}
	for i := 0; i < offsets; i++ {
		for _, l := range ls {
			fn(string(seq[i : i+l]))
		}
	}
}

// FromSequence builds the reference signature of seq.
func FromSequence(seq []byte, ls Lengths) Set {
	n := len(seq) - ls.Max()
	if n < 0 {
		n = 0
	}
	s := NewSet(n * len(ls))
	EachRef(seq, ls, s.Add)
	return s
}
