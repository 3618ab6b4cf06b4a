package shingle

import (
	"strings"
	"testing"
)

func TestParseLengths(t *testing.T) {
	cases := []struct {
		in   string
		want string
		err  bool
	}{
		{"31", "31", false},
		{" 31 , 21,21", "[21 31]", false},
		{"x,0,-3,18", "18", false},
		{"", "", true},
		{"abc", "", true},
	}
	for _, c := range cases {
		got, err := ParseLengths(c.in)
		if c.err {
			if err == nil {
				t.Errorf("%q: expected error", c.in)
			}
			continue
		}
		if err != nil {
			t.Fatalf("%q: %v", c.in, err)
		}
		if got.String() != c.want {
			t.Errorf("%q: want %s, got %s", c.in, c.want, got)
		}
	}
	if (Lengths{}).String() != "-" {
		t.Fatal("empty lengths should render as -")
	}
}

func TestSignatureSize(t *testing.T) {
	ls, _ := NewLengths(4)
	for _, seq := range []string{"ACGTTGCAAGGCTTAC", "ACGT", "ACG", ""} {
		n := 0
		EachRef([]byte(seq), ls, func(string) { n++ })
		want := len(seq) - 4
		if want < 0 {
			want = 0
		}
		if n != want {
			t.Errorf("%q: want %d offsets, got %d", seq, want, n)
		}
	}
	sig := FromSequence([]byte("AAAAAAAA"), ls)
	if sig.Len() != 1 || !sig.Has("AAAA") {
		t.Fatalf("duplicates should collapse, got %v", sig.Slice())
	}
}

func TestEachMultiLength(t *testing.T) {
	ls, _ := NewLengths(2, 3)
	var got []string
	Each([]byte("ACGT"), ls, func(s string) { got = append(got, s) })
	want := "AC ACG CG CGT"
	if strings.Join(got, " ") != want {
		t.Fatalf("want %q, got %q", want, strings.Join(got, " "))
	}
	got = got[:0]
	Each([]byte("AC"), ls, func(s string) { got = append(got, s) })
	if len(got) != 0 {
		t.Fatalf("buffer shorter than lmax must yield nothing, got %v", got)
	}
}

func TestIntersectionSize(t *testing.T) {
	a := NewSet(0)
	b := NewSet(0)
	for _, s := range []string{"A", "B", "C"} {
		a.Add(s)
	}
	b.Add("B")
	b.Add("Z")
	if a.IntersectionSize(b) != 1 || b.IntersectionSize(a) != 1 {
		t.Fatal("intersection should be 1 in both directions")
	}
}
