package matrix

import (
	"bufio"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/pkg/errors"

	"kite/internal/matcher"
	"kite/internal/rank"
	"kite/internal/shingle"
)

// Source is the part of the reference database a matrix needs.
type Source interface {
	Names() []string
	Signature(name string) (shingle.Set, error)
}

// Matrix holds Cells[i][j] = containment of Names[i]'s signature in
// Names[j]'s, i.e. |Si ∩ Sj| / |Sj|.
type Matrix struct {
	Names []string
	Cells [][]float64
}

// Build computes the matrix with rows spread over pool; names are in natural
// order.
func Build(src Source, pool *matcher.Pool) (*Matrix, error) {
	names := src.Names()
	sort.SliceStable(names, func(i, j int) bool { return NaturalLess(names[i], names[j]) })
	sigs := make([]shingle.Set, len(names))
	for i, n := range names {
		s, err := src.Signature(n)
		if err != nil {
			return nil, err
		}
		sigs[i] = s
	}
	m := &Matrix{Names: names, Cells: make([][]float64, len(names))}
	var wg sync.WaitGroup
	for i := range names {
		i := i
		wg.Add(1)
		pool.Submit(func() {
			defer wg.Done()
			row := make([]float64, len(names))
			for j := range names {
				row[j] = rank.Containment(sigs[i], sigs[j])
			}
			m.Cells[i] = row
		})
	}
	wg.Wait()
	return m, nil
}

// Write prints a tab separated matrix with a header row of names.
func (m *Matrix) Write(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for _, n := range m.Names {
		fmt.Fprintf(bw, "\t%s", n)
	}
	fmt.Fprintln(bw)
	for i, n := range m.Names {
		bw.WriteString(n)
		for _, v := range m.Cells[i] {
			fmt.Fprintf(bw, "\t%.6f", v)
		}
		fmt.Fprintln(bw)
	}
	return errors.Wrap(bw.Flush(), "write matrix")
}
