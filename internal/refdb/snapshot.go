// internal/refdb/snapshot.go
package refdb

import (
	"encoding/gob"
	"io"

	"github.com/golang/snappy"
	"github.com/pkg/errors"

	"kite/internal/shingle"
)

// snapshot is the wire form of a Database. The superset is derived and is
// never part of it.
type snapshot struct {
	Lengths    []int
	Separators string
	Ordinal    int
	Names      []string
	Shingles   [][]string
}

// WriteSnapshot encodes the database (snappy-compressed gob).
func (d *Database) WriteSnapshot(w io.Writer) error {
	snap := snapshot{
		Lengths:    d.lens,
		Separators: d.separators,
		Ordinal:    d.ordinal,
		Names:      d.names,
		Shingles:   make([][]string, len(d.names)),
	}
	for i, n := range d.names {
		snap.Shingles[i] = d.sigs[n].Slice()
	}
	sw := snappy.NewBufferedWriter(w)
	if err := gob.NewEncoder(sw).Encode(&snap); err != nil {
		return errors.Wrap(err, "encode database snapshot")
	}
	return errors.Wrap(sw.Close(), "flush database snapshot")
}

// ReadSnapshot decodes a database written by WriteSnapshot and rebuilds its
// superset. The returned database is sealed.
func ReadSnapshot(r io.Reader) (*Database, error) {
	var snap snapshot
	if err := gob.NewDecoder(snappy.NewReader(r)).Decode(&snap); err != nil {
		return nil, errors.Wrap(err, "decode database snapshot")
	}
	if len(snap.Names) != len(snap.Shingles) {
		return nil, errors.Errorf("corrupt snapshot: %d names, %d signatures", len(snap.Names), len(snap.Shingles))
	}
	d := New(shingle.Lengths(snap.Lengths), WithSeparators(snap.Separators))
	d.ordinal = snap.Ordinal
	for i, n := range snap.Names {
		sig := shingle.NewSet(len(snap.Shingles[i]))
		for _, s := range snap.Shingles[i] {
			sig.Add(s)
		}
		d.names = append(d.names, n)
		d.sigs[n] = sig
	}
	d.rebuildSuperset()
	d.Seal()
	return d, nil
}

// rebuildSuperset recomputes the union from the signature map.
func (d *Database) rebuildSuperset() {
	d.superset = shingle.NewSet(d.superset.Len())
	for _, sig := range d.sigs {
		d.superset.Union(sig)
	}
}
