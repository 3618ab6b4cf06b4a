// internal/refdb/db.go
package refdb

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"strings"
	"unicode"

	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
	"github.com/willf/bloom"

	"kite/internal/rank"
	"kite/internal/shingle"
)

// Header marker of a FASTA record.
const headerMarker = '>'

// bloomFP is the false-positive rate of the superset prefilter.
const bloomFP = 0.01

// Database is the set of reference signatures plus their union.
type Database struct {
	lens       shingle.Lengths
	separators string

	names    []string
	sigs     map[string]shingle.Set
	superset shingle.Set
	ordinal  int // records seen across all loads

	sealed bool
	filter *bloom.BloomFilter
}

// Option configures a Database.
type Option func(*Database)

// WithSeparators adds characters that end a record name in addition to
// whitespace (e.g. "|" for pipe-delimited headers).
func WithSeparators(chars string) Option {
	return func(d *Database) { d.separators = chars }
}

// New returns an empty database producing shingles of the given lengths.
func New(lens shingle.Lengths, opts ...Option) *Database {
	d := &Database{
		lens:     lens,
		sigs:     make(map[string]shingle.Set),
		superset: shingle.NewSet(1 << 16),
	}
	for _, o := range opts {
		o(d)
	}
	return d
}

// Lengths reports the configured shingle lengths.
func (d *Database) Lengths() shingle.Lengths { return d.lens }

// Len is the number of loaded references.
func (d *Database) Len() int { return len(d.names) }

// SupersetLen is the number of distinct shingles across all references.
func (d *Database) SupersetLen() int { return d.superset.Len() }

// Names returns reference names in load order.
func (d *Database) Names() []string { return append([]string(nil), d.names...) }

// HasShingle reports whether s belongs to at least one signature.
func (d *Database) HasShingle(s string) bool {
	if d.filter != nil && !d.filter.TestString(s) {
		return false
	}
	return d.superset.Has(s)
}

// Signature returns the shingle set of a reference.
func (d *Database) Signature(name string) (shingle.Set, error) {
	s, ok := d.sigs[name]
	if !ok {
		return nil, errors.Wrapf(ErrNotFound, "%q", name)
	}
	return s, nil
}

// Crosscheck ranks every reference against match.
func (d *Database) Crosscheck(match shingle.Member) []rank.Result {
	return rank.Crosscheck(d.names, func(n string) shingle.Set { return d.sigs[n] }, match)
}

// Seal freezes the database and builds the superset prefilter.
func (d *Database) Seal() {
	if d.sealed {
		return
	}
	d.sealed = true
	if n := d.superset.Len(); n > 0 {
		d.filter = bloom.NewWithEstimates(uint(n), bloomFP)
		for s := range d.superset {
			d.filter.AddString(s)
		}
	}
}

// Sealed reports whether Seal was called.
func (d *Database) Sealed() bool { return d.sealed }

// LoadPath opens path (plain or compressed, "-" for stdin) and loads it.
func (d *Database) LoadPath(path string) error {
	fh, err := xopen.Ropen(path)
	if err != nil {
		return ioErrorf(err, "open %s", path)
	}
	defer fh.Close()
	if err := d.Load(fh); err != nil {
		return errors.WithMessage(err, path)
	}
	return nil
}

// Load parses a multi-record FASTA stream and appends its records.
// Sequence lines seen before the first header form an unnamed record.
func (d *Database) Load(r io.Reader) error {
	if d.sealed {
		return ErrSealed
	}
	br := bufio.NewReaderSize(r, 1<<20)

	var (
		header  []byte
		seq     bytes.Buffer
		started bool
	)
	flush := func() error {
		defer seq.Reset()
		if !started && seq.Len() == 0 {
			return nil
		}
		return d.addRecord(header, seq.Bytes())
	}

	for {
		line, rerr := br.ReadBytes('\n')
		if rerr != nil && rerr != io.EOF {
			return ioErrorf(rerr, "read")
		}
		line = bytes.TrimRight(line, "\r\n")
		if len(line) > 0 && line[0] == headerMarker {
			if err := flush(); err != nil {
				return err
			}
			header = append(header[:0], line[1:]...)
			started = true
		} else {
			seq.Write(bytes.TrimSpace(line))
		}
		if rerr == io.EOF {
			return flush()
		}
	}
}

// addRecord names and shingles one record. Empty sequences are skipped but
// still consume an ordinal.
func (d *Database) addRecord(header, seq []byte) error {
	d.ordinal++
	if len(seq) == 0 {
		return nil
	}
	name := d.recordName(header)
	if _, dup := d.sigs[name]; dup {
		return errors.Wrapf(ErrDuplicateName, "%q", name)
	}
	sig := shingle.FromSequence(seq, d.lens)
	d.names = append(d.names, name)
	d.sigs[name] = sig
	d.superset.Union(sig)
	return nil
}

func (d *Database) recordName(header []byte) string {
	h := string(header)
	end := strings.IndexFunc(h, func(r rune) bool {
		return unicode.IsSpace(r) || strings.ContainsRune(d.separators, r)
	})
	if end >= 0 {
		h = h[:end]
	}
	if h == "" {
		return fmt.Sprintf("Virus-%d", d.ordinal)
	}
	return h
}
