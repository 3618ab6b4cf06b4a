// internal/matcher/matcher.go
package matcher

import (
	"context"
	"io"
	"sync"
	"time"

	"github.com/pkg/errors"

	"kite/internal/seqio"
	"kite/internal/shingle"
)

// Filter is the membership test a Matcher needs from the reference database.
type Filter interface {
	HasShingle(string) bool
}

// Config controls how input files are read and shingled.
type Config struct {
	Lengths   shingle.Lengths
	Threshold int // processing buffer in bases
	ReaderBuf int
	Open      seqio.OpenOptions
}

// Stats describes one matched file.
type Stats struct {
	Chunks  int
	Bases   int64
	Elapsed time.Duration
}

// Matcher extracts the matching shingles of input files.
type Matcher struct {
	cfg    Config
	filter Filter
	pool   *Pool
}

func New(cfg Config, filter Filter, pool *Pool) *Matcher {
	return &Matcher{cfg: cfg, filter: filter, pool: pool}
}

// MatchFile opens path and returns its MatchSet.
func (m *Matcher) MatchFile(ctx context.Context, path string) (*MatchSet, Stats, error) {
	rc, err := seqio.Open(path, m.cfg.Open)
	if err != nil {
		return nil, Stats{}, err
	}
	defer rc.Close()
	return m.MatchReader(ctx, rc)
}

// MatchReader chunks r, extracts every chunk on the pool and blocks until all
// submitted chunks are done. The first failure, of a chunk or of the reader,
// cancels the chunks that have not started yet; its error is returned.
func (m *Matcher) MatchReader(ctx context.Context, r io.Reader) (*MatchSet, Stats, error) {
	start := time.Now()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		once     sync.Once
		firstErr error
		st       Stats
	)
	fail := func(err error) {
		once.Do(func() {
			firstErr = err
			cancel()
		})
	}

	match := NewMatchSet()
	serr := seqio.StreamChunks(ctx, r, seqio.ChunkConfig{
		Threshold:    m.cfg.Threshold,
		Overlap:      m.cfg.Lengths.Overlap(),
		ReaderBuffer: m.cfg.ReaderBuf,
	}, func(chunk []byte) error {
		st.Chunks++
		st.Bases += int64(len(chunk))
		wg.Add(1)
		m.pool.Submit(func() {
			defer wg.Done()
			if ctx.Err() != nil {
				return
			}
			if err := m.extract(chunk, match); err != nil {
				fail(err)
			}
		})
		return nil
	})
	if serr != nil {
		fail(serr)
	}
	wg.Wait()
	st.Elapsed = time.Since(start)
	if firstErr != nil {
		return nil, st, firstErr
	}
	return match, st, nil
}

// extract shingles one chunk into a local set and unions it into match.
func (m *Matcher) extract(chunk []byte, match *MatchSet) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.Errorf("chunk extraction panicked: %v", r)
		}
	}()
	local := shingle.NewSet(0)
	shingle.Each(chunk, m.cfg.Lengths, func(s string) {
		if m.filter.HasShingle(s) {
			local.Add(s)
		}
	})
	match.AddAll(local)
	return nil
}
