package matcher

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"

	"kite/internal/refdb"
	"kite/internal/seqio"
	"kite/internal/shingle"
)

func fastq(reads ...string) string {
	var b strings.Builder
	for i, r := range reads {
		fmt.Fprintf(&b, "@r%d\n%s\n+\n%s\n", i, r, strings.Repeat("#", len(r)))
	}
	return b.String()
}

func randomSeq(rng *rand.Rand, n int) string {
	b := make([]byte, n)
	for i := range b {
		b[i] = "ACGT"[rng.Intn(4)]
	}
	return string(b)
}

func testDB(t *testing.T, ls shingle.Lengths, fasta string) *refdb.Database {
	t.Helper()
	db := refdb.New(ls)
	if err := db.Load(strings.NewReader(fasta)); err != nil {
		t.Fatal(err)
	}
	db.Seal()
	return db
}

func TestMatchSetConcurrentUnion(t *testing.T) {
	m := NewMatchSet()
	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			s := shingle.NewSet(0)
			for i := 0; i < 500; i++ {
				s.Add(fmt.Sprintf("k%d", (i+g*250)%1000))
			}
			m.AddAll(s)
		}(g)
	}
	wg.Wait()
	if m.Len() != 1000 {
		t.Fatalf("want 1000 members, got %d", m.Len())
	}
	o := FromSlice([]string{"k1", "new"})
	m.Merge(o)
	if m.Len() != 1001 || !m.Has("new") {
		t.Fatalf("merge failed: %d", m.Len())
	}
}

func TestMatchReaderChunkSizeIndependent(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	ref := randomSeq(rng, 3000)
	ls, _ := shingle.NewLengths(9, 15)
	db := testDB(t, ls, ">ref\n"+ref+"\n>other\n"+randomSeq(rng, 500)+"\n")

	// reads are slices of the reference interleaved with noise
	var reads []string
	for i := 0; i < 120; i++ {
		if i%3 == 0 {
			reads = append(reads, randomSeq(rng, 40))
			continue
		}
		off := rng.Intn(len(ref) - 40)
		reads = append(reads, ref[off:off+40])
	}
	src := fastq(reads...)

	pool := NewPool(4)
	defer pool.Close()

	var want []string
	for i, th := range []int{15, 64, 333, 1 << 20} {
		m := New(Config{Lengths: ls, Threshold: th}, db, pool)
		got, st, err := m.MatchReader(context.Background(), strings.NewReader(src))
		if err != nil {
			t.Fatalf("threshold %d: %v", th, err)
		}
		if st.Chunks == 0 {
			t.Fatalf("threshold %d: no chunks", th)
		}
		for _, s := range got.Slice() {
			if !db.HasShingle(s) {
				t.Fatalf("%s is not in the superset", s)
			}
		}
		if i == 0 {
			want = got.Slice()
			continue
		}
		if strings.Join(got.Slice(), ",") != strings.Join(want, ",") {
			t.Fatalf("threshold %d: match set differs (%d vs %d)", th, got.Len(), len(want))
		}
	}
	if len(want) == 0 {
		t.Fatal("expected matches")
	}
}

type panicFilter struct{ after string }

func (p panicFilter) HasShingle(s string) bool {
	if s == p.after {
		panic("bad shingle")
	}
	return true
}

func TestMatchReaderPropagatesChunkFailure(t *testing.T) {
	ls, _ := shingle.NewLengths(4)
	pool := NewPool(2)
	defer pool.Close()
	m := New(Config{Lengths: ls, Threshold: 8}, panicFilter{after: "GGGG"}, pool)
	src := fastq("AAAAAAAA", "CCCCCCCC", "GGGGGGGG", "TTTTTTTT", "ACACACAC")
	got, _, err := m.MatchReader(context.Background(), strings.NewReader(src))
	if err == nil || !strings.Contains(err.Error(), "panicked") {
		t.Fatalf("want chunk failure, got %v", err)
	}
	if got != nil {
		t.Fatal("partial match set must not be returned")
	}

	// the pool keeps serving other files
	ok := New(Config{Lengths: ls, Threshold: 8}, panicFilter{after: "none"}, pool)
	if _, _, err := ok.MatchReader(context.Background(), strings.NewReader(src)); err != nil {
		t.Fatalf("pool unusable after failure: %v", err)
	}
}

// countingFilter accepts every shingle and counts lookups. The first lookup
// waits on gate when set; lookup number failOn panics.
type countingFilter struct {
	calls  atomic.Int64
	failOn int64
	gate   chan struct{}
}

func (f *countingFilter) HasShingle(string) bool {
	n := f.calls.Add(1)
	if n == 1 && f.gate != nil {
		<-f.gate
	}
	if n == f.failOn {
		panic("bad shingle")
	}
	return true
}

func TestChunkFailureSkipsQueuedChunks(t *testing.T) {
	ls, _ := shingle.NewLengths(4)
	pool := NewPool(1)
	defer pool.Close()
	reads := make([]string, 50)
	for i := range reads {
		reads[i] = "ACGTACGT"
	}
	f := &countingFilter{failOn: 1}
	m := New(Config{Lengths: ls, Threshold: 8}, f, pool)
	got, st, err := m.MatchReader(context.Background(), strings.NewReader(fastq(reads...)))
	if err == nil || !strings.Contains(err.Error(), "panicked") {
		t.Fatalf("want chunk failure, got %v", err)
	}
	if got != nil {
		t.Fatal("partial match set must not be returned")
	}
	if n := f.calls.Load(); n != 1 {
		t.Fatalf("chunks queued behind the failure were extracted: %d lookups", n)
	}
	if st.Chunks >= len(reads) {
		t.Fatalf("reader kept going after the failure: %d chunks", st.Chunks)
	}
}

type failingReader struct {
	once   sync.Once
	failed chan struct{}
}

func (r *failingReader) Read([]byte) (int, error) {
	r.once.Do(func() { close(r.failed) })
	return 0, errors.New("disk gone")
}

func TestReadFailureSkipsQueuedChunks(t *testing.T) {
	ls, _ := shingle.NewLengths(4)
	pool := NewPool(1)
	defer pool.Close()
	gate := make(chan struct{})
	f := &countingFilter{gate: gate}
	bad := &failingReader{failed: make(chan struct{})}
	// the first chunk stays in its first lookup until well after the read failed
	go func() {
		<-bad.failed
		time.Sleep(50 * time.Millisecond)
		close(gate)
	}()
	src := io.MultiReader(strings.NewReader(fastq("AAAAAAAA", "CCCCCCCC", "GGGGGGGG")), bad)
	m := New(Config{Lengths: ls, Threshold: 8}, f, pool)
	_, st, err := m.MatchReader(context.Background(), src)
	if !errors.Is(err, seqio.ErrIO) {
		t.Fatalf("want read failure, got %v", err)
	}
	if st.Chunks != 3 {
		t.Fatalf("want 3 chunks read before the failure, got %d", st.Chunks)
	}
	// AAAAAAAA has 5 shingles of length 4; the two queued chunks must not run
	if n := f.calls.Load(); n != 5 {
		t.Fatalf("queued chunks were extracted after the read failure: %d lookups", n)
	}
}

func TestMatchFileGzip(t *testing.T) {
	ls, _ := shingle.NewLengths(4)
	db := testDB(t, ls, ">A\nAAAACCCC\n>B\nCCCCGGGG\n")
	dir := t.TempDir()
	fn := filepath.Join(dir, "sample.fq.gz")
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, _ = gw.Write([]byte(fastq("TTCCCCGT", "CCCCG")))
	_ = gw.Close()
	if err := os.WriteFile(fn, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	pool := NewPool(0)
	defer pool.Close()
	m := New(Config{Lengths: ls, Threshold: 1024, Open: seqio.OpenOptions{}}, db, pool)
	got, _, err := m.MatchFile(context.Background(), fn)
	if err != nil {
		t.Fatal(err)
	}
	// concatenated: TTCCCCGTCCCCG
	if strings.Join(got.Slice(), ",") != "CCCC,CCCG" {
		t.Fatalf("got %v", got.Slice())
	}
	if _, _, err := m.MatchFile(context.Background(), filepath.Join(dir, "missing.fq.gz")); err == nil {
		t.Fatal("missing file should fail")
	}
}

func TestMatchReaderCanceled(t *testing.T) {
	ls, _ := shingle.NewLengths(4)
	pool := NewPool(1)
	defer pool.Close()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	m := New(Config{Lengths: ls, Threshold: 4}, panicFilter{after: "x"}, pool)
	if _, _, err := m.MatchReader(ctx, strings.NewReader(fastq("ACGTACGT"))); err == nil {
		t.Fatal("want cancellation error")
	}
}
