package seqio

import (
	"bytes"
	"compress/gzip"
	"context"
	"fmt"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/pkg/errors"

	"kite/internal/shingle"
)

// fastq renders reads as a 4-line-per-record FASTQ text.
func fastq(reads ...string) string {
	var b strings.Builder
	for i, r := range reads {
		fmt.Fprintf(&b, "@read%d\n%s\n+\n%s\n", i, r, strings.Repeat("I", len(r)))
	}
	return b.String()
}

func randomReads(rng *rand.Rand, n, l int) []string {
	const bases = "ACGT"
	out := make([]string, n)
	for i := range out {
		b := make([]byte, l)
		for j := range b {
			b[j] = bases[rng.Intn(4)]
		}
		out[i] = string(b)
	}
	return out
}

func collect(t *testing.T, src string, cfg ChunkConfig) [][]byte {
	t.Helper()
	var chunks [][]byte
	err := StreamChunks(context.Background(), strings.NewReader(src), cfg, func(b []byte) error {
		chunks = append(chunks, b)
		return nil
	})
	if err != nil {
		t.Fatalf("stream: %v", err)
	}
	return chunks
}

func TestStreamChunksSkipsNonSequenceLines(t *testing.T) {
	chunks := collect(t, fastq("ACGT", "TTGG"), ChunkConfig{Threshold: 1 << 20, Overlap: 3})
	if len(chunks) != 1 {
		t.Fatalf("want 1 chunk, got %d", len(chunks))
	}
	if string(chunks[0]) != "ACGTTTGG" {
		t.Fatalf("want concatenated sequences, got %q", chunks[0])
	}
}

func TestStreamChunksCarriesOverlap(t *testing.T) {
	chunks := collect(t, fastq("AAAAA", "CCCCC", "GGGGG"), ChunkConfig{Threshold: 5, Overlap: 2})
	want := []string{"AAAAA", "AACCCCC", "CCGGGGG"}
	if len(chunks) != len(want) {
		t.Fatalf("want %d chunks, got %d: %q", len(want), len(chunks), chunks)
	}
	for i, w := range want {
		if string(chunks[i]) != w {
			t.Fatalf("chunk %d: want %q, got %q", i, w, chunks[i])
		}
	}
}

func TestStreamChunksFlushesShortTail(t *testing.T) {
	chunks := collect(t, fastq("AAAAA", "CC"), ChunkConfig{Threshold: 5, Overlap: 2})
	if len(chunks) != 2 || string(chunks[1]) != "AACC" {
		t.Fatalf("want short tail chunk, got %q", chunks)
	}
	// unterminated last line and CRLF endings
	src := "@r0\r\nACGT\r\n+\r\nIIII\r\n@r1\r\nGG"
	chunks = collect(t, src, ChunkConfig{Threshold: 100, Overlap: 2})
	if len(chunks) != 1 || string(chunks[0]) != "ACGTGG" {
		t.Fatalf("got %q", chunks)
	}
}

func TestStreamChunksEmptyInput(t *testing.T) {
	chunks := collect(t, "", ChunkConfig{Threshold: 10, Overlap: 3})
	if len(chunks) != 1 || len(chunks[0]) != 0 {
		t.Fatalf("want one empty chunk, got %q", chunks)
	}
}

// Chunking must not change the set of extracted shingles.
func TestChunkingIsTransparent(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	reads := randomReads(rng, 200, 37)
	src := fastq(reads...)
	ls, _ := shingle.NewLengths(5, 11)

	want := shingle.NewSet(0)
	shingle.Each([]byte(strings.Join(reads, "")), ls, want.Add)

	for _, th := range []int{11, 12, 50, 97, 1000, 1 << 20} {
		got := shingle.NewSet(0)
		for _, c := range collect(t, src, ChunkConfig{Threshold: th, Overlap: ls.Overlap()}) {
			shingle.Each(c, ls, got.Add)
		}
		if got.Len() != want.Len() || got.IntersectionSize(want) != want.Len() {
			t.Fatalf("threshold %d: got %d shingles, want %d", th, got.Len(), want.Len())
		}
	}
}

func TestStreamChunksStopsOnEmitError(t *testing.T) {
	boom := errors.New("boom")
	n := 0
	err := StreamChunks(context.Background(), strings.NewReader(fastq("AAAA", "CCCC", "GGGG")),
		ChunkConfig{Threshold: 4, Overlap: 1}, func([]byte) error {
			n++
			return boom
		})
	if !errors.Is(err, boom) || n != 1 {
		t.Fatalf("want first emit error, got %v after %d chunks", err, n)
	}
}

func TestStreamChunksCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := StreamChunks(ctx, strings.NewReader(fastq("AAAA")), ChunkConfig{Threshold: 4}, func([]byte) error { return nil })
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("want context.Canceled, got %v", err)
	}
}

func TestStreamChunksPathGzip(t *testing.T) {
	dir := t.TempDir()
	fn := filepath.Join(dir, "s.fq.gz")
	var buf bytes.Buffer
	gw := gzip.NewWriter(&buf)
	_, _ = gw.Write([]byte(fastq("ACGTACGT", "TTTT")))
	_ = gw.Close()
	if err := os.WriteFile(fn, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	var got []string
	err := StreamChunksPath(context.Background(), fn, OpenOptions{GzipBlockSize: 1 << 16, GzipBlocks: 2},
		ChunkConfig{Threshold: 1 << 10, Overlap: 3}, func(b []byte) error {
			got = append(got, string(b))
			return nil
		})
	if err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "ACGTACGTTTTT" {
		t.Fatalf("got %q", got)
	}

	plain := filepath.Join(dir, "s.fq")
	if err := os.WriteFile(plain, []byte(fastq("GGGG")), 0o644); err != nil {
		t.Fatal(err)
	}
	got = got[:0]
	if err := StreamChunksPath(context.Background(), plain, OpenOptions{}, ChunkConfig{Threshold: 10}, func(b []byte) error {
		got = append(got, string(b))
		return nil
	}); err != nil {
		t.Fatal(err)
	}
	if len(got) != 1 || got[0] != "GGGG" {
		t.Fatalf("plain: got %q", got)
	}

	err = StreamChunksPath(context.Background(), filepath.Join(dir, "nope.fq.gz"), OpenOptions{}, ChunkConfig{}, func([]byte) error { return nil })
	if !errors.Is(err, ErrIO) {
		t.Fatalf("want ErrIO, got %v", err)
	}
	if !errors.Is(err, fs.ErrNotExist) {
		t.Fatalf("cause lost: %v", err)
	}
	if !strings.Contains(err.Error(), "nope.fq.gz") {
		t.Fatalf("path missing from %q", err)
	}
}
