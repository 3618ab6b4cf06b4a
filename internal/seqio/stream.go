// internal/seqio/stream.go
package seqio

import (
	"bufio"
	"bytes"
	"context"
	"io"
)

// linesPerRecord is the FASTQ record cycle: header, sequence, '+', quality.
const linesPerRecord = 4

// ChunkConfig controls FASTQ chunking.
type ChunkConfig struct {
	Threshold    int // emit once the buffer holds at least this many bases
	Overlap      int // bases carried into the next chunk (longest shingle - 1)
	ReaderBuffer int // bufio size; <=0 uses 64 KiB
}

// StreamChunks reads a FASTQ stream and emits bounded chunks of concatenated
// sequence lines. The first line of the stream is skipped, then for every
// record one sequence line is appended and the three following lines are
// skipped. When the buffer reaches Threshold, or the stream ends, a copy is
// handed to emit and the last Overlap bases seed the next chunk, so any
// shingle up to Overlap+1 bases spanning the cut is still seen. The final,
// possibly short, buffer is always emitted.
//
// emit owns the slice it receives. A non-nil error from emit stops the scan.
func StreamChunks(ctx context.Context, r io.Reader, cfg ChunkConfig, emit func([]byte) error) error {
	if cfg.Threshold < 1 {
		cfg.Threshold = 1
	}
	if cfg.Overlap < 0 {
		cfg.Overlap = 0
	}
	size := cfg.ReaderBuffer
	if size <= 0 {
		size = 64 * 1024
	}
	br := bufio.NewReaderSize(r, size)

	buf := make([]byte, 0, cfg.Threshold+cfg.Overlap+1024)
	carried, emitted := 0, false
	flush := func() error {
		emitted = true
		chunk := bytes.Clone(buf)
		if err := emit(chunk); err != nil {
			return err
		}
		keep := cfg.Overlap
		if keep > len(buf) {
			keep = len(buf)
		}
		carried = copy(buf, buf[len(buf)-keep:])
		buf = buf[:carried]
		return nil
	}
	// at end of input only bases not yet shingled are worth a chunk
	final := func() error {
		if emitted && len(buf) == carried {
			return nil
		}
		return flush()
	}

	if _, err := readLine(br); err != nil {
		if err == io.EOF {
			return final()
		}
		return err
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		line, err := readLine(br)
		if err != nil && err != io.EOF {
			return err
		}
		buf = append(buf, line...)
		if err == io.EOF {
			return final()
		}
		if len(buf) >= cfg.Threshold {
			if ferr := flush(); ferr != nil {
				return ferr
			}
		}
		for i := 1; i < linesPerRecord; i++ {
			if _, serr := readLine(br); serr != nil {
				if serr == io.EOF {
					break
				}
				return serr
			}
		}
	}
}

// StreamChunksPath opens path with Open and runs StreamChunks over it.
func StreamChunksPath(ctx context.Context, path string, opt OpenOptions, cfg ChunkConfig, emit func([]byte) error) error {
	rc, err := Open(path, opt)
	if err != nil {
		return err
	}
	defer rc.Close()
	return StreamChunks(ctx, rc, cfg, emit)
}

// readLine returns the next line without its terminator. It returns io.EOF
// only when no bytes were left; a final unterminated line is returned with a
// nil error. The returned slice is valid until the next read.
func readLine(br *bufio.Reader) ([]byte, error) {
	line, err := br.ReadSlice('\n')
	if err == bufio.ErrBufferFull {
		// sequence lines longer than the reader buffer
		acc := append([]byte(nil), line...)
		for err == bufio.ErrBufferFull {
			line, err = br.ReadSlice('\n')
			acc = append(acc, line...)
		}
		line = acc
	}
	if err != nil && err != io.EOF {
		return nil, ioErrorf(err, "read")
	}
	if err == io.EOF && len(line) == 0 {
		return nil, io.EOF
	}
	line = bytes.TrimRight(line, "\r\n")
	return line, nil
}
