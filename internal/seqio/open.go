// internal/seqio/open.go
package seqio

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/klauspost/pgzip"
	"github.com/pkg/errors"
	"github.com/shenwei356/xopen"
)

// ErrIO marks failures to open, read or decompress an input file.
var ErrIO = errors.New("input i/o")

// ioError keeps the underlying cause reachable through errors.Is and
// errors.As while also matching ErrIO.
type ioError struct {
	msg string
	err error
}

func ioErrorf(err error, format string, args ...interface{}) error {
	return &ioError{msg: fmt.Sprintf(format, args...), err: err}
}

func (e *ioError) Error() string {
	if e.msg == "" {
		return e.err.Error()
	}
	return e.msg + ": " + e.err.Error()
}

func (e *ioError) Unwrap() error        { return e.err }
func (e *ioError) Is(target error) bool { return target == ErrIO }

// OpenOptions tunes the decompression codec.
type OpenOptions struct {
	GzipBlockSize int // bytes per pgzip block; <=0 uses the pgzip default
	GzipBlocks    int // blocks decoded ahead; <=0 uses the pgzip default
}

// multiReadCloser closes multiple io.Closers when Close() is called.
type multiReadCloser struct {
	io.Reader
	closers []io.Closer
}

func (m *multiReadCloser) Close() error {
	var err error
	for _, c := range m.closers {
		if cerr := c.Close(); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// Open returns a decompressed reader for path. Gzip input (detected by magic
// number) is decoded with pgzip; anything else goes through xopen, which
// handles plain text, xz, zstd and bzip2. "-" reads stdin.
func Open(path string, opt OpenOptions) (io.ReadCloser, error) {
	if path == "-" {
		return xopenReader(path)
	}
	fh, err := os.Open(path)
	if err != nil {
		return nil, ioErrorf(err, "")
	}
	br := bufio.NewReader(fh)
	sig, _ := br.Peek(2)
	if len(sig) == 2 && sig[0] == 0x1f && sig[1] == 0x8b {
		var gr *pgzip.Reader
		if opt.GzipBlockSize > 0 && opt.GzipBlocks > 0 {
			gr, err = pgzip.NewReaderN(br, opt.GzipBlockSize, opt.GzipBlocks)
		} else {
			gr, err = pgzip.NewReader(br)
		}
		if err != nil {
			_ = fh.Close()
			return nil, ioErrorf(err, "gzip %s", path)
		}
		return &multiReadCloser{Reader: gr, closers: []io.Closer{gr, fh}}, nil
	}
	_ = fh.Close()
	return xopenReader(path)
}

func xopenReader(path string) (io.ReadCloser, error) {
	r, err := xopen.Ropen(path)
	if err != nil {
		return nil, ioErrorf(err, "open %s", path)
	}
	return r, nil
}
