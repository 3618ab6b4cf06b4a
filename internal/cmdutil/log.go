package cmdutil

import (
	"bytes"
	"io"
	"os"
	"sync"
	"sync/atomic"

	"github.com/shenwei356/go-logging"
)

// Log is the process-wide logger. It writes to stderr until SetupLogging
// points it elsewhere.
var Log = logging.MustGetLogger("kite")

const logFormat = `[%{time:2006-01-02 15:04:05.000}] %{level:.4s} %{message}`

var (
	sink     = &logSink{dst: os.Stderr, format: logging.MustStringFormatter(logFormat)}
	sinkOnce sync.Once
)

func installSink() {
	sinkOnce.Do(func() {
		sink.level.Store(int32(logging.INFO))
		logging.SetBackend(sink)
	})
}

func init() { installSink() }

// logSink is the single go-logging backend of the process. Its destination
// and level change under its own lock, so runs can reconfigure logging while
// other goroutines log.
type logSink struct {
	mu     sync.Mutex
	dst    io.Writer
	format logging.Formatter
	level  atomic.Int32
}

func (s *logSink) Log(level logging.Level, calldepth int, rec *logging.Record) error {
	var buf bytes.Buffer
	if err := s.format.Format(calldepth+1, rec, &buf); err != nil {
		return err
	}
	buf.WriteByte('\n')
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := s.dst.Write(buf.Bytes())
	return err
}

func (s *logSink) GetLevel(string) logging.Level { return logging.Level(s.level.Load()) }

func (s *logSink) SetLevel(level logging.Level, _ string) { s.level.Store(int32(level)) }

func (s *logSink) IsEnabledFor(level logging.Level, _ string) bool {
	return level <= s.GetLevel("")
}

// SetupLogging routes Log to dst. quiet keeps warnings and errors only;
// verbose enables debug messages.
func SetupLogging(dst io.Writer, quiet, verbose bool) {
	installSink()
	level := logging.INFO
	switch {
	case verbose:
		level = logging.DEBUG
	case quiet:
		level = logging.WARNING
	}
	sink.mu.Lock()
	sink.dst = dst
	sink.mu.Unlock()
	sink.SetLevel(level, "")
}
