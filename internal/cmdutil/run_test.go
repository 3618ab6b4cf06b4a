package cmdutil

import (
	"bytes"
	"io"
	"strings"
	"sync"
	"testing"
	"time"
)

func TestSeconds(t *testing.T) {
	if got := Seconds(1500 * time.Millisecond); got != "1.500000000" {
		t.Fatalf("got %s", got)
	}
}

func TestSetupLoggingLevels(t *testing.T) {
	var buf bytes.Buffer
	SetupLogging(&buf, true, false)
	defer SetupLogging(io.Discard, false, false)
	Log.Infof("hidden")
	Log.Warningf("shown %d", 1)
	out := buf.String()
	if strings.Contains(out, "hidden") {
		t.Fatalf("quiet mode leaked: %q", out)
	}
	if !strings.Contains(out, "WARN shown 1") {
		t.Fatalf("missing warning: %q", out)
	}

	buf.Reset()
	SetupLogging(&buf, false, true)
	Log.Debugf("detail")
	if !strings.Contains(buf.String(), "DEBU detail") {
		t.Fatalf("verbose mode dropped debug: %q", buf.String())
	}
}

type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// Runs sharing a process reconfigure logging while others are logging.
func TestSetupLoggingWhileLogging(t *testing.T) {
	defer SetupLogging(io.Discard, false, false)
	var a, b lockedBuffer
	var wg sync.WaitGroup
	stop := make(chan struct{})
	for g := 0; g < 4; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
					Log.Infof("working")
				}
			}
		}()
	}
	for i := 0; i < 200; i++ {
		if i%2 == 0 {
			SetupLogging(&a, false, false)
		} else {
			SetupLogging(&b, true, false)
		}
	}
	close(stop)
	wg.Wait()

	var last lockedBuffer
	SetupLogging(&last, false, false)
	Log.Infof("after")
	if got := last.buf.String(); !strings.HasSuffix(got, "INFO after\n") || !strings.HasPrefix(got, "[") {
		t.Fatalf("unexpected line %q", got)
	}
}
