// Package progress draws a files-processed bar on stderr. A nil *Bar is a
// valid no-op, so callers need not check whether progress is enabled.
package progress

import (
	"io"
	"time"

	"github.com/vbauerster/mpb/v8"
	"github.com/vbauerster/mpb/v8/decor"
)

type Bar struct {
	pbs *mpb.Progress
	bar *mpb.Bar
}

// New starts a bar of total files drawn on w.
func New(w io.Writer, total int) *Bar {
	pbs := mpb.New(mpb.WithWidth(40), mpb.WithOutput(w))
	bar := pbs.AddBar(int64(total),
		mpb.PrependDecorators(
			decor.Name("processed files: ", decor.WC{W: len("processed files: "), C: decor.DindentRight}),
			decor.Name("", decor.WCSyncSpaceR),
			decor.CountersNoUnit("%d / %d", decor.WCSyncWidth),
		),
		mpb.AppendDecorators(
			decor.Name("ETA: ", decor.WC{W: len("ETA: ")}),
			decor.EwmaETA(decor.ET_STYLE_GO, 60),
			decor.OnComplete(decor.Name(""), ". done"),
		),
	)
	return &Bar{pbs: pbs, bar: bar}
}

// Done counts one file that took elapsed.
func (b *Bar) Done(elapsed time.Duration) {
	if b == nil {
		return
	}
	b.bar.EwmaIncrBy(1, elapsed)
}

// Wait finishes the bar; an incomplete bar is aborted and left on screen.
func (b *Bar) Wait() {
	if b == nil {
		return
	}
	if !b.bar.Completed() {
		b.bar.Abort(false)
	}
	b.pbs.Wait()
}
