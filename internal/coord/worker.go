// internal/coord/worker.go
package coord

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"kite/internal/cmdutil"
	"kite/internal/matcher"
	"kite/internal/rank"
	"kite/internal/shingle"
	"kite/internal/writers"
)

// Barrier names.
const (
	BarrierLoaded  = "db-loaded"
	BarrierDrained = "drained"
)

// FileMatcher turns a file into its match set.
type FileMatcher interface {
	MatchFile(ctx context.Context, path string) (*matcher.MatchSet, matcher.Stats, error)
}

// Ranker scores a match set against the reference database.
type Ranker interface {
	Crosscheck(match shingle.Member) []rank.Result
}

// Worker runs the pull loop of one process (or one local file loop).
type Worker struct {
	ID      string
	Queue   Queue
	Matcher FileMatcher
	Ranker  Ranker
	TopK    int
	Format  string

	rank int
}

// Summary counts what a worker did.
type Summary struct {
	Files  int
	Failed int
	Groups int
}

// Join registers with the coordinator and waits until every party has its
// database loaded.
func (w *Worker) Join(ctx context.Context) error {
	r, err := w.Queue.Register(ctx, w.ID)
	if err != nil {
		return errors.Wrap(err, "register")
	}
	w.rank = r
	return w.Queue.Barrier(ctx, BarrierLoaded)
}

// Rank is the rank assigned by Join.
func (w *Worker) Rank() int { return w.rank }

// Run pulls files until the queue is empty, then waits at the drained
// barrier. A failing file is logged and reported; the loop continues.
// Only coordinator or context failures end Run early.
func (w *Worker) Run(ctx context.Context) (Summary, error) {
	var sum Summary
	for {
		a, ok, err := w.Queue.Next(ctx)
		if err != nil {
			return sum, errors.Wrap(err, "pull")
		}
		if !ok {
			break
		}
		groupDone, err := w.process(ctx, a)
		sum.Files++
		if err != nil {
			if ctx.Err() != nil {
				return sum, ctx.Err()
			}
			sum.Failed++
		}
		if groupDone {
			sum.Groups++
		}
	}
	if f, ok := w.Queue.(interface{ Flush() error }); ok {
		if err := f.Flush(); err != nil {
			return sum, errors.Wrap(err, "flush results")
		}
	}
	cmdutil.Log.Infof("worker %d finished processing all its files (%d, %d failed)", w.rank, sum.Files, sum.Failed)
	if err := w.Queue.Barrier(ctx, BarrierDrained); err != nil {
		return sum, errors.Wrap(err, "drained barrier")
	}
	return sum, nil
}

// process handles one assignment; it returns whether this worker emitted the
// assignment's group result.
func (w *Worker) process(ctx context.Context, a Assignment) (bool, error) {
	start := time.Now()
	cmdutil.Log.Infof("worker %d is processing '%s' file...", w.rank, a.File)

	match, st, err := w.Matcher.MatchFile(ctx, a.File)
	if err == nil {
		err = w.emit(ctx, writers.KindFile, a.File, match)
	}
	if err != nil {
		cmdutil.Log.Errorf("worker %d: exception after %s while processing '%s': %v",
			w.rank, cmdutil.Since(start), a.File, err)
		match = nil
	} else {
		cmdutil.Log.Infof("worker %d finished processing '%s' file after %s (%s bases, %d chunks, %d matching shingles)",
			w.rank, a.File, cmdutil.Since(start), humanize.Comma(st.Bases), st.Chunks, match.Len())
	}

	rep := Report{Rank: w.rank, File: a.File, Elapsed: time.Since(start).Seconds()}
	if err != nil {
		rep.Err = err.Error()
	}
	if rerr := w.Queue.Report(ctx, rep); rerr != nil {
		cmdutil.Log.Warningf("worker %d: report for '%s' failed: %v", w.rank, a.File, rerr)
	}

	if !a.Grouped || ctx.Err() != nil {
		return false, err
	}
	if match == nil {
		cmdutil.Log.Warningf("group '%s' will not include failed file '%s'", a.Group, a.File)
	}
	group, jerr := w.Queue.JoinGroup(ctx, a.Group, match)
	if jerr != nil {
		cmdutil.Log.Errorf("worker %d: joining group '%s' failed: %v", w.rank, a.Group, jerr)
		return false, err
	}
	if group == nil {
		return false, err
	}
	if eerr := w.emit(ctx, writers.KindGroup, a.Group, group); eerr != nil {
		cmdutil.Log.Errorf("worker %d: emitting group '%s' failed: %v", w.rank, a.Group, eerr)
		return false, err
	}
	cmdutil.Log.Infof("worker %d ranked group '%s' (%d matching shingles)", w.rank, a.Group, group.Len())
	return true, err
}

func (w *Worker) emit(ctx context.Context, kind, id string, match *matcher.MatchSet) error {
	format := w.Format
	if format == "" {
		format = writers.FormatText
	}
	rec := writers.NewRecord(kind, id, w.Ranker.Crosscheck(match.Set()), w.TopK)
	line, err := writers.Format(format, rec)
	if err != nil {
		return err
	}
	return w.Queue.Emit(ctx, line)
}
