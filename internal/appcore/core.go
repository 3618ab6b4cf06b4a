// internal/appcore/core.go
package appcore

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"net"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"kite/internal/cmdutil"
	"kite/internal/config"
	"kite/internal/coord"
	"kite/internal/matcher"
	"kite/internal/progress"
	"kite/internal/refdb"
	"kite/internal/runinfo"
	"kite/internal/version"
	"kite/internal/writers"
)

// Exit codes.
const (
	ExitOK          = 0
	ExitDatabase    = 1
	ExitUsage       = 2
	ExitOutput      = 3
	ExitInterrupted = 130
)

// Options describe one coordinated run.
type Options struct {
	Config       *config.Config
	DB           *refdb.Database
	Files        []string
	LocalWorkers int          // worker loops inside this process (>=1)
	Remote       int          // remote worker processes expected
	Listener     net.Listener // required when Remote > 0
	Progress     bool
	InfoFile     string
	Started      time.Time
}

// Run is rank 0: it seeds the work queue, owns stdout, runs the local worker
// loops and, with a listener, serves remote workers until every party has
// drained the queue.
func Run(parent context.Context, stdout, stderr io.Writer, o Options) int {
	cfg := o.Config
	if o.LocalWorkers < 1 {
		o.LocalWorkers = 1
	}
	grouper, err := coord.NewGrouper(cfg.FilesGroupPattern)
	if err != nil {
		fmt.Fprintln(stderr, err)
		return ExitUsage
	}
	var snap []byte
	if o.Remote > 0 {
		if o.Listener == nil {
			fmt.Fprintln(stderr, "remote workers need a listener")
			return ExitUsage
		}
		var buf bytes.Buffer
		if err := o.DB.WriteSnapshot(&buf); err != nil {
			fmt.Fprintln(stderr, err)
			return ExitDatabase
		}
		snap = buf.Bytes()
		cmdutil.Log.Infof("database snapshot for remote workers: %d bytes", len(snap))
	}

	outw := bufio.NewWriter(stdout)
	lines, writeErr := writers.StartLineWriter(outw, o.LocalWorkers*cfg.Threads*4)

	var bar *progress.Bar
	if o.Progress {
		bar = progress.New(stderr, len(o.Files))
	}
	var mu sync.Mutex
	closed := false
	emit := func(line string) {
		mu.Lock()
		defer mu.Unlock()
		if !closed {
			lines <- line
		}
	}
	c := coord.NewCoordinator(coord.Options{
		Files:    o.Files,
		Grouper:  grouper,
		Parties:  o.LocalWorkers + o.Remote,
		Emit:     emit,
		Snapshot: snap,
		OnReport: func(r coord.Report) {
			bar.Done(time.Duration(r.Elapsed * float64(time.Second)))
		},
	})
	if grouper != nil {
		groups := c.Groups()
		cmdutil.Log.Infof("%d files in %d groups (pattern '%s')", len(o.Files), len(groups), grouper)
		for _, k := range c.GroupKeys() {
			cmdutil.Log.Infof("group '%s': %d files", k, groups[k])
		}
	}

	ctx, cancel := context.WithCancel(parent)
	defer cancel()
	serveErr := make(chan error, 1)
	if o.Remote > 0 {
		cmdutil.Log.Infof("coordinator listening on %s for %d remote workers", o.Listener.Addr(), o.Remote)
		go func() { serveErr <- coord.Serve(ctx, o.Listener, c) }()
	}

	pool := matcher.NewPool(cfg.Threads)
	cmdutil.Log.Infof("%d local workers, %d matching goroutines each", o.LocalWorkers, pool.Size())
	m := matcher.New(cfg.Matcher(), o.DB, pool)
	var wg sync.WaitGroup
	var once sync.Once
	var runErr error
	for i := 0; i < o.LocalWorkers; i++ {
		w := &coord.Worker{
			ID:      "local-" + uuid.NewString(),
			Queue:   coord.Local{C: c},
			Matcher: m,
			Ranker:  o.DB,
			TopK:    cfg.OutputCount,
			Format:  cfg.Format,
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := w.Join(ctx)
			if err == nil {
				_, err = w.Run(ctx)
			}
			if err != nil {
				once.Do(func() { runErr = err; cancel() })
			}
		}()
	}
	wg.Wait()
	pool.Close()
	cancel()
	if o.Remote > 0 {
		if err := <-serveErr; err != nil && runErr == nil {
			runErr = err
		}
	}
	mu.Lock()
	closed = true
	close(lines)
	mu.Unlock()
	bar.Wait()

	if werr := <-writeErr; writers.IsBrokenPipe(werr) {
		return ExitOK
	} else if werr != nil {
		fmt.Fprintln(stderr, werr)
		return ExitOutput
	}
	if e := outw.Flush(); writers.IsBrokenPipe(e) {
		return ExitOK
	} else if e != nil {
		fmt.Fprintln(stderr, e)
		return ExitOutput
	}
	if runErr != nil {
		if parent.Err() != nil || errors.Is(runErr, context.Canceled) {
			return ExitInterrupted
		}
		fmt.Fprintln(stderr, runErr)
		return ExitOutput
	}

	failed := failedFiles(c.Reports())
	if len(failed) > 0 {
		cmdutil.Log.Warningf("%d of %d files failed", len(failed), len(o.Files))
	}
	cmdutil.Log.Infof("total time: %s", cmdutil.Since(o.Started))
	if o.InfoFile != "" {
		if err := runinfo.Write(o.InfoFile, summarize(o, c, failed)); err != nil {
			fmt.Fprintln(stderr, err)
			return ExitOutput
		}
	}
	return ExitOK
}

// failedFiles lists the files whose report carries an error, sorted.
func failedFiles(reps []coord.Report) []string {
	var failed []string
	for _, r := range reps {
		if r.Err != "" {
			failed = append(failed, r.File)
		}
	}
	sort.Strings(failed)
	return failed
}

func summarize(o Options, c *coord.Coordinator, failed []string) *runinfo.Info {
	info := &runinfo.Info{
		Version:       version.Version,
		Started:       o.Started,
		Elapsed:       time.Since(o.Started).Seconds(),
		ShingleLength: o.DB.Lengths().String(),
		DatabasePaths: o.Config.DatabasePaths,
		References:    o.DB.Len(),
		Superset:      o.DB.SupersetLen(),
		Workers:       c.Parties(),
		Files:         len(o.Files),
		FailedFiles:   failed,
	}
	groups := c.Groups()
	for _, k := range c.GroupKeys() {
		info.Groups = append(info.Groups, runinfo.Group{Key: k, Files: groups[k]})
	}
	return info
}
