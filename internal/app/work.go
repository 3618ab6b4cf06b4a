package app

import (
	"bytes"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"kite/internal/appcore"
	"kite/internal/cmdutil"
	"kite/internal/config"
	"kite/internal/coord"
	"kite/internal/matcher"
	"kite/internal/refdb"
)

func newWorkCmd(g *globals) *cobra.Command {
	v := config.New()
	var join string
	cmd := &cobra.Command{
		Use:   "work --join host:port [flags]",
		Short: "Process files handed out by a coordinator",
		Long: `Process files handed out by a coordinator ("kite serve").

Without -d the reference database is fetched from the coordinator. Result
lines are sent to the coordinator, which prints them.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			started := time.Now()
			ctx := cmd.Context()
			if join == "" {
				return fail(appcore.ExitUsage, errors.New("--join is required"))
			}
			cfg, err := resolve(g, v)
			if err != nil {
				return err
			}
			client, err := coord.Dial(join)
			if err != nil {
				return fail(appcore.ExitOutput, err)
			}
			defer client.Close()

			var db *refdb.Database
			if len(cfg.DatabasePaths) > 0 {
				if db, err = loadDatabase(cfg); err != nil {
					return err
				}
			} else {
				t := time.Now()
				snap, err := client.Snapshot(ctx)
				if err != nil {
					return fail(appcore.ExitDatabase, errors.Wrap(err, "fetch reference database"))
				}
				if db, err = refdb.ReadSnapshot(bytes.NewReader(snap)); err != nil {
					return fail(appcore.ExitDatabase, err)
				}
				logDatabase(db)
				cmdutil.Log.Infof("received %d references (%d bytes) from %s in %s",
					db.Len(), len(snap), join, cmdutil.Since(t))
			}

			mcfg := cfg.Matcher()
			mcfg.Lengths = db.Lengths()
			pool := matcher.NewPool(cfg.Threads)
			defer pool.Close()
			cmdutil.Log.Infof("matching with %d goroutines", pool.Size())
			w := &coord.Worker{
				ID:      uuid.NewString(),
				Queue:   client,
				Matcher: matcher.New(mcfg, db, pool),
				Ranker:  db,
				TopK:    cfg.OutputCount,
				Format:  cfg.Format,
			}
			if err := w.Join(ctx); err != nil {
				return fail(appcore.ExitOutput, err)
			}
			cmdutil.Log.Infof("worker %s joined %s as rank %d", w.ID, join, w.Rank())
			sum, err := w.Run(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return fail(appcore.ExitInterrupted, nil)
				}
				return fail(appcore.ExitOutput, err)
			}
			cmdutil.Log.Infof("worker %d done: %d files (%d failed), %d groups, total time: %s",
				w.Rank(), sum.Files, sum.Failed, sum.Groups, cmdutil.Since(started))
			return nil
		},
	}
	config.Register(cmd.Flags(), v)
	cmd.Flags().StringVar(&join, "join", "", "coordinator address (host:port)")
	return cmd
}
