package app

import (
	"io"
	"net"
	"time"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"

	"kite/internal/appcore"
	"kite/internal/config"
)

func newServeCmd(g *globals, stdout, stderr io.Writer) *cobra.Command {
	v := config.New()
	f := &runFlags{}
	var listen string
	var nodes int
	cmd := &cobra.Command{
		Use:   "serve [flags] files...",
		Short: "Coordinate a run over several processes",
		Long: `Coordinate a run over several processes.

The coordinator loads the reference database, hands input files to workers
one at a time and prints every result line. It also processes files itself.
It waits until --nodes workers ("kite work --join host:port") have joined
before any file is handed out; workers started without -d receive the
database from the coordinator.`,
		Example: `  kite serve -d hpv.fa --listen :7070 --nodes 3 *.fq.gz > results.tsv
  kite work --join coordinator:7070   # on each of 3 hosts`,
		RunE: func(cmd *cobra.Command, args []string) error {
			started := time.Now()
			cfg, err := resolve(g, v)
			if err != nil {
				return err
			}
			if nodes < 0 {
				return fail(appcore.ExitUsage, errors.New("--nodes must be ≥ 0"))
			}
			files, err := inputFiles(args, f.fileList)
			if err != nil {
				return err
			}
			logConfig(cfg)
			db, err := loadDatabase(cfg)
			if err != nil {
				return err
			}
			var ln net.Listener
			if nodes > 0 {
				if ln, err = net.Listen("tcp", listen); err != nil {
					return fail(appcore.ExitUsage, errors.Wrapf(err, "listen on %s", listen))
				}
			}
			code := appcore.Run(cmd.Context(), stdout, stderr, appcore.Options{
				Config:       cfg,
				DB:           db,
				Files:        files,
				LocalWorkers: 1,
				Remote:       nodes,
				Listener:     ln,
				Progress:     f.progress,
				InfoFile:     f.infoFile,
				Started:      started,
			})
			if code != appcore.ExitOK {
				return fail(code, nil)
			}
			return nil
		},
	}
	config.Register(cmd.Flags(), v)
	f.register(cmd)
	cmd.Flags().StringVar(&listen, "listen", ":7070", "address workers connect to")
	cmd.Flags().IntVar(&nodes, "nodes", 0, "number of remote workers to wait for")
	return cmd
}
