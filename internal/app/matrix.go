package app

import (
	"io"

	"github.com/spf13/cobra"

	"kite/internal/appcore"
	"kite/internal/config"
	"kite/internal/matcher"
	"kite/internal/matrix"
	"kite/internal/writers"
)

func newMatrixCmd(g *globals, stdout io.Writer) *cobra.Command {
	v := config.New()
	cmd := &cobra.Command{
		Use:   "matrix [flags] [reference.fa...]",
		Short: "Print the all-vs-all containment matrix of the references",
		Long: `Print the all-vs-all containment matrix of the references.

Cell (row, column) is the fraction of the column reference's shingles that
are also shingles of the row reference. Names are in natural order (HPV2
before HPV16).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolve(g, v)
			if err != nil {
				return err
			}
			cfg.DatabasePaths = append(cfg.DatabasePaths, config.SplitPaths(args)...)
			db, err := loadDatabase(cfg)
			if err != nil {
				return err
			}
			pool := matcher.NewPool(cfg.Threads)
			defer pool.Close()
			m, err := matrix.Build(db, pool)
			if err != nil {
				return fail(appcore.ExitDatabase, err)
			}
			if err := m.Write(stdout); err != nil && !writers.IsBrokenPipe(err) {
				return fail(appcore.ExitOutput, err)
			}
			return nil
		},
	}
	config.Register(cmd.Flags(), v)
	return cmd
}
