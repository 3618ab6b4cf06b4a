package app

import (
	"io"
	"time"

	"github.com/spf13/cobra"

	"kite/internal/appcore"
	"kite/internal/config"
)

type runFlags struct {
	fileList string
	workers  int
	progress bool
	infoFile string
}

func (f *runFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.StringVar(&f.fileList, "file-list", "", "file with one input path per line")
	fs.BoolVar(&f.progress, "progress", false, "show a progress bar of processed files")
	fs.StringVar(&f.infoFile, "info-file", "", "write a TOML summary of the run to this file")
}

func newRunCmd(g *globals, stdout, stderr io.Writer) *cobra.Command {
	v := config.New()
	f := &runFlags{}
	cmd := &cobra.Command{
		Use:   "run [flags] files...",
		Short: "Screen input files in this process",
		Long: `Screen input files in this process.

Each file gets one output line: up to -n references with their scores, then
the file name. With -g, files whose names share the leftmost match of the
pattern form a group, and one more line is printed for each group once all
of its files are done.`,
		Example: `  kite run -d hpv.fa -n 3 *.fq.gz
  kite run -d hpv.fa -g '^[^_]+' --progress sample1_R1.fq.gz sample1_R2.fq.gz`,
		RunE: func(cmd *cobra.Command, args []string) error {
			started := time.Now()
			cfg, err := resolve(g, v)
			if err != nil {
				return err
			}
			files, err := inputFiles(args, f.fileList)
			if err != nil {
				return err
			}
			if f.workers < 1 {
				f.workers = 1
			}
			logConfig(cfg)
			db, err := loadDatabase(cfg)
			if err != nil {
				return err
			}
			code := appcore.Run(cmd.Context(), stdout, stderr, appcore.Options{
				Config:       cfg,
				DB:           db,
				Files:        files,
				LocalWorkers: f.workers,
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
	cmd.Flags().IntVar(&f.workers, "workers", 1, "files processed at the same time (they share the -j goroutines)")
	return cmd
}
