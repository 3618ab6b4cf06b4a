// internal/app/app.go
package app

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"kite/internal/appcore"
	"kite/internal/cmdutil"
	"kite/internal/config"
	"kite/internal/version"
)

// exitError carries an exit code out of a command. A nil err means the
// failure was already reported.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string {
	if e.err == nil {
		return fmt.Sprintf("exit status %d", e.code)
	}
	return e.err.Error()
}

func (e *exitError) Unwrap() error { return e.err }

func fail(code int, err error) error { return &exitError{code: code, err: err} }

// global flags shared by every command
type globals struct {
	configFile string
	envFile    string
	quiet      bool
	verbose    bool
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	g := &globals{}
	root := &cobra.Command{
		Use:   "kite",
		Short: "Screen sequencing reads against reference viral genomes by shingle containment",
		Long: `kite screens FASTQ files against a FASTA database of reference genomes.

Every reference is turned into the set of its k-long substrings (shingles).
Each input file is scored against every reference by the fraction of the
reference's shingles found in the file, and one line per file (and per file
group, see -g) lists the best-matching references.

Work is spread over a pool of goroutines per process and, with "serve" and
"work", over any number of processes on different hosts.`,
		Version:       version.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cmdutil.SetupLogging(stderr, g.quiet, g.verbose)
			if err := config.LoadEnvFile(g.envFile, cmd.Flags().Changed("env-file")); err != nil {
				return fail(appcore.ExitUsage, err)
			}
			return nil
		},
	}
	root.SetOut(stdout)
	root.SetErr(stderr)
	root.SetVersionTemplate("kite version {{.Version}}\n")
	root.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return fail(appcore.ExitUsage, err)
	})

	pf := root.PersistentFlags()
	pf.StringVar(&g.configFile, "config", "", "config file (toml, yaml or json) with the same keys as the long flags")
	pf.StringVar(&g.envFile, "env-file", ".env", "file of KITE_* environment variables")
	pf.BoolVarP(&g.quiet, "quiet", "q", false, "only log warnings and errors")
	pf.BoolVar(&g.verbose, "verbose", false, "log debug messages")

	root.AddCommand(
		newRunCmd(g, stdout, stderr),
		newServeCmd(g, stdout, stderr),
		newWorkCmd(g),
		newMatrixCmd(g, stdout),
		newVersionCmd(stdout),
	)
	return root
}

// resolve merges the config file into v and returns the validated config.
func resolve(g *globals, v *viper.Viper) (*config.Config, error) {
	if err := config.ReadFile(v, g.configFile); err != nil {
		return nil, fail(appcore.ExitUsage, err)
	}
	cfg, err := config.FromViper(v)
	if err != nil {
		return nil, fail(appcore.ExitUsage, err)
	}
	return cfg, nil
}

// logConfig prints the configuration the way rank 0 announces a run.
func logConfig(cfg *config.Config) {
	cmdutil.Log.Infof("kite version %s", version.Version)
	for _, f := range cfg.Fields() {
		cmdutil.Log.Infof("%-20s %s", f.Name+":", f.Value)
	}
}

// RunContext parses argv, runs the selected command and returns the process
// exit code.
func RunContext(ctx context.Context, argv []string, stdout, stderr io.Writer) int {
	root := newRootCmd(stdout, stderr)
	root.SetArgs(argv)
	err := root.ExecuteContext(ctx)
	if err == nil {
		return appcore.ExitOK
	}
	var ee *exitError
	if errors.As(err, &ee) {
		if ee.err != nil {
			fmt.Fprintln(stderr, "error:", ee.err)
		}
		return ee.code
	}
	if ctx.Err() != nil {
		return appcore.ExitInterrupted
	}
	fmt.Fprintln(stderr, "error:", err)
	fmt.Fprintln(stderr, "run 'kite --help' for usage")
	return appcore.ExitUsage
}

func Run(argv []string, stdout, stderr io.Writer) int {
	return RunContext(context.Background(), argv, stdout, stderr)
}
