package app

import (
	"time"

	"github.com/dustin/go-humanize"
	"github.com/pkg/errors"

	"kite/internal/appcore"
	"kite/internal/cliutil"
	"kite/internal/cmdutil"
	"kite/internal/config"
	"kite/internal/refdb"
)

// loadDatabase reads every configured reference file into one sealed
// database. Any failure is fatal for the process.
func loadDatabase(cfg *config.Config) (*refdb.Database, error) {
	if len(cfg.DatabasePaths) == 0 {
		return nil, fail(appcore.ExitUsage,
			errors.New("no reference database given (-d/--database-paths or KITE_DATABASE_PATHS)"))
	}
	start := time.Now()
	db := refdb.New(cfg.Lengths, refdb.WithSeparators(cfg.Separators))
	for _, p := range cfg.DatabasePaths {
		t := time.Now()
		before := db.Len()
		if err := db.LoadPath(p); err != nil {
			return nil, fail(appcore.ExitDatabase, errors.Wrap(err, "load reference database"))
		}
		cmdutil.Log.Infof("loaded %d references from '%s' in %s", db.Len()-before, p, cmdutil.Since(t))
	}
	db.Seal()
	logDatabase(db)
	cmdutil.Log.Infof("reference database ready: %d references, %s distinct shingles, in %s",
		db.Len(), humanize.Comma(int64(db.SupersetLen())), cmdutil.Since(start))
	return db, nil
}

func logDatabase(db *refdb.Database) {
	for _, n := range db.Names() {
		sig, err := db.Signature(n)
		if err != nil {
			continue
		}
		if sig.Len() == 0 {
			cmdutil.Log.Warningf("reference '%s' is shorter than the longest shingle; its score is NaN", n)
			continue
		}
		cmdutil.Log.Debugf("reference '%s': %s shingles", n, humanize.Comma(int64(sig.Len())))
	}
}

// inputFiles collects the files to screen from positionals (globs expanded)
// and an optional file list.
func inputFiles(args []string, listFile string) ([]string, error) {
	files, err := cliutil.ExpandPositionals(args)
	if err != nil {
		return nil, fail(appcore.ExitUsage, err)
	}
	if listFile != "" {
		more, err := cliutil.ReadFileList(listFile)
		if err != nil {
			return nil, fail(appcore.ExitUsage, err)
		}
		files = append(files, more...)
	}
	if len(files) == 0 {
		return nil, fail(appcore.ExitUsage, errors.New("give input files (e.g. *.fq.gz) as arguments"))
	}
	return files, nil
}
