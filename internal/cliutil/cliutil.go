// internal/cliutil/cliutil.go
package cliutil

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

func hasGlobMeta(s string) bool { return strings.ContainsAny(s, "*?[") }

// ExpandPositionals expands any globs among input file arguments. A glob that
// matches nothing is an error; plain paths are kept as given.
func ExpandPositionals(posArgs []string) ([]string, error) {
	var out []string
	for _, a := range posArgs {
		if a == "-" || !hasGlobMeta(a) {
			out = append(out, a)
			continue
		}
		m, err := filepath.Glob(a)
		if err != nil {
			return nil, errors.Wrapf(err, "bad glob %q", a)
		}
		if len(m) == 0 {
			return nil, errors.Errorf("no input matched %q", a)
		}
		out = append(out, m...)
	}
	return out, nil
}

// ReadFileList reads one input path per line; blank lines and lines starting
// with '#' are ignored.
func ReadFileList(path string) ([]string, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, errors.Wrap(err, "file list")
	}
	defer fh.Close()
	var out []string
	sc := bufio.NewScanner(fh)
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		out = append(out, line)
	}
	return out, errors.Wrap(sc.Err(), "file list")
}
