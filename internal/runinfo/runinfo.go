// Package runinfo writes a TOML summary of a finished run.
package runinfo

import (
	"os"
	"time"

	"github.com/pelletier/go-toml/v2"
	"github.com/pkg/errors"
)

// Info summarizes one run.
type Info struct {
	Version       string    `toml:"version" comment:"kite"`
	Started       time.Time `toml:"started"`
	Elapsed       float64   `toml:"elapsed-seconds"`
	ShingleLength string    `toml:"shingle-length" comment:"Reference database"`
	DatabasePaths []string  `toml:"database-paths"`
	References    int       `toml:"references"`
	Superset      int       `toml:"superset-shingles"`
	Workers       int       `toml:"workers" comment:"Work"`
	Files         int       `toml:"files"`
	FailedFiles   []string  `toml:"failed-files"`
	Groups        []Group   `toml:"groups"`
}

// Group is one file group and its size.
type Group struct {
	Key   string `toml:"key"`
	Files int    `toml:"files"`
}

// Write stores info as TOML in file.
func Write(file string, info *Info) error {
	data, err := toml.Marshal(info)
	if err != nil {
		return errors.Wrap(err, "encode run info")
	}
	return errors.Wrapf(os.WriteFile(file, data, 0o644), "write run info %s", file)
}

// Read loads a run info file.
func Read(file string) (*Info, error) {
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, errors.Wrapf(err, "read run info %s", file)
	}
	v := &Info{}
	return v, errors.Wrapf(toml.Unmarshal(data, v), "decode run info %s", file)
}
