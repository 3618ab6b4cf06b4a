// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"kite/internal/matcher"
	"kite/internal/seqio"
	"kite/internal/shingle"
	"kite/internal/writers"
)

// EnvPrefix prefixes every environment variable, e.g. KITE_SHINGLE_LENGTH.
const EnvPrefix = "KITE"

// Keys shared by flags, environment variables and config files.
const (
	KeyShingleLength     = "shingle-length"
	KeyThreads           = "threads"
	KeyProcessingBuffer  = "processing-buffer"
	KeyGzipBuffer        = "gzip-buffer"
	KeyGzipBlocks        = "gzip-blocks"
	KeyReaderBuffer      = "reader-buffer"
	KeyOutputCount       = "output-count"
	KeyDatabasePaths     = "database-paths"
	KeyFilesGroupPattern = "files-group-pattern"
	KeySeparators        = "separators"
	KeyFormat            = "format"
)

// Config is the resolved run configuration. Buffer sizes are in KiB, as
// given by the user.
type Config struct {
	// Matching
	ShingleLength string
	Lengths       shingle.Lengths

	// Performance
	Threads          int
	ProcessingBuffer int
	GzipBuffer       int
	GzipBlocks       int
	ReaderBuffer     int

	// Input
	DatabasePaths     []string
	FilesGroupPattern string
	Separators        string

	// Output
	OutputCount int
	Format      string // a registered writers format
}

// New returns a viper instance with defaults and KITE_ environment binding.
func New() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	v.SetDefault(KeyShingleLength, "31")
	v.SetDefault(KeyThreads, 0)
	v.SetDefault(KeyProcessingBuffer, 64)
	v.SetDefault(KeyGzipBuffer, 512)
	v.SetDefault(KeyGzipBlocks, 8)
	v.SetDefault(KeyReaderBuffer, 512)
	v.SetDefault(KeyOutputCount, 0)
	v.SetDefault(KeyDatabasePaths, []string{})
	v.SetDefault(KeyFilesGroupPattern, "")
	v.SetDefault(KeySeparators, "")
	v.SetDefault(KeyFormat, writers.FormatText)
	return v
}

// Register defines the configuration flags on fs and binds them to v, so a
// flag set on the command line wins over the environment and config files.
func Register(fs *pflag.FlagSet, v *viper.Viper) {
	fs.StringP(KeyShingleLength, "k", "31", "shingle length(s), comma separated (e.g. 21,31)")
	fs.IntP(KeyThreads, "j", 0, "worker goroutines per process (0=all CPUs)")
	fs.Int(KeyProcessingBuffer, 64, "bases per processing chunk, in KiB")
	fs.Int(KeyGzipBuffer, 512, "gzip decompression block size, in KiB")
	fs.Int(KeyGzipBlocks, 8, "gzip blocks decompressed ahead")
	fs.Int(KeyReaderBuffer, 512, "input reader buffer, in KiB")
	fs.IntP(KeyOutputCount, "n", 0, "references printed per result line (<=0 = all)")
	fs.StringSliceP(KeyDatabasePaths, "d", nil, "reference FASTA file(s); also split on the OS path list separator")
	fs.StringP(KeyFilesGroupPattern, "g", "", "regular expression whose leftmost match groups input files")
	fs.String(KeySeparators, "", "extra characters ending a reference name (besides whitespace), e.g. '|'")
	fs.StringP(KeyFormat, "o", writers.FormatText, "output format: "+strings.Join(writers.FormatNames(), " | "))
	fs.VisitAll(func(f *pflag.Flag) {
		_ = v.BindPFlag(f.Name, f)
	})
}

// LoadEnvFile loads KEY=value pairs from path into the process environment
// without overriding variables that are already set. A missing file is an
// error only when required.
func LoadEnvFile(path string, required bool) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); err != nil && !required {
		return nil
	}
	return errors.Wrapf(godotenv.Load(path), "env file %s", path)
}

// ReadFile merges a config file (any format viper understands) into v.
func ReadFile(v *viper.Viper, path string) error {
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	return errors.Wrapf(v.ReadInConfig(), "config file %s", path)
}

// FromViper resolves and validates the configuration held by v.
func FromViper(v *viper.Viper) (*Config, error) {
	c := &Config{
		ShingleLength:     v.GetString(KeyShingleLength),
		Threads:           v.GetInt(KeyThreads),
		ProcessingBuffer:  v.GetInt(KeyProcessingBuffer),
		GzipBuffer:        v.GetInt(KeyGzipBuffer),
		GzipBlocks:        v.GetInt(KeyGzipBlocks),
		ReaderBuffer:      v.GetInt(KeyReaderBuffer),
		OutputCount:       v.GetInt(KeyOutputCount),
		DatabasePaths:     SplitPaths(v.GetStringSlice(KeyDatabasePaths)),
		FilesGroupPattern: v.GetString(KeyFilesGroupPattern),
		Separators:        v.GetString(KeySeparators),
		Format:            v.GetString(KeyFormat),
	}
	lens, err := shingle.ParseLengths(c.ShingleLength)
	if err != nil {
		return nil, errors.Wrapf(err, "--%s", KeyShingleLength)
	}
	c.Lengths = lens
	if c.Threads == 0 {
		c.Threads = runtime.NumCPU()
	}
	return c, c.Validate()
}

// SplitPaths flattens path values that may themselves hold several paths
// joined by the OS list separator or commas.
func SplitPaths(vals []string) []string {
	var out []string
	for _, v := range vals {
		for _, p := range filepath.SplitList(v) {
			for _, q := range strings.Split(p, ",") {
				if q = strings.TrimSpace(q); q != "" {
					out = append(out, q)
				}
			}
		}
	}
	return out
}

// Validate checks value ranges and that the output format is registered.
func (c *Config) Validate() error {
	if len(c.Lengths) == 0 {
		return errors.Errorf("--%s must name at least one positive length", KeyShingleLength)
	}
	if c.Threads < 0 {
		return errors.Errorf("--%s must be ≥ 0", KeyThreads)
	}
	for _, kv := range []struct {
		key string
		val int
	}{
		{KeyProcessingBuffer, c.ProcessingBuffer},
		{KeyGzipBuffer, c.GzipBuffer},
		{KeyGzipBlocks, c.GzipBlocks},
		{KeyReaderBuffer, c.ReaderBuffer},
	} {
		if kv.val <= 0 {
			return errors.Errorf("--%s must be > 0", kv.key)
		}
	}
	if _, ok := writers.Formatters[c.Format]; !ok {
		return errors.Errorf("invalid --%s %q (one of: %s)", KeyFormat, c.Format, strings.Join(writers.FormatNames(), ", "))
	}
	return nil
}

// Matcher returns the matcher settings derived from c.
func (c *Config) Matcher() matcher.Config {
	return matcher.Config{
		Lengths:   c.Lengths,
		Threshold: c.ProcessingBuffer * 1024,
		ReaderBuf: c.ReaderBuffer * 1024,
		Open:      seqio.OpenOptions{GzipBlockSize: c.GzipBuffer * 1024, GzipBlocks: c.GzipBlocks},
	}
}

// Field is one name/value pair of the configuration, for logging.
type Field struct {
	Name  string
	Value string
}

// Fields lists the configuration in a fixed order.
func (c *Config) Fields() []Field {
	return []Field{
		{"shingle length", c.Lengths.String()},
		{"threads", fmt.Sprint(c.Threads)},
		{"processing buffer", fmt.Sprintf("%d KiB", c.ProcessingBuffer)},
		{"gzip buffer", fmt.Sprintf("%d KiB x %d", c.GzipBuffer, c.GzipBlocks)},
		{"reader buffer", fmt.Sprintf("%d KiB", c.ReaderBuffer)},
		{"output count", fmt.Sprint(c.OutputCount)},
		{"database paths", strings.Join(c.DatabasePaths, string(os.PathListSeparator))},
		{"files group pattern", c.FilesGroupPattern},
		{"name separators", c.Separators},
		{"format", c.Format},
	}
}
