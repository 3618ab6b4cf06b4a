// internal/writers/lines.go
package writers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"
	"syscall"

	"kite/internal/rank"
)

const (
	FormatText  = "text"
	FormatJSONL = "jsonl"
)

// Record kinds.
const (
	KindFile  = "file"
	KindGroup = "group"
)

// Record is one ranked file or group, truncated to the top K results.
type Record struct {
	ID      string
	Kind    string
	Results []rank.Result
}

// NewRecord keeps the top k results (k <= 0 keeps all).
func NewRecord(kind, id string, rs []rank.Result, k int) Record {
	return Record{ID: id, Kind: kind, Results: rank.Top(rs, k)}
}

func init() {
	RegisterFormat(FormatText, func(r Record) (string, error) { return FormatLine(r.Results, r.ID), nil })
	RegisterFormat(FormatJSONL, formatJSONL)
}

// FormatLine renders "<name>\t<score>\t" per result followed by id. Names are
// left-justified to 10 columns, scores have six decimals, NaN prints as NaN.
func FormatLine(rs []rank.Result, id string) string {
	var b strings.Builder
	for _, r := range rs {
		fmt.Fprintf(&b, "%-10s\t%.6f\t", r.Name, r.Score)
	}
	b.WriteString(id)
	return b.String()
}

type jsonResult struct {
	Name  string   `json:"name"`
	Score *float64 `json:"score"`
}

type jsonRecord struct {
	Kind    string       `json:"kind"`
	ID      string       `json:"id"`
	Results []jsonResult `json:"results"`
}

func formatJSONL(r Record) (string, error) {
	out := jsonRecord{Kind: r.Kind, ID: r.ID, Results: make([]jsonResult, len(r.Results))}
	for i, x := range r.Results {
		out.Results[i].Name = x.Name
		if !math.IsNaN(x.Score) {
			s := x.Score
			out.Results[i].Score = &s
		}
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// StartLineWriter spins up the goroutine that owns out. Each received line is
// written whole with a trailing newline. The error channel yields once, after
// the input channel is closed and drained.
func StartLineWriter(out io.Writer, bufSize int) (chan<- string, <-chan error) {
	if bufSize <= 0 {
		bufSize = 64
	}
	in := make(chan string, bufSize)
	errCh := make(chan error, 1)
	go func() {
		var err error
		for line := range in {
			if err != nil {
				continue // keep draining so senders never block
			}
			_, err = io.WriteString(out, line+"\n")
		}
		errCh <- err
	}()
	return in, errCh
}

// IsBrokenPipe reports whether an error is a broken pipe / closed pipe.
// Useful when downstream consumers (like `head`) close early.
func IsBrokenPipe(err error) bool {
	return err != nil && (errors.Is(err, syscall.EPIPE) || errors.Is(err, io.ErrClosedPipe))
}
