// internal/coord/grouper.go
package coord

import (
	"regexp"

	"github.com/pkg/errors"
)

// Grouper derives a group key from a filename.
type Grouper struct {
	re *regexp.Regexp
}

// NewGrouper compiles pattern. An empty pattern disables grouping (nil).
func NewGrouper(pattern string) (*Grouper, error) {
	if pattern == "" {
		return nil, nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, errors.Wrapf(err, "files group pattern %q", pattern)
	}
	return &Grouper{re: re}, nil
}

// Key is the leftmost match of the pattern in filename, or "" when it does
// not match. Files without a match therefore share the "" group.
func (g *Grouper) Key(filename string) string {
	return g.re.FindString(filename)
}

func (g *Grouper) String() string {
	if g == nil {
		return "<none>"
	}
	return g.re.String()
}
