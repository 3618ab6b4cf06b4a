// internal/writers/registry.go
package writers

import (
	"fmt"
	"sort"
)

// Formatters (format → line renderer). Register in init() blocks.
var Formatters = map[string]func(Record) (string, error){}

// RegisterFormat adds or replaces a formatter (last wins).
func RegisterFormat(format string, fn func(Record) (string, error)) { Formatters[format] = fn }

// Format renders rec with the named formatter.
func Format(format string, rec Record) (string, error) {
	fn, ok := Formatters[format]
	if !ok {
		return "", fmt.Errorf("unknown output format %q (no formatter registered)", format)
	}
	return fn(rec)
}

// FormatNames lists registered formats.
func FormatNames() []string {
	names := make([]string, 0, len(Formatters))
	for n := range Formatters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
