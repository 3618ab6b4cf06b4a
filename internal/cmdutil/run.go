// internal/cmdutil/run.go
package cmdutil

import (
	"fmt"
	"time"
)

// Seconds renders d the way timing lines are logged ("12.345678901").
func Seconds(d time.Duration) string {
	return fmt.Sprintf("%.9f", d.Seconds())
}

// Since is Seconds(time.Since(t)).
func Since(t time.Time) string { return Seconds(time.Since(t)) }
