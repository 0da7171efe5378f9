// Package format holds the pure string formatting helpers shared by the
// presenters: durations, byte sizes, progress bars and ETAs.
package format

import (
	"fmt"
	"time"
)

// FormatExecutionDuration formats a test or run duration for display.
// Sub-millisecond values are shown in microseconds, sub-second values in
// milliseconds. Longer values are rounded to the millisecond, or to the
// second past one minute, so a slow test reads "2m5s" instead of
// "2m5.123456789s".
//
// Parameters:
//   - d: The duration to format.
//
// Returns:
//   - string: A formatted string representing the duration.
func FormatExecutionDuration(d time.Duration) string {
	switch {
	case d < time.Millisecond:
		return fmt.Sprintf("%dµs", d.Microseconds())
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return d.Round(time.Millisecond).String()
	}
	return d.Round(time.Second).String()
}
