package miscutils

import (
	"fmt"
	"strings"
	"time"
)

// FormatDuration formats sub-second durations with a unit that keeps them readable.
func FormatDuration(d time.Duration) string {
	if d == 0 {
		return "0s"
	}

	// Format based on magnitude.
	switch {
	case d < time.Microsecond:
		return fmt.Sprintf("%.0fns", float64(d.Nanoseconds()))
	case d < time.Millisecond:
		return fmt.Sprintf("%.2fμs", float64(d.Nanoseconds())/1000)
	case d < time.Second:
		return fmt.Sprintf("%.2fms", float64(d.Nanoseconds())/1000000)
	default:
		return fmt.Sprintf("%.2fs", d.Seconds())
	}
}

// FormatClock formats d in whole seconds as "1h1m1s", dropping units that are zero.
// Seconds are always shown below one minute, so zero is "0s". Negative durations count as zero.
func FormatClock(d time.Duration) string {
	seconds := int64(d / time.Second)
	if seconds < 0 {
		seconds = 0
	}

	hours, rest := seconds/3600, seconds%3600
	minutes, seconds := rest/60, rest%60

	var sb strings.Builder
	if hours > 0 {
		fmt.Fprintf(&sb, "%dh", hours)
	}
	if minutes > 0 {
		fmt.Fprintf(&sb, "%dm", minutes)
	}
	if seconds > 0 || (hours == 0 && minutes == 0) {
		fmt.Fprintf(&sb, "%ds", seconds)
	}
	return sb.String()
}
