package persistence

import (
	"fmt"
	"strings"
	"time"
)

const defaultSeriesDigits = 5

// expandSeries resolves the date parts of a naming series such as
// "DN-BAL-.YY.-.#####" and returns the name prefix and counter width.
// Parts are separated by dots; YY, YYYY and MM are replaced by the date and a
// run of '#' sets the width. A series without '#' gets five digits appended.
func expandSeries(series string, now time.Time) (prefix string, digits int) {
	if !strings.Contains(series, ".") && !strings.Contains(series, "#") {
		return series, defaultSeriesDigits
	}
	var b strings.Builder
	for _, part := range strings.Split(series, ".") {
		switch {
		case part == "YY":
			b.WriteString(now.Format("06"))
		case part == "YYYY":
			b.WriteString(now.Format("2006"))
		case part == "MM":
			b.WriteString(now.Format("01"))
		case part != "" && strings.Trim(part, "#") == "":
			digits = len(part)
		default:
			b.WriteString(part)
		}
	}
	if digits == 0 {
		digits = defaultSeriesDigits
	}
	return b.String(), digits
}

// formatSeriesName renders the n-th name of an expanded series
func formatSeriesName(prefix string, digits int, n int64) string {
	return fmt.Sprintf("%s%0*d", prefix, digits, n)
}
