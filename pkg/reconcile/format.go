package reconcile

import (
	"fmt"
	"math"
)

// FormatTimestamp renders seconds as HH:MM:SS.cc (hours are not wrapped).
func FormatTimestamp(seconds float64) string {
	if math.IsNaN(seconds) || math.IsInf(seconds, 0) {
		return fmt.Sprintf("%v", seconds)
	}
	sign := ""
	if seconds < 0 {
		sign = "-"
		seconds = -seconds
	}
	centis := int64(math.Floor(seconds*100 + 1e-6))
	return fmt.Sprintf(
		"%s%02d:%02d:%02d.%02d",
		sign, centis/360000, centis/6000%60, centis/100%60, centis%100,
	)
}
