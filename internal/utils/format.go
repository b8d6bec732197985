package utils

import (
	"fmt"
	"math"
)

// Round1 rounds to one decimal place. Only presentation code should call it.
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// FormatDuration renders seconds the way the session card shows them, e.g. "30m 5s".
func FormatDuration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%dm %ds", seconds/60, seconds%60)
}

// FormatPace renders seconds per 100m as m:ss.
func FormatPace(pace float64) string {
	if math.IsNaN(pace) || math.IsInf(pace, 0) || pace < 0 {
		return "--:--"
	}
	total := int(math.Round(pace))
	return fmt.Sprintf("%d:%02d", total/60, total%60)
}

// FormatDistance renders meters, switching to km from 1000m up.
func FormatDistance(meters int) string {
	if meters < 1000 {
		return fmt.Sprintf("%dm", meters)
	}
	return fmt.Sprintf("%.1fkm", float64(meters)/1000)
}
