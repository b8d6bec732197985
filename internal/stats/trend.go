package stats

import (
	"time"

	"github.com/adwikanair2008-hue/swim-flow/internal/store"
)

type Badge string

const (
	BadgeExceeded Badge = "Exceeded"
	BadgeMet      Badge = "Met"
	BadgeBelow    Badge = "Below"
	BadgeNew      Badge = "New"
)

// TrendBadge compares this week's figure against last week's. A first week
// with any activity counts as exceeding; two empty weeks are New.
func TrendBadge(current, previous float64) Badge {
	switch {
	case current > previous:
		return BadgeExceeded
	case current < previous:
		return BadgeBelow
	case previous > 0:
		return BadgeMet
	default:
		return BadgeNew
	}
}

type WeekFigures struct {
	Sessions int `json:"sessions"`
	Distance int `json:"distance"`
}

type Comparison struct {
	WeekStart     time.Time   `json:"weekStart"`
	ThisWeek      WeekFigures `json:"thisWeek"`
	LastWeek      WeekFigures `json:"lastWeek"`
	SessionsBadge Badge       `json:"sessionsBadge"`
	DistanceBadge Badge       `json:"distanceBadge"`
}

// WeeklyComparison is the "this week vs last week" card of the dashboard.
func WeeklyComparison(sessions []store.Session, ref time.Time) Comparison {
	p := PartitionByWeek(sessions, ref)
	c := Comparison{
		WeekStart: WeekBoundary(ref),
		ThisWeek:  WeekFigures{Sessions: len(p.ThisWeek), Distance: TotalDistance(p.ThisWeek)},
		LastWeek:  WeekFigures{Sessions: len(p.LastWeek), Distance: TotalDistance(p.LastWeek)},
	}
	c.SessionsBadge = TrendBadge(float64(c.ThisWeek.Sessions), float64(c.LastWeek.Sessions))
	c.DistanceBadge = TrendBadge(float64(c.ThisWeek.Distance), float64(c.LastWeek.Distance))
	return c
}
