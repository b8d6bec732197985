package stats

import (
	"fmt"
	"sort"
	"time"

	"github.com/adwikanair2008-hue/swim-flow/internal/apperr"
	"github.com/adwikanair2008-hue/swim-flow/internal/store"
)

const (
	paceLabelLayout = "Jan 2"
	weekLabelLayout = "2006-01-02"

	// VolumeWeeks is how many distinct weeks the volume chart shows.
	VolumeWeeks = 4
)

// Pace is seconds per 100 meters. It is never rounded here.
func Pace(distance, seconds int) (float64, error) {
	if distance <= 0 {
		return 0, apperr.New(apperr.KindDivisionByZero, "pace",
			fmt.Sprintf("distance must be positive, got %d", distance))
	}
	return float64(seconds) / float64(distance) * 100, nil
}

type PacePoint struct {
	Label     string    `json:"label"`
	Date      time.Time `json:"date"`
	SessionID string    `json:"sessionId"`
	Pace      float64   `json:"pace"`
}

// PaceSeries is ordered oldest first whatever the order of sessions.
func PaceSeries(sessions []store.Session) ([]PacePoint, error) {
	ordered := make([]store.Session, len(sessions))
	copy(ordered, sessions)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].Date.Equal(ordered[j].Date.Time) {
			return ordered[i].Date.Before(ordered[j].Date.Time)
		}
		return ordered[i].ID < ordered[j].ID
	})

	points := make([]PacePoint, 0, len(ordered))
	for _, s := range ordered {
		pace, err := Pace(s.Distance, s.Time)
		if err != nil {
			return nil, fmt.Errorf("session %s: %w", s.ID, err)
		}
		points = append(points, PacePoint{
			Label:     s.Date.Format(paceLabelLayout),
			Date:      s.Date.Time,
			SessionID: s.ID,
			Pace:      pace,
		})
	}
	return points, nil
}

type WeekVolume struct {
	WeekLabel     string    `json:"week"`
	WeekStart     time.Time `json:"weekStart"`
	TotalDistance int       `json:"distance"`
}

// WeeklyVolumeSeries sums distance per ISO week and keeps the most recent
// VolumeWeeks weeks that have any sessions, oldest first.
func WeeklyVolumeSeries(sessions []store.Session) []WeekVolume {
	totals := make(map[time.Time]int)
	for _, s := range sessions {
		monday := WeekBoundary(s.Date.Midnight(time.UTC))
		totals[monday] += s.Distance
	}

	weeks := make([]WeekVolume, 0, len(totals))
	for monday, distance := range totals {
		weeks = append(weeks, WeekVolume{
			WeekLabel:     monday.Format(weekLabelLayout),
			WeekStart:     monday,
			TotalDistance: distance,
		})
	}
	sort.Slice(weeks, func(i, j int) bool {
		return weeks[i].WeekStart.Before(weeks[j].WeekStart)
	})
	if len(weeks) > VolumeWeeks {
		weeks = weeks[len(weeks)-VolumeWeeks:]
	}
	return weeks
}
