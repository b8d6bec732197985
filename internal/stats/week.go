// Package stats derives dashboard and progress figures from the session log.
// Every function is pure: the reference time is always passed in.
package stats

import (
	"sort"
	"time"

	"github.com/adwikanair2008-hue/swim-flow/internal/store"
)

func TotalDistance(sessions []store.Session) int {
	total := 0
	for _, s := range sessions {
		total += s.Distance
	}
	return total
}

func SessionCount(sessions []store.Session) int {
	return len(sessions)
}

// WeekBoundary returns Monday 00:00 of the ISO week containing t, in t's location.
func WeekBoundary(t time.Time) time.Time {
	y, m, d := t.Date()
	midnight := time.Date(y, m, d, 0, 0, 0, 0, t.Location())
	sinceMonday := (int(midnight.Weekday()) + 6) % 7
	return midnight.AddDate(0, 0, -sinceMonday)
}

type Partition struct {
	ThisWeek []store.Session
	LastWeek []store.Session
}

// PartitionByWeek puts each session in at most one bucket. Session dates are
// calendar days and are read in ref's location.
func PartitionByWeek(sessions []store.Session, ref time.Time) Partition {
	thisMonday := WeekBoundary(ref)
	lastMonday := thisMonday.AddDate(0, 0, -7)

	p := Partition{ThisWeek: []store.Session{}, LastWeek: []store.Session{}}
	for _, s := range sessions {
		day := s.Date.Midnight(ref.Location())
		switch {
		case !day.Before(thisMonday):
			p.ThisWeek = append(p.ThisWeek, s)
		case !day.Before(lastMonday):
			p.LastWeek = append(p.LastWeek, s)
		}
	}
	return p
}

// RecentSessions returns the n newest sessions by date, newest first.
func RecentSessions(sessions []store.Session, n int) []store.Session {
	out := make([]store.Session, len(sessions))
	copy(out, sessions)
	sort.SliceStable(out, func(i, j int) bool {
		if !out[i].Date.Equal(out[j].Date.Time) {
			return out[i].Date.After(out[j].Date.Time)
		}
		return out[i].ID > out[j].ID
	})
	if n >= 0 && len(out) > n {
		out = out[:n]
	}
	return out
}
