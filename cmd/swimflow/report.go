package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/adwikanair2008-hue/swim-flow/internal/core"
	"github.com/adwikanair2008-hue/swim-flow/internal/stats"
	"github.com/adwikanair2008-hue/swim-flow/internal/store"
	"github.com/adwikanair2008-hue/swim-flow/internal/utils"
)

const reportRecentSessions = 5

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("39"))
	labelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	boxStyle   = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("31")).
			Padding(0, 1)

	badgeStyles = map[stats.Badge]lipgloss.Style{
		stats.BadgeExceeded: lipgloss.NewStyle().Foreground(lipgloss.Color("42")),
		stats.BadgeMet:      lipgloss.NewStyle().Foreground(lipgloss.Color("39")),
		stats.BadgeBelow:    lipgloss.NewStyle().Foreground(lipgloss.Color("203")),
		stats.BadgeNew:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	}
)

func renderReport(snap store.Snapshot, now time.Time) string {
	p := snap.Profile
	bmi := core.BMI(p)

	header := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(fmt.Sprintf("%s · %s", p.Name, p.SwimmingLevel)),
		row("BMI", fmt.Sprintf("%.1f (%s)", bmi, core.BMIStatus(bmi))),
		row("Sessions", fmt.Sprintf("%d", stats.SessionCount(snap.Sessions))),
		row("Total distance", utils.FormatDistance(stats.TotalDistance(snap.Sessions))),
	))

	cmp := stats.WeeklyComparison(snap.Sessions, now)
	weekly := boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render("This week vs last week"),
		row("Sessions", fmt.Sprintf("%d vs %d %s", cmp.ThisWeek.Sessions, cmp.LastWeek.Sessions, badge(cmp.SessionsBadge))),
		row("Distance", fmt.Sprintf("%s vs %s %s",
			utils.FormatDistance(cmp.ThisWeek.Distance), utils.FormatDistance(cmp.LastWeek.Distance), badge(cmp.DistanceBadge))),
	))

	return lipgloss.JoinVertical(lipgloss.Left,
		header,
		weekly,
		recentBlock(snap.Sessions),
		volumeBlock(snap.Sessions),
	)
}

func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-15s", label)) + value
}

func badge(b stats.Badge) string {
	return badgeStyles[b].Render("[" + string(b) + "]")
}

func recentBlock(sessions []store.Session) string {
	lines := []string{titleStyle.Render("Recent swims")}
	recent := stats.RecentSessions(sessions, reportRecentSessions)
	if len(recent) == 0 {
		lines = append(lines, labelStyle.Render("No swims logged yet"))
	}
	for _, s := range recent {
		pace := "--:--"
		if v, err := stats.Pace(s.Distance, s.Time); err == nil {
			pace = utils.FormatPace(v)
		}
		lines = append(lines, fmt.Sprintf("%-10s  %-12s %8s  %9s  %s/100m  %s",
			s.Date, s.Stroke, utils.FormatDistance(s.Distance), utils.FormatDuration(s.Time), pace, s.Feeling))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}

func volumeBlock(sessions []store.Session) string {
	weeks := stats.WeeklyVolumeSeries(sessions)
	if len(weeks) == 0 {
		return ""
	}
	maxDistance := 0
	for _, w := range weeks {
		maxDistance = max(maxDistance, w.TotalDistance)
	}

	lines := []string{titleStyle.Render("Weekly volume")}
	for _, w := range weeks {
		width := 1
		if maxDistance > 0 {
			width = max(1, w.TotalDistance*20/maxDistance)
		}
		bar := strings.Repeat("█", width)
		lines = append(lines, fmt.Sprintf("%s  %s %s", w.WeekLabel, badgeStyles[stats.BadgeMet].Render(bar), utils.FormatDistance(w.TotalDistance)))
	}
	return boxStyle.Render(lipgloss.JoinVertical(lipgloss.Left, lines...))
}
