package store

import (
	"encoding/json"
	"strings"
)

type Gender string

const (
	GenderMale        Gender = "Male"
	GenderFemale      Gender = "Female"
	GenderUnspecified Gender = "Prefer not to say"
)

// ParseGender never fails: anything that is not Male or Female is Unspecified.
func ParseGender(s string) Gender {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "male":
		return GenderMale
	case "female":
		return GenderFemale
	default:
		return GenderUnspecified
	}
}

func (g *Gender) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	*g = ParseGender(s)
	return nil
}

type SwimmingLevel string

const (
	LevelBeginner    SwimmingLevel = "Beginner"
	LevelCompetitive SwimmingLevel = "Competitive"
	LevelElite       SwimmingLevel = "Elite"
)

var Levels = []SwimmingLevel{LevelBeginner, LevelCompetitive, LevelElite}

func (l SwimmingLevel) Valid() bool {
	switch l {
	case LevelBeginner, LevelCompetitive, LevelElite:
		return true
	default:
		return false
	}
}

// ParseLevel matches case-insensitively. Unknown input is returned as-is so the
// caller can decide; prompt building falls back to neutral advice for it.
func ParseLevel(s string) SwimmingLevel {
	for _, l := range Levels {
		if strings.EqualFold(string(l), strings.TrimSpace(s)) {
			return l
		}
	}
	return SwimmingLevel(strings.TrimSpace(s))
}

type Feeling string

const (
	FeelingEnergized Feeling = "Energized"
	FeelingGood      Feeling = "Good"
	FeelingTired     Feeling = "Tired"
	FeelingExhausted Feeling = "Exhausted"
)

// ParseFeeling defaults to Good, the form default of the session log.
func ParseFeeling(s string) Feeling {
	for _, f := range []Feeling{FeelingEnergized, FeelingGood, FeelingTired, FeelingExhausted} {
		if strings.EqualFold(string(f), strings.TrimSpace(s)) {
			return f
		}
	}
	return FeelingGood
}

type Stroke string

const (
	StrokeFreestyle    Stroke = "Freestyle"
	StrokeBackstroke   Stroke = "Backstroke"
	StrokeBreaststroke Stroke = "Breaststroke"
	StrokeButterfly    Stroke = "Butterfly"
	StrokeMedley       Stroke = "IM (Medley)"
)

var Strokes = []Stroke{StrokeFreestyle, StrokeBackstroke, StrokeBreaststroke, StrokeButterfly, StrokeMedley}

func (s Stroke) Known() bool {
	for _, k := range Strokes {
		if s == k {
			return true
		}
	}
	return false
}

// ParseStroke keeps unknown stroke names verbatim; empty input means Freestyle.
func ParseStroke(s string) Stroke {
	s = strings.TrimSpace(s)
	if s == "" {
		return StrokeFreestyle
	}
	for _, k := range Strokes {
		if strings.EqualFold(string(k), s) {
			return k
		}
	}
	return Stroke(s)
}

type Role string

const (
	RoleUser  Role = "user"
	RoleModel Role = "model"
)

func (r Role) Valid() bool {
	return r == RoleUser || r == RoleModel
}

type Tab string

const (
	TabHome      Tab = "home"
	TabLog       Tab = "log"
	TabProgress  Tab = "progress"
	TabCoach     Tab = "coach"
	TabNutrition Tab = "nutrition"
	TabDrylands  Tab = "drylands"
	TabProfile   Tab = "profile"
)

// ParseTab falls back to home, like the navigation switch of the shell.
func ParseTab(s string) Tab {
	switch t := Tab(strings.ToLower(strings.TrimSpace(s))); t {
	case TabHome, TabLog, TabProgress, TabCoach, TabNutrition, TabDrylands, TabProfile:
		return t
	default:
		return TabHome
	}
}
