package store

import (
	"encoding/json"
	"fmt"
	"time"
)

const (
	// ChatHistoryCap bounds the persisted chat; older messages are dropped.
	ChatHistoryCap = 50

	dateLayout = "2006-01-02"
)

type Profile struct {
	Name           string        `json:"name"`
	Email          string        `json:"email"`
	Age            int           `json:"age"`
	Gender         Gender        `json:"gender"`
	SwimmingLevel  SwimmingLevel `json:"swimmingLevel"`
	IsOnboarded    bool          `json:"isOnboarded"`
	Weight         float64       `json:"weight"` // kg
	Height         float64       `json:"height"` // cm
	TargetWeight   *float64      `json:"targetWeight,omitempty"`
	ProfilePicture string        `json:"profilePicture,omitempty"` // data URL
}

func (p *Profile) Validate() error {
	if p.Height <= 0 {
		return fmt.Errorf("height must be positive, got %v", p.Height)
	}
	if p.Weight <= 0 {
		return fmt.Errorf("weight must be positive, got %v", p.Weight)
	}
	if !p.SwimmingLevel.Valid() {
		return fmt.Errorf("unknown swimming level %q", p.SwimmingLevel)
	}
	return nil
}

type Session struct {
	ID       string  `json:"id"`
	Date     Date    `json:"date"`
	Stroke   Stroke  `json:"stroke"`
	Distance int     `json:"distance"` // meters
	Time     int     `json:"time"`     // seconds
	Feeling  Feeling `json:"feeling"`
	Notes    string  `json:"notes"`
}

func (s *Session) Validate() error {
	if s.Distance <= 0 {
		return fmt.Errorf("session %s: distance must be positive, got %d", s.ID, s.Distance)
	}
	if s.Time <= 0 {
		return fmt.Errorf("session %s: time must be positive, got %d", s.ID, s.Time)
	}
	if s.Date.IsZero() {
		return fmt.Errorf("session %s: date is required", s.ID)
	}
	return nil
}

type ChatMessage struct {
	Role Role   `json:"role"`
	Text string `json:"text"`
}

// CapChat keeps the newest ChatHistoryCap messages in their original order.
func CapChat(history []ChatMessage) []ChatMessage {
	if len(history) > ChatHistoryCap {
		history = history[len(history)-ChatHistoryCap:]
	}
	out := make([]ChatMessage, len(history))
	copy(out, history)
	return out
}

type DrylandExercise struct {
	Name        string   `json:"name"`
	Sets        string   `json:"sets"`
	Reps        string   `json:"reps"`
	Description string   `json:"description"`
	Benefit     string   `json:"benefit"`
	FocusArea   string   `json:"focusArea"`
	RestTime    int      `json:"restTime"` // seconds
	Steps       []string `json:"steps"`
	VideoURL    string   `json:"videoUrl"`
}

// Snapshot is the unit of persistence: everything the app knows about the athlete.
type Snapshot struct {
	Profile     *Profile      `json:"profile"`
	Sessions    []Session     `json:"sessions"`
	ChatHistory []ChatMessage `json:"chatHistory"`
	ActiveTab   Tab           `json:"activeTab"`
	LastSaved   int64         `json:"lastSaved"` // epoch millis
}

func EmptySnapshot() Snapshot {
	return Snapshot{
		Sessions:    []Session{},
		ChatHistory: []ChatMessage{},
		ActiveTab:   TabHome,
	}
}

// NeedsOnboarding reports whether the snapshot lacks an onboarded profile.
func (s Snapshot) NeedsOnboarding() bool {
	return s.Profile == nil || !s.Profile.IsOnboarded
}

func (s Snapshot) LastSavedTime() time.Time {
	if s.LastSaved == 0 {
		return time.Time{}
	}
	return time.UnixMilli(s.LastSaved)
}

// Clone returns a deep copy so callers can never mutate shared state.
func (s Snapshot) Clone() Snapshot {
	out := Snapshot{
		ActiveTab: s.ActiveTab,
		LastSaved: s.LastSaved,
		Sessions:  make([]Session, len(s.Sessions)),
	}
	copy(out.Sessions, s.Sessions)
	out.ChatHistory = make([]ChatMessage, len(s.ChatHistory))
	copy(out.ChatHistory, s.ChatHistory)
	if s.Profile != nil {
		p := *s.Profile
		if s.Profile.TargetWeight != nil {
			tw := *s.Profile.TargetWeight
			p.TargetWeight = &tw
		}
		out.Profile = &p
	}
	return out
}

// Date is a calendar date. It marshals as YYYY-MM-DD when it carries no time of
// day and as RFC 3339 otherwise, so loaded values survive a save unchanged.
type Date struct {
	time.Time
}

func NewDate(year int, month time.Month, day int) Date {
	return Date{time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func ParseDate(s string) (Date, error) {
	if t, err := time.Parse(dateLayout, s); err == nil {
		return Date{t}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q: expected YYYY-MM-DD or RFC 3339", s)
	}
	return Date{t}, nil
}

func (d Date) String() string {
	if d.IsZero() {
		return ""
	}
	h, m, sec := d.Clock()
	// a bare date reads back as UTC midnight, so only a zero offset may drop the time
	if _, offset := d.Zone(); offset == 0 && h == 0 && m == 0 && sec == 0 && d.Nanosecond() == 0 {
		return d.Format(dateLayout)
	}
	return d.Format(time.RFC3339Nano)
}

// Midnight projects the calendar day onto loc.
func (d Date) Midnight(loc *time.Location) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, loc)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	if s == "" {
		*d = Date{}
		return nil
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}
