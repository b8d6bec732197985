package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adwikanair2008-hue/swim-flow/internal/apperr"
)

var fixedNow = time.Date(2024, time.March, 14, 9, 30, 0, 0, time.UTC)

func newTestStore(slot Slot) *SnapshotStore {
	return NewSnapshotStore(slot, "").WithClock(func() time.Time { return fixedNow })
}

func sampleSnapshot() Snapshot {
	target := 68.5
	return Snapshot{
		Profile: &Profile{
			Name:          "Ada",
			Email:         "ada@example.com",
			Age:           29,
			Gender:        GenderFemale,
			SwimmingLevel: LevelCompetitive,
			IsOnboarded:   true,
			Weight:        70,
			Height:        175,
			TargetWeight:  &target,
		},
		Sessions: []Session{
			{ID: "s2", Date: NewDate(2024, time.March, 12), Stroke: StrokeButterfly, Distance: 1500, Time: 1500, Feeling: FeelingTired, Notes: "sets of 100"},
			{ID: "s1", Date: NewDate(2024, time.March, 4), Stroke: StrokeFreestyle, Distance: 2000, Time: 1800, Feeling: FeelingGood},
		},
		ChatHistory: []ChatMessage{
			{Role: RoleUser, Text: "How do I improve my turns?"},
			{Role: RoleModel, Text: "Drive off the wall in a tight streamline."},
		},
		ActiveTab: TabProgress,
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(NewMemorySlot(DefaultQuotaBytes))

	saved, err := s.Save(ctx, sampleSnapshot())
	require.NoError(t, err)
	assert.Equal(t, fixedNow.UnixMilli(), saved.LastSaved)

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	assert.Equal(t, saved, *loaded)
}

func TestDateKeepsOffsetAcrossSave(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(NewMemorySlot(DefaultQuotaBytes))

	date, err := ParseDate("2024-03-04T00:00:00+02:00")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04T00:00:00+02:00", date.String())

	snap := sampleSnapshot()
	snap.Sessions[1].Date = date
	_, err = s.Save(ctx, snap)
	require.NoError(t, err)

	loaded, err := s.Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, loaded)
	got := loaded.Sessions[1].Date
	assert.True(t, got.Equal(date.Time), "loaded %s, saved %s", got.UTC(), date.UTC())
	assert.Equal(t, 4, got.Day())

	utcDate, err := ParseDate("2024-03-04T00:00:00Z")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-04", utcDate.String())
}

func TestSaveStampsLastSavedFromClock(t *testing.T) {
	s := newTestStore(NewMemorySlot(DefaultQuotaBytes))
	snap := sampleSnapshot()
	snap.LastSaved = 42

	saved, err := s.Save(context.Background(), snap)
	require.NoError(t, err)
	assert.Equal(t, fixedNow.UnixMilli(), saved.LastSaved)
}

func TestSaveIsIdempotent(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot(DefaultQuotaBytes)
	now := fixedNow
	s := NewSnapshotStore(slot, "").WithClock(func() time.Time { return now })

	first, err := s.Save(ctx, sampleSnapshot())
	require.NoError(t, err)
	before, _, _ := slot.Get(ctx, DefaultSlotName)

	now = now.Add(time.Minute)
	second, err := s.Save(ctx, sampleSnapshot())
	require.NoError(t, err)
	after, _, _ := slot.Get(ctx, DefaultSlotName)

	assert.Equal(t, 1, slot.Writes())
	assert.Equal(t, before, after)
	assert.Equal(t, first, second)

	changed := sampleSnapshot()
	changed.ActiveTab = TabCoach
	third, err := s.Save(ctx, changed)
	require.NoError(t, err)
	assert.Equal(t, 2, slot.Writes())
	assert.Equal(t, now.UnixMilli(), third.LastSaved)
}

func TestLoadAbsentSlot(t *testing.T) {
	s := newTestStore(NewMemorySlot(DefaultQuotaBytes))
	snap, err := s.Load(context.Background())
	require.NoError(t, err)
	assert.Nil(t, snap)
}

func TestLoadMalformedPayload(t *testing.T) {
	for _, payload := range []string{"{not json", "null", "[1,2]", `"text"`} {
		t.Run(payload, func(t *testing.T) {
			ctx := context.Background()
			slot := NewMemorySlot(DefaultQuotaBytes)
			require.NoError(t, slot.Put(ctx, DefaultSlotName, []byte(payload)))

			snap, err := newTestStore(slot).Load(ctx)
			assert.Nil(t, snap)
			assert.ErrorIs(t, err, apperr.ErrMalformedSnapshot)
		})
	}
}

func TestLoadToleratesCorruptFields(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot(DefaultQuotaBytes)
	payload := `{
		"profile": {"name": "Ada", "isOnboarded": true, "weight": 70, "height": 175, "swimmingLevel": "Elite", "password": "hunter2"},
		"sessions": [
			{"id": "ok", "date": "2024-03-04", "stroke": "Freestyle", "distance": 1000, "time": 1200, "feeling": "Good"},
			{"id": "bad", "date": 12, "distance": "far"}
		],
		"chatHistory": "oops",
		"activeTab": 7,
		"extra": {"ignored": true}
	}`
	require.NoError(t, slot.Put(ctx, DefaultSlotName, []byte(payload)))

	snap, err := newTestStore(slot).Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	require.NotNil(t, snap.Profile)
	assert.Equal(t, "Ada", snap.Profile.Name)
	assert.Equal(t, LevelElite, snap.Profile.SwimmingLevel)
	require.Len(t, snap.Sessions, 1)
	assert.Equal(t, "ok", snap.Sessions[0].ID)
	assert.Empty(t, snap.ChatHistory)
	assert.NotNil(t, snap.ChatHistory)
	assert.Equal(t, TabHome, snap.ActiveTab)
	assert.False(t, snap.NeedsOnboarding())
}

func TestLoadMissingFieldsDefaultToEmpty(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot(DefaultQuotaBytes)
	require.NoError(t, slot.Put(ctx, DefaultSlotName, []byte(`{}`)))

	snap, err := newTestStore(slot).Load(ctx)
	require.NoError(t, err)
	require.NotNil(t, snap)
	assert.Equal(t, EmptySnapshot(), *snap)
	assert.True(t, snap.NeedsOnboarding())
}

func TestSaveOverQuotaKeepsPriorPayload(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot(4096)
	s := newTestStore(slot)

	_, err := s.Save(ctx, sampleSnapshot())
	require.NoError(t, err)
	prior, _, _ := slot.Get(ctx, DefaultSlotName)

	huge := sampleSnapshot()
	huge.Profile.ProfilePicture = "data:image/png;base64," + strings.Repeat("A", 8192)
	_, err = s.Save(ctx, huge)
	require.Error(t, err)
	assert.ErrorIs(t, err, apperr.ErrStorageUnavailable)
	var quotaErr *QuotaExceededError
	assert.True(t, errors.As(err, &quotaErr))

	current, _, _ := slot.Get(ctx, DefaultSlotName)
	assert.Equal(t, prior, current)
}

func TestSaveStorageFailure(t *testing.T) {
	slot := NewMemorySlot(DefaultQuotaBytes)
	slot.FailWrites(errors.New("storage disabled"))

	_, err := newTestStore(slot).Save(context.Background(), sampleSnapshot())
	assert.Equal(t, apperr.KindStorageUnavailable, apperr.KindOf(err))
}

func TestSaveCapsChatHistory(t *testing.T) {
	ctx := context.Background()
	snap := sampleSnapshot()
	snap.ChatHistory = nil
	for i := 0; i < 60; i++ {
		snap.ChatHistory = append(snap.ChatHistory, ChatMessage{Role: RoleUser, Text: fmt.Sprintf("m%d", i)})
	}

	saved, err := newTestStore(NewMemorySlot(DefaultQuotaBytes)).Save(ctx, snap)
	require.NoError(t, err)
	require.Len(t, saved.ChatHistory, ChatHistoryCap)
	assert.Equal(t, "m10", saved.ChatHistory[0].Text)
	assert.Equal(t, "m59", saved.ChatHistory[ChatHistoryCap-1].Text)
}

func TestCapChatKeepsLastFifty(t *testing.T) {
	var history []ChatMessage
	for i := 0; i < 60; i++ {
		history = CapChat(append(history, ChatMessage{Role: RoleModel, Text: fmt.Sprintf("%d", i)}))
	}
	require.Len(t, history, 50)
	for i, m := range history {
		assert.Equal(t, fmt.Sprintf("%d", i+10), m.Text)
	}
}

func TestExport(t *testing.T) {
	ctx := context.Background()
	slot := NewMemorySlot(DefaultQuotaBytes)
	s := newTestStore(slot)

	data, filename, err := s.Export(sampleSnapshot())
	require.NoError(t, err)
	assert.Equal(t, "swimflow_backup_2024-03-14.json", filename)
	assert.Contains(t, string(data), "\n  \"profile\": {")
	assert.Equal(t, 0, slot.Writes())

	var doc map[string]any
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "2024-03-14T09:30:00Z", doc["exportedAt"])
	for _, key := range []string{"profile", "sessions", "chatHistory", "activeTab", "lastSaved"} {
		assert.Contains(t, doc, key)
	}

	imported, err := s.Import(strings.NewReader(string(data)))
	require.NoError(t, err)
	assert.Equal(t, sampleSnapshot().Sessions, imported.Sessions)
	assert.Equal(t, *sampleSnapshot().Profile, *imported.Profile)

	_, found, _ := slot.Get(ctx, DefaultSlotName)
	assert.False(t, found)
}

func TestImportRejectsInvalidDocuments(t *testing.T) {
	tests := []struct {
		name   string
		doc    string
		reason string
	}{
		{"not json", `profile=1`, "not a JSON object"},
		{"missing sessions", `{"profile": {"name": "Ada"}}`, "missing sessions"},
		{"null sessions", `{"profile": {"name": "Ada"}, "sessions": null}`, "missing sessions"},
		{"missing profile", `{"sessions": []}`, "missing profile"},
		{"profile not object", `{"profile": "Ada", "sessions": []}`, "profile"},
		{"sessions not array", `{"profile": {}, "sessions": {}}`, "sessions"},
		{"zero distance", `{"profile": {}, "sessions": [{"id": "a", "date": "2024-01-01", "distance": 0, "time": 10}]}`, "distance must be positive"},
		{"bad chat role", `{"profile": {}, "sessions": [], "chatHistory": [{"role": "system", "text": "x"}]}`, "unknown role"},
	}

	s := newTestStore(NewMemorySlot(DefaultQuotaBytes))
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap, err := s.Import(strings.NewReader(tt.doc))
			require.Error(t, err)
			assert.ErrorIs(t, err, apperr.ErrInvalidImportFormat)
			assert.Contains(t, apperr.Reason(err), tt.reason)
			assert.Nil(t, snap.Profile)
		})
	}
}

func TestImportDropsPasswordAndFillsIDs(t *testing.T) {
	doc := `{
		"profile": {"name": "Ada", "password": "hunter2", "gender": "Unspecified", "isOnboarded": true, "weight": 70, "height": 175},
		"sessions": [{"date": "2024-01-01", "distance": 400, "time": 480, "stroke": "Butterfly"}]
	}`
	snap, err := newTestStore(NewMemorySlot(DefaultQuotaBytes)).Import(strings.NewReader(doc))
	require.NoError(t, err)

	out, err := json.Marshal(snap)
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hunter2")
	assert.Equal(t, GenderUnspecified, snap.Profile.Gender)
	require.Len(t, snap.Sessions, 1)
	assert.NotEmpty(t, snap.Sessions[0].ID)
	assert.Equal(t, TabHome, snap.ActiveTab)
	assert.Empty(t, snap.ChatHistory)
}

func TestWipe(t *testing.T) {
	ctx := context.Background()
	s := newTestStore(NewMemorySlot(DefaultQuotaBytes))
	_, err := s.Save(ctx, sampleSnapshot())
	require.NoError(t, err)

	require.NoError(t, s.Wipe(ctx))
	snap, err := s.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, snap)

	require.NoError(t, s.Wipe(ctx))
}

func TestSnapshotStoreOnDiskSlots(t *testing.T) {
	openers := map[string]func(t *testing.T, quota int) Slot{
		"file": func(t *testing.T, quota int) Slot {
			slot, err := NewFileSlot(t.TempDir(), quota)
			require.NoError(t, err)
			return slot
		},
		"sqlite": func(t *testing.T, quota int) Slot {
			slot, err := NewSQLiteSlot(filepath.Join(t.TempDir(), "swimflow.db"), quota)
			require.NoError(t, err)
			return slot
		},
	}

	for name, open := range openers {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			slot := open(t, 4096)
			defer slot.Close()
			s := newTestStore(slot)

			saved, err := s.Save(ctx, sampleSnapshot())
			require.NoError(t, err)
			loaded, err := s.Load(ctx)
			require.NoError(t, err)
			require.NotNil(t, loaded)
			assert.Equal(t, saved, *loaded)

			huge := sampleSnapshot()
			huge.Profile.ProfilePicture = strings.Repeat("x", 8192)
			_, err = s.Save(ctx, huge)
			assert.ErrorIs(t, err, apperr.ErrStorageUnavailable)

			loaded, err = s.Load(ctx)
			require.NoError(t, err)
			assert.Equal(t, saved, *loaded)

			require.NoError(t, s.Wipe(ctx))
			loaded, err = s.Load(ctx)
			require.NoError(t, err)
			assert.Nil(t, loaded)
		})
	}
}
