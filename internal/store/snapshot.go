package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"

	"github.com/adwikanair2008-hue/swim-flow/internal/apperr"
)

// maxImportBytes caps how much of an import file is read.
const maxImportBytes = 32 * 1024 * 1024

// SnapshotStore round-trips the whole application state through one slot.
type SnapshotStore struct {
	slot Slot
	name string
	now  func() time.Time
}

func NewSnapshotStore(slot Slot, name string) *SnapshotStore {
	if name == "" {
		name = DefaultSlotName
	}
	return &SnapshotStore{slot: slot, name: name, now: time.Now}
}

// WithClock replaces the time source used for lastSaved and exportedAt.
func (s *SnapshotStore) WithClock(now func() time.Time) *SnapshotStore {
	s.now = now
	return s
}

func (s *SnapshotStore) SlotName() string {
	return s.name
}

// Load returns nil and no error when nothing has been saved yet. A payload that
// is not a JSON object yields a MalformedSnapshot error, which callers treat as
// "no prior state". Individual fields that fail to decode fall back to empties.
func (s *SnapshotStore) Load(ctx context.Context) (*Snapshot, error) {
	payload, found, err := s.slot.Get(ctx, s.name)
	if err != nil {
		log.Errorf("Storage read error for slot %s: %v", s.name, err)
		return nil, apperr.Wrap(apperr.KindStorageUnavailable, "load", err)
	}
	if !found {
		return nil, nil
	}

	snap, err := decodeLenient(payload)
	if err != nil {
		log.Errorf("Snapshot in slot %s is malformed, starting fresh: %v", s.name, err)
		return nil, apperr.Wrap(apperr.KindMalformedSnapshot, "load", err)
	}
	return &snap, nil
}

// Save stamps lastSaved and writes the snapshot. When the slot already holds the
// same content the write is skipped and the stored snapshot is returned.
func (s *SnapshotStore) Save(ctx context.Context, snap Snapshot) (Snapshot, error) {
	next := normalize(snap.Clone())

	if stored, ok := s.storedEqual(ctx, next); ok {
		return stored, nil
	}

	next.LastSaved = s.now().UnixMilli()
	payload, err := json.Marshal(next)
	if err != nil {
		log.Errorf("Failed to serialize snapshot: %v", err)
		return snap, apperr.Wrap(apperr.KindStorageUnavailable, "save", err)
	}
	if err := s.slot.Put(ctx, s.name, payload); err != nil {
		log.Errorf("Device storage failed for slot %s: %v", s.name, err)
		return snap, apperr.Wrap(apperr.KindStorageUnavailable, "save", err)
	}
	return next, nil
}

func (s *SnapshotStore) storedEqual(ctx context.Context, next Snapshot) (Snapshot, bool) {
	existing, found, err := s.slot.Get(ctx, s.name)
	if err != nil || !found {
		return Snapshot{}, false
	}
	var stored Snapshot
	if err := json.Unmarshal(existing, &stored); err != nil {
		return Snapshot{}, false
	}
	stored = normalize(stored)
	lastSaved := stored.LastSaved

	stored.LastSaved = 0
	next.LastSaved = 0
	a, errA := json.Marshal(stored)
	b, errB := json.Marshal(next)
	if errA != nil || errB != nil || !bytes.Equal(a, b) {
		return Snapshot{}, false
	}
	stored.LastSaved = lastSaved
	return stored, true
}

type exportDocument struct {
	Snapshot
	ExportedAt string `json:"exportedAt"`
}

// Export renders a pretty-printed backup document and its suggested file name.
// It does not touch stored state.
func (s *SnapshotStore) Export(snap Snapshot) ([]byte, string, error) {
	now := s.now().UTC()
	doc := exportDocument{
		Snapshot:   normalize(snap.Clone()),
		ExportedAt: now.Format(time.RFC3339),
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, "", fmt.Errorf("failed to render export: %w", err)
	}
	return data, fmt.Sprintf("swimflow_backup_%s.json", now.Format(dateLayout)), nil
}

// Import parses and validates a backup document. Nothing is returned unless the
// whole document is acceptable; the caller replaces its state and saves.
func (s *SnapshotStore) Import(r io.Reader) (Snapshot, error) {
	data, err := io.ReadAll(io.LimitReader(r, maxImportBytes+1))
	if err != nil {
		return Snapshot{}, apperr.Wrap(apperr.KindInvalidImportFormat, "import", err)
	}
	if len(data) > maxImportBytes {
		return Snapshot{}, invalidImport("file is too large")
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil || fields == nil {
		return Snapshot{}, invalidImport("file is not a JSON object")
	}

	rawProfile, ok := fields["profile"]
	if !ok || isNull(rawProfile) {
		return Snapshot{}, invalidImport("missing profile")
	}
	rawSessions, ok := fields["sessions"]
	if !ok || isNull(rawSessions) {
		return Snapshot{}, invalidImport("missing sessions")
	}

	snap := EmptySnapshot()

	var profile Profile
	if err := json.Unmarshal(rawProfile, &profile); err != nil {
		return Snapshot{}, invalidImport(fmt.Sprintf("profile: %v", err))
	}
	warnOnCredentials(rawProfile)
	snap.Profile = &profile

	if err := json.Unmarshal(rawSessions, &snap.Sessions); err != nil {
		return Snapshot{}, invalidImport(fmt.Sprintf("sessions: %v", err))
	}
	for i := range snap.Sessions {
		if snap.Sessions[i].ID == "" {
			snap.Sessions[i].ID = NewSessionID()
		}
		if err := snap.Sessions[i].Validate(); err != nil {
			return Snapshot{}, invalidImport(err.Error())
		}
	}

	if raw, ok := fields["chatHistory"]; ok && !isNull(raw) {
		if err := json.Unmarshal(raw, &snap.ChatHistory); err != nil {
			return Snapshot{}, invalidImport(fmt.Sprintf("chatHistory: %v", err))
		}
		for _, m := range snap.ChatHistory {
			if !m.Role.Valid() {
				return Snapshot{}, invalidImport(fmt.Sprintf("chatHistory: unknown role %q", m.Role))
			}
		}
	}
	if raw, ok := fields["activeTab"]; ok && !isNull(raw) {
		var tab string
		if err := json.Unmarshal(raw, &tab); err != nil {
			return Snapshot{}, invalidImport(fmt.Sprintf("activeTab: %v", err))
		}
		snap.ActiveTab = ParseTab(tab)
	}

	return normalize(snap), nil
}

// Wipe removes the slot. Asking the athlete first is the caller's job.
func (s *SnapshotStore) Wipe(ctx context.Context) error {
	if err := s.slot.Delete(ctx, s.name); err != nil {
		log.Errorf("Failed to wipe slot %s: %v", s.name, err)
		return apperr.Wrap(apperr.KindStorageUnavailable, "wipe", err)
	}
	log.Infof("Slot %s wiped", s.name)
	return nil
}

// NewSessionID returns a time-ordered id so ids sort by creation.
func NewSessionID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

func invalidImport(reason string) error {
	return apperr.New(apperr.KindInvalidImportFormat, "import", reason)
}

func decodeLenient(payload []byte) (Snapshot, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(payload, &fields); err != nil {
		return Snapshot{}, fmt.Errorf("failed to parse snapshot: %w", err)
	}
	if fields == nil {
		return Snapshot{}, fmt.Errorf("snapshot is not a JSON object")
	}

	snap := EmptySnapshot()

	if raw, ok := fields["profile"]; ok && !isNull(raw) {
		var p Profile
		if err := json.Unmarshal(raw, &p); err != nil {
			log.Warnf("Ignoring unreadable profile in snapshot: %v", err)
		} else {
			warnOnCredentials(raw)
			snap.Profile = &p
		}
	}

	if raw, ok := fields["sessions"]; ok && !isNull(raw) {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			log.Warnf("Ignoring unreadable session list in snapshot: %v", err)
		}
		for i, item := range items {
			var sess Session
			if err := json.Unmarshal(item, &sess); err != nil {
				log.Warnf("Skipping unreadable session #%d: %v", i, err)
				continue
			}
			snap.Sessions = append(snap.Sessions, sess)
		}
	}

	if raw, ok := fields["chatHistory"]; ok && !isNull(raw) {
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			log.Warnf("Ignoring unreadable chat history in snapshot: %v", err)
		}
		for i, item := range items {
			var msg ChatMessage
			if err := json.Unmarshal(item, &msg); err != nil || !msg.Role.Valid() {
				log.Warnf("Skipping unreadable chat message #%d", i)
				continue
			}
			snap.ChatHistory = append(snap.ChatHistory, msg)
		}
	}

	if raw, ok := fields["activeTab"]; ok {
		var tab string
		if err := json.Unmarshal(raw, &tab); err == nil {
			snap.ActiveTab = ParseTab(tab)
		}
	}

	if raw, ok := fields["lastSaved"]; ok {
		var ms float64
		if err := json.Unmarshal(raw, &ms); err == nil {
			snap.LastSaved = int64(ms)
		}
	}

	return normalize(snap), nil
}

// normalize brings a snapshot to the canonical form the store writes, so that
// what is loaded back compares equal to what was saved.
func normalize(s Snapshot) Snapshot {
	if s.Sessions == nil {
		s.Sessions = []Session{}
	}
	s.ChatHistory = CapChat(s.ChatHistory)
	s.ActiveTab = ParseTab(string(s.ActiveTab))
	if s.Profile != nil {
		s.Profile.Gender = ParseGender(string(s.Profile.Gender))
	}
	return s
}

func isNull(raw json.RawMessage) bool {
	return len(bytes.TrimSpace(raw)) == 0 || bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

func warnOnCredentials(rawProfile json.RawMessage) {
	var probe struct {
		Password *string `json:"password"`
	}
	if err := json.Unmarshal(rawProfile, &probe); err == nil && probe.Password != nil {
		log.Warn("Profile carries a plaintext password field; it is not stored")
	}
}
