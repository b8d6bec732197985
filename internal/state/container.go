// Package state holds the single in-memory copy of the athlete's data. All
// mutations go through Dispatch; readers only ever see copies.
package state

import (
	"sync"

	"github.com/adwikanair2008-hue/swim-flow/internal/store"
)

// Action is one mutation of the snapshot.
type Action interface {
	apply(s *store.Snapshot)
	// resets reports whether the action invalidates results computed from the
	// previous state (pending coaching replies, cached advice).
	resets() bool
	// replacesChat reports whether the chat history is swapped out wholesale.
	replacesChat() bool
}

// SetProfile stores the profile as given (onboarding or an edit).
type SetProfile struct{ Profile store.Profile }

// AddSession prepends a session, assigning an id when it has none.
type AddSession struct{ Session store.Session }

// AppendChat adds messages and keeps only the newest ChatHistoryCap.
type AppendChat struct{ Messages []store.ChatMessage }

type SetChat struct{ History []store.ChatMessage }

type SetActiveTab struct{ Tab store.Tab }

// ReplaceAll swaps in an imported snapshot.
type ReplaceAll struct{ Snapshot store.Snapshot }

// Reset returns to the first-run state.
type Reset struct{}

func (a SetProfile) apply(s *store.Snapshot) {
	p := a.Profile
	if a.Profile.TargetWeight != nil {
		tw := *a.Profile.TargetWeight
		p.TargetWeight = &tw
	}
	s.Profile = &p
}
func (SetProfile) resets() bool { return true }
func (SetProfile) replacesChat() bool { return false }

func (a AddSession) apply(s *store.Snapshot) {
	sess := a.Session
	if sess.ID == "" {
		sess.ID = store.NewSessionID()
	}
	s.Sessions = append([]store.Session{sess}, s.Sessions...)
}
func (AddSession) resets() bool { return false }
func (AddSession) replacesChat() bool { return false }

func (a AppendChat) apply(s *store.Snapshot) {
	s.ChatHistory = store.CapChat(append(s.ChatHistory, a.Messages...))
}
func (AppendChat) resets() bool { return false }
func (AppendChat) replacesChat() bool { return false }

func (a SetChat) apply(s *store.Snapshot) {
	s.ChatHistory = store.CapChat(a.History)
}
func (SetChat) resets() bool { return false }
func (SetChat) replacesChat() bool { return true }

func (a SetActiveTab) apply(s *store.Snapshot) {
	s.ActiveTab = store.ParseTab(string(a.Tab))
}
func (SetActiveTab) resets() bool { return false }
func (SetActiveTab) replacesChat() bool { return false }

func (a ReplaceAll) apply(s *store.Snapshot) {
	*s = a.Snapshot.Clone()
	s.ChatHistory = store.CapChat(s.ChatHistory)
	s.ActiveTab = store.ParseTab(string(s.ActiveTab))
}
func (ReplaceAll) resets() bool { return true }
func (ReplaceAll) replacesChat() bool { return true }

func (Reset) apply(s *store.Snapshot) {
	*s = store.EmptySnapshot()
}
func (Reset) resets() bool { return true }
func (Reset) replacesChat() bool { return true }

type Container struct {
	mu          sync.RWMutex
	snap        store.Snapshot
	generation  uint64
	chatGen     uint64
	subscribers []func(store.Snapshot)
}

// NewContainer seeds the container from a loaded snapshot; nil means first run.
func NewContainer(initial *store.Snapshot) *Container {
	c := &Container{snap: store.EmptySnapshot()}
	if initial != nil {
		c.snap = initial.Clone()
	}
	return c
}

func (c *Container) Snapshot() store.Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Clone()
}

// View returns a copy of the state together with its generation.
func (c *Container) View() (store.Snapshot, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Clone(), c.generation
}

// ChatView returns a copy of the state together with its chat generation,
// which only moves when the chat history is replaced (SetChat, ReplaceAll,
// Reset). Replies are appended against it so that a profile edit does not
// orphan the message being answered.
func (c *Container) ChatView() (store.Snapshot, uint64) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snap.Clone(), c.chatGen
}

func (c *Container) Generation() uint64 {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.generation
}

// Subscribe registers fn to receive every new snapshot. fn runs with the
// container locked and must not call back into it.
func (c *Container) Subscribe(fn func(store.Snapshot)) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.subscribers = append(c.subscribers, fn)
}

func (c *Container) Dispatch(a Action) store.Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.dispatchLocked(a)
}

// DispatchIf applies a only when the generation still equals gen, so results
// computed from replaced state are dropped.
func (c *Container) DispatchIf(gen uint64, a Action) (store.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.generation != gen {
		return c.snap.Clone(), false
	}
	return c.dispatchLocked(a), true
}

// DispatchIfChat applies a only when the chat generation still equals chatGen.
func (c *Container) DispatchIfChat(chatGen uint64, a Action) (store.Snapshot, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.chatGen != chatGen {
		return c.snap.Clone(), false
	}
	return c.dispatchLocked(a), true
}

func (c *Container) dispatchLocked(a Action) store.Snapshot {
	next := c.snap.Clone()
	a.apply(&next)
	c.snap = next
	if a.resets() {
		c.generation++
	}
	if a.replacesChat() {
		c.chatGen++
	}
	for _, fn := range c.subscribers {
		fn(next.Clone())
	}
	return next.Clone()
}
