package state

import (
	"context"
	"sync"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/adwikanair2008-hue/swim-flow/internal/metrics"
	"github.com/adwikanair2008-hue/swim-flow/internal/store"
)

const DefaultSaveDelay = 500 * time.Millisecond

// SnapshotSaver is the part of the snapshot store the saver needs.
type SnapshotSaver interface {
	Save(ctx context.Context, snap store.Snapshot) (store.Snapshot, error)
}

// Saver batches rapid successive changes into one save. Snapshots without a
// profile are never written: before onboarding there is nothing to keep, and
// after a wipe nothing may be resurrected.
type Saver struct {
	target  SnapshotSaver
	delay   time.Duration
	metrics *metrics.Manager

	mu       sync.Mutex
	pending  *store.Snapshot
	seq      uint64
	resetSeq uint64
	timer    *time.Timer
	closed   bool
	wg       sync.WaitGroup

	saveMu    sync.Mutex
	savedSeq  uint64
	lastError error
}

func NewSaver(target SnapshotSaver, delay time.Duration, m *metrics.Manager) *Saver {
	if delay <= 0 {
		delay = DefaultSaveDelay
	}
	return &Saver{target: target, delay: delay, metrics: m}
}

// Notify is meant to be passed to Container.Subscribe.
func (s *Saver) Notify(snap store.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}

	s.seq++
	if snap.Profile == nil {
		s.resetSeq = s.seq
		s.pending = nil
		s.stopTimerLocked()
		return
	}

	s.pending = &snap
	if s.timer == nil {
		s.wg.Add(1)
		s.timer = time.AfterFunc(s.delay, s.fire)
	}
}

func (s *Saver) stopTimerLocked() {
	if s.timer != nil && s.timer.Stop() {
		s.wg.Done()
	}
	s.timer = nil
}

func (s *Saver) fire() {
	defer s.wg.Done()
	s.mu.Lock()
	s.timer = nil
	snap, seq := s.take()
	s.mu.Unlock()

	if snap != nil {
		_ = s.save(context.Background(), *snap, seq)
	}
}

// take must be called with mu held.
func (s *Saver) take() (*store.Snapshot, uint64) {
	snap := s.pending
	s.pending = nil
	return snap, s.seq
}

func (s *Saver) save(ctx context.Context, snap store.Snapshot, seq uint64) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	if seq <= s.savedSeq || seq < s.resetSeqSnapshot() {
		return nil
	}

	_, err := s.target.Save(ctx, snap)
	s.lastError = err
	if err != nil {
		// in-memory state stays authoritative; the next change retries
		log.Errorf("Failed to save snapshot: %v", err)
		s.observe("error")
		return err
	}
	s.savedSeq = seq
	s.observe("ok")
	return nil
}

func (s *Saver) resetSeqSnapshot() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.resetSeq
}

// Paused runs fn while no save can be in progress. Wiping the slot goes through
// here so that a save already under way cannot write the old state back.
func (s *Saver) Paused(fn func() error) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return fn()
}

func (s *Saver) observe(result string) {
	if s.metrics != nil {
		s.metrics.CounterSaves.WithLabelValues(result).Inc()
	}
}

// Flush writes any pending snapshot now.
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	s.stopTimerLocked()
	snap, seq := s.take()
	s.mu.Unlock()

	if snap == nil {
		return nil
	}
	return s.save(ctx, *snap, seq)
}

// LastError is the result of the most recent save attempt.
func (s *Saver) LastError() error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()
	return s.lastError
}

// Close flushes and stops accepting changes.
func (s *Saver) Close() error {
	err := s.Flush(context.Background())
	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()
	s.wg.Wait()
	return err
}
