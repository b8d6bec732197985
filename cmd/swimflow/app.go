package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"go.uber.org/multierr"

	"github.com/adwikanair2008-hue/swim-flow/internal/apperr"
	"github.com/adwikanair2008-hue/swim-flow/internal/config"
	"github.com/adwikanair2008-hue/swim-flow/internal/logging"
	"github.com/adwikanair2008-hue/swim-flow/internal/state"
	"github.com/adwikanair2008-hue/swim-flow/internal/store"
)

type rootOptions struct {
	configPath string
	ephemeral  bool
}

// app holds what every command needs: configuration, the storage slot and the
// state loaded from it.
type app struct {
	cfg       *config.Config
	slot      store.Slot
	snapshots *store.SnapshotStore
	state     *state.Container
	logCloser io.Closer
}

func openApp(ctx context.Context, opts *rootOptions) (*app, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	logCloser := logging.Setup(logging.LoggerSetupParams{
		LogFileName:   cfg.Log.File,
		LogToStdout:   true,
		LogLevel:      cfg.Log.Level,
		LogFormatJSON: cfg.Log.JSON,
	})

	slot := openSlot(cfg.Storage, opts.ephemeral)
	snapshots := store.NewSnapshotStore(slot, cfg.Storage.Slot)

	return &app{
		cfg:       cfg,
		slot:      slot,
		snapshots: snapshots,
		state:     state.NewContainer(loadSnapshot(ctx, snapshots)),
		logCloser: logCloser,
	}, nil
}

// openSlot picks the configured backend. When it cannot be opened the app keeps
// running on memory only; nothing will survive a restart.
func openSlot(cfg config.StorageConfig, ephemeral bool) store.Slot {
	if ephemeral || cfg.Backend == config.BackendMemory {
		log.Warn("Running with in-memory storage; data will not be persisted")
		return store.NewMemorySlot(cfg.QuotaBytes)
	}

	var (
		slot store.Slot
		err  error
	)
	switch cfg.Backend {
	case config.BackendFile:
		slot, err = store.NewFileSlot(cfg.DataDir, cfg.QuotaBytes)
	default:
		slot, err = store.NewSQLiteSlot(cfg.DatabaseURL, cfg.QuotaBytes)
	}
	if err != nil {
		log.Errorf("Storage unavailable (%s): %v; falling back to in-memory storage", cfg.Backend, err)
		return store.NewMemorySlot(cfg.QuotaBytes)
	}
	log.Infof("Using %s storage", cfg.Backend)
	return slot
}

// loadSnapshot never fails: unreadable or corrupt data starts the app empty.
func loadSnapshot(ctx context.Context, snapshots *store.SnapshotStore) *store.Snapshot {
	snap, err := snapshots.Load(ctx)
	switch {
	case err == nil && snap == nil:
		log.Info("No saved data found, starting fresh")
	case errors.Is(err, apperr.ErrMalformedSnapshot):
		log.Warnf("Saved data is corrupt and was ignored: %v", err)
		return nil
	case err != nil:
		log.Errorf("Failed to load saved data: %v", err)
		return nil
	}
	return snap
}

func (a *app) Close() error {
	return multierr.Combine(
		a.slot.Close(),
		a.logCloser.Close(),
	)
}

func writeFile(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
