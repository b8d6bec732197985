package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// FileSlot stores each slot as <dir>/<name>.json.
type FileSlot struct {
	dir   string
	quota int
}

func NewFileSlot(dir string, quota int) (*FileSlot, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create data dir %s: %w", dir, err)
	}
	return &FileSlot{dir: dir, quota: quota}, nil
}

func (f *FileSlot) path(name string) string {
	return filepath.Join(f.dir, name+".json")
}

func (f *FileSlot) Get(_ context.Context, name string) ([]byte, bool, error) {
	payload, err := os.ReadFile(f.path(name))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("failed to read slot %s: %w", name, err)
	}
	return payload, true, nil
}

// Put writes to a temp file in the same directory and renames it over the slot.
func (f *FileSlot) Put(_ context.Context, name string, payload []byte) error {
	if err := checkQuota(payload, f.quota); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(f.dir, name+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file for slot %s: %w", name, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName) // no-op after a successful rename

	if _, err := tmp.Write(payload); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write slot %s: %w", name, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to sync slot %s: %w", name, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close slot %s: %w", name, err)
	}
	if err := os.Rename(tmpName, f.path(name)); err != nil {
		return fmt.Errorf("failed to replace slot %s: %w", name, err)
	}
	return nil
}

func (f *FileSlot) Delete(_ context.Context, name string) error {
	err := os.Remove(f.path(name))
	if err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("failed to delete slot %s: %w", name, err)
	}
	return nil
}

func (f *FileSlot) Close() error {
	return nil
}
