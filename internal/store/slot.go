package store

import (
	"context"
	"fmt"
)

// DefaultSlotName is the key the whole application state lives under.
const DefaultSlotName = "swimflow_data"

// DefaultQuotaBytes mirrors the usual per-origin local storage budget.
const DefaultQuotaBytes = 5 * 1024 * 1024

// Slot is a named key/value area of local device storage.
type Slot interface {
	// Get returns found=false when nothing is stored under name.
	Get(ctx context.Context, name string) (payload []byte, found bool, err error)
	// Put replaces the payload atomically; on error the previous payload is intact.
	Put(ctx context.Context, name string, payload []byte) error
	Delete(ctx context.Context, name string) error
	Close() error
}

type QuotaExceededError struct {
	Size  int
	Quota int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("payload of %d bytes exceeds storage quota of %d bytes", e.Size, e.Quota)
}

func checkQuota(payload []byte, quota int) error {
	if quota > 0 && len(payload) > quota {
		return &QuotaExceededError{Size: len(payload), Quota: quota}
	}
	return nil
}
