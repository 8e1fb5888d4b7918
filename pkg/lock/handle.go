package lock

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/chaosmongo/chaosmongo/pkg/errmodel"
)

// Handle is returned by a successful acquisition. It is safe for
// concurrent reads (IsValid) but not for concurrent state-changing calls
// (Release).
type Handle struct {
	mgr           *Manager
	id            string
	validUntilUTC time.Time
	released      atomic.Bool
}

func newHandle(mgr *Manager, id string, validUntil time.Time) *Handle {
	return &Handle{mgr: mgr, id: id, validUntilUTC: validUntil}
}

// ID is the lock name.
func (h *Handle) ID() string { return h.id }

// ValidUntilUTC is the lease expiry observed at acquisition time. It is
// not updated by anything short of a fresh acquisition.
func (h *Handle) ValidUntilUTC() time.Time { return h.validUntilUTC }

// IsValid is true iff the handle has not been released and the manager's
// clock has not yet passed ValidUntilUTC.
func (h *Handle) IsValid() bool {
	if h.released.Load() {
		return false
	}

	return h.mgr.clock.Now().Before(h.validUntilUTC)
}

// EnsureValid returns the handle itself if valid, or ErrLockExpired.
func (h *Handle) EnsureValid() (*Handle, error) {
	if !h.IsValid() {
		return nil, fmt.Errorf("lock: %q: %w", h.id, errmodel.ErrLockExpired)
	}

	return h, nil
}

// Release deletes the lock row this handle owns, scoped to this handle's
// holder id so it can never delete another holder's lock. Release is
// idempotent: a second call is a no-op. Errors are swallowed by design —
// the lease will expire naturally if the delete does not land.
func (h *Handle) Release(ctx context.Context) error {
	if h.released.Swap(true) {
		return nil
	}

	if err := h.mgr.release(ctx, h.id); err != nil {
		return nil //nolint:nilerr // release failures are swallowed per spec; lease expires naturally
	}

	return nil
}
