package coinlock

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/vendo-org/vendo/internal/errs"
	"github.com/vendo-org/vendo/internal/model"
	"github.com/vendo-org/vendo/internal/obs"
)

// Manager arbitrates exclusive, short-lived ownership of physical slot
// identifiers while a credit derived from them is turned into a session.
// Locks carry a bounded lifetime; a holder that never releases (crash, lost
// response) does not wedge the slot because the lock is reclaimed after the
// TTL, either lazily on the next acquire or by the sweeper.
type Manager struct {
	mu      sync.Mutex
	locks   map[string]*model.CoinSlotLock
	adopted map[string]struct{} // lock ids already claimed for crediting
	ttl     time.Duration
	metrics *obs.Metrics
	now     func() time.Time // injected for testability
}

func NewManager(ttl time.Duration, metrics *obs.Metrics) *Manager {
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	return &Manager{
		locks:   make(map[string]*model.CoinSlotLock),
		adopted: make(map[string]struct{}),
		ttl:     ttl,
		metrics: metrics,
		now:     time.Now,
	}
}

// Acquire claims the slot for owner. It fails with errs.SlotBusy while an
// unexpired lock exists, which is what keeps duplicate pulse reports from
// two controller connections from double-crediting one coin.
func (m *Manager) Acquire(slotID, owner string) (*model.CoinSlotLock, error) {
	if slotID == "" {
		return nil, errors.New("slot id required")
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	if cur, ok := m.locks[slotID]; ok {
		if !cur.Expired(now) {
			m.metrics.IncLockAcquire("busy")
			return nil, errors.WithStack(errs.SlotBusy)
		}
		delete(m.locks, slotID)
		delete(m.adopted, cur.LockID)
		m.metrics.AddLocksReclaimed(1)
		log.WithFields(log.Fields{"slot": slotID, "lock": cur.LockID}).
			Warn("reclaimed expired slot lock on acquire")
	}

	lock := &model.CoinSlotLock{
		SlotID:     slotID,
		LockID:     uuid.NewString(),
		Owner:      owner,
		AcquiredAt: now,
		Expiry:     now.Add(m.ttl),
	}
	m.locks[slotID] = lock
	m.metrics.IncLockAcquire("success")
	m.metrics.SetLocksHeld(len(m.locks))
	return lock, nil
}

// Adopt atomically claims a lock another caller acquired so the credit it
// funds is processed exactly once. It fails with errs.LockNotFound when the
// lock id is no longer the current unexpired holder of the slot (released,
// reclaimed, or never existed) and with errs.SlotBusy when the same lock id
// was already claimed by an in-flight credit. A retransmitted credit report
// therefore cannot be credited a second time on either side of the release.
func (m *Manager) Adopt(slotID, lockID string) (*model.CoinSlotLock, error) {
	if slotID == "" || lockID == "" {
		return nil, errors.New("slot id and lock id required")
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.locks[slotID]
	if !ok || cur.LockID != lockID || cur.Expired(now) {
		return nil, errors.WithStack(errs.LockNotFound)
	}
	if _, claimed := m.adopted[lockID]; claimed {
		return nil, errors.WithStack(errs.SlotBusy)
	}
	m.adopted[lockID] = struct{}{}
	cp := *cur
	return &cp, nil
}

// Release frees the slot. Unknown slot or mismatched lock id returns
// errs.LockNotFound; callers that already lost the lock to a timeout treat
// this as a no-op.
func (m *Manager) Release(slotID, lockID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	cur, ok := m.locks[slotID]
	if !ok || cur.LockID != lockID {
		return errors.WithStack(errs.LockNotFound)
	}
	delete(m.locks, slotID)
	delete(m.adopted, lockID)
	m.metrics.SetLocksHeld(len(m.locks))
	return nil
}

// Holder returns the current lock for the slot, if any unexpired one exists.
func (m *Manager) Holder(slotID string) (*model.CoinSlotLock, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.locks[slotID]
	if !ok || cur.Expired(m.now()) {
		return nil, false
	}
	cp := *cur
	return &cp, true
}

// Sweep runs the periodic reclaim loop until ctx is cancelled, so slots held
// by crashed callers come back without waiting for the next acquire.
func (m *Manager) Sweep(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			m.sweepOnce()
		}
	}
}

func (m *Manager) sweepOnce() {
	now := m.now()
	m.mu.Lock()
	var reclaimed int
	for slotID, cur := range m.locks {
		if cur.Expired(now) {
			delete(m.locks, slotID)
			delete(m.adopted, cur.LockID)
			reclaimed++
		}
	}
	held := len(m.locks)
	m.mu.Unlock()

	m.metrics.AddLocksReclaimed(reclaimed)
	m.metrics.SetLocksHeld(held)
	if reclaimed > 0 {
		log.WithFields(log.Fields{"reclaimed": reclaimed, "held": held}).
			Info("slot lock sweep")
	}
}
