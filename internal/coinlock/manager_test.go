package coinlock

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
	"github.com/vendo-org/vendo/internal/errs"
)

func TestAcquireExclusive(t *testing.T) {
	m := NewManager(30*time.Second, nil)

	lock, err := m.Acquire("slot1", "ctrl-a")
	require.NoError(t, err)
	require.NotEmpty(t, lock.LockID)

	_, err = m.Acquire("slot1", "ctrl-b")
	require.ErrorIs(t, err, errs.SlotBusy)

	// different slots are fully parallel
	_, err = m.Acquire("slot2", "ctrl-b")
	require.NoError(t, err)
}

func TestAcquireConcurrent(t *testing.T) {
	m := NewManager(30*time.Second, nil)

	var wg sync.WaitGroup
	var won atomic.Int32
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Acquire("slot1", "ctrl"); err == nil {
				won.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), won.Load(), "exactly one concurrent acquire may win")
}

func TestReleaseThenReacquire(t *testing.T) {
	m := NewManager(30*time.Second, nil)

	lock, err := m.Acquire("slot1", "ctrl-a")
	require.NoError(t, err)
	require.NoError(t, m.Release("slot1", lock.LockID))

	_, err = m.Acquire("slot1", "ctrl-b")
	require.NoError(t, err)
}

func TestReleaseUnknown(t *testing.T) {
	m := NewManager(30*time.Second, nil)

	err := m.Release("slot1", "nope")
	require.ErrorIs(t, err, errs.LockNotFound)

	lock, err := m.Acquire("slot1", "ctrl-a")
	require.NoError(t, err)

	// mismatched lock id does not free the slot
	err = m.Release("slot1", "stale-id")
	require.ErrorIs(t, err, errs.LockNotFound)
	_, ok := m.Holder("slot1")
	require.True(t, ok)

	require.NoError(t, m.Release("slot1", lock.LockID))
	err = m.Release("slot1", lock.LockID)
	require.ErrorIs(t, err, errs.LockNotFound)
}

func TestAdoptCurrentHolder(t *testing.T) {
	m := NewManager(30*time.Second, nil)

	lock, err := m.Acquire("slot1", "ctrl-a")
	require.NoError(t, err)

	adopted, err := m.Adopt("slot1", lock.LockID)
	require.NoError(t, err)
	require.Equal(t, lock.LockID, adopted.LockID)

	// a second claim of the same lock id must lose
	_, err = m.Adopt("slot1", lock.LockID)
	require.ErrorIs(t, err, errs.SlotBusy)

	// release then reacquire hands out a fresh, adoptable lock
	require.NoError(t, m.Release("slot1", lock.LockID))
	fresh, err := m.Acquire("slot1", "ctrl-a")
	require.NoError(t, err)
	_, err = m.Adopt("slot1", fresh.LockID)
	require.NoError(t, err)
}

func TestAdoptRejectsStaleOrUnknown(t *testing.T) {
	m := NewManager(10*time.Second, nil)
	base := time.Now()
	m.now = func() time.Time { return base }

	_, err := m.Adopt("slot1", "nope")
	require.ErrorIs(t, err, errs.LockNotFound)

	lock, err := m.Acquire("slot1", "ctrl-a")
	require.NoError(t, err)

	_, err = m.Adopt("slot1", "wrong-id")
	require.ErrorIs(t, err, errs.LockNotFound)

	// a released lock id can no longer be claimed
	require.NoError(t, m.Release("slot1", lock.LockID))
	_, err = m.Adopt("slot1", lock.LockID)
	require.ErrorIs(t, err, errs.LockNotFound)

	// nor can one that timed out
	expired, err := m.Acquire("slot1", "ctrl-a")
	require.NoError(t, err)
	m.now = func() time.Time { return base.Add(11 * time.Second) }
	_, err = m.Adopt("slot1", expired.LockID)
	require.ErrorIs(t, err, errs.LockNotFound)
}

func TestAdoptConcurrent(t *testing.T) {
	m := NewManager(30*time.Second, nil)
	lock, err := m.Acquire("slot1", "ctrl-a")
	require.NoError(t, err)

	var wg sync.WaitGroup
	var won atomic.Int32
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Adopt("slot1", lock.LockID); err == nil {
				won.Add(1)
			}
		}()
	}
	wg.Wait()
	require.Equal(t, int32(1), won.Load(), "exactly one concurrent adopt may win")
}

func TestTimeoutReclaim(t *testing.T) {
	m := NewManager(10*time.Second, nil)
	base := time.Now()
	m.now = func() time.Time { return base }

	stale, err := m.Acquire("slot1", "ctrl-a")
	require.NoError(t, err)

	// holder goes silent; after the TTL the slot is not permanently stuck
	m.now = func() time.Time { return base.Add(11 * time.Second) }

	fresh, err := m.Acquire("slot1", "ctrl-b")
	require.NoError(t, err)
	require.NotEqual(t, stale.LockID, fresh.LockID)

	// the stale holder's release is a miss, not a theft of the new lock
	err = m.Release("slot1", stale.LockID)
	require.ErrorIs(t, err, errs.LockNotFound)
	_, ok := m.Holder("slot1")
	require.True(t, ok)
}

func TestSweepReclaimsExpired(t *testing.T) {
	m := NewManager(5*time.Second, nil)
	base := time.Now()
	m.now = func() time.Time { return base }

	_, err := m.Acquire("slot1", "ctrl-a")
	require.NoError(t, err)
	_, err = m.Acquire("slot2", "ctrl-b")
	require.NoError(t, err)

	m.now = func() time.Time { return base.Add(6 * time.Second) }
	m.sweepOnce()

	_, ok := m.Holder("slot1")
	require.False(t, ok)
	_, err = m.Acquire("slot1", "ctrl-c")
	require.NoError(t, err)
}

func TestAcquireRequiresSlot(t *testing.T) {
	m := NewManager(time.Second, nil)
	_, err := m.Acquire("", "ctrl")
	require.Error(t, err)
	require.False(t, errors.Is(err, errs.SlotBusy))
}
