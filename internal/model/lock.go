package model

import "time"

// CoinSlotLock is the transient exclusivity token for one physical slot.
// At most one unexpired lock exists per slot at any time.
type CoinSlotLock struct {
	SlotID     string    `json:"slot_id"`
	LockID     string    `json:"lock_id"`
	Owner      string    `json:"owner"`
	AcquiredAt time.Time `json:"acquired_at"`
	Expiry     time.Time `json:"expiry"`
}

// Expired reports whether the lock's bounded lifetime has run out and the
// slot may be reclaimed.
func (l *CoinSlotLock) Expired(now time.Time) bool {
	return now.After(l.Expiry)
}
