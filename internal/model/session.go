package model

// Session represents one customer's purchased network access, keyed by the
// bearer token handed back after the first credit.
type Session struct {
	Token            string `json:"token" gorm:"primaryKey;size:64"`
	ClientID         string `json:"client_id" gorm:"uniqueIndex;size:64"`
	SlotID           string `json:"slot_id" gorm:"size:64"`
	Origin           string `json:"origin" gorm:"size:16"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	AmountPaid       int    `json:"amount_paid"`
	DownKbps         int    `json:"down_kbps"`
	UpKbps           int    `json:"up_kbps"`
	Paused           bool   `json:"paused"`
	PauseAllowed     bool   `json:"pause_allowed"`
	CreatedAt        int64  `json:"created_at"`
	UpdatedAt        int64  `json:"updated_at"`
}

// Active reports whether the session still has time on the clock.
func (s *Session) Active() bool {
	return s.RemainingSeconds > 0
}
