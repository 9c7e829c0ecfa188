package vendoclient

// Lock is a held slot lock as seen by a controller.
type Lock struct {
	SlotID     string `json:"slot_id"`
	LockID     string `json:"lock_id"`
	AcquiredAt int64  `json:"acquired_at"`
	Expiry     int64  `json:"expiry"`
}

// CreditGrant is the server's answer to a credit report.
type CreditGrant struct {
	Token            string `json:"token"`
	GrantedSeconds   int64  `json:"granted_seconds"`
	RemainingSeconds int64  `json:"remaining_seconds"`
	Refund           bool   `json:"refund"`
}

// CreditReport is one paid amount observed at a slot.
type CreditReport struct {
	ClientID string `json:"client_id"`
	DeviceID string `json:"device_id"`
	SlotID   string `json:"slot_id"`
	Voucher  string `json:"voucher,omitempty"`
	Amount   int    `json:"amount"`
	LockID   string `json:"lock_id,omitempty"`
}

// RestoreResult is the outcome of a session restoration.
type RestoreResult struct {
	Outcome          string `json:"outcome"` // restored | migrated
	RemainingSeconds int64  `json:"remaining_seconds"`
	Paused           bool   `json:"paused"`
}

// LicenseStatus mirrors the license endpoint payload.
type LicenseStatus struct {
	HardwareID    string `json:"hardware_id"`
	Status        string `json:"status"`
	DaysRemaining int    `json:"days_remaining"`
	CanOperate    bool   `json:"can_operate"`
}
