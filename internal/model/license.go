package model

// License lifecycle states. A record is created on first boot (trial start)
// and only ever transitions state, it is never deleted.
const (
	LicenseTrialActive  = "trial_active"
	LicenseTrialExpired = "trial_expired"
	LicenseLicensed     = "licensed"
	LicenseRevoked      = "licensed_revoked"
)

// LicenseState is the single device-level authorization record.
type LicenseState struct {
	ID              uint   `json:"-" gorm:"primaryKey"`
	HardwareID      string `json:"hardware_id" gorm:"size:64"`
	Status          string `json:"status" gorm:"size:32"`
	LicenseKey      string `json:"-" gorm:"size:512"`
	TrialStart      int64  `json:"trial_start"`
	TrialDays       int    `json:"trial_days"`
	ExpiresAt       int64  `json:"expires_at"`
	LastRemoteCheck int64  `json:"last_remote_check"`
	LastRemoteOK    bool   `json:"last_remote_ok"`
}
