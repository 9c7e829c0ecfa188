package model

// Rate is one pricing rule in a device's pricing table: this amount buys
// this much time. Rules are immutable once matched against a payment; edits
// create new rows and never touch sessions already granted.
type Rate struct {
	ID           uint   `json:"id" gorm:"primaryKey"`
	DeviceID     string `json:"device_id" gorm:"index;size:64"`
	Amount       int    `json:"amount"`
	Duration     int64  `json:"duration"`
	Unit         string `json:"unit" gorm:"size:16"` // seconds|minutes|hours, defaults to seconds
	DownKbps     int    `json:"down_kbps"`
	UpKbps       int    `json:"up_kbps"`
	PauseAllowed bool   `json:"pause_allowed"`
	Priority     int    `json:"priority"`
	CreatedAt    int64  `json:"created_at"`
}

// Seconds returns the granted duration normalized to seconds.
func (r *Rate) Seconds() int64 {
	switch r.Unit {
	case "minutes":
		return r.Duration * 60
	case "hours":
		return r.Duration * 3600
	default:
		return r.Duration
	}
}
