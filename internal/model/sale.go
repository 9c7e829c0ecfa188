package model

// Sale is one completed credit event, recorded append-only for the local
// ledger and replicated to the cloud mirror.
type Sale struct {
	ID        uint   `json:"id" gorm:"primaryKey"`
	Token     string `json:"token" gorm:"size:64"`
	ClientID  string `json:"client_id" gorm:"size:64"`
	DeviceID  string `json:"device_id" gorm:"size:64"`
	SlotID    string `json:"slot_id" gorm:"size:64"`
	Origin    string `json:"origin" gorm:"size:16"`
	Amount    int    `json:"amount"`
	Seconds   int64  `json:"seconds"`
	CreatedAt int64  `json:"created_at"`
	Mirrored  bool   `json:"mirrored" gorm:"index"`
}
