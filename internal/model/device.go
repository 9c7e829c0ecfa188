package model

// Device identifies one physical slot controller.
type Device struct {
	ID       string `json:"id" gorm:"primaryKey;size:64"`
	Name     string `json:"name" gorm:"size:128"`
	LastSeen int64  `json:"last_seen"`
	Status   int    `json:"status"`
}

const (
	DeviceOnline = iota
	DeviceOffline
)
