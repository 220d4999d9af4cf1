package models

import "time"

// Device is one in-store player, unique per (stream, device_key).
// Online state is derived, never stored: a device counts toward the
// stream's capacity only while its last heartbeat is inside the
// timeout window.
type Device struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	StreamID  uint   `json:"stream_id" gorm:"uniqueIndex:idx_device_stream_key;not null"`
	DeviceKey string `json:"device_key" gorm:"uniqueIndex:idx_device_stream_key;size:128;not null"`
	Name      string `json:"name"`

	LastSeenAt time.Time `json:"last_seen_at" gorm:"index"`
}

// Online reports whether the device was seen within the timeout window.
func (d *Device) Online(now time.Time, timeout time.Duration) bool {
	return now.Sub(d.LastSeenAt) < timeout
}
