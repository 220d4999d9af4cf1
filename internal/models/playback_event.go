package models

import "time"

// PlaybackEventType enumerates what a player can report.
type PlaybackEventType string

const (
	EventPlayed  PlaybackEventType = "played"
	EventSkipped PlaybackEventType = "skipped"
	EventError   PlaybackEventType = "error"
)

// Known reports whether the type is one the sink accepts.
func (t PlaybackEventType) Known() bool {
	switch t {
	case EventPlayed, EventSkipped, EventError:
		return true
	}
	return false
}

// PlaybackEvent is an append-only telemetry record. The manifest read
// path never touches this table; it exists for reporting and royalty
// audits. Offline events are historical and never feed the live
// device-count state.
type PlaybackEvent struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	StreamID    uint              `json:"stream_id" gorm:"index;not null"`
	DeviceKey   string            `json:"device_key" gorm:"size:128"`
	MediaItemID uint              `json:"media_item_id" gorm:"index;not null"`
	EventType   PlaybackEventType `json:"event_type" gorm:"type:varchar(20)"`
	PlayedAt    time.Time         `json:"played_at" gorm:"index"`
	Offline     bool              `json:"offline" gorm:"default:false"`
}
