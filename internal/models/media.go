package models

import (
	"time"

	"gorm.io/gorm"
)

// Readiness tracks a media item's journey through the upload pipeline.
// The engine only ever queues items that reached MediaReady.
type Readiness string

const (
	MediaUploading  Readiness = "uploading"
	MediaProcessing Readiness = "processing"
	MediaReady      Readiness = "ready"
	MediaFailed     Readiness = "failed"
)

// MediaKind classifies what a content unit is used for on air.
type MediaKind string

const (
	KindMusic      MediaKind = "music"
	KindJingle     MediaKind = "jingle"
	KindAd         MediaKind = "ad"
	KindAttraction MediaKind = "attraction"
)

// AdState gates commercial content: ads must be approved before the
// queue builder will touch them.
type AdState string

const (
	AdPending  AdState = "pending"
	AdApproved AdState = "approved"
)

// MediaItem is one content unit. (ID, Version) uniquely identifies a
// binary payload; replacing the audio bumps Version so offline players
// know their cached copy is stale.
type MediaItem struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	TenantID uint   `json:"tenant_id" gorm:"index;not null"`
	Title    string `json:"title" gorm:"index"`
	Artist   string `json:"artist"`

	Kind    MediaKind `json:"kind" gorm:"type:varchar(20);default:'music'"`
	AdState AdState   `json:"ad_state" gorm:"type:varchar(10);default:'pending'"`

	StorageKey string `json:"storage_key" gorm:"uniqueIndex"`
	Hash       string `json:"hash" gorm:"size:64"`
	Version    int    `json:"version" gorm:"default:1"`

	DurationSeconds float64 `json:"duration_seconds"`
	SizeBytes       int64   `json:"size_bytes"`

	Readiness Readiness `json:"readiness" gorm:"type:varchar(20);default:'uploading';index"`
}

// Playable reports whether the item may appear in a queue: fully
// processed, resolvable in storage, and (for ads) approved for air.
func (m *MediaItem) Playable() bool {
	if m.Readiness != MediaReady || m.StorageKey == "" {
		return false
	}
	if m.Kind == KindAd && m.AdState != AdApproved {
		return false
	}
	return true
}
