package models

import (
	"time"

	"gorm.io/gorm"
)

// Stream is a single broadcast channel owned by one tenant.
// In-store players poll it for manifests; everything the engine
// resolves hangs off this row.
type Stream struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	TenantID uint   `json:"tenant_id" gorm:"index;not null"`
	Name     string `json:"name" gorm:"not null"`

	// Cached from the Subscription; the billing writer keeps it in sync.
	ContractedAccesses int `json:"contracted_accesses" gorm:"default:1"`

	// Player-side playback settings, shipped verbatim in every manifest.
	CrossfadeSeconds    int  `json:"crossfade_seconds" gorm:"default:0"`
	VolumeNormalization bool `json:"volume_normalization" gorm:"default:false"`

	// Fallback programming when no schedule rule applies.
	PrimaryPlaylistID *uint     `json:"primary_playlist_id" gorm:"index"`
	PrimaryPlaylist   *Playlist `json:"primary_playlist,omitempty"`
}
