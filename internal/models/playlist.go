package models

import (
	"time"

	"gorm.io/gorm"
)

// Playlist is a curated, ordered collection of media items.
type Playlist struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	TenantID    uint   `json:"tenant_id" gorm:"index;not null"`
	Name        string `json:"name" gorm:"not null"`
	Description string `json:"description"`

	Items []PlaylistItem `json:"items,omitempty" gorm:"foreignKey:PlaylistID"`
}

// PlaylistItem is the join row that stores the playback order.
type PlaylistItem struct {
	PlaylistID  uint `gorm:"primaryKey" json:"playlist_id"`
	MediaItemID uint `gorm:"primaryKey" json:"media_item_id"`
	Position    int  `json:"position"`

	MediaItem *MediaItem `json:"media_item,omitempty"`
}
