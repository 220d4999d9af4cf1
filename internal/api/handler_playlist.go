package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"storecast/internal/models"
)

// CreatePlaylist stores a playlist with its ordered membership in one
// transaction.
func (s *Server) CreatePlaylist(c *gin.Context) {
	var input struct {
		TenantID    uint   `json:"tenant_id" binding:"required"`
		Name        string `json:"name" binding:"required"`
		Description string `json:"description"`
		MediaIDs    []uint `json:"media_ids"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	playlist := models.Playlist{
		TenantID:    input.TenantID,
		Name:        input.Name,
		Description: input.Description,
	}

	err := s.db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&playlist).Error; err != nil {
			return err
		}
		for i, mediaID := range input.MediaIDs {
			var count int64
			tx.Model(&models.MediaItem{}).
				Where("id = ? AND tenant_id = ?", mediaID, input.TenantID).
				Count(&count)
			if count == 0 {
				continue // skip foreign/unknown media silently
			}
			item := models.PlaylistItem{
				PlaylistID:  playlist.ID,
				MediaItemID: mediaID,
				Position:    i,
			}
			if err := tx.Create(&item).Error; err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, playlist)
}

// GetPlaylists returns playlists with membership, newest first.
func (s *Server) GetPlaylists(c *gin.Context) {
	var playlists []models.Playlist
	err := s.db.DB.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("playlist_items.position asc")
	}).Preload("Items.MediaItem").
		Order("created_at desc").
		Find(&playlists).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, playlists)
}

// DeletePlaylist soft-deletes a playlist. Schedules referencing it
// will come up empty and the evaluator falls through to the next rule.
func (s *Server) DeletePlaylist(c *gin.Context) {
	playlistID, ok := pathID(c)
	if !ok {
		return
	}

	result := s.db.DB.Delete(&models.Playlist{}, playlistID)
	if result.Error != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete playlist"})
		return
	}
	if result.RowsAffected == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Playlist deleted", "id": playlistID})
}
