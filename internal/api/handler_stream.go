package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"storecast/internal/models"
)

// CreateStream provisions a stream together with its trialing
// subscription, keeping the one-subscription-per-stream invariant from
// the first write.
func (s *Server) CreateStream(c *gin.Context) {
	var input struct {
		TenantID            uint   `json:"tenant_id" binding:"required"`
		Name                string `json:"name" binding:"required"`
		ContractedAccesses  int    `json:"contracted_accesses"`
		CrossfadeSeconds    int    `json:"crossfade_seconds"`
		VolumeNormalization bool   `json:"volume_normalization"`
		PrimaryPlaylistID   *uint  `json:"primary_playlist_id"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if input.ContractedAccesses < 1 {
		input.ContractedAccesses = 1
	}

	if input.PrimaryPlaylistID != nil {
		var count int64
		s.db.DB.Model(&models.Playlist{}).
			Where("id = ? AND tenant_id = ?", *input.PrimaryPlaylistID, input.TenantID).
			Count(&count)
		if count == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Primary playlist not found"})
			return
		}
	}

	stream := models.Stream{
		TenantID:            input.TenantID,
		Name:                input.Name,
		ContractedAccesses:  input.ContractedAccesses,
		CrossfadeSeconds:    input.CrossfadeSeconds,
		VolumeNormalization: input.VolumeNormalization,
		PrimaryPlaylistID:   input.PrimaryPlaylistID,
	}

	err := s.db.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&stream).Error; err != nil {
			return err
		}
		return tx.Create(&models.Subscription{
			StreamID:           stream.ID,
			Status:             models.SubTrialing,
			ContractedAccesses: input.ContractedAccesses,
		}).Error
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, stream)
}

// GetStreams lists streams, newest first.
func (s *Server) GetStreams(c *gin.Context) {
	var streams []models.Stream
	if err := s.db.DB.Order("created_at desc").Find(&streams).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, streams)
}
