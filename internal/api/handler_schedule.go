package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"storecast/internal/models"
)

// CreateSchedule validates and stores a new rule. The tagged-union
// shape is enforced here, at write time, so the evaluator never meets
// a malformed row.
func (s *Server) CreateSchedule(c *gin.Context) {
	var input models.Schedule
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var stream models.Stream
	if err := s.db.DB.First(&stream, input.StreamID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Stream not found"})
		return
	}

	if err := input.Validate(); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	// The referenced content must live in the stream's tenant.
	if input.PlaylistID != nil {
		var count int64
		s.db.DB.Model(&models.Playlist{}).
			Where("id = ? AND tenant_id = ?", *input.PlaylistID, stream.TenantID).
			Count(&count)
		if count == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Playlist not found"})
			return
		}
	}
	if input.MediaItemID != nil {
		var count int64
		s.db.DB.Model(&models.MediaItem{}).
			Where("id = ? AND tenant_id = ?", *input.MediaItemID, stream.TenantID).
			Count(&count)
		if count == 0 {
			c.JSON(http.StatusNotFound, gin.H{"error": "Media item not found"})
			return
		}
	}

	if err := s.db.DB.Create(&input).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	s.engine.InvalidateStream(input.StreamID)
	c.JSON(http.StatusCreated, input)
}

// GetSchedules lists a stream's rules, best-ranked ordering first.
func (s *Server) GetSchedules(c *gin.Context) {
	streamID, ok := pathID(c)
	if !ok {
		return
	}

	var schedules []models.Schedule
	err := s.db.DB.Preload("Playlist").Preload("MediaItem").
		Where("stream_id = ?", streamID).
		Order("priority desc, created_at asc").
		Find(&schedules).Error
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, schedules)
}

// DeleteSchedule soft-deletes a rule.
func (s *Server) DeleteSchedule(c *gin.Context) {
	scheduleID, ok := pathID(c)
	if !ok {
		return
	}

	var sched models.Schedule
	if err := s.db.DB.First(&sched, scheduleID).Error; err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Schedule not found"})
		return
	}

	if err := s.db.DB.Delete(&sched).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to remove schedule"})
		return
	}

	s.engine.InvalidateStream(sched.StreamID)
	c.JSON(http.StatusOK, gin.H{"message": "Schedule removed", "id": scheduleID})
}
