package api

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"storecast/internal/engine"
	"storecast/internal/models"
	"storecast/internal/telemetry"
)

// GetManifest is the player hot path: gate, resolve, assemble.
func (s *Server) GetManifest(c *gin.Context) {
	streamID, ok := pathID(c)
	if !ok {
		return
	}

	deviceKey := c.GetString("device_key")
	if deviceKey == "" {
		deviceKey = c.GetHeader("X-Device-Key")
	}
	if deviceKey == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing device key"})
		return
	}

	manifest, err := s.engine.GetManifest(c.Request.Context(), streamID, deviceKey)
	if err != nil {
		s.renderEngineError(c, err)
		return
	}

	c.JSON(http.StatusOK, manifest)
}

// ReportPlayback ingests a telemetry batch, all-or-nothing.
func (s *Server) ReportPlayback(c *gin.Context) {
	streamID, ok := pathID(c)
	if !ok {
		return
	}

	deviceKey := c.GetString("device_key")
	if deviceKey == "" {
		deviceKey = c.GetHeader("X-Device-Key")
	}

	var input struct {
		Events []telemetry.Report `json:"events" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	processed, err := s.sink.Ingest(c.Request.Context(), streamID, deviceKey, input.Events)
	if err != nil {
		var invalid *telemetry.InvalidBatchError
		if errors.As(err, &invalid) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error": invalid.Error(),
				"code":  "invalid_batch",
			})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"processed": processed})
}

// GetDevices lists the stream's players with their derived online flag.
func (s *Server) GetDevices(c *gin.Context) {
	streamID, ok := pathID(c)
	if !ok {
		return
	}

	var devices []models.Device
	if err := s.db.DB.Where("stream_id = ?", streamID).Order("last_seen_at desc").Find(&devices).Error; err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	now := time.Now().UTC()
	timeout := s.cfg.HeartbeatTimeout()

	type deviceView struct {
		models.Device
		Online bool `json:"online"`
	}
	out := make([]deviceView, 0, len(devices))
	onlineCount := 0
	for _, d := range devices {
		online := d.Online(now, timeout)
		if online {
			onlineCount++
		}
		out = append(out, deviceView{Device: d, Online: online})
	}

	c.JSON(http.StatusOK, gin.H{
		"data": out,
		"meta": gin.H{"online": onlineCount, "total": len(devices)},
	})
}

// GetStats aggregates catalog counts for the dashboard.
func (s *Server) GetStats(c *gin.Context) {
	var stats struct {
		TotalStreams   int64 `json:"total_streams"`
		TotalMedia     int64 `json:"total_media"`
		TotalPlaylists int64 `json:"total_playlists"`
		TotalEvents    int64 `json:"total_events"`
	}

	s.db.DB.Model(&models.Stream{}).Count(&stats.TotalStreams)
	s.db.DB.Model(&models.MediaItem{}).Count(&stats.TotalMedia)
	s.db.DB.Model(&models.Playlist{}).Count(&stats.TotalPlaylists)
	s.db.DB.Model(&models.PlaybackEvent{}).Count(&stats.TotalEvents)

	c.JSON(http.StatusOK, stats)
}

func (s *Server) renderEngineError(c *gin.Context, err error) {
	var payment *engine.PaymentRequiredError
	switch {
	case errors.Is(err, engine.ErrStreamNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Stream not found", "code": "not_found"})
	case errors.As(err, &payment):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": payment.Error(), "code": payment.Code})
	case errors.Is(err, engine.ErrNoProgramming):
		c.JSON(http.StatusConflict, gin.H{"error": "No programming available", "code": "no_programming"})
	default:
		// Transient: players back off and retry, keeping the last
		// cached manifest.
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error(), "code": "internal"})
	}
}

func pathID(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 32)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid id"})
		return 0, false
	}
	return uint(id), true
}
