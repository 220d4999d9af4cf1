package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"storecast/internal/billing"
	"storecast/internal/models"
)

// ApplyTransition moves a stream's subscription through the FSM. The
// billing gateway's webhook consumer calls this; the change and its
// audit row land in one transaction.
func (s *Server) ApplyTransition(c *gin.Context) {
	var input struct {
		StreamID uint   `json:"stream_id" binding:"required"`
		Status   string `json:"status" binding:"required"`
		Reason   string `json:"reason"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	sub, err := s.ledger.Apply(c.Request.Context(), input.StreamID, models.SubscriptionStatus(input.Status), input.Reason)
	if err != nil {
		var invalid *billing.InvalidTransitionError
		switch {
		case errors.Is(err, billing.ErrSubscriptionNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
		case errors.As(err, &invalid):
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": invalid.Error()})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, sub)
}

// SetContractedAccesses updates the device-capacity ceiling.
func (s *Server) SetContractedAccesses(c *gin.Context) {
	var input struct {
		StreamID uint `json:"stream_id" binding:"required"`
		Accesses int  `json:"accesses" binding:"required"`
	}
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.ledger.SetContractedAccesses(c.Request.Context(), input.StreamID, input.Accesses); err != nil {
		if errors.Is(err, billing.ErrSubscriptionNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "Subscription not found"})
			return
		}
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{"stream_id": input.StreamID, "accesses": input.Accesses})
}
