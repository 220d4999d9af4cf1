package telemetry

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"storecast/internal/metrics"
	"storecast/internal/models"
)

// Report is one playback event as a player submits it.
type Report struct {
	MediaID   uint      `json:"media_id"`
	EventType string    `json:"event_type"`
	PlayedAt  time.Time `json:"played_at"`
	Offline   bool      `json:"offline"`
}

// InvalidBatchError rejects a whole batch; nothing was persisted, so
// the player may safely resubmit a corrected one.
type InvalidBatchError struct {
	Index  int
	Reason string
}

func (e *InvalidBatchError) Error() string {
	return fmt.Sprintf("invalid batch: event %d: %s", e.Index, e.Reason)
}

// Sink ingests batched playback reports off the manifest read path.
// It does no scheduling work and never touches live device state —
// offline-recorded events especially must not resurrect a device's
// online window.
type Sink struct {
	db *gorm.DB
}

func NewSink(db *gorm.DB) *Sink {
	return &Sink{db: db}
}

// Ingest persists the batch all-or-nothing: validation runs over every
// event before the first row is written, and the insert happens in one
// transaction. A malformed event anywhere rejects everything.
func (s *Sink) Ingest(ctx context.Context, streamID uint, deviceKey string, batch []Report) (int, error) {
	if len(batch) == 0 {
		return 0, &InvalidBatchError{Index: 0, Reason: "empty batch"}
	}

	rows := make([]models.PlaybackEvent, 0, len(batch))
	for i, r := range batch {
		if r.MediaID == 0 {
			return 0, s.reject(i, "missing media_id")
		}
		eventType := models.PlaybackEventType(r.EventType)
		if !eventType.Known() {
			return 0, s.reject(i, fmt.Sprintf("unknown event_type %q", r.EventType))
		}
		if r.PlayedAt.IsZero() {
			return 0, s.reject(i, "missing played_at")
		}
		rows = append(rows, models.PlaybackEvent{
			StreamID:    streamID,
			DeviceKey:   deviceKey,
			MediaItemID: r.MediaID,
			EventType:   eventType,
			PlayedAt:    r.PlayedAt.UTC(),
			Offline:     r.Offline,
		})
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(&rows).Error
	})
	if err != nil {
		return 0, err
	}

	metrics.TelemetryAccepted(len(rows))
	return len(rows), nil
}

func (s *Sink) reject(index int, reason string) error {
	metrics.TelemetryRejected()
	return &InvalidBatchError{Index: index, Reason: reason}
}
