package engine

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storecast/internal/models"
)

// Gate authorizes a manifest request against subscription and device
// capacity state before any rule work happens. It runs first and
// short-circuits: a lapsed subscription never reaches the evaluator.
type Gate struct {
	db               *gorm.DB
	heartbeatTimeout time.Duration
}

func NewGate(db *gorm.DB, heartbeatTimeout time.Duration) *Gate {
	return &Gate{db: db, heartbeatTimeout: heartbeatTimeout}
}

// Authorize checks commercial entitlement and live capacity, then
// records the requesting device's heartbeat. Capacity is a
// self-healing window: devices silent past the timeout stop counting,
// so the check needs no janitor job.
func (g *Gate) Authorize(ctx context.Context, stream *models.Stream, deviceKey string, now time.Time) error {
	var sub models.Subscription
	err := g.db.WithContext(ctx).Where("stream_id = ?", stream.ID).First(&sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return &PaymentRequiredError{Code: CodeSubscriptionMissing}
	}
	if err != nil {
		return err
	}

	if !sub.Status.Entitled() {
		code := CodeSubscriptionCanceled
		if sub.Status == models.SubPastDue {
			code = CodeSubscriptionPastDue
		}
		return &PaymentRequiredError{Code: code}
	}

	cutoff := now.Add(-g.heartbeatTimeout)

	// A device already inside the online window re-polling must never
	// be locked out by its own heartbeat, so it bypasses the count.
	var self int64
	if err := g.db.WithContext(ctx).Model(&models.Device{}).
		Where("stream_id = ? AND device_key = ? AND last_seen_at > ?", stream.ID, deviceKey, cutoff).
		Count(&self).Error; err != nil {
		return err
	}

	if self == 0 {
		var online int64
		if err := g.db.WithContext(ctx).Model(&models.Device{}).
			Where("stream_id = ? AND device_key <> ? AND last_seen_at > ?", stream.ID, deviceKey, cutoff).
			Count(&online).Error; err != nil {
			return err
		}
		if online >= int64(sub.ContractedAccesses) {
			return &PaymentRequiredError{Code: CodeCapacityExceeded}
		}
	}

	return g.touch(ctx, stream.ID, deviceKey, now)
}

// touch upserts the heartbeat atomically keyed (stream_id, device_key),
// so two first-contact requests from the same player cannot race into
// duplicate rows.
func (g *Gate) touch(ctx context.Context, streamID uint, deviceKey string, now time.Time) error {
	device := models.Device{
		StreamID:   streamID,
		DeviceKey:  deviceKey,
		LastSeenAt: now,
	}
	return g.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stream_id"}, {Name: "device_key"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_seen_at": now}),
	}).Create(&device).Error
}

// OnlineCount returns how many devices currently count toward the
// stream's capacity.
func (g *Gate) OnlineCount(ctx context.Context, streamID uint, now time.Time) (int64, error) {
	var online int64
	err := g.db.WithContext(ctx).Model(&models.Device{}).
		Where("stream_id = ? AND last_seen_at > ?", streamID, now.Add(-g.heartbeatTimeout)).
		Count(&online).Error
	return online, err
}

// HeartbeatTimeout exposes the online window for handlers that derive
// per-device online flags.
func (g *Gate) HeartbeatTimeout() time.Duration {
	return g.heartbeatTimeout
}
