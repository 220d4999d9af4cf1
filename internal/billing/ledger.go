package billing

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storecast/internal/models"
)

var (
	ErrSubscriptionNotFound = errors.New("subscription not found")
)

// InvalidTransitionError rejects a status change the state machine
// does not allow.
type InvalidTransitionError struct {
	From, To models.SubscriptionStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("invalid subscription transition %s -> %s", e.From, e.To)
}

// transitions is the explicit FSM over subscription statuses. Absent
// edges are forbidden; re-applying the current status is a no-op so
// webhook retries stay harmless.
var transitions = map[models.SubscriptionStatus][]models.SubscriptionStatus{
	models.SubTrialing: {models.SubActive, models.SubPastDue, models.SubCanceled},
	models.SubActive:   {models.SubPastDue, models.SubCanceled},
	models.SubPastDue:  {models.SubActive, models.SubCanceled},
	models.SubCanceled: {models.SubActive},
}

// Allowed reports whether the FSM permits from -> to.
func Allowed(from, to models.SubscriptionStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// Ledger applies subscription state written by the billing gateway's
// webhook consumer. The engine only ever reads what the ledger wrote.
type Ledger struct {
	db *gorm.DB
}

func NewLedger(db *gorm.DB) *Ledger {
	return &Ledger{db: db}
}

// Apply moves the stream's subscription to the given status inside a
// single transaction together with its audit row, so a concurrent
// manifest request never observes a half-applied change.
func (l *Ledger) Apply(ctx context.Context, streamID uint, to models.SubscriptionStatus, reason string) (*models.Subscription, error) {
	var sub models.Subscription

	err := l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		query := tx.Where("stream_id = ?", streamID)
		if tx.Dialector.Name() == "postgres" {
			query = query.Clauses(clause.Locking{Strength: "UPDATE"})
		}
		if err := query.First(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubscriptionNotFound
			}
			return err
		}

		if sub.Status == to {
			return nil // idempotent webhook redelivery
		}
		if !Allowed(sub.Status, to) {
			return &InvalidTransitionError{From: sub.Status, To: to}
		}

		from := sub.Status
		sub.Status = to
		if err := tx.Model(&sub).Update("status", to).Error; err != nil {
			return err
		}
		return tx.Create(&models.SubscriptionTransition{
			SubscriptionID: sub.ID,
			FromStatus:     from,
			ToStatus:       to,
			Reason:         reason,
		}).Error
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// SetContractedAccesses updates the capacity ceiling, keeping the
// stream's cached copy in step with the authoritative subscription.
func (l *Ledger) SetContractedAccesses(ctx context.Context, streamID uint, accesses int) error {
	if accesses < 1 {
		return fmt.Errorf("contracted_accesses must be >= 1, got %d", accesses)
	}
	return l.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Subscription{}).
			Where("stream_id = ?", streamID).
			Update("contracted_accesses", accesses)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrSubscriptionNotFound
		}
		return tx.Model(&models.Stream{}).
			Where("id = ?", streamID).
			Update("contracted_accesses", accesses).Error
	})
}
