package models

import (
	"time"

	"gorm.io/gorm"
)

// SubscriptionStatus is the billing state machine for a stream.
type SubscriptionStatus string

const (
	SubTrialing SubscriptionStatus = "trialing"
	SubActive   SubscriptionStatus = "active"
	SubPastDue  SubscriptionStatus = "past_due"
	SubCanceled SubscriptionStatus = "canceled"
)

// Entitled reports whether this status allows fresh content delivery.
// PastDue and Canceled streams keep playing whatever manifest they
// already cached until its TTL runs out, but get nothing new.
func (s SubscriptionStatus) Entitled() bool {
	return s == SubActive || s == SubTrialing
}

// Subscription carries the authoritative commercial state for exactly
// one stream. The billing writer owns it; the engine only reads.
type Subscription struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	StreamID           uint               `json:"stream_id" gorm:"uniqueIndex;not null"`
	Status             SubscriptionStatus `json:"status" gorm:"type:varchar(20);default:'trialing'"`
	ContractedAccesses int                `json:"contracted_accesses" gorm:"default:1"`
}

// SubscriptionTransition is the audit row written in the same
// transaction as every status change.
type SubscriptionTransition struct {
	ID        uint      `gorm:"primarykey" json:"id"`
	CreatedAt time.Time `json:"created_at"`

	SubscriptionID uint               `json:"subscription_id" gorm:"index;not null"`
	FromStatus     SubscriptionStatus `json:"from_status" gorm:"type:varchar(20)"`
	ToStatus       SubscriptionStatus `json:"to_status" gorm:"type:varchar(20)"`
	Reason         string             `json:"reason"`
}
