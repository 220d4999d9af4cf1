package engine

import (
	"errors"
	"fmt"
)

// Stable machine codes carried by PaymentRequired responses. Players
// key retry/stop behavior off these, so they never change.
const (
	CodeSubscriptionMissing  = "subscription_missing"
	CodeSubscriptionPastDue  = "subscription_past_due"
	CodeSubscriptionCanceled = "subscription_canceled"
	CodeCapacityExceeded     = "capacity_exceeded"
)

var (
	// ErrStreamNotFound means the stream id resolves to nothing. Fatal,
	// players must not retry.
	ErrStreamNotFound = errors.New("stream not found")

	// ErrNoProgramming means no rule nor fallback playlist yielded a
	// non-empty queue. Recoverable once configuration is fixed.
	ErrNoProgramming = errors.New("no programming available")
)

// PaymentRequiredError gates content delivery on commercial state.
// Already-cached manifests on provisioned players keep playing until
// their TTL elapses; nothing new is handed out.
type PaymentRequiredError struct {
	Code string
}

func (e *PaymentRequiredError) Error() string {
	return fmt.Sprintf("payment required: %s", e.Code)
}
