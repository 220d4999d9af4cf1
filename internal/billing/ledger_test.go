package billing

import (
	"context"
	"errors"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	database "storecast/internal/db"
	"storecast/internal/models"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	conn, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	if err != nil {
		t.Fatalf("Failed to open sqlite: %v", err)
	}
	if err := database.Migrate(conn); err != nil {
		t.Fatalf("Failed to migrate: %v", err)
	}
	return conn
}

func seedSubscribedStream(t *testing.T, conn *gorm.DB, status models.SubscriptionStatus) *models.Stream {
	t.Helper()
	stream := models.Stream{TenantID: 1, Name: "Billing Test", ContractedAccesses: 3}
	if err := conn.Create(&stream).Error; err != nil {
		t.Fatalf("create stream: %v", err)
	}
	sub := models.Subscription{StreamID: stream.ID, Status: status, ContractedAccesses: 3}
	if err := conn.Create(&sub).Error; err != nil {
		t.Fatalf("create subscription: %v", err)
	}
	return &stream
}

func TestTransitionTable(t *testing.T) {
	cases := []struct {
		from, to models.SubscriptionStatus
		allowed  bool
	}{
		{models.SubTrialing, models.SubActive, true},
		{models.SubTrialing, models.SubPastDue, true},
		{models.SubTrialing, models.SubCanceled, true},
		{models.SubActive, models.SubPastDue, true},
		{models.SubActive, models.SubCanceled, true},
		{models.SubActive, models.SubTrialing, false},
		{models.SubPastDue, models.SubActive, true},
		{models.SubPastDue, models.SubCanceled, true},
		{models.SubPastDue, models.SubTrialing, false},
		{models.SubCanceled, models.SubActive, true},
		{models.SubCanceled, models.SubPastDue, false},
		{models.SubCanceled, models.SubTrialing, false},
	}
	for _, tc := range cases {
		if got := Allowed(tc.from, tc.to); got != tc.allowed {
			t.Errorf("Allowed(%s, %s) = %v, want %v", tc.from, tc.to, got, tc.allowed)
		}
	}
}

func TestApplyWritesAuditRow(t *testing.T) {
	conn := setupDB(t)
	ledger := NewLedger(conn)
	stream := seedSubscribedStream(t, conn, models.SubTrialing)

	sub, err := ledger.Apply(context.Background(), stream.ID, models.SubActive, "invoice.paid")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if sub.Status != models.SubActive {
		t.Errorf("status = %s, want active", sub.Status)
	}

	var audit []models.SubscriptionTransition
	conn.Find(&audit)
	if len(audit) != 1 {
		t.Fatalf("audit rows = %d, want 1", len(audit))
	}
	if audit[0].FromStatus != models.SubTrialing || audit[0].ToStatus != models.SubActive {
		t.Errorf("audit = %s -> %s", audit[0].FromStatus, audit[0].ToStatus)
	}
	if audit[0].Reason != "invoice.paid" {
		t.Errorf("reason = %q", audit[0].Reason)
	}
}

func TestApplyIdempotentOnRedelivery(t *testing.T) {
	conn := setupDB(t)
	ledger := NewLedger(conn)
	stream := seedSubscribedStream(t, conn, models.SubActive)

	// The gateway redelivers a webhook for the status we already hold:
	// no error, no extra audit row.
	sub, err := ledger.Apply(context.Background(), stream.ID, models.SubActive, "invoice.paid")
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if sub.Status != models.SubActive {
		t.Errorf("status = %s", sub.Status)
	}

	var count int64
	conn.Model(&models.SubscriptionTransition{}).Count(&count)
	if count != 0 {
		t.Errorf("no-op redelivery wrote %d audit rows", count)
	}
}

func TestApplyRejectsForbiddenTransition(t *testing.T) {
	conn := setupDB(t)
	ledger := NewLedger(conn)
	stream := seedSubscribedStream(t, conn, models.SubCanceled)

	_, err := ledger.Apply(context.Background(), stream.ID, models.SubPastDue, "invoice.payment_failed")
	var inv *InvalidTransitionError
	if !errors.As(err, &inv) {
		t.Fatalf("err = %v, want InvalidTransitionError", err)
	}

	var sub models.Subscription
	conn.Where("stream_id = ?", stream.ID).First(&sub)
	if sub.Status != models.SubCanceled {
		t.Errorf("rejected transition mutated status to %s", sub.Status)
	}
	var count int64
	conn.Model(&models.SubscriptionTransition{}).Count(&count)
	if count != 0 {
		t.Errorf("rejected transition wrote %d audit rows", count)
	}
}

func TestApplyUnknownStream(t *testing.T) {
	conn := setupDB(t)
	ledger := NewLedger(conn)

	_, err := ledger.Apply(context.Background(), 404, models.SubActive, "invoice.paid")
	if !errors.Is(err, ErrSubscriptionNotFound) {
		t.Fatalf("err = %v, want ErrSubscriptionNotFound", err)
	}
}

func TestSetContractedAccesses(t *testing.T) {
	conn := setupDB(t)
	ledger := NewLedger(conn)
	stream := seedSubscribedStream(t, conn, models.SubActive)

	if err := ledger.SetContractedAccesses(context.Background(), stream.ID, 8); err != nil {
		t.Fatalf("SetContractedAccesses: %v", err)
	}

	var sub models.Subscription
	conn.Where("stream_id = ?", stream.ID).First(&sub)
	if sub.ContractedAccesses != 8 {
		t.Errorf("subscription accesses = %d, want 8", sub.ContractedAccesses)
	}
	var cached models.Stream
	conn.First(&cached, stream.ID)
	if cached.ContractedAccesses != 8 {
		t.Errorf("stream cached accesses = %d, want 8", cached.ContractedAccesses)
	}

	if err := ledger.SetContractedAccesses(context.Background(), stream.ID, 0); err == nil {
		t.Error("accesses below 1 must be rejected")
	}
	if err := ledger.SetContractedAccesses(context.Background(), 404, 5); !errors.Is(err, ErrSubscriptionNotFound) {
		t.Errorf("unknown stream err = %v", err)
	}
}
