package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

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

func validBatch(n int) []Report {
	at := time.Date(2026, 1, 5, 9, 0, 0, 0, time.UTC)
	batch := make([]Report, 0, n)
	for i := 0; i < n; i++ {
		batch = append(batch, Report{
			MediaID:   uint(i + 1),
			EventType: "played",
			PlayedAt:  at.Add(time.Duration(i) * 3 * time.Minute),
		})
	}
	return batch
}

func TestIngestPersistsBatch(t *testing.T) {
	conn := setupDB(t)
	sink := NewSink(conn)

	n, err := sink.Ingest(context.Background(), 1, "till-01", validBatch(5))
	if err != nil {
		t.Fatalf("Ingest: %v", err)
	}
	if n != 5 {
		t.Errorf("accepted = %d, want 5", n)
	}

	var rows []models.PlaybackEvent
	conn.Order("id asc").Find(&rows)
	if len(rows) != 5 {
		t.Fatalf("persisted %d rows, want 5", len(rows))
	}
	if rows[0].StreamID != 1 || rows[0].DeviceKey != "till-01" {
		t.Errorf("row attribution = (%d, %q)", rows[0].StreamID, rows[0].DeviceKey)
	}
	if rows[2].EventType != models.EventPlayed {
		t.Errorf("event type = %q", rows[2].EventType)
	}
}

func TestMalformedEventRejectsWholeBatch(t *testing.T) {
	conn := setupDB(t)
	sink := NewSink(conn)

	cases := []struct {
		name   string
		mangle func(*Report)
		index  int
	}{
		{"MissingMediaID", func(r *Report) { r.MediaID = 0 }, 3},
		{"UnknownEventType", func(r *Report) { r.EventType = "buffered" }, 3},
		{"MissingPlayedAt", func(r *Report) { r.PlayedAt = time.Time{} }, 3},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			batch := validBatch(5)
			tc.mangle(&batch[tc.index])

			_, err := sink.Ingest(context.Background(), 1, "till-01", batch)
			var inv *InvalidBatchError
			if !errors.As(err, &inv) {
				t.Fatalf("err = %v, want InvalidBatchError", err)
			}
			if inv.Index != tc.index {
				t.Errorf("rejected index = %d, want %d", inv.Index, tc.index)
			}

			var count int64
			conn.Model(&models.PlaybackEvent{}).Count(&count)
			if count != 0 {
				t.Errorf("%d rows persisted from a rejected batch", count)
			}
		})
	}
}

func TestEmptyBatchRejected(t *testing.T) {
	conn := setupDB(t)
	sink := NewSink(conn)

	_, err := sink.Ingest(context.Background(), 1, "till-01", nil)
	var inv *InvalidBatchError
	if !errors.As(err, &inv) {
		t.Fatalf("err = %v, want InvalidBatchError", err)
	}
}

func TestOfflineEventsDoNotTouchDevices(t *testing.T) {
	conn := setupDB(t)
	sink := NewSink(conn)

	// A device whose online window lapsed yesterday.
	stale := time.Date(2026, 1, 4, 12, 0, 0, 0, time.UTC)
	dev := models.Device{StreamID: 1, DeviceKey: "till-01", LastSeenAt: stale}
	if err := conn.Create(&dev).Error; err != nil {
		t.Fatalf("create device: %v", err)
	}

	batch := validBatch(3)
	for i := range batch {
		batch[i].Offline = true
	}
	if _, err := sink.Ingest(context.Background(), 1, "till-01", batch); err != nil {
		t.Fatalf("Ingest: %v", err)
	}

	var after models.Device
	conn.First(&after, dev.ID)
	if !after.LastSeenAt.Equal(stale) {
		t.Errorf("ingest moved last_seen_at to %v", after.LastSeenAt)
	}

	var rows []models.PlaybackEvent
	conn.Find(&rows)
	for _, r := range rows {
		if !r.Offline {
			t.Errorf("offline flag lost on event %d", r.ID)
		}
	}
}
