package engine

import (
	"context"
	"testing"
	"time"

	"gorm.io/gorm"

	"storecast/internal/models"
)

func TestTimeMatch(t *testing.T) {
	tests := []struct {
		name    string
		start   string
		end     string
		current string
		want    bool
	}{
		// Standard Ranges
		{"Mid-day Match", "12:00", "14:00", "13:00", true},
		{"Exact Start", "12:00", "14:00", "12:00", true},
		{"Exact End (Exclusive)", "12:00", "14:00", "14:00", false},
		{"Before Range", "12:00", "14:00", "11:59", false},
		{"After Range", "12:00", "14:00", "14:01", false},

		// Cross-Midnight Ranges (e.g. 22:00 -> 04:00)
		{"Midnight: Late Night", "22:00", "04:00", "23:00", true},
		{"Midnight: Early Morning", "22:00", "04:00", "03:00", true},
		{"Midnight: Noon Miss", "22:00", "04:00", "12:00", false},

		{"Empty bounds", "", "", "12:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := timeMatch(tt.start, tt.end, tt.current)
			if got != tt.want {
				t.Errorf("timeMatch(%s, %s, %s) = %v, want %v",
					tt.start, tt.end, tt.current, got, tt.want)
			}
		})
	}
}

func createRankStream(t *testing.T, db *gorm.DB) (*models.Stream, *models.Playlist) {
	t.Helper()
	media := createMedia(t, db, 1, "rank", 2)
	pl := createPlaylist(t, db, 1, "Rank Mix", media)
	stream := models.Stream{TenantID: 1, Name: "Rank Test", ContractedAccesses: 10}
	if err := db.Create(&stream).Error; err != nil {
		t.Fatalf("create stream: %v", err)
	}
	return &stream, &pl
}

func TestTieBreakByCreationOrder(t *testing.T) {
	db := setupDB(t)
	stream, pl := createRankStream(t, db)

	// Two FixedTime rules, same priority, both covering 08:30. The
	// earlier-created one must win no matter the read order.
	older := models.Schedule{
		StreamID: stream.ID, Name: "Older",
		ScheduleType: models.ScheduleFixedTime, Priority: 10,
		DaysOfWeek: models.DaysAll, Active: true,
		StartTime: "08:00", EndTime: "09:00",
		PlaylistID: &pl.ID,
	}
	older.CreatedAt = mondayAt(0, 0).AddDate(-1, 0, 0)
	if err := db.Create(&older).Error; err != nil {
		t.Fatalf("create older: %v", err)
	}

	newer := older
	newer.ID = 0
	newer.Name = "Newer"
	newer.CreatedAt = mondayAt(0, 0)
	if err := db.Create(&newer).Error; err != nil {
		t.Fatalf("create newer: %v", err)
	}

	eval := NewEvaluator(db)
	now := mondayAt(8, 30)
	ranked, _, err := eval.Rank(context.Background(), stream, now, now.Truncate(time.Hour))
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(ranked) != 2 {
		t.Fatalf("ranked = %d rules, want 2", len(ranked))
	}
	if ranked[0].Name != "Older" {
		t.Errorf("top rule = %q, want Older", ranked[0].Name)
	}
}

func TestSpecificityBeatsType(t *testing.T) {
	db := setupDB(t)
	stream, pl := createRankStream(t, db)

	filler := models.Schedule{
		StreamID: stream.ID, Name: "Filler",
		ScheduleType: models.ScheduleFiller, Priority: 5,
		DaysOfWeek: models.DaysAll, Active: true,
		PlaylistID: &pl.ID,
	}
	fixed := models.Schedule{
		StreamID: stream.ID, Name: "Fixed",
		ScheduleType: models.ScheduleFixedTime, Priority: 5,
		DaysOfWeek: models.DaysAll, Active: true,
		StartTime: "00:00", EndTime: "23:59",
		PlaylistID: &pl.ID,
	}
	db.Create(&filler)
	db.Create(&fixed)

	now := mondayAt(8, 30)
	ranked, _, err := NewEvaluator(db).Rank(context.Background(), stream, now, now.Truncate(time.Hour))
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(ranked) < 2 || ranked[0].Name != "Fixed" {
		t.Errorf("expected FixedTime to outrank Filler on equal priority, got %+v", names(ranked))
	}
}

func TestDayMasking(t *testing.T) {
	db := setupDB(t)
	stream, pl := createRankStream(t, db)

	weekdayShow := models.Schedule{
		StreamID: stream.ID, Name: "Weekday Show",
		ScheduleType: models.ScheduleFixedTime, Priority: 10,
		DaysOfWeek: models.Weekdays, Active: true,
		StartTime: "08:00", EndTime: "09:00",
		PlaylistID: &pl.ID,
	}
	db.Create(&weekdayShow)

	eval := NewEvaluator(db)

	monday := mondayAt(8, 30)
	ranked, _, _ := eval.Rank(context.Background(), stream, monday, monday.Truncate(time.Hour))
	if len(ranked) != 1 {
		t.Fatalf("Monday: ranked %d rules, want 1", len(ranked))
	}

	// Saturday 08:30, inside the time window but outside the day mask.
	saturday := monday.AddDate(0, 0, 5)
	ranked, _, _ = eval.Rank(context.Background(), stream, saturday, saturday.Truncate(time.Hour))
	if len(ranked) != 0 {
		t.Errorf("Saturday: ranked %v, want none", names(ranked))
	}
}

func TestInactiveRulesSkipped(t *testing.T) {
	db := setupDB(t)
	stream, pl := createRankStream(t, db)

	db.Create(&models.Schedule{
		StreamID: stream.ID, Name: "Disabled",
		ScheduleType: models.ScheduleFiller, Priority: 99,
		DaysOfWeek: models.DaysAll, Active: false,
		PlaylistID: &pl.ID,
	})

	now := mondayAt(8, 30)
	ranked, _, err := NewEvaluator(db).Rank(context.Background(), stream, now, now.Truncate(time.Hour))
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(ranked) != 0 {
		t.Errorf("ranked %v, want none", names(ranked))
	}
}

func TestImplicitFillerAppended(t *testing.T) {
	db := setupDB(t)
	stream, pl := createRankStream(t, db)

	db.Model(&models.Stream{}).Where("id = ?", stream.ID).
		Update("primary_playlist_id", pl.ID)
	stream.PrimaryPlaylistID = &pl.ID

	now := mondayAt(8, 30)
	ranked, _, err := NewEvaluator(db).Rank(context.Background(), stream, now, now.Truncate(time.Hour))
	if err != nil {
		t.Fatalf("Rank: %v", err)
	}
	if len(ranked) != 1 {
		t.Fatalf("ranked %d rules, want just the implicit filler", len(ranked))
	}
	last := ranked[len(ranked)-1]
	if last.ID != 0 || last.ScheduleType != models.ScheduleFiller || *last.PlaylistID != pl.ID {
		t.Errorf("implicit filler malformed: %+v", last)
	}
}

func names(schedules []models.Schedule) []string {
	out := make([]string, len(schedules))
	for i, s := range schedules {
		out[i] = s.Name
	}
	return out
}
