package engine

import (
	"context"
	"sort"
	"time"

	"gorm.io/gorm"

	"storecast/internal/models"
)

// Evaluator ranks the schedule rules applicable to a stream at a fixed
// instant. It never mutates schedules; the interval cursor is written
// by the engine only after a rule actually wins the slot.
type Evaluator struct {
	db *gorm.DB
}

func NewEvaluator(db *gorm.DB) *Evaluator {
	return &Evaluator{db: db}
}

// Rank returns every applicable rule in deterministic total order:
// priority descending, then specificity (FixedTime > Interval >
// Filler), then creation order. The stream's primary playlist is
// appended as an implicit filler of last resort. The second return
// value is the newest UpdatedAt across all of the stream's active
// rules, folded into the manifest version.
func (e *Evaluator) Rank(ctx context.Context, stream *models.Stream, now, windowStart time.Time) ([]models.Schedule, time.Time, error) {
	var schedules []models.Schedule
	err := e.db.WithContext(ctx).
		Where("stream_id = ? AND active = ?", stream.ID, true).
		Find(&schedules).Error
	if err != nil {
		return nil, time.Time{}, err
	}

	cursors, err := e.loadCursors(ctx, stream.ID)
	if err != nil {
		return nil, time.Time{}, err
	}

	var scheduleVersion time.Time
	ranked := make([]models.Schedule, 0, len(schedules))
	for _, s := range schedules {
		if s.UpdatedAt.After(scheduleVersion) {
			scheduleVersion = s.UpdatedAt
		}
		if e.applicable(&s, now, windowStart, cursors) {
			ranked = append(ranked, s)
		}
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := &ranked[i], &ranked[j]
		if a.Priority != b.Priority {
			return a.Priority > b.Priority
		}
		if sa, sb := a.Specificity(), b.Specificity(); sa != sb {
			return sa > sb
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	if stream.PrimaryPlaylistID != nil {
		ranked = append(ranked, models.Schedule{
			StreamID:      stream.ID,
			Name:          "Primary Rotation",
			ScheduleType:  models.ScheduleFiller,
			DaysOfWeek:    models.DaysAll,
			Active:        true,
			PlaylistID:    stream.PrimaryPlaylistID,
			PlaybackMode:  models.PlaySequence,
			StopCondition: models.StopNone,
		})
	}

	return ranked, scheduleVersion, nil
}

func (e *Evaluator) applicable(s *models.Schedule, now, windowStart time.Time, cursors map[uint]time.Time) bool {
	if !s.AppliesOn(now.Weekday()) {
		return false
	}

	switch s.ScheduleType {
	case models.ScheduleFixedTime:
		return timeMatch(s.StartTime, s.EndTime, now.Format("15:04"))
	case models.ScheduleInterval:
		lastFired, ok := cursors[s.ID]
		if !ok {
			return true
		}
		// A rule that fired for this exact window still owns it, so
		// re-evaluation inside one validity window stays stable.
		if lastFired.Equal(windowStart) {
			return true
		}
		due := lastFired.Add(time.Duration(s.IntervalMinutes) * time.Minute)
		return !windowStart.Before(due)
	case models.ScheduleFiller:
		return true
	}
	return false
}

func (e *Evaluator) loadCursors(ctx context.Context, streamID uint) (map[uint]time.Time, error) {
	var rows []models.ScheduleCursor
	if err := e.db.WithContext(ctx).Where("stream_id = ?", streamID).Find(&rows).Error; err != nil {
		return nil, err
	}
	cursors := make(map[uint]time.Time, len(rows))
	for _, r := range rows {
		cursors[r.ScheduleID] = r.LastFiredAt
	}
	return cursors, nil
}

// timeMatch handles standard ranges (09:00-11:00) and cross-midnight
// ranges (22:00-02:00) as half-open intervals on "HH:MM" strings.
func timeMatch(start, end, current string) bool {
	if start == "" || end == "" {
		return false
	}
	if start <= end {
		return current >= start && current < end
	}
	// Midnight crossover: (Current >= Start) OR (Current < End)
	return current >= start || current < end
}
