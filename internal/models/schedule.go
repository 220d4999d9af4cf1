package models

import (
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// ScheduleType discriminates the three rule flavors.
type ScheduleType string

const (
	ScheduleFixedTime ScheduleType = "fixed_time"
	ScheduleInterval  ScheduleType = "interval"
	ScheduleFiller    ScheduleType = "filler"
)

// PlaybackMode controls how a playlist-backed rule orders its tracks.
type PlaybackMode string

const (
	PlaySequence PlaybackMode = "sequence"
	PlayShuffle  PlaybackMode = "shuffle"
)

// StopCondition bounds how much of the validity window a playlist fills.
type StopCondition string

const (
	StopNone  StopCondition = "none"
	StopTime  StopCondition = "time"  // StopValue = minutes of aggregate duration
	StopCount StopCondition = "count" // StopValue = number of items
)

// DaysAll is the full week bitmask (bit 0 = Sunday .. bit 6 = Saturday).
const DaysAll uint8 = 0x7F

// Weekdays masks Monday through Friday.
const Weekdays uint8 = 0x3E

// Schedule is a time/priority rule binding a playlist or a single media
// item to a stream. Exactly one of PlaylistID / MediaItemID is set.
type Schedule struct {
	ID        uint           `gorm:"primarykey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	StreamID uint   `json:"stream_id" gorm:"index;not null"`
	Name     string `json:"name"`

	ScheduleType ScheduleType `json:"schedule_type" gorm:"type:varchar(20);not null"`
	Priority     int          `json:"priority" gorm:"default:0"`
	DaysOfWeek   uint8        `json:"days_of_week" gorm:"default:127"`
	Active       bool         `json:"active" gorm:"default:true"`

	// fixed_time only, "HH:MM" local stream time. End < Start wraps midnight.
	StartTime string `json:"start_time" gorm:"type:varchar(5)"`
	EndTime   string `json:"end_time" gorm:"type:varchar(5)"`

	// interval only.
	IntervalMinutes int `json:"interval_minutes"`

	PlaylistID *uint     `json:"playlist_id" gorm:"index"`
	Playlist   *Playlist `json:"playlist,omitempty"`

	MediaItemID *uint      `json:"media_item_id" gorm:"index"`
	MediaItem   *MediaItem `json:"media_item,omitempty"`

	// playlist content only.
	PlaybackMode  PlaybackMode  `json:"playback_mode" gorm:"type:varchar(10);default:'sequence'"`
	StopCondition StopCondition `json:"stop_condition" gorm:"type:varchar(10);default:'none'"`
	StopValue     int           `json:"stop_value"`
}

// AppliesOn reports whether the rule's day mask covers the given weekday.
func (s *Schedule) AppliesOn(d time.Weekday) bool {
	return s.DaysOfWeek&(1<<uint(d)) != 0
}

// Specificity ranks rule types for the evaluator's tie-break:
// FixedTime beats Interval beats Filler.
func (s *Schedule) Specificity() int {
	switch s.ScheduleType {
	case ScheduleFixedTime:
		return 2
	case ScheduleInterval:
		return 1
	default:
		return 0
	}
}

// Validate enforces the tagged-union shape at write time so the read
// path never has to second-guess stored rows.
func (s *Schedule) Validate() error {
	hasPlaylist := s.PlaylistID != nil
	hasMedia := s.MediaItemID != nil
	if hasPlaylist == hasMedia {
		return errors.New("schedule must reference exactly one of playlist or media item")
	}

	if s.DaysOfWeek == 0 || s.DaysOfWeek > DaysAll {
		return fmt.Errorf("days_of_week must be a non-empty subset of the week, got %d", s.DaysOfWeek)
	}

	switch s.ScheduleType {
	case ScheduleFixedTime:
		if !validClockTime(s.StartTime) || !validClockTime(s.EndTime) {
			return fmt.Errorf("fixed_time schedule needs HH:MM start/end, got %q-%q", s.StartTime, s.EndTime)
		}
	case ScheduleInterval:
		if s.IntervalMinutes <= 0 {
			return errors.New("interval schedule needs interval_minutes > 0")
		}
	case ScheduleFiller:
		// no extra fields
	default:
		return fmt.Errorf("unknown schedule_type %q", s.ScheduleType)
	}

	if hasPlaylist {
		switch s.PlaybackMode {
		case PlaySequence, PlayShuffle:
		case "":
			s.PlaybackMode = PlaySequence
		default:
			return fmt.Errorf("unknown playback_mode %q", s.PlaybackMode)
		}
		switch s.StopCondition {
		case StopNone:
		case "":
			s.StopCondition = StopNone
		case StopTime, StopCount:
			if s.StopValue <= 0 {
				return fmt.Errorf("stop_condition %q needs stop_value > 0", s.StopCondition)
			}
		default:
			return fmt.Errorf("unknown stop_condition %q", s.StopCondition)
		}
	}

	return nil
}

func validClockTime(v string) bool {
	if len(v) != 5 || v[2] != ':' {
		return false
	}
	_, err := time.Parse("15:04", v)
	return err == nil
}

// ScheduleCursor persists the last firing of an interval rule per
// (stream, schedule), so restarts and clock skew cannot double- or
// skip-fire. LastFiredAt always holds a window-aligned timestamp.
type ScheduleCursor struct {
	ID          uint      `gorm:"primarykey" json:"id"`
	StreamID    uint      `json:"stream_id" gorm:"uniqueIndex:idx_cursor_stream_schedule;not null"`
	ScheduleID  uint      `json:"schedule_id" gorm:"uniqueIndex:idx_cursor_stream_schedule;not null"`
	LastFiredAt time.Time `json:"last_fired_at"`
}
