package engine

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"time"

	"gorm.io/gorm"

	"storecast/internal/models"
)

// QueueItem is one entry the player works through in order.
type QueueItem struct {
	Type            string  `json:"type"`
	MediaID         uint    `json:"media_id"`
	Title           string  `json:"title"`
	DurationSeconds float64 `json:"duration_seconds"`
	ForcePlay       bool    `json:"force_play"`
}

// maxQueueItems caps the fill loop so a playlist of zero-duration rows
// can never spin forever.
const maxQueueItems = 500

// QueueBuilder expands a selected rule into the finite track queue for
// the current validity window. Every media lookup is tenant-filtered;
// unready items, unresolved storage keys and unapproved ads are
// dropped before ordering.
type QueueBuilder struct {
	db *gorm.DB
}

func NewQueueBuilder(db *gorm.DB) *QueueBuilder {
	return &QueueBuilder{db: db}
}

// Build returns the queue, the distinct media backing it, and the
// newest content UpdatedAt (folded into the manifest version). An
// empty queue with a nil error means the rule yielded nothing and the
// caller should try the next-ranked candidate.
func (b *QueueBuilder) Build(ctx context.Context, stream *models.Stream, sched *models.Schedule, windowStart time.Time, window time.Duration) ([]QueueItem, []models.MediaItem, time.Time, error) {
	if sched.MediaItemID != nil {
		return b.buildSingle(ctx, stream, sched)
	}
	return b.buildPlaylist(ctx, stream, sched, windowStart, window)
}

func (b *QueueBuilder) buildSingle(ctx context.Context, stream *models.Stream, sched *models.Schedule) ([]QueueItem, []models.MediaItem, time.Time, error) {
	var m models.MediaItem
	err := b.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", *sched.MediaItemID, stream.TenantID).
		First(&m).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, time.Time{}, nil
	}
	if err != nil {
		return nil, nil, time.Time{}, err
	}
	if !m.Playable() {
		return nil, nil, time.Time{}, nil
	}

	// Single-media rules splice in at the player's next natural
	// boundary rather than replacing the running queue.
	item := QueueItem{
		Type:            string(m.Kind),
		MediaID:         m.ID,
		Title:           m.Title,
		DurationSeconds: m.DurationSeconds,
		ForcePlay:       true,
	}
	return []QueueItem{item}, []models.MediaItem{m}, m.UpdatedAt, nil
}

func (b *QueueBuilder) buildPlaylist(ctx context.Context, stream *models.Stream, sched *models.Schedule, windowStart time.Time, window time.Duration) ([]QueueItem, []models.MediaItem, time.Time, error) {
	var pl models.Playlist
	err := b.db.WithContext(ctx).
		Where("id = ? AND tenant_id = ?", *sched.PlaylistID, stream.TenantID).
		First(&pl).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil, time.Time{}, nil
	}
	if err != nil {
		return nil, nil, time.Time{}, err
	}

	var medias []models.MediaItem
	err = b.db.WithContext(ctx).Model(&models.MediaItem{}).
		Joins("JOIN playlist_items ON playlist_items.media_item_id = media_items.id").
		Where("playlist_items.playlist_id = ? AND media_items.tenant_id = ?", pl.ID, stream.TenantID).
		Order("playlist_items.position asc").
		Find(&medias).Error
	if err != nil {
		return nil, nil, time.Time{}, err
	}

	contentVersion := pl.UpdatedAt
	eligible := medias[:0]
	for _, m := range medias {
		if m.UpdatedAt.After(contentVersion) {
			contentVersion = m.UpdatedAt
		}
		if m.Playable() {
			eligible = append(eligible, m)
		}
	}
	if len(eligible) == 0 {
		return nil, nil, time.Time{}, nil
	}

	if sched.PlaybackMode == models.PlayShuffle {
		shuffleInPlace(eligible, stream.ID, windowStart)
	}

	queue := fillWindow(eligible, sched, window)

	distinct := make([]models.MediaItem, 0, len(eligible))
	seen := make(map[uint]bool, len(eligible))
	for _, item := range queue {
		if seen[item.MediaID] {
			continue
		}
		seen[item.MediaID] = true
		for _, m := range eligible {
			if m.ID == item.MediaID {
				distinct = append(distinct, m)
				break
			}
		}
	}

	return queue, distinct, contentVersion, nil
}

// fillWindow cycles the ordered items until the rule's stop condition
// is met. StopNone fills the whole validity window.
func fillWindow(items []models.MediaItem, sched *models.Schedule, window time.Duration) []QueueItem {
	var limitSeconds float64
	switch sched.StopCondition {
	case models.StopTime:
		limitSeconds = float64(sched.StopValue) * 60
	case models.StopCount:
		limitSeconds = 0 // bounded by item count instead
	default:
		limitSeconds = window.Seconds()
	}

	var queue []QueueItem
	var total float64
	for i := 0; len(queue) < maxQueueItems; i++ {
		m := items[i%len(items)]
		queue = append(queue, QueueItem{
			Type:            string(m.Kind),
			MediaID:         m.ID,
			Title:           m.Title,
			DurationSeconds: m.DurationSeconds,
		})
		total += m.DurationSeconds

		if sched.StopCondition == models.StopCount {
			if len(queue) >= sched.StopValue {
				break
			}
			continue
		}
		if total >= limitSeconds {
			break
		}
		// All durations zero: one full pass is the best we can do.
		if i+1 >= len(items) && total == 0 {
			break
		}
	}
	return queue
}

// shuffleInPlace runs a Fisher-Yates permutation seeded by
// (stream_id, window_start), so every request inside one validity
// window sees the identical order.
func shuffleInPlace(items []models.MediaItem, streamID uint, windowStart time.Time) {
	h := fnv.New64a()
	fmt.Fprintf(h, "%d|%d", streamID, windowStart.Unix())
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	for i := len(items) - 1; i > 0; i-- {
		j := rng.Intn(i + 1)
		items[i], items[j] = items[j], items[i]
	}
}
