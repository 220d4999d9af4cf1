package engine

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"storecast/internal/metrics"
	"storecast/internal/models"
)

// Engine is the manifest resolution façade: access gate, rule
// evaluator, queue builder and assembler wired in request order.
// One Engine serves all streams; every method is safe for concurrent
// use.
type Engine struct {
	db        *gorm.DB
	gate      *Gate
	evaluator *Evaluator
	queues    *QueueBuilder
	assembler *Assembler
	clock     Clock
	window    time.Duration
	cache     *manifestCache
}

func New(db *gorm.DB, urls URLResolver, clock Clock, window, heartbeatTimeout time.Duration) *Engine {
	return &Engine{
		db:        db,
		gate:      NewGate(db, heartbeatTimeout),
		evaluator: NewEvaluator(db),
		queues:    NewQueueBuilder(db),
		assembler: NewAssembler(urls),
		clock:     clock,
		window:    window,
		cache:     newManifestCache(),
	}
}

// Gate exposes the access gate for handlers that need device state.
func (e *Engine) Gate() *Gate {
	return e.gate
}

// GetManifest resolves what the given device should play right now.
// `now` is sampled exactly once and held fixed through evaluation, so
// a clock tick mid-request cannot change the outcome.
func (e *Engine) GetManifest(ctx context.Context, streamID uint, deviceKey string) (*Manifest, error) {
	start := time.Now()
	manifest, err := e.getManifest(ctx, streamID, deviceKey)
	metrics.ObserveManifest(time.Since(start), statusOf(err))

	var payment *PaymentRequiredError
	if errors.As(err, &payment) {
		metrics.GateRejected(payment.Code)
	}
	return manifest, err
}

func statusOf(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrStreamNotFound):
		return "not_found"
	case errors.Is(err, ErrNoProgramming):
		return "no_programming"
	default:
		var payment *PaymentRequiredError
		if errors.As(err, &payment) {
			return "payment_required"
		}
		return "error"
	}
}

func (e *Engine) getManifest(ctx context.Context, streamID uint, deviceKey string) (*Manifest, error) {
	now := e.clock.Now().UTC()

	var stream models.Stream
	err := e.db.WithContext(ctx).First(&stream, streamID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrStreamNotFound
	}
	if err != nil {
		return nil, err
	}

	// Gate first, before any rule work. Runs on every poll even for
	// cached windows: the heartbeat upsert is what keeps the device
	// counted as online.
	if err := e.gate.Authorize(ctx, &stream, deviceKey, now); err != nil {
		return nil, err
	}

	windowStart := now.Truncate(e.window)
	if m, ok := e.cache.get(stream.ID, windowStart, now); ok {
		return m, nil
	}

	ranked, scheduleVersion, err := e.evaluator.Rank(ctx, &stream, now, windowStart)
	if err != nil {
		return nil, err
	}

	// Walk candidates best-first: a rule whose playlist turns out
	// empty (nothing ready, ads unapproved) yields to the next one.
	for i := range ranked {
		sched := &ranked[i]

		queue, media, contentVersion, err := e.queues.Build(ctx, &stream, sched, windowStart, e.window)
		if err != nil {
			return nil, err
		}
		if len(queue) == 0 {
			continue
		}

		if sched.ScheduleType == models.ScheduleInterval && sched.ID != 0 {
			if err := e.markFired(ctx, stream.ID, sched.ID, windowStart); err != nil {
				return nil, err
			}
		}

		manifest, err := e.assembler.Assemble(&stream, queue, media,
			[]time.Time{scheduleVersion, contentVersion}, now, e.window)
		if err != nil {
			return nil, err
		}

		e.cache.put(stream.ID, windowStart, manifest, e.window)
		return manifest, nil
	}

	return nil, ErrNoProgramming
}

// markFired advances the interval rule's persisted cursor to the
// window it just won. Upsert keyed (stream, schedule): concurrent
// requests for the same window write the same value.
func (e *Engine) markFired(ctx context.Context, streamID, scheduleID uint, windowStart time.Time) error {
	cursor := models.ScheduleCursor{
		StreamID:    streamID,
		ScheduleID:  scheduleID,
		LastFiredAt: windowStart,
	}
	return e.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "stream_id"}, {Name: "schedule_id"}},
		DoUpdates: clause.Assignments(map[string]interface{}{"last_fired_at": windowStart}),
	}).Create(&cursor).Error
}

// InvalidateStream drops cached manifests after schedule or playlist
// writes.
func (e *Engine) InvalidateStream(streamID uint) {
	e.cache.invalidate(streamID)
}
