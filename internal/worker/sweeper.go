package worker

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// SessionExpirer finalizes every overdue in-progress session as of the
// given instant and reports how many were closed.
type SessionExpirer interface {
	FinalizeOverdue(ctx context.Context, now time.Time) (int, error)
}

// Sweeper periodically force-closes sessions whose deadline has passed.
// It is a safety net behind the request-path lazy expiry; both write the
// same conditional transition, so the race is harmless.
type Sweeper struct {
	store    SessionExpirer
	interval time.Duration
	log      zerolog.Logger
}

// NewSweeper creates a new Sweeper.
func NewSweeper(store SessionExpirer, interval time.Duration, log zerolog.Logger) *Sweeper {
	return &Sweeper{
		store:    store,
		interval: interval,
		log:      log.With().Str("component", "sweeper").Logger(),
	}
}

// Start begins the sweep loop. Call in a goroutine; returns when ctx is
// canceled. Tick errors are logged and the loop keeps going.
func (w *Sweeper) Start(ctx context.Context) {
	w.log.Info().Dur("interval", w.interval).Msg("Sweeper started")

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Info().Msg("Sweeper stopped")
			return
		case <-ticker.C:
			if _, err := w.SweepOnce(ctx); err != nil {
				w.log.Error().Err(err).Msg("Sweep failed")
			}
		}
	}
}

// SweepOnce runs a single sweep pass and returns how many sessions it
// closed.
func (w *Sweeper) SweepOnce(ctx context.Context) (int, error) {
	swept, err := w.store.FinalizeOverdue(ctx, time.Now())
	if err != nil {
		return 0, err
	}
	if swept > 0 {
		w.log.Info().Int("sessions", swept).Msg("Overdue sessions auto-submitted")
	}
	return swept, nil
}
