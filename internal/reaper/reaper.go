package reaper

import (
	"context"
	"time"

	"go.uber.org/zap"

	"cryptex/internal/notifier"
	"cryptex/internal/repository"
)

// Reaper cancels trades that have sat pending, with no payment
// activity, past the staleness threshold. Whoever wins the status
// transition sends the notification; losing the race is a no-op, so a
// sweep running concurrently with a user cancellation never produces a
// second event.
type Reaper struct {
	store      repository.TransactionRepository
	notifier   *notifier.Notifier
	staleAfter time.Duration
	interval   time.Duration
	logger     *zap.Logger
}

func New(
	store repository.TransactionRepository,
	n *notifier.Notifier,
	staleAfter time.Duration,
	interval time.Duration,
	logger *zap.Logger,
) *Reaper {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Reaper{
		store:      store,
		notifier:   n,
		staleAfter: staleAfter,
		interval:   interval,
		logger:     logger.With(zap.String("component", "reaper")),
	}
}

// Run sweeps on a fixed interval until ctx is cancelled.
func (r *Reaper) Run(ctx context.Context) {
	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.Sweep(ctx); err != nil {
				r.logger.Error("sweep failed", zap.Error(err))
			}
		}
	}
}

// Sweep runs one selection-and-cancel pass and returns how many trades
// it cancelled. A failure on one trade never aborts the rest of the
// sweep.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	cutoff := time.Now().Add(-r.staleAfter)
	stale, err := r.store.SelectStale(ctx, cutoff)
	if err != nil {
		return 0, err
	}

	cancelled := 0
	for _, trade := range stale {
		ok, err := r.store.CancelIfPending(ctx, trade.ID)
		if err != nil {
			r.logger.Error("cancel failed",
				zap.String("trade_id", trade.ID.String()),
				zap.Error(err))
			continue
		}
		if !ok {
			// Another writer got there first; their path owns the
			// notification.
			continue
		}

		r.notifier.NotifyCancelled(ctx, trade.ID.String(), "system")
		cancelled++
	}

	if cancelled > 0 {
		r.logger.Info("auto-cancelled untouched trades", zap.Int("count", cancelled))
	}
	return cancelled, nil
}
