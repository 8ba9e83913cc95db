package worker

import (
	"context"
	"sync"
	"time"

	"github.com/caseops/workbasket/pkg/domain/interfaces"
	"github.com/caseops/workbasket/pkg/domain/types"
	"github.com/caseops/workbasket/pkg/utils/errutil"
	"github.com/caseops/workbasket/pkg/utils/logging"
	"github.com/m-mizutani/goerr/v2"
)

// StaleOfferWorker periodically scans for offered activities that have been
// waiting longer than maxAge. Items routed to a group with no members are
// flagged loudly: they can never be claimed or reach rejection quorum, so
// they need operator attention.
//
// Architecture assumptions:
// - Single server instance (the sweep only logs; duplicate sweeps are harmless)
type StaleOfferWorker struct {
	repo     interfaces.Repository
	interval time.Duration
	maxAge   time.Duration
	stopCh   chan struct{}
	doneCh   chan struct{}

	mu             sync.RWMutex
	lastStaleCount int
	lastSweepAt    time.Time
}

// NewStaleOfferWorker creates a worker sweeping every interval for offers
// older than maxAge
func NewStaleOfferWorker(repo interfaces.Repository, interval, maxAge time.Duration) *StaleOfferWorker {
	return &StaleOfferWorker{
		repo:     repo,
		interval: interval,
		maxAge:   maxAge,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

// Start begins the background sweep loop. Does not block.
func (w *StaleOfferWorker) Start(ctx context.Context) error {
	logging.Default().Info("stale offer worker starting",
		"interval", w.interval.String(),
		"max_age", w.maxAge.String())

	go w.run(ctx)

	return nil
}

// Stop signals the worker to stop and waits for completion
func (w *StaleOfferWorker) Stop() {
	logging.Default().Info("stale offer worker stopping")
	close(w.stopCh)
	<-w.doneCh
	logging.Default().Info("stale offer worker stopped")
}

func (w *StaleOfferWorker) run(ctx context.Context) {
	defer close(w.doneCh)

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if err := w.sweep(ctx); err != nil {
				// Logged and dropped; the next tick retries
				_ = errutil.Handle(ctx, err, "stale offer sweep failed")
			}

		case <-w.stopCh:
			return

		case <-ctx.Done():
			return
		}
	}
}

// sweep logs every stale offered activity and whether it is unclaimable
func (w *StaleOfferWorker) sweep(ctx context.Context) error {
	offered, err := w.repo.Activity().List(ctx, interfaces.WithStatus(types.ActivityStatusOffered))
	if err != nil {
		return goerr.Wrap(err, "failed to list offered activities")
	}

	cutoff := time.Now().UTC().Add(-w.maxAge)
	stale := 0
	for _, a := range offered {
		if a.CreatedAt.After(cutoff) {
			continue
		}
		stale++

		if a.WorkGroupID == nil {
			continue
		}

		g, err := w.repo.WorkGroup().Get(ctx, *a.WorkGroupID)
		if err != nil {
			logging.Default().Error("failed to resolve group for stale offer",
				"activity_id", a.ID, "group_id", a.WorkGroupID.String(), "error", err.Error())
			continue
		}

		if len(g.Members) == 0 {
			logging.Default().Warn("offered activity can never be claimed: work group has no members",
				"activity_id", a.ID,
				"group_id", g.ID.String(),
				"group_code", g.Code,
				"offered_at", a.CreatedAt)
		} else {
			logging.Default().Info("activity still offered past threshold",
				"activity_id", a.ID,
				"group_code", g.Code,
				"offered_at", a.CreatedAt)
		}
	}

	if stale > 0 {
		logging.Default().Info("stale offer sweep finished", "stale_count", stale)
	}

	w.mu.Lock()
	w.lastStaleCount = stale
	w.lastSweepAt = time.Now()
	w.mu.Unlock()

	return nil
}

// LastSweep returns the time of the most recent completed sweep and how many
// stale offers it found. The zero time means no sweep has completed yet.
func (w *StaleOfferWorker) LastSweep() (time.Time, int) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lastSweepAt, w.lastStaleCount
}
