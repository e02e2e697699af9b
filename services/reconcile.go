package services

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/genz-feed/api-go/metrics"
	"github.com/genz-feed/api-go/store"
)

const (
	reconcileBatchSize      = 200
	defaultReconcileWorkers = 4
)

// ReconcileReport summarises one reconciliation pass.
type ReconcileReport struct {
	Scanned int           `json:"scanned"`
	Healed  int           `json:"healed"`
	Drifts  []store.Drift `json:"drifts,omitempty"`
}

// Reconciler recomputes post counters from their Like and Comment rows and
// overwrites any cached value that drifted.
type Reconciler struct {
	store   store.CounterStore
	workers int
	logger  *slog.Logger
}

func NewReconciler(s store.CounterStore, workers int, opts ...Option) *Reconciler {
	if workers < 1 {
		workers = defaultReconcileWorkers
	}
	o := newOptions(opts)
	return &Reconciler{store: s, workers: workers, logger: o.logger}
}

// ReconcilePost heals a single post's counters.
func (r *Reconciler) ReconcilePost(ctx context.Context, postID uint) (store.Drift, error) {
	drift, err := r.store.RecountPost(ctx, postID)
	if errors.Is(err, store.ErrNotFound) {
		return store.Drift{}, postNotFound(postID)
	}
	if err != nil {
		return store.Drift{}, storageError("recount post", err)
	}
	if drift.Drifted() {
		r.record(drift)
	}
	return drift, nil
}

func (r *Reconciler) record(d store.Drift) {
	if d.LikeCount != d.ActualLikes {
		metrics.RecordDriftHealed("likes")
	}
	if d.CommentCount != d.ActualComments {
		metrics.RecordDriftHealed("comments")
	}
	r.logger.Warn("counter drift healed",
		"post_id", d.PostID,
		"like_count", d.LikeCount, "actual_likes", d.ActualLikes,
		"comment_count", d.CommentCount, "actual_comments", d.ActualComments)
}

// ReconcileAll walks every post in id order and heals drifted counters.
// Posts deleted while the pass runs are skipped.
func (r *Reconciler) ReconcileAll(ctx context.Context) (*ReconcileReport, error) {
	report := &ReconcileReport{}
	var mu sync.Mutex

	var after uint
	for {
		ids, err := r.store.PostIDs(ctx, after, reconcileBatchSize)
		if err != nil {
			return report, storageError("list post ids", err)
		}
		if len(ids) == 0 {
			break
		}

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(r.workers)
		for _, id := range ids {
			id := id
			g.Go(func() error {
				drift, err := r.ReconcilePost(gctx, id)
				if errors.Is(err, ErrNotFound) {
					return nil
				}
				if err != nil {
					return err
				}
				mu.Lock()
				defer mu.Unlock()
				report.Scanned++
				if drift.Drifted() {
					report.Healed++
					report.Drifts = append(report.Drifts, drift)
				}
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return report, err
		}

		after = ids[len(ids)-1]
		if len(ids) < reconcileBatchSize {
			break
		}
	}

	r.logger.Info("reconciliation finished", "scanned", report.Scanned, "healed", report.Healed)
	return report, nil
}

// Run reconciles every interval until ctx is done.
func (r *Reconciler) Run(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if _, err := r.ReconcileAll(ctx); err != nil && ctx.Err() == nil {
				r.logger.Error("reconciliation failed", "error", err)
			}
		}
	}
}
