package jobs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/noah-isme/backend-stock/internal/common"
	"github.com/noah-isme/backend-stock/internal/obs"
	"github.com/noah-isme/backend-stock/internal/order"
)

// Reconciler is the slice of the order service the jobs need.
type Reconciler interface {
	Reconcile(ctx context.Context, id uuid.UUID) (order.ReconcileReport, error)
	Candidates(ctx context.Context, after uuid.UUID, limit int) ([]uuid.UUID, error)
}

// ReconcileJob handles single-order and sweep reconciliation tasks.
type ReconcileJob struct {
	Orders      Reconciler
	Logger      zerolog.Logger
	Concurrency int
	BatchSize   int
}

// SweepSummary totals one sweep.
type SweepSummary struct {
	Checked  int64
	Updated  int64
	Failed   int64
	Duration time.Duration
}

// HandleReconcile processes TaskOrderReconcile.
func (j *ReconcileJob) HandleReconcile(ctx context.Context, t *asynq.Task) error {
	var payload ReconcilePayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil || payload.OrderID == uuid.Nil {
		return fmt.Errorf("decode reconcile payload: %w", asynq.SkipRetry)
	}
	report, err := j.Orders.Reconcile(ctx, payload.OrderID)
	if err != nil {
		if errors.Is(err, common.ErrNotFound) {
			j.Logger.Info().Str("order_id", payload.OrderID.String()).Msg("order gone before reconciliation")
			return nil
		}
		return err
	}
	j.Logger.Debug().
		Str("order_id", payload.OrderID.String()).
		Bool("updated", report.Updated).
		Msg("order reconciled")
	return nil
}

// HandleSweep processes TaskOrderReconcileSweep.
func (j *ReconcileJob) HandleSweep(ctx context.Context, _ *asynq.Task) error {
	summary, err := j.Sweep(ctx)
	log := j.Logger.Info()
	if err != nil {
		log = j.Logger.Error().Err(err)
	}
	log.Int64("checked", summary.Checked).
		Int64("updated", summary.Updated).
		Int64("failed", summary.Failed).
		Dur("duration", summary.Duration).
		Msg("reconcile sweep finished")
	return err
}

// Sweep pages through every candidate order and reconciles them with bounded
// concurrency. A failing order is counted and logged; it does not stop the sweep.
func (j *ReconcileJob) Sweep(ctx context.Context) (SweepSummary, error) {
	start := time.Now()
	limit := j.BatchSize
	if limit <= 0 {
		limit = 500
	}
	workers := j.Concurrency
	if workers <= 0 {
		workers = 1
	}

	var checked, updated, failed atomic.Int64
	after := uuid.Nil
	var sweepErr error
	for {
		ids, err := j.Orders.Candidates(ctx, after, limit)
		if err != nil {
			sweepErr = fmt.Errorf("list reconcile candidates: %w", err)
			break
		}
		if len(ids) == 0 {
			break
		}
		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(workers)
		for _, id := range ids {
			g.Go(func() error {
				report, err := j.Orders.Reconcile(gctx, id)
				checked.Add(1)
				if err != nil {
					failed.Add(1)
					j.Logger.Warn().Err(err).Str("order_id", id.String()).Msg("reconcile order")
					return nil
				}
				if report.Updated {
					updated.Add(1)
				}
				return nil
			})
		}
		_ = g.Wait()
		if ctx.Err() != nil {
			sweepErr = ctx.Err()
			break
		}
		after = ids[len(ids)-1]
		if len(ids) < limit {
			break
		}
	}

	summary := SweepSummary{
		Checked:  checked.Load(),
		Updated:  updated.Load(),
		Failed:   failed.Load(),
		Duration: time.Since(start),
	}
	if obs.ReconcileSweepDuration != nil {
		obs.ReconcileSweepDuration.Observe(obs.DurationMillis(summary.Duration))
	}
	return summary, sweepErr
}
