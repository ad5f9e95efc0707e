package jobs

import (
	"context"
	"errors"
	"fmt"

	"github.com/ledgerline/crm-api/internal/cache"
	"go.uber.org/zap"
)

const (
	// SequenceReconcileJobName raises code sequences that fell behind existing codes
	SequenceReconcileJobName = "code_sequence_reconcile"
	// CacheSweepJobName drops expired list responses from the in-process cache
	CacheSweepJobName = "response_cache_sweep"
)

// CodeReconciler is implemented by entity services that generate codes.
type CodeReconciler interface {
	Name() string
	ReconcileCodes(ctx context.Context) (int64, bool, error)
}

// SequenceReconcileJob walks every coded entity and raises its sequence to
// the highest code present in the table. Rows inserted with explicit codes
// (imports, backfills) would otherwise collide with the next generated code.
type SequenceReconcileJob struct {
	entities []CodeReconciler
	logger   *zap.Logger
}

// NewSequenceReconcileJob creates a new SequenceReconcileJob
func NewSequenceReconcileJob(logger *zap.Logger, entities ...CodeReconciler) *SequenceReconcileJob {
	return &SequenceReconcileJob{entities: entities, logger: logger}
}

// Run reconciles every entity. One failing entity does not stop the others.
func (j *SequenceReconcileJob) Run(ctx context.Context) error {
	var errs []error
	for _, e := range j.entities {
		highest, raised, err := e.ReconcileCodes(ctx)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", e.Name(), err))
			continue
		}
		if raised {
			j.logger.Info("code sequence raised",
				zap.String("entity", e.Name()),
				zap.Int64("value", highest))
		}
	}
	return errors.Join(errs...)
}

// CacheSweepJob evicts expired entries so idle collections do not pin memory.
// Backends that expire keys themselves (redis) are skipped.
type CacheSweepJob struct {
	cache  cache.ResponseCache
	logger *zap.Logger
}

// NewCacheSweepJob creates a new CacheSweepJob
func NewCacheSweepJob(c cache.ResponseCache, logger *zap.Logger) *CacheSweepJob {
	return &CacheSweepJob{cache: c, logger: logger}
}

// Run sweeps the cache once
func (j *CacheSweepJob) Run(_ context.Context) error {
	sweeper, ok := cache.Unwrap(j.cache).(cache.Sweeper)
	if !ok {
		return nil
	}
	if removed := sweeper.Sweep(); removed > 0 {
		j.logger.Debug("response cache swept", zap.Int("removed", removed))
	}
	return nil
}

// RegisterMaintenanceJobs adds the sequence reconcile and cache sweep jobs.
// An empty cron expression leaves that job out.
func RegisterMaintenanceJobs(
	scheduler *Scheduler,
	reconcileCron string,
	sweepCron string,
	responseCache cache.ResponseCache,
	logger *zap.Logger,
	entities ...CodeReconciler,
) error {
	if reconcileCron != "" {
		job := NewSequenceReconcileJob(logger, entities...)
		if err := scheduler.AddJob(SequenceReconcileJobName, reconcileCron, job.Run); err != nil {
			return err
		}
	}
	if sweepCron != "" && responseCache != nil {
		job := NewCacheSweepJob(responseCache, logger)
		if err := scheduler.AddJob(CacheSweepJobName, sweepCron, job.Run); err != nil {
			return err
		}
	}
	return nil
}
