package jobs_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ledgerline/crm-api/internal/cache"
	"github.com/ledgerline/crm-api/internal/jobs"
	"github.com/ledgerline/crm-api/internal/repository"
	"github.com/ledgerline/crm-api/internal/service"
	"github.com/ledgerline/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeReconciler struct {
	name    string
	highest int64
	raised  bool
	err     error
	calls   int
}

func (f *fakeReconciler) Name() string { return f.name }

func (f *fakeReconciler) ReconcileCodes(context.Context) (int64, bool, error) {
	f.calls++
	return f.highest, f.raised, f.err
}

func TestScheduler_AddAndRemoveJobs(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop(), time.Second)
	noop := func(context.Context) error { return nil }

	require.NoError(t, s.AddJob("b", "@every 1m", noop))
	require.NoError(t, s.AddJob("a", "0 */15 * * * *", noop))
	assert.Equal(t, []string{"a", "b"}, s.GetJobNames())

	err := s.AddJob("a", "@every 1m", noop)
	assert.Error(t, err, "duplicate names must be rejected")

	assert.Error(t, s.AddJob("bad", "not a cron", noop))

	require.NoError(t, s.RemoveJob("a"))
	assert.Equal(t, []string{"b"}, s.GetJobNames())
	assert.Error(t, s.RemoveJob("a"))
}

func TestScheduler_RunNowAppliesTimeout(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop(), 50*time.Millisecond)

	err := s.RunNow("slow", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSequenceReconcileJob_ContinuesAfterFailure(t *testing.T) {
	failing := &fakeReconciler{name: "client", err: errors.New("boom")}
	ok := &fakeReconciler{name: "vendor", highest: 12, raised: true}

	job := jobs.NewSequenceReconcileJob(zap.NewNop(), failing, ok)
	err := job.Run(context.Background())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "client: boom")
	assert.Equal(t, 1, failing.calls)
	assert.Equal(t, 1, ok.calls)
}

func TestSequenceReconcileJob_RaisesClientSequence(t *testing.T) {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	sequences := repository.NewCodeSequenceRepository(db)
	codes := service.NewCodeGenerator(sequences, service.CodeStrategySequence, logger)
	clients := service.NewClientService(repository.NewClientRepository(db), codes, logger)

	testutil.CreateTestClient(t, db, "C041", "Imported", time.Now().Add(-time.Hour))

	job := jobs.NewSequenceReconcileJob(logger, clients)
	require.NoError(t, job.Run(context.Background()))

	current, err := sequences.Current(context.Background(), "C")
	require.NoError(t, err)
	assert.Equal(t, int64(41), current)
}

func TestCacheSweepJob(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	mem := cache.NewMemoryCache(30 * time.Second).WithClock(func() time.Time { return now })
	mem.Set(ctx, cache.Key{Entity: "clients"}, []byte(`[]`))
	mem.Set(ctx, cache.Key{Entity: "leads"}, []byte(`[]`))

	now = now.Add(31 * time.Second)
	mem.Set(ctx, cache.Key{Entity: "vendors"}, []byte(`[]`))

	job := jobs.NewCacheSweepJob(cache.WithMetrics(mem), zap.NewNop())
	require.NoError(t, job.Run(ctx))

	assert.Equal(t, 1, mem.Len())
	_, ok := mem.Get(ctx, cache.Key{Entity: "vendors"})
	assert.True(t, ok)
}

func TestRegisterMaintenanceJobs(t *testing.T) {
	s := jobs.NewScheduler(zap.NewNop(), time.Second)
	mem := cache.NewMemoryCache(time.Minute)

	err := jobs.RegisterMaintenanceJobs(s, "0 */15 * * * *", "@every 1m", mem, zap.NewNop(), &fakeReconciler{name: "client"})
	require.NoError(t, err)
	assert.Equal(t, []string{jobs.SequenceReconcileJobName, jobs.CacheSweepJobName}, s.GetJobNames())

	empty := jobs.NewScheduler(zap.NewNop(), time.Second)
	require.NoError(t, jobs.RegisterMaintenanceJobs(empty, "", "", mem, zap.NewNop()))
	assert.Empty(t, empty.GetJobNames())
}
