package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/ward-assistant/internal/model"
	"github.com/jwalitptl/ward-assistant/pkg/logger"
)

type retentionRepo struct {
	mu      sync.Mutex
	cutoffs []time.Time
	deleted int64
	err     error
}

func (r *retentionRepo) Create(context.Context, *model.AuditLog) error { return nil }

func (r *retentionRepo) List(context.Context, model.AuditFilter) ([]*model.AuditLog, error) {
	return nil, nil
}

func (r *retentionRepo) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.cutoffs = append(r.cutoffs, cutoff)
	return r.deleted, r.err
}

func (r *retentionRepo) calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.cutoffs)
}

func TestRunOnceUsesRetentionCutoff(t *testing.T) {
	repo := &retentionRepo{deleted: 3}
	w := NewAuditRetentionWorker(repo, 30, time.Hour, logger.Nop())
	w.now = func() time.Time { return time.Date(2026, 3, 31, 12, 0, 0, 0, time.UTC) }

	rows, err := w.RunOnce(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int64(3), rows)
	require.Len(t, repo.cutoffs, 1)
	assert.Equal(t, time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), repo.cutoffs[0])
}

func TestRunOnceWrapsRepositoryError(t *testing.T) {
	repo := &retentionRepo{err: errors.New("connection reset")}
	w := NewAuditRetentionWorker(repo, 30, time.Hour, logger.Nop())

	_, err := w.RunOnce(context.Background())

	assert.ErrorContains(t, err, "failed to purge audit logs")
}

func TestStartPurgesUntilCanceled(t *testing.T) {
	repo := &retentionRepo{}
	w := NewAuditRetentionWorker(repo, 7, 10*time.Millisecond, logger.Nop())
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return repo.calls() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("worker did not stop")
	}
}

func TestStartDisabled(t *testing.T) {
	repo := &retentionRepo{}
	w := NewAuditRetentionWorker(repo, 0, time.Millisecond, logger.Nop())

	w.Start(context.Background())

	assert.Zero(t, repo.calls())
}
