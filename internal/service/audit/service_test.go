package audit

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/ward-assistant/internal/model"
	"github.com/jwalitptl/ward-assistant/pkg/logger"
)

type fakeRepo struct {
	mu   sync.Mutex
	logs []*model.AuditLog
	err  error
}

func (r *fakeRepo) Create(_ context.Context, log *model.AuditLog) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.logs = append(r.logs, log)
	return nil
}

func (r *fakeRepo) List(_ context.Context, filter model.AuditFilter) ([]*model.AuditLog, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*model.AuditLog
	for _, l := range r.logs {
		if filter.StaffID == "" || l.StaffID == filter.StaffID {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *fakeRepo) DeleteBefore(_ context.Context, cutoff time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	kept := r.logs[:0]
	for _, l := range r.logs {
		if !l.CreatedAt.Before(cutoff) {
			kept = append(kept, l)
		}
	}
	deleted := int64(len(r.logs) - len(kept))
	r.logs = kept
	return deleted, nil
}

var actor = Actor{SessionID: uuid.New(), StaffID: "DOC_001", Role: model.RoleDoctor}

func TestServiceLogMarshalsMetadata(t *testing.T) {
	repo := &fakeRepo{}
	svc := NewService(repo, logger.Nop())

	err := svc.Log(context.Background(), actor, model.AuditActionCreate, model.AuditEntityPrescription, "PR_001",
		&LogOptions{Metadata: map[string]string{"admission_id": "ADM_001"}})

	require.NoError(t, err)
	require.Len(t, repo.logs, 1)
	assert.Equal(t, "doctor", repo.logs[0].Role)
	assert.Equal(t, "PR_001", repo.logs[0].EntityID)
	assert.JSONEq(t, `{"admission_id":"ADM_001"}`, string(repo.logs[0].Metadata))
}

func TestServiceWithoutRepository(t *testing.T) {
	svc := NewService(nil, logger.Nop())

	assert.NoError(t, svc.Log(context.Background(), actor, model.AuditActionLogin, model.AuditEntitySession, "", nil))
	logs, err := svc.List(context.Background(), model.AuditFilter{})
	assert.NoError(t, err)
	assert.Empty(t, logs)
}

func TestAuditLoggerSwallowsFailures(t *testing.T) {
	repo := &fakeRepo{err: errors.New("audit db down")}
	l := NewAuditLogger(NewService(repo, logger.Nop()), logger.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	l.Log(ctx, actor, model.AuditActionCreate, model.AuditEntityNote, "NOTE_001", nil)
	cancel()
	l.Wait()

	repo.err = nil
	l.Log(context.Background(), actor, model.AuditActionCreate, model.AuditEntityNote, "NOTE_002", nil)
	l.Wait()

	logs, err := repo.List(context.Background(), model.AuditFilter{StaffID: "DOC_001"})
	require.NoError(t, err)
	require.Len(t, logs, 1)
	assert.Equal(t, "NOTE_002", logs[0].EntityID)
}
