package repository

import (
	"context"
	"time"

	"github.com/jwalitptl/ward-assistant/internal/model"
)

// All repository interfaces in one file. Clinical records live behind
// store.Gateway; these cover the relational side stores.
type (
	// AuditRepository persists the staff activity trail
	AuditRepository interface {
		Create(ctx context.Context, log *model.AuditLog) error
		List(ctx context.Context, filter model.AuditFilter) ([]*model.AuditLog, error)
		DeleteBefore(ctx context.Context, cutoff time.Time) (int64, error)
	}
)
