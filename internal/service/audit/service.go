package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/ward-assistant/internal/model"
	"github.com/jwalitptl/ward-assistant/internal/repository"
	"github.com/jwalitptl/ward-assistant/pkg/logger"
)

// Actor identifies who performed an audited action.
type Actor struct {
	SessionID uuid.UUID
	StaffID   string
	Role      model.Role
}

type LogOptions struct {
	Metadata interface{}
}

type Service struct {
	repo   repository.AuditRepository
	logger *logger.Logger
}

// NewService keeps the trail in repo, or only in the application log when
// repo is nil.
func NewService(repo repository.AuditRepository, log *logger.Logger) *Service {
	return &Service{repo: repo, logger: log.With("component", "audit")}
}

// Log creates an audit log entry
func (s *Service) Log(ctx context.Context, actor Actor, action, entityType, entityID string, opts *LogOptions) error {
	var metadata json.RawMessage
	if opts != nil && opts.Metadata != nil {
		raw, err := json.Marshal(opts.Metadata)
		if err != nil {
			return fmt.Errorf("failed to marshal audit metadata: %w", err)
		}
		metadata = raw
	}

	entry := &model.AuditLog{
		ID:         uuid.New(),
		SessionID:  actor.SessionID,
		StaffID:    actor.StaffID,
		Role:       string(actor.Role),
		Action:     action,
		EntityType: entityType,
		EntityID:   entityID,
		Metadata:   metadata,
		CreatedAt:  time.Now().UTC(),
	}

	s.logger.Info("audit",
		"staff_id", entry.StaffID,
		"action", entry.Action,
		"entity_type", entry.EntityType,
		"entity_id", entry.EntityID,
	)
	if s.repo == nil {
		return nil
	}
	return s.repo.Create(ctx, entry)
}

func (s *Service) List(ctx context.Context, filter model.AuditFilter) ([]*model.AuditLog, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.List(ctx, filter)
}
