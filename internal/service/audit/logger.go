package audit

import (
	"context"
	"sync"

	"github.com/jwalitptl/ward-assistant/pkg/logger"
)

// AuditLogger writes audit entries in the background so that a slow or
// unavailable audit database never fails a clinical write.
type AuditLogger struct {
	service *Service
	logger  *logger.Logger
	wg      sync.WaitGroup
}

func NewAuditLogger(service *Service, log *logger.Logger) *AuditLogger {
	return &AuditLogger{
		service: service,
		logger:  log,
	}
}

func (l *AuditLogger) Log(ctx context.Context, actor Actor, action, entityType, entityID string, opts *LogOptions) {
	ctx = context.WithoutCancel(ctx)
	l.wg.Add(1)
	go func() {
		defer l.wg.Done()
		if err := l.service.Log(ctx, actor, action, entityType, entityID, opts); err != nil {
			l.logger.Error(err, "failed to write audit log",
				"staff_id", actor.StaffID,
				"action", action,
				"entity_id", entityID,
			)
		}
	}()
}

func (l *AuditLogger) LogSync(ctx context.Context, actor Actor, action, entityType, entityID string, opts *LogOptions) error {
	return l.service.Log(ctx, actor, action, entityType, entityID, opts)
}

// Wait blocks until every pending entry has been written.
func (l *AuditLogger) Wait() {
	l.wg.Wait()
}
