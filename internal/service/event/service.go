package event

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/jwalitptl/ward-assistant/pkg/logger"
	"github.com/jwalitptl/ward-assistant/pkg/messaging"
	"github.com/jwalitptl/ward-assistant/pkg/metrics"
)

// Clinical event types.
const (
	PrescriptionCreated    = "prescription.created"
	NoteCreated            = "note.created"
	MedicationAdministered = "medication.administered"
	VitalsRecorded         = "vitals.recorded"
	TestRequested          = "test.requested"
	StaffCreated           = "staff.created"
	ReportGenerated        = "report.generated"
)

const publishTimeout = 5 * time.Second

// EventService announces records after they have been stored. Delivery is
// best effort: the record is already durable, so a broker failure is
// logged and counted but never reported to the caller.
type EventService struct {
	broker  messaging.Broker
	topic   string
	logger  *logger.Logger
	metrics *metrics.Metrics
}

func NewEventService(broker messaging.Broker, topic string, log *logger.Logger, m *metrics.Metrics) *EventService {
	if broker == nil {
		broker = messaging.NopBroker{}
	}
	return &EventService{
		broker:  broker,
		topic:   topic,
		logger:  log.With("component", "events"),
		metrics: m,
	}
}

func (s *EventService) Emit(ctx context.Context, eventType string, payload interface{}) {
	msg := messaging.Message{
		ID:         uuid.NewString(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Payload:    payload,
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), publishTimeout)
	defer cancel()

	status := "ok"
	if err := s.broker.Publish(ctx, s.topic, msg); err != nil {
		status = "error"
		s.logger.Error(err, "failed to publish event", "event_type", eventType, "event_id", msg.ID)
	}
	if s.metrics != nil {
		s.metrics.EventsPublished.WithLabelValues(eventType, status).Inc()
	}
}

func (s *EventService) Close() error {
	return s.broker.Close()
}
