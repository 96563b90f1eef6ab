package billing

import (
	"context"
	"encoding/json"
	"fmt"

	"medrec/internal/controllers/listener"
	"medrec/internal/events"

	"go.uber.org/zap"
)

// AppointmentConsumer opens a bill whenever an appointment is completed.
type AppointmentConsumer struct {
	service Service
	logger  *zap.SugaredLogger
}

func NewAppointmentConsumer(service Service, logger *zap.SugaredLogger) *AppointmentConsumer {
	return &AppointmentConsumer{service: service, logger: logger}
}

func (c *AppointmentConsumer) Register(consumer *listener.Consumer) {
	consumer.Register(events.TopicAppointmentCompleted, c.handleAppointmentCompleted)
}

func (c *AppointmentConsumer) handleAppointmentCompleted(ctx context.Context, payload []byte) error {
	var event events.AppointmentCompletedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("decode %s: %v: %w", events.TopicAppointmentCompleted, err, listener.ErrSkip)
	}

	b, err := c.service.CreateBillFromAppointment(ctx, event)
	if err != nil {
		return fmt.Errorf("create bill for appointment %s: %w", event.AppointmentID, err)
	}

	c.logger.Infof("[bill %s] opened for appointment %s", b.ID, event.AppointmentID)
	return nil
}
