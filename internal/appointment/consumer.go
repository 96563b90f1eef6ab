package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"medrec/internal/appers"
	"medrec/internal/controllers/listener"
	"medrec/internal/events"
	"medrec/pkg/db"

	"go.uber.org/zap"
)

// PaymentConsumer updates the appointment's billing status when billing
// reports a processed payment.
type PaymentConsumer struct {
	db     db.DB
	repo   Repo
	logger *zap.SugaredLogger
}

func NewPaymentConsumer(db db.DB, repo Repo, logger *zap.SugaredLogger) *PaymentConsumer {
	return &PaymentConsumer{db: db, repo: repo, logger: logger}
}

func (c *PaymentConsumer) Register(consumer *listener.Consumer) {
	consumer.Register(events.TopicBillPaymentProcessed, c.handlePaymentProcessed)
}

func (c *PaymentConsumer) handlePaymentProcessed(ctx context.Context, payload []byte) error {
	var event events.BillPaymentProcessedEvent
	if err := json.Unmarshal(payload, &event); err != nil {
		return fmt.Errorf("decode %s: %v: %w", events.TopicBillPaymentProcessed, err, listener.ErrSkip)
	}

	err := c.db.WithinTransaction(ctx, func(ctx context.Context) error {
		return c.repo.SetBillingStatus(ctx, event.AppointmentID, event.PaymentStatus)
	})
	if errors.Is(err, appers.ErrAppointmentNotFound) {
		// Unknown appointment ids can't be retried into existence.
		c.logger.Warnf("[appointment %s] payment for unknown appointment, bill %s", event.AppointmentID, event.BillID)
		return fmt.Errorf("appointment %s not found: %w", event.AppointmentID, listener.ErrSkip)
	}
	if err != nil {
		return fmt.Errorf("set billing status for appointment %s: %w", event.AppointmentID, err)
	}

	c.logger.Infof("[appointment %s] billing status set to %s", event.AppointmentID, event.PaymentStatus)
	return nil
}
