package appointment

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"medrec/internal/controllers/listener"
	"medrec/internal/events"

	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

func TestHandlePaymentProcessedUpdatesBillingStatus(t *testing.T) {
	repo := newFakeRepo()
	c := NewPaymentConsumer(&fakeDB{}, repo, zap.NewNop().Sugar())

	id, _ := uuid.NewV4()
	repo.appointments[id] = &Appointment{
		ID:            id,
		Status:        StatusCompleted,
		BillingStatus: BillingPending,
	}

	billID, _ := uuid.NewV4()
	payload, _ := json.Marshal(events.BillPaymentProcessedEvent{
		BillID:        billID,
		AppointmentID: id,
		PaymentStatus: "Paid",
		PaymentDate:   time.Now().UTC(),
	})

	if err := c.handlePaymentProcessed(context.Background(), payload); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got := repo.appointments[id].BillingStatus; got != "Paid" {
		t.Fatalf("billing status: got %s, want Paid", got)
	}
}

func TestHandlePaymentProcessedUnknownAppointmentSkips(t *testing.T) {
	repo := newFakeRepo()
	c := NewPaymentConsumer(&fakeDB{}, repo, zap.NewNop().Sugar())

	id, _ := uuid.NewV4()
	payload, _ := json.Marshal(events.BillPaymentProcessedEvent{
		AppointmentID: id,
		PaymentStatus: "Paid",
	})

	err := c.handlePaymentProcessed(context.Background(), payload)
	if !errors.Is(err, listener.ErrSkip) {
		t.Fatalf("unknown appointment must skip, got %v", err)
	}
}

func TestHandlePaymentProcessedBadPayloadSkips(t *testing.T) {
	c := NewPaymentConsumer(&fakeDB{}, newFakeRepo(), zap.NewNop().Sugar())

	err := c.handlePaymentProcessed(context.Background(), []byte(`{not json`))
	if !errors.Is(err, listener.ErrSkip) {
		t.Fatalf("undecodable payload must skip, got %v", err)
	}
}
