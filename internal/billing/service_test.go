package billing

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"medrec/internal/appers"
	"medrec/internal/events"
	"medrec/internal/outbox"

	"github.com/gofrs/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"go.uber.org/zap"
)

// fakeDB satisfies db.DB; WithinTransaction just runs the callback so tx
// participation stays out of these tests.
type fakeDB struct{}

func (f *fakeDB) Exec(ctx context.Context, query string, args ...any) (pgconn.CommandTag, error) {
	return pgconn.CommandTag{}, nil
}
func (f *fakeDB) Query(ctx context.Context, query string, args ...any) (pgx.Rows, error) {
	return nil, errors.New("not implemented")
}
func (f *fakeDB) QueryRow(ctx context.Context, query string, args ...any) pgx.Row { return nil }
func (f *fakeDB) WithinTransaction(ctx context.Context, tFunc func(ctx context.Context) error) error {
	return tFunc(ctx)
}
func (f *fakeDB) Close() {}

type fakeRepo struct {
	bills map[uuid.UUID]*Bill
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{bills: make(map[uuid.UUID]*Bill)}
}

func (r *fakeRepo) Insert(ctx context.Context, b *Bill) error {
	cp := *b
	r.bills[b.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*Bill, error) {
	b, ok := r.bills[id]
	if !ok {
		return nil, appers.ErrBillNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeRepo) GetByAppointmentID(ctx context.Context, appointmentID uuid.UUID) (*Bill, error) {
	for _, b := range r.bills {
		if b.AppointmentID == appointmentID {
			cp := *b
			return &cp, nil
		}
	}
	return nil, appers.ErrBillNotFound
}

func (r *fakeRepo) List(ctx context.Context) ([]*Bill, error) {
	res := make([]*Bill, 0, len(r.bills))
	for _, b := range r.bills {
		res = append(res, b)
	}
	return res, nil
}

func (r *fakeRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Bill, error) {
	var res []*Bill
	for _, b := range r.bills {
		if b.PatientID == patientID {
			res = append(res, b)
		}
	}
	return res, nil
}

func (r *fakeRepo) UpdateCharges(ctx context.Context, b *Bill) error {
	if _, ok := r.bills[b.ID]; !ok {
		return appers.ErrBillNotFound
	}
	cp := *b
	r.bills[b.ID] = &cp
	return nil
}

func (r *fakeRepo) SetPayment(ctx context.Context, b *Bill) error {
	stored, ok := r.bills[b.ID]
	if !ok {
		return appers.ErrBillNotFound
	}
	stored.PaymentStatus = b.PaymentStatus
	stored.PaymentMethod = b.PaymentMethod
	stored.PaymentDate = b.PaymentDate
	return nil
}

func (r *fakeRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.bills[id]; !ok {
		return appers.ErrBillNotFound
	}
	delete(r.bills, id)
	return nil
}

func (r *fakeRepo) HealthCheck(ctx context.Context) error { return nil }

type fakeOutbox struct {
	inserted []*outbox.OutboxRecord
}

func (o *fakeOutbox) Insert(ctx context.Context, rec *outbox.OutboxRecord) error {
	o.inserted = append(o.inserted, rec)
	return nil
}

func (o *fakeOutbox) SelectPending(ctx context.Context, limit, maxRetryCount int) ([]outbox.OutboxRecord, error) {
	return nil, nil
}
func (o *fakeOutbox) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error  { return nil }
func (o *fakeOutbox) MarkFailed(ctx context.Context, id uuid.UUID, msg string) error  { return nil }
func (o *fakeOutbox) CountPending(ctx context.Context, maxRetryCount int) (int64, error) {
	return int64(len(o.inserted)), nil
}
func (o *fakeOutbox) CountExhausted(ctx context.Context, threshold int) (int64, error) { return 0, nil }

type fakeKafkaProducer struct{}

func (p *fakeKafkaProducer) ProduceMessage(ctx context.Context, key, topic string, payload []byte) error {
	return nil
}
func (p *fakeKafkaProducer) HealthCheck(ctx context.Context) error { return nil }

func newTestService() (*ServiceImpl, *fakeRepo, *fakeOutbox) {
	repo := newFakeRepo()
	ob := &fakeOutbox{}
	srv := NewService(&fakeDB{}, repo, ob, &fakeKafkaProducer{}, zap.NewNop().Sugar())
	return srv, repo, ob
}

func completedEvent(t *testing.T) events.AppointmentCompletedEvent {
	t.Helper()
	appointmentID, _ := uuid.NewV4()
	patientID, _ := uuid.NewV4()
	doctorID, _ := uuid.NewV4()
	return events.AppointmentCompletedEvent{
		AppointmentID:   appointmentID,
		PatientID:       patientID,
		DoctorID:        doctorID,
		CompletedAt:     time.Now().UTC(),
		Notes:           "routine checkup",
		ConsultationFee: amt(t, "150.00"),
	}
}

func TestCreateBillFromAppointment(t *testing.T) {
	srv, _, ob := newTestService()
	event := completedEvent(t)

	b, err := srv.CreateBillFromAppointment(context.Background(), event)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if b.PaymentStatus != PaymentPending {
		t.Errorf("status: got %s, want %s", b.PaymentStatus, PaymentPending)
	}
	if got := b.NetAmount.String(); got != "165.00" {
		t.Errorf("net: got %s, want 165.00", got)
	}
	if len(ob.inserted) != 0 {
		t.Errorf("bill creation must not emit events, got %d", len(ob.inserted))
	}
}

func TestCreateBillFromAppointmentIsIdempotent(t *testing.T) {
	srv, repo, _ := newTestService()
	event := completedEvent(t)

	first, err := srv.CreateBillFromAppointment(context.Background(), event)
	if err != nil {
		t.Fatal(err)
	}
	second, err := srv.CreateBillFromAppointment(context.Background(), event)
	if err != nil {
		t.Fatal(err)
	}

	if first.ID != second.ID {
		t.Fatalf("redelivery created a second bill: %s vs %s", first.ID, second.ID)
	}
	if len(repo.bills) != 1 {
		t.Fatalf("want 1 bill, got %d", len(repo.bills))
	}
}

func TestProcessPaymentEmitsEvent(t *testing.T) {
	srv, _, ob := newTestService()
	event := completedEvent(t)

	b, err := srv.CreateBillFromAppointment(context.Background(), event)
	if err != nil {
		t.Fatal(err)
	}

	paid, err := srv.ProcessPayment(context.Background(), b.ID, ProcessPaymentRequest{PaymentMethod: "Card"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if paid.PaymentStatus != PaymentPaid {
		t.Errorf("status: got %s, want %s", paid.PaymentStatus, PaymentPaid)
	}
	if paid.PaymentDate == nil {
		t.Error("payment date not set")
	}

	if len(ob.inserted) != 1 {
		t.Fatalf("want 1 outbox record, got %d", len(ob.inserted))
	}
	rec := ob.inserted[0]
	if rec.Topic != events.TopicBillPaymentProcessed {
		t.Errorf("topic: got %s", rec.Topic)
	}

	var payload events.BillPaymentProcessedEvent
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	if payload.BillID != b.ID || payload.AppointmentID != event.AppointmentID {
		t.Errorf("payload ids mismatch: %+v", payload)
	}
	if payload.PaymentStatus != PaymentPaid {
		t.Errorf("payload status: got %s", payload.PaymentStatus)
	}
	if got := payload.NetAmount.String(); got != "165.00" {
		t.Errorf("payload net: got %s, want 165.00", got)
	}
}

func TestProcessPaymentRejectsNonPending(t *testing.T) {
	srv, _, ob := newTestService()
	event := completedEvent(t)

	b, err := srv.CreateBillFromAppointment(context.Background(), event)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := srv.ProcessPayment(context.Background(), b.ID, ProcessPaymentRequest{PaymentMethod: "Cash"}); err != nil {
		t.Fatal(err)
	}

	_, err = srv.ProcessPayment(context.Background(), b.ID, ProcessPaymentRequest{PaymentMethod: "Cash"})
	if !errors.Is(err, appers.ErrBillNotPending) {
		t.Fatalf("got %v, want ErrBillNotPending", err)
	}
	if len(ob.inserted) != 1 {
		t.Fatalf("second payment must not emit, got %d records", len(ob.inserted))
	}
}

func TestCancelEmitsCancelledStatus(t *testing.T) {
	srv, _, ob := newTestService()
	event := completedEvent(t)

	b, err := srv.CreateBillFromAppointment(context.Background(), event)
	if err != nil {
		t.Fatal(err)
	}

	cancelled, err := srv.Cancel(context.Background(), b.ID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cancelled.PaymentStatus != PaymentCancelled {
		t.Errorf("status: got %s, want %s", cancelled.PaymentStatus, PaymentCancelled)
	}

	if len(ob.inserted) != 1 {
		t.Fatalf("want 1 outbox record, got %d", len(ob.inserted))
	}
	var payload events.BillPaymentProcessedEvent
	if err := json.Unmarshal(ob.inserted[0].Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.PaymentStatus != PaymentCancelled {
		t.Errorf("payload status: got %s, want %s", payload.PaymentStatus, PaymentCancelled)
	}
}

func TestUpdateChargesRecalculates(t *testing.T) {
	srv, _, _ := newTestService()
	event := completedEvent(t)

	b, err := srv.CreateBillFromAppointment(context.Background(), event)
	if err != nil {
		t.Fatal(err)
	}

	updated, err := srv.UpdateCharges(context.Background(), b.ID, UpdateChargesRequest{
		LabTestsFee: "200.00",
		Discount:    "50.00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := updated.TotalAmount.String(); got != "350.00" {
		t.Errorf("total: got %s, want 350.00", got)
	}
	if got := updated.TaxAmount.String(); got != "30.00" {
		t.Errorf("tax: got %s, want 30.00", got)
	}
	if got := updated.NetAmount.String(); got != "330.00" {
		t.Errorf("net: got %s, want 330.00", got)
	}
}

func TestUpdateChargesRejectsBadAmount(t *testing.T) {
	srv, _, _ := newTestService()
	event := completedEvent(t)

	b, err := srv.CreateBillFromAppointment(context.Background(), event)
	if err != nil {
		t.Fatal(err)
	}

	_, err = srv.UpdateCharges(context.Background(), b.ID, UpdateChargesRequest{LabTestsFee: "10.999"})
	if !errors.Is(err, appers.ErrScale) {
		t.Fatalf("got %v, want ErrScale", err)
	}
}
