package appointment

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
	appointments map[uuid.UUID]*Appointment
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{appointments: make(map[uuid.UUID]*Appointment)}
}

func (r *fakeRepo) Insert(ctx context.Context, a *Appointment) error {
	cp := *a
	r.appointments[a.ID] = &cp
	return nil
}

func (r *fakeRepo) GetByID(ctx context.Context, id uuid.UUID) (*Appointment, error) {
	a, ok := r.appointments[id]
	if !ok {
		return nil, appers.ErrAppointmentNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *fakeRepo) List(ctx context.Context) ([]*Appointment, error) {
	res := make([]*Appointment, 0, len(r.appointments))
	for _, a := range r.appointments {
		res = append(res, a)
	}
	return res, nil
}

func (r *fakeRepo) ListByPatient(ctx context.Context, patientID uuid.UUID) ([]*Appointment, error) {
	var res []*Appointment
	for _, a := range r.appointments {
		if a.PatientID == patientID {
			res = append(res, a)
		}
	}
	return res, nil
}

func (r *fakeRepo) ListByDoctor(ctx context.Context, doctorID uuid.UUID) ([]*Appointment, error) {
	var res []*Appointment
	for _, a := range r.appointments {
		if a.DoctorID == doctorID {
			res = append(res, a)
		}
	}
	return res, nil
}

func (r *fakeRepo) Update(ctx context.Context, a *Appointment) error {
	if _, ok := r.appointments[a.ID]; !ok {
		return appers.ErrAppointmentNotFound
	}
	cp := *a
	r.appointments[a.ID] = &cp
	return nil
}

func (r *fakeRepo) SetStatus(ctx context.Context, id uuid.UUID, status, billingStatus, notes string) error {
	a, ok := r.appointments[id]
	if !ok {
		return appers.ErrAppointmentNotFound
	}
	a.Status = status
	a.BillingStatus = billingStatus
	a.Notes = notes
	return nil
}

func (r *fakeRepo) SetBillingStatus(ctx context.Context, id uuid.UUID, billingStatus string) error {
	a, ok := r.appointments[id]
	if !ok {
		return appers.ErrAppointmentNotFound
	}
	a.BillingStatus = billingStatus
	return nil
}

func (r *fakeRepo) SoftDelete(ctx context.Context, id uuid.UUID) error {
	if _, ok := r.appointments[id]; !ok {
		return appers.ErrAppointmentNotFound
	}
	delete(r.appointments, id)
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

func createRequest() CreateRequest {
	patientID, _ := uuid.NewV4()
	doctorID, _ := uuid.NewV4()
	return CreateRequest{
		PatientID:           patientID.String(),
		DoctorID:            doctorID.String(),
		AppointmentDateTime: time.Now().UTC().Add(24 * time.Hour).Format(time.RFC3339),
		Reason:              "annual checkup",
	}
}

func TestCreateQueuesCreatedEvent(t *testing.T) {
	srv, repo, ob := newTestService()

	a, err := srv.Create(context.Background(), createRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if a.Status != StatusScheduled {
		t.Errorf("status: got %s, want %s", a.Status, StatusScheduled)
	}
	if a.DurationMinutes != 30 {
		t.Errorf("default duration: got %d, want 30", a.DurationMinutes)
	}
	if len(repo.appointments) != 1 {
		t.Fatalf("want 1 stored appointment, got %d", len(repo.appointments))
	}

	if len(ob.inserted) != 1 {
		t.Fatalf("want 1 outbox record, got %d", len(ob.inserted))
	}
	rec := ob.inserted[0]
	if rec.Topic != events.TopicAppointmentCreated {
		t.Errorf("topic: got %s", rec.Topic)
	}
	var payload events.AppointmentCreatedEvent
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.AppointmentID != a.ID {
		t.Errorf("payload id: got %s, want %s", payload.AppointmentID, a.ID)
	}
}

func TestCreateRejectsMalformedIDs(t *testing.T) {
	srv, repo, ob := newTestService()

	bad := createRequest()
	bad.PatientID = "not-a-uuid"
	if _, err := srv.Create(context.Background(), bad); err == nil {
		t.Fatal("malformed patientId must fail, not store uuid.Nil")
	}

	bad = createRequest()
	bad.DoctorID = "not-a-uuid"
	if _, err := srv.Create(context.Background(), bad); err == nil {
		t.Fatal("malformed doctorId must fail, not store uuid.Nil")
	}

	if len(repo.appointments) != 0 || len(ob.inserted) != 0 {
		t.Fatalf("nothing may be stored: %d appointments, %d outbox records",
			len(repo.appointments), len(ob.inserted))
	}
}

func TestCompleteQueuesCompletedEventWithFee(t *testing.T) {
	srv, repo, ob := newTestService()

	a, err := srv.Create(context.Background(), createRequest())
	if err != nil {
		t.Fatal(err)
	}

	completed, err := srv.Complete(context.Background(), a.ID, CompleteRequest{
		Notes:           "all clear",
		ConsultationFee: "150.00",
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if completed.Status != StatusCompleted {
		t.Errorf("status: got %s, want %s", completed.Status, StatusCompleted)
	}
	if completed.BillingStatus != BillingPending {
		t.Errorf("billing status: got %s, want %s", completed.BillingStatus, BillingPending)
	}
	if stored := repo.appointments[a.ID]; stored.Status != StatusCompleted {
		t.Errorf("stored status: got %s", stored.Status)
	}

	// create + complete
	if len(ob.inserted) != 2 {
		t.Fatalf("want 2 outbox records, got %d", len(ob.inserted))
	}
	rec := ob.inserted[1]
	if rec.Topic != events.TopicAppointmentCompleted {
		t.Errorf("topic: got %s", rec.Topic)
	}
	var payload events.AppointmentCompletedEvent
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if got := payload.ConsultationFee.String(); got != "150.00" {
		t.Errorf("fee: got %s, want 150.00", got)
	}
}

func TestCompleteRejectsFinalAppointment(t *testing.T) {
	srv, _, ob := newTestService()

	a, err := srv.Create(context.Background(), createRequest())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := srv.Complete(context.Background(), a.ID, CompleteRequest{ConsultationFee: "100.00"}); err != nil {
		t.Fatal(err)
	}

	_, err = srv.Complete(context.Background(), a.ID, CompleteRequest{ConsultationFee: "100.00"})
	if !errors.Is(err, appers.ErrAppointmentAlreadyFinal) {
		t.Fatalf("got %v, want ErrAppointmentAlreadyFinal", err)
	}
	if len(ob.inserted) != 2 {
		t.Fatalf("second completion must not emit, got %d records", len(ob.inserted))
	}
}

func TestCompleteRejectsBadFee(t *testing.T) {
	srv, _, _ := newTestService()

	a, err := srv.Create(context.Background(), createRequest())
	if err != nil {
		t.Fatal(err)
	}

	_, err = srv.Complete(context.Background(), a.ID, CompleteRequest{ConsultationFee: "10.999"})
	if !errors.Is(err, appers.ErrScale) {
		t.Fatalf("got %v, want ErrScale", err)
	}
}

func TestCancelQueuesCancelledEvent(t *testing.T) {
	srv, repo, ob := newTestService()

	a, err := srv.Create(context.Background(), createRequest())
	if err != nil {
		t.Fatal(err)
	}

	cancelled, err := srv.Cancel(context.Background(), a.ID, CancelRequest{Reason: "patient request"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cancelled.Status != StatusCancelled {
		t.Errorf("status: got %s, want %s", cancelled.Status, StatusCancelled)
	}
	if stored := repo.appointments[a.ID]; stored.Notes != "Cancelled: patient request" {
		t.Errorf("notes: got %q", stored.Notes)
	}

	rec := ob.inserted[len(ob.inserted)-1]
	if rec.Topic != events.TopicAppointmentCancelled {
		t.Errorf("topic: got %s", rec.Topic)
	}
	var payload events.AppointmentCancelledEvent
	if err := json.Unmarshal(rec.Payload, &payload); err != nil {
		t.Fatal(err)
	}
	if payload.Reason != "patient request" {
		t.Errorf("reason: got %q", payload.Reason)
	}
}

func TestCancelRejectsFinalAppointment(t *testing.T) {
	srv, _, _ := newTestService()

	a, err := srv.Create(context.Background(), createRequest())
	if err != nil {
		t.Fatal(err)
	}
	if _, err := srv.Cancel(context.Background(), a.ID, CancelRequest{Reason: "first"}); err != nil {
		t.Fatal(err)
	}

	_, err = srv.Cancel(context.Background(), a.ID, CancelRequest{Reason: "second"})
	if !errors.Is(err, appers.ErrAppointmentAlreadyFinal) {
		t.Fatalf("got %v, want ErrAppointmentAlreadyFinal", err)
	}
}
