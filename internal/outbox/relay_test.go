package outbox

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"medrec/pkg/config"
	"medrec/pkg/metrics"

	"github.com/gofrs/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
)

type fakeStore struct {
	records []OutboxRecord
}

func (s *fakeStore) Insert(ctx context.Context, rec *OutboxRecord) error {
	r := *rec
	r.CreatedAt = time.Now()
	s.records = append(s.records, r)
	return nil
}

func (s *fakeStore) SelectPending(ctx context.Context, limit, maxRetryCount int) ([]OutboxRecord, error) {
	var pending []OutboxRecord
	for _, r := range s.records {
		if r.SentAt == nil && r.RetryCount < maxRetryCount {
			pending = append(pending, r)
		}
		if len(pending) == limit {
			break
		}
	}
	return pending, nil
}

func (s *fakeStore) MarkSent(ctx context.Context, id uuid.UUID, at time.Time) error {
	for i := range s.records {
		if s.records[i].ID == id {
			if s.records[i].SentAt != nil {
				return errors.New("record is not pending")
			}
			s.records[i].SentAt = &at
			s.records[i].LastError = nil
			return nil
		}
	}
	return errors.New("record is not pending")
}

func (s *fakeStore) MarkFailed(ctx context.Context, id uuid.UUID, publishErr string) error {
	for i := range s.records {
		if s.records[i].ID == id {
			s.records[i].RetryCount++
			s.records[i].LastError = &publishErr
			return nil
		}
	}
	return errors.New("record is not pending")
}

func (s *fakeStore) CountPending(ctx context.Context, maxRetryCount int) (int64, error) {
	var n int64
	for _, r := range s.records {
		if r.SentAt == nil && r.RetryCount < maxRetryCount {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) CountExhausted(ctx context.Context, threshold int) (int64, error) {
	var n int64
	for _, r := range s.records {
		if r.SentAt == nil && r.RetryCount >= threshold {
			n++
		}
	}
	return n, nil
}

func (s *fakeStore) get(id uuid.UUID) *OutboxRecord {
	for i := range s.records {
		if s.records[i].ID == id {
			return &s.records[i]
		}
	}
	return nil
}

// fakeProducer fails topics listed in failTopics, counting every attempt.
type fakeProducer struct {
	failTopics map[string]bool
	produced   map[string]int
}

func newFakeProducer() *fakeProducer {
	return &fakeProducer{
		failTopics: make(map[string]bool),
		produced:   make(map[string]int),
	}
}

func (p *fakeProducer) ProduceMessage(ctx context.Context, key, topic string, payload []byte) error {
	p.produced[topic]++
	if p.failTopics[topic] {
		return errors.New("broker unavailable")
	}
	return nil
}

func newTestRelay(store Store, producer Producer, maxRetry int) *Relay {
	return NewRelay(store, producer, zap.NewNop().Sugar(), nil, config.RelayConfig{
		BatchSize:     10,
		PollPeriod:    time.Second,
		MaxRetryCount: maxRetry,
	})
}

func mustRecord(t *testing.T, topic string) *OutboxRecord {
	t.Helper()
	rec, err := NewRecord(topic, map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("NewRecord: %v", err)
	}
	return rec
}

func TestRelayMarksSentOnSuccess(t *testing.T) {
	store := &fakeStore{}
	producer := newFakeProducer()
	relay := newTestRelay(store, producer, 3)

	rec := mustRecord(t, "appointment-created")
	if err := store.Insert(context.Background(), rec); err != nil {
		t.Fatal(err)
	}

	relay.runCycle(context.Background())

	got := store.get(rec.ID)
	if got.SentAt == nil {
		t.Fatal("record not marked sent")
	}
	if producer.produced["appointment-created"] != 1 {
		t.Fatalf("want 1 produce, got %d", producer.produced["appointment-created"])
	}

	// a second cycle must not republish
	relay.runCycle(context.Background())
	if producer.produced["appointment-created"] != 1 {
		t.Fatalf("sent record republished, %d produces", producer.produced["appointment-created"])
	}
}

func TestRelayRetriesFailedRecordNextCycle(t *testing.T) {
	store := &fakeStore{}
	producer := newFakeProducer()
	producer.failTopics["appointment-completed"] = true
	relay := newTestRelay(store, producer, 5)

	rec := mustRecord(t, "appointment-completed")
	if err := store.Insert(context.Background(), rec); err != nil {
		t.Fatal(err)
	}

	relay.runCycle(context.Background())

	got := store.get(rec.ID)
	if got.SentAt != nil {
		t.Fatal("failed record marked sent")
	}
	if got.RetryCount != 1 {
		t.Fatalf("want retry_count 1, got %d", got.RetryCount)
	}
	if got.LastError == nil || *got.LastError == "" {
		t.Fatal("last_error not recorded")
	}

	// broker recovers, next cycle delivers
	producer.failTopics["appointment-completed"] = false
	relay.runCycle(context.Background())

	got = store.get(rec.ID)
	if got.SentAt == nil {
		t.Fatal("record not sent after broker recovered")
	}
}

func TestRelayExhaustedRecordLeavesPendingSet(t *testing.T) {
	store := &fakeStore{}
	producer := newFakeProducer()
	producer.failTopics["appointment-cancelled"] = true
	relay := newTestRelay(store, producer, 2)

	rec := mustRecord(t, "appointment-cancelled")
	if err := store.Insert(context.Background(), rec); err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 5; i++ {
		relay.runCycle(context.Background())
	}

	got := store.get(rec.ID)
	if got.RetryCount != 2 {
		t.Fatalf("want retry_count capped at 2, got %d", got.RetryCount)
	}
	if producer.produced["appointment-cancelled"] != 2 {
		t.Fatalf("want 2 produces, got %d", producer.produced["appointment-cancelled"])
	}

	exhausted, _ := store.CountExhausted(context.Background(), 2)
	if exhausted != 1 {
		t.Fatalf("want 1 exhausted record, got %d", exhausted)
	}
}

func TestRelayOneBadRecordDoesNotBlockOthers(t *testing.T) {
	store := &fakeStore{}
	producer := newFakeProducer()
	producer.failTopics["appointment-created"] = true
	relay := newTestRelay(store, producer, 10)

	bad := mustRecord(t, "appointment-created")
	good := mustRecord(t, "billing-payment-processed")
	if err := store.Insert(context.Background(), bad); err != nil {
		t.Fatal(err)
	}
	if err := store.Insert(context.Background(), good); err != nil {
		t.Fatal(err)
	}

	relay.runCycle(context.Background())

	if store.get(bad.ID).SentAt != nil {
		t.Fatal("failing record marked sent")
	}
	if store.get(good.ID).SentAt == nil {
		t.Fatal("healthy record blocked by failing one")
	}
}

// cancellingProducer cancels the run context while a record is in flight,
// then reports success for that record.
type cancellingProducer struct {
	cancel context.CancelFunc
}

func (p *cancellingProducer) ProduceMessage(ctx context.Context, key, topic string, payload []byte) error {
	p.cancel()
	return nil
}

func TestRelayRunStopsOnCancelAndFinishesInFlightRecord(t *testing.T) {
	store := &fakeStore{}
	ctx, cancel := context.WithCancel(context.Background())
	relay := NewRelay(store, &cancellingProducer{cancel: cancel}, zap.NewNop().Sugar(), nil, config.RelayConfig{
		BatchSize:     10,
		PollPeriod:    5 * time.Millisecond,
		MaxRetryCount: 3,
	})

	rec := mustRecord(t, "appointment-created")
	if err := store.Insert(ctx, rec); err != nil {
		t.Fatal(err)
	}

	done := make(chan struct{})
	go func() {
		relay.Run(ctx)
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop after context cancellation")
	}

	// store updates run detached, so the cancelled run context must not
	// leave the in-flight record half-updated
	if store.get(rec.ID).SentAt == nil {
		t.Fatal("in-flight record not marked sent before stop")
	}
}

func TestRelayPendingGaugeReportsBacklog(t *testing.T) {
	store := &fakeStore{}
	producer := newFakeProducer()
	producer.failTopics["appointment-created"] = true
	m := metrics.New(prometheus.NewRegistry())
	relay := NewRelay(store, producer, zap.NewNop().Sugar(), m, config.RelayConfig{
		BatchSize:     2,
		PollPeriod:    time.Second,
		MaxRetryCount: 10,
	})

	for i := 0; i < 5; i++ {
		if err := store.Insert(context.Background(), mustRecord(t, "appointment-created")); err != nil {
			t.Fatal(err)
		}
	}

	relay.runCycle(context.Background())

	// whole backlog, not the BatchSize-capped batch fill
	if got := testutil.ToFloat64(m.Outbox.PendingRecords); got != 5 {
		t.Fatalf("pending gauge: got %v, want 5", got)
	}
}

func TestNewRecordRejectsEmptyTopic(t *testing.T) {
	if _, err := NewRecord("", map[string]string{}); err == nil {
		t.Fatal("expected error for empty topic")
	}
}

func TestNewRecordMarshalsPayload(t *testing.T) {
	rec, err := NewRecord("appointment-created", map[string]int{"n": 7})
	if err != nil {
		t.Fatal(err)
	}
	var decoded map[string]int
	if err := json.Unmarshal(rec.Payload, &decoded); err != nil {
		t.Fatalf("payload not valid JSON: %v", err)
	}
	if decoded["n"] != 7 {
		t.Fatalf("payload round trip: got %v", decoded)
	}
	if !rec.Pending() {
		t.Fatal("new record must be pending")
	}
}
