package listener

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"testing"
	"time"

	"medrec/pkg/broker"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

func newTestConsumer() *Consumer {
	return NewConsumer(zap.NewNop().Sugar(), nil)
}

func TestDispatchCallsRegisteredHandler(t *testing.T) {
	c := newTestConsumer()

	var got []byte
	c.Register("appointment-completed", func(ctx context.Context, payload []byte) error {
		got = payload
		return nil
	})

	err := c.Dispatch(context.Background(), "appointment-completed", []byte(`{"x":1}`))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(got) != `{"x":1}` {
		t.Fatalf("handler received %q", got)
	}
}

func TestDispatchUnknownTopicAdvances(t *testing.T) {
	c := newTestConsumer()

	// nil return means the offset may advance and the message is dropped
	if err := c.Dispatch(context.Background(), "unknown-topic", []byte(`{}`)); err != nil {
		t.Fatalf("unknown topic must not fail the claim: %v", err)
	}
}

func TestDispatchSkipErrorAdvances(t *testing.T) {
	c := newTestConsumer()
	c.Register("billing-payment-processed", func(ctx context.Context, payload []byte) error {
		return fmt.Errorf("appointment gone: %w", ErrSkip)
	})

	if err := c.Dispatch(context.Background(), "billing-payment-processed", []byte(`{}`)); err != nil {
		t.Fatalf("skip error must not fail the claim: %v", err)
	}
}

func TestDispatchHandlerErrorPropagates(t *testing.T) {
	c := newTestConsumer()
	base := errors.New("db down")
	c.Register("appointment-completed", func(ctx context.Context, payload []byte) error {
		return base
	})

	err := c.Dispatch(context.Background(), "appointment-completed", []byte(`{}`))
	if !errors.Is(err, base) {
		t.Fatalf("transient handler error must propagate for redelivery, got %v", err)
	}
}

// fakeConsumerGroup blocks inside Consume until the context is done, like a
// real group session with no traffic.
type fakeConsumerGroup struct{}

func (fakeConsumerGroup) Consume(ctx context.Context, _ []string, _ sarama.ConsumerGroupHandler) error {
	<-ctx.Done()
	return ctx.Err()
}
func (fakeConsumerGroup) Errors() <-chan error      { return nil }
func (fakeConsumerGroup) Close() error              { return nil }
func (fakeConsumerGroup) Pause(map[string][]int32)  {}
func (fakeConsumerGroup) Resume(map[string][]int32) {}
func (fakeConsumerGroup) PauseAll()                 {}
func (fakeConsumerGroup) ResumeAll()                {}

func TestRunReturnsOnContextCancel(t *testing.T) {
	c := newTestConsumer()
	c.Register("appointment-created", func(ctx context.Context, payload []byte) error { return nil })

	ctx, cancel := context.WithCancel(context.Background())
	kb := &broker.KafkaBroker{ConsumerGroup: fakeConsumerGroup{}}

	done := make(chan struct{})
	go func() {
		c.Run(ctx, kb)
		close(done)
	}()

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop after context cancellation")
	}
}

func TestTopicsListsRegistrations(t *testing.T) {
	c := newTestConsumer()
	c.Register("a-topic", func(ctx context.Context, payload []byte) error { return nil })
	c.Register("b-topic", func(ctx context.Context, payload []byte) error { return nil })

	topics := c.Topics()
	sort.Strings(topics)
	if len(topics) != 2 || topics[0] != "a-topic" || topics[1] != "b-topic" {
		t.Fatalf("got %v", topics)
	}
}
