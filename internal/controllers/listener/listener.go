// Package listener runs the Kafka consumer side: a consumer-group handler
// that dispatches each message to the reactive handler registered for its
// topic, inside that handler's own local transaction.
package listener

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medrec/pkg/broker"
	"medrec/pkg/metrics"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

// ErrSkip marks a message as permanently unprocessable: undecodable payloads
// and events referencing entities that do not exist locally. Such messages
// are consumed and never redelivered. Any other handler error leaves the
// offset unadvanced so the broker redelivers.
var ErrSkip = errors.New("skip message")

// HandlerFunc applies one event payload. Implementations must be idempotent:
// delivery is at-least-once and the same payload may arrive more than once.
type HandlerFunc func(ctx context.Context, payload []byte) error

type Consumer struct {
	handlers map[string]HandlerFunc
	logger   *zap.SugaredLogger
	m        *metrics.Metrics
}

func NewConsumer(logger *zap.SugaredLogger, m *metrics.Metrics) *Consumer {
	return &Consumer{
		handlers: make(map[string]HandlerFunc),
		logger:   logger,
		m:        m,
	}
}

func (c *Consumer) Register(topic string, h HandlerFunc) {
	c.handlers[topic] = h
}

func (c *Consumer) Topics() []string {
	topics := make([]string, 0, len(c.handlers))
	for t := range c.handlers {
		topics = append(topics, t)
	}
	return topics
}

// Dispatch routes one message. A nil return means the offset may advance.
func (c *Consumer) Dispatch(ctx context.Context, topic string, payload []byte) error {
	h, ok := c.handlers[topic]
	if !ok {
		c.logger.Warnf("no handler for topic %q, skipping", topic)
		c.countSkip(topic, "no_handler")
		return nil
	}

	err := h(ctx, payload)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrSkip):
		c.logger.Warnf("skipping message on %q: %v", topic, err)
		c.countSkip(topic, "unprocessable")
		return nil
	default:
		return fmt.Errorf("handle %s: %w", topic, err)
	}
}

func (c *Consumer) countSkip(topic, reason string) {
	if c.m != nil {
		c.m.Kafka.ConsumerSkippedTotal.WithLabelValues(topic, reason).Inc()
	}
}

// ===== sarama.ConsumerGroupHandler =====

func (c *Consumer) Setup(session sarama.ConsumerGroupSession) error {
	c.logger.Info("kafka consumer session setup")
	if c.m != nil {
		c.m.Kafka.ConsumerRebalancesTotal.WithLabelValues("setup").Inc()
	}
	return nil
}

func (c *Consumer) Cleanup(session sarama.ConsumerGroupSession) error {
	c.logger.Info("kafka consumer session cleanup")
	if c.m != nil {
		c.m.Kafka.ConsumerRebalancesTotal.WithLabelValues("cleanup").Inc()
	}
	return nil
}

func (c *Consumer) ConsumeClaim(session sarama.ConsumerGroupSession, claim sarama.ConsumerGroupClaim) error {
	topic := claim.Topic()

	for msg := range claim.Messages() {
		if c.m != nil {
			c.m.Kafka.ConsumerInFlight.WithLabelValues(topic).Inc()
		}
		start := time.Now()
		c.logger.Debugf("message topic:%q partition:%d offset:%d", msg.Topic, msg.Partition, msg.Offset)

		err := c.Dispatch(session.Context(), msg.Topic, msg.Value)

		if c.m != nil {
			c.m.Kafka.ConsumerMessagesTotal.WithLabelValues(topic).Inc()
			c.m.Kafka.ConsumerProcessDuration.WithLabelValues(topic).Observe(time.Since(start).Seconds())
			c.m.Kafka.ConsumerInFlight.WithLabelValues(topic).Dec()
		}

		if err != nil {
			// Returning ends the claim without marking; the broker redelivers
			// after the next rebalance.
			c.logger.Errorf("handler failed, offset not advanced: %v", err)
			return err
		}

		session.MarkMessage(msg, "")
	}

	return nil
}

// Run keeps the consumer group consuming until ctx is done, re-joining after
// errors and rebalances.
func (c *Consumer) Run(ctx context.Context, kafkaBroker *broker.KafkaBroker) {
	topics := c.Topics()
	c.logger.Infof("starting consumer for topics: %v", topics)

	for {
		if err := kafkaBroker.ConsumerGroup.Consume(ctx, topics, c); err != nil {
			c.logger.Errorf("consumer error: %v", err)
		}
		if ctx.Err() != nil {
			c.logger.Info("consumer stopped by context")
			return
		}
	}
}
