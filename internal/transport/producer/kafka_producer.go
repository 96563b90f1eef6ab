package producer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medrec/internal/retry"
	"medrec/pkg/broker"
	"medrec/pkg/config"
	"medrec/pkg/metrics"

	"github.com/IBM/sarama"
	"go.uber.org/zap"
)

type Producer interface {
	ProduceMessage(ctx context.Context, key string, topic string, payload []byte) error
	HealthCheck(ctx context.Context) error
}

// KafkaProducer wraps the sync producer with bounded per-call retries. The
// topic comes from the caller: outbox records address their own destination.
type KafkaProducer struct {
	broker *broker.KafkaBroker
	logger *zap.SugaredLogger
	m      *metrics.Metrics
	cfg    config.RelayConfig
}

func NewProducer(broker *broker.KafkaBroker, logger *zap.SugaredLogger, m *metrics.Metrics, cfg config.RelayConfig) *KafkaProducer {
	if cfg.PublishAttempts < 1 {
		cfg.PublishAttempts = 1
	}

	return &KafkaProducer{
		broker: broker,
		logger: logger,
		m:      m,
		cfg:    cfg,
	}
}

func (p *KafkaProducer) HealthCheck(ctx context.Context) error {
	if p.broker == nil {
		return errors.New("kafka broker is not initialized")
	}

	return p.broker.HealthCheck(ctx)
}

func (p *KafkaProducer) ProduceMessage(ctx context.Context, key string, topic string, payload []byte) error {
	attempt := 0

	err := retry.Do(ctx, p.cfg.PublishAttempts, retry.ExponentialJitter(p.cfg.PublishBackoff), func(ctx context.Context) error {
		attempt++

		msg := &sarama.ProducerMessage{
			Topic:     topic,
			Key:       sarama.StringEncoder(key),
			Value:     sarama.ByteEncoder(payload),
			Timestamp: time.Now(),
		}

		t0 := time.Now()
		part, off, err := p.broker.SyncProducer.SendMessage(msg)
		rt := time.Since(t0)

		if p.m != nil {
			res := "ok"
			if err != nil {
				res = "error"
			}
			p.m.Kafka.ProducerAttemptLatencySeconds.WithLabelValues(topic, res).Observe(rt.Seconds())
		}

		if err == nil {
			if p.m != nil {
				p.m.Kafka.ProducerOperationsTotal.WithLabelValues(topic, "success").Inc()
				p.m.Kafka.ProducerSuccessAttempts.WithLabelValues(topic).Observe(float64(attempt))
			}
			p.logger.Infof("[key %s] sent topic=%s partition=%d offset=%d attempt=%d rt=%s",
				key, topic, part, off, attempt, rt)
			return nil
		}

		if kerr, ok := err.(sarama.KError); ok && isPermanent(kerr) {
			if p.m != nil {
				p.m.Kafka.ProducerOperationsTotal.WithLabelValues(topic, "permanent").Inc()
			}
			p.logger.Errorf("[key %s] permanent kafka error attempt=%d rt=%s kafka_error=%s code=%d",
				key, attempt, rt, kerr.Error(), int16(kerr))
			return retry.Permanent(fmt.Errorf("permanent kafka error: %w", kerr))
		}

		p.logger.Warnf("[key %s] retryable publish error topic=%s attempt=%d rt=%s err=%v",
			key, topic, attempt, rt, err)
		return err
	})

	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			if p.m != nil {
				p.m.Kafka.ProducerOperationsTotal.WithLabelValues(topic, "canceled").Inc()
			}
			return err
		}

		if p.m != nil {
			p.m.Kafka.ProducerOperationsTotal.WithLabelValues(topic, "failed").Inc()
		}
		p.logger.Errorf("[key %s] produce failed, topic=%s: %v", key, topic, err)
		return fmt.Errorf("produce to %s: %w", topic, err)
	}

	return nil
}

func isPermanent(k sarama.KError) bool {
	switch k {
	case sarama.ErrTopicAuthorizationFailed,
		sarama.ErrClusterAuthorizationFailed,
		sarama.ErrInvalidRequest,
		sarama.ErrInvalidMessage,
		sarama.ErrMessageSizeTooLarge,
		sarama.ErrSASLAuthenticationFailed:
		return true
	default:
		return false
	}
}
