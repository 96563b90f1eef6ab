package outbox

import (
	"context"
	"fmt"
	"time"

	"medrec/pkg/config"
	"medrec/pkg/metrics"
	"medrec/pkg/observability"

	"go.uber.org/zap"
)

// Producer delivers one payload to a topic, with its own bounded in-call
// retries. A returned error means the attempts for this record are exhausted.
type Producer interface {
	ProduceMessage(ctx context.Context, key string, topic string, payload []byte) error
}

// Relay drains pending outbox records to the broker with at-least-once
// semantics. Records are processed independently: one record exhausting its
// publish attempts never delays the rest of the batch. Exactly one Relay
// instance per service is assumed; running more against the same store needs
// a claim/lease step this design does not have.
type Relay struct {
	store    Store
	producer Producer
	logger   *zap.SugaredLogger
	m        *metrics.Metrics
	cfg      config.RelayConfig
}

func NewRelay(store Store, producer Producer, logger *zap.SugaredLogger, m *metrics.Metrics, cfg config.RelayConfig) *Relay {
	return &Relay{
		store:    store,
		producer: producer,
		logger:   logger,
		m:        m,
		cfg:      cfg,
	}
}

// Run polls on a fixed interval until ctx is cancelled. An in-flight record
// finishes its store update before the loop returns.
func (r *Relay) Run(ctx context.Context) {
	r.logger.Infow("relay started",
		"batch", r.cfg.BatchSize, "poll", r.cfg.PollPeriod.String(), "maxRetryCount", r.cfg.MaxRetryCount)

	ticker := time.NewTicker(r.cfg.PollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Infow("relay stopping")
			return
		case <-ticker.C:
			r.runCycle(ctx)
		}
	}
}

func (r *Relay) runCycle(ctx context.Context) {
	records, err := r.store.SelectPending(ctx, r.cfg.BatchSize, r.cfg.MaxRetryCount)
	if err != nil {
		r.logger.Errorw("select pending outbox failed", "err", err)
		return
	}

	if r.m != nil {
		r.m.Outbox.BatchSize.Observe(float64(len(records)))
		// Backlog depth, not batch fill: the batch is capped at BatchSize.
		if pending, err := r.store.CountPending(ctx, r.cfg.MaxRetryCount); err == nil {
			r.m.Outbox.PendingRecords.Set(float64(pending))
		}
	}
	if len(records) == 0 {
		return
	}
	r.logger.Debugf("relay cycle: %d pending records", len(records))

	for i := range records {
		if ctx.Err() != nil {
			return
		}
		r.processOne(ctx, &records[i])
	}
}

// processOne attempts delivery of a single record and persists the outcome.
// Store updates run on a detached context so a shutdown mid-record never
// leaves it half-updated.
func (r *Relay) processOne(ctx context.Context, rec *OutboxRecord) {
	r.logger.Debugf("[record %s] relay-process started, topic: %s", rec.ID, rec.Topic)

	if err := r.producer.ProduceMessage(ctx, rec.ID.String(), rec.Topic, rec.Payload); err != nil {
		r.logger.Errorf("[record %s] publish failed, err: %v", rec.ID, err)
		if r.m != nil {
			r.m.Outbox.RecordsRelayedTotal.WithLabelValues(rec.Topic, "failed").Inc()
		}

		if markErr := r.store.MarkFailed(context.Background(), rec.ID, err.Error()); markErr != nil {
			r.logger.Errorf("[record %s] mark failed errored: %v", rec.ID, markErr)
			return
		}

		// The record just left the pending set for good; make it visible.
		if rec.RetryCount+1 >= r.cfg.MaxRetryCount {
			exhausted := fmt.Errorf("outbox record %s (topic %s) exhausted %d retries: %w",
				rec.ID, rec.Topic, rec.RetryCount+1, err)
			r.logger.Errorw("outbox record exhausted retries", "record", rec.ID, "topic", rec.Topic)
			observability.CaptureError(exhausted, "outbox-relay")
		}
		return
	}

	if err := r.store.MarkSent(context.Background(), rec.ID, time.Now().UTC()); err != nil {
		// The message is already on the broker; re-sending is the consumer's
		// idempotency problem, so only log here.
		r.logger.Errorf("[record %s] mark sent failed: %v", rec.ID, err)
		return
	}

	if r.m != nil {
		r.m.Outbox.RecordsRelayedTotal.WithLabelValues(rec.Topic, "sent").Inc()
	}
	r.logger.Infof("[record %s] relayed to %s", rec.ID, rec.Topic)
}
