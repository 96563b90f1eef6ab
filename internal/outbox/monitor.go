package outbox

import (
	"context"
	"fmt"

	"medrec/pkg/observability"

	"go.uber.org/zap"
)

// MonitorJob is a cron job that alerts on records stuck at or above the retry
// threshold. It is the alerting hook for an otherwise silent pending backlog.
type MonitorJob struct {
	store     Store
	logger    *zap.SugaredLogger
	threshold int
}

func NewMonitorJob(store Store, logger *zap.SugaredLogger, threshold int) *MonitorJob {
	return &MonitorJob{
		store:     store,
		logger:    logger,
		threshold: threshold,
	}
}

func (j *MonitorJob) Run(ctx context.Context) {
	n, err := j.store.CountExhausted(ctx, j.threshold)
	if err != nil {
		j.logger.Errorf("outbox monitor: count failed: %v", err)
		return
	}

	if n == 0 {
		j.logger.Debug("outbox monitor: no stuck records")
		return
	}

	msg := fmt.Sprintf("outbox monitor: %d records at retry_count >= %d", n, j.threshold)
	j.logger.Warn(msg)
	observability.CaptureMessage(msg, "outbox-monitor")
}
