package cron

import (
	"context"
	"fmt"

	"go.uber.org/zap"
)

type Controller struct {
	scheduler *Scheduler
	logger    *zap.SugaredLogger
}

func NewController(ctx context.Context, logger *zap.SugaredLogger) *Controller {
	return &Controller{
		scheduler: NewScheduler(ctx),
		logger:    logger,
	}
}

// RegisterJob schedules a named job; spec is either cron format
// ("0 * * * * *") or an interval ("@every 1m"), defaulting to every minute.
// Panics inside the job are contained so one bad run cannot take down the
// scheduler goroutine.
func (c *Controller) RegisterJob(name, spec string, job Job) error {
	if spec == "" {
		spec = "@every 1m"
		c.logger.Warnf("no schedule for job %q, defaulting to %s", name, spec)
	}

	entryID, err := c.scheduler.Add(spec, &recoveringJob{name: name, job: job, logger: c.logger})
	if err != nil {
		return fmt.Errorf("register job %q: %w", name, err)
	}

	c.logger.Infof("job %q registered with ID %d, schedule: %s", name, entryID, spec)
	return nil
}

func (c *Controller) Start() {
	c.logger.Info("starting cron scheduler")
	c.scheduler.Start()
}

func (c *Controller) Stop() {
	c.logger.Info("stopping cron scheduler")
	c.scheduler.Stop()
	c.logger.Info("cron scheduler stopped")
}

type recoveringJob struct {
	name   string
	job    Job
	logger *zap.SugaredLogger
}

func (j *recoveringJob) Run(ctx context.Context) {
	defer func() {
		if r := recover(); r != nil {
			j.logger.Errorf("panic in job %q: %v", j.name, r)
		}
	}()

	j.logger.Debugf("job %q started", j.name)
	j.job.Run(ctx)
	j.logger.Debugf("job %q finished", j.name)
}
