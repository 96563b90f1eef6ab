package billing

import (
	"context"
	"fmt"

	"medrec/internal/controllers/cron"
	"medrec/internal/controllers/listener"
	"medrec/internal/outbox"
	"medrec/internal/transport/producer"
	"medrec/pkg/broker"
	"medrec/pkg/config"
	"medrec/pkg/db"
	"medrec/pkg/metrics"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// App wires the billing service: HTTP API, outbox relay, appointment-completed
// consumer and the exhausted-records monitor.
type App struct {
	conf           *config.Config
	logger         *zap.SugaredLogger
	postgres       *db.Postgres
	httpServer     *fiber.App
	kafka          *broker.KafkaBroker
	cronController *cron.Controller
}

func NewApp(
	ctx context.Context,
	conf *config.Config,
	logger *zap.SugaredLogger,
	postgres *db.Postgres,
	httpServer *fiber.App,
	kafkaBroker *broker.KafkaBroker,
	m *metrics.Metrics) (*App, error) {

	go func() {
		<-ctx.Done()
		logger.Info("closing consumer group")
		kafkaBroker.ConsumerGroup.Close()
		logger.Info("closing consumer group: done")
	}()

	repo := NewRepo(postgres, logger)
	outboxStore := outbox.NewPgStore(postgres, logger)
	kafkaProducer := producer.NewProducer(kafkaBroker, logger, m, conf.Relay)
	srv := NewService(postgres, repo, outboxStore, kafkaProducer, logger)
	h := NewHandler(srv, logger)
	r := NewRouter(h, httpServer, conf, logger)
	r.RegisterRouter()

	relay := outbox.NewRelay(outboxStore, kafkaProducer, logger, m, conf.Relay)
	go relay.Run(ctx)

	consumer := listener.NewConsumer(logger, m)
	NewAppointmentConsumer(srv, logger).Register(consumer)
	go consumer.Run(ctx, kafkaBroker)

	cronController := cron.NewController(ctx, logger)
	monitor := outbox.NewMonitorJob(outboxStore, logger, conf.Monitor.AlertThreshold)
	if err := cronController.RegisterJob("outbox-monitor", conf.Monitor.Schedule, monitor); err != nil {
		return nil, err
	}
	cronController.Start()

	return &App{
		conf:           conf,
		logger:         logger,
		postgres:       postgres,
		httpServer:     httpServer,
		kafka:          kafkaBroker,
		cronController: cronController,
	}, nil
}

func (a *App) Run() error {
	return a.httpServer.Listen(fmt.Sprintf(":%s", a.conf.Server.Port))
}

func (a *App) Shutdown() error {
	if a.cronController != nil {
		a.cronController.Stop()
	}
	return a.httpServer.Shutdown()
}
