package patient

import (
	"fmt"

	"medrec/pkg/config"
	"medrec/pkg/db"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// App wires the patient service. It is a plain CRUD service with no broker.
type App struct {
	conf       *config.Config
	logger     *zap.SugaredLogger
	postgres   *db.Postgres
	httpServer *fiber.App
}

func NewApp(
	conf *config.Config,
	logger *zap.SugaredLogger,
	postgres *db.Postgres,
	httpServer *fiber.App) *App {

	repo := NewRepo(postgres, logger)
	srv := NewService(repo, logger)
	h := NewHandler(srv, logger)
	r := NewRouter(h, httpServer, conf, logger)
	r.RegisterRouter()

	return &App{
		conf:       conf,
		logger:     logger,
		postgres:   postgres,
		httpServer: httpServer,
	}
}

func (a *App) Run() error {
	return a.httpServer.Listen(fmt.Sprintf(":%s", a.conf.Server.Port))
}

func (a *App) Shutdown() error {
	return a.httpServer.Shutdown()
}
