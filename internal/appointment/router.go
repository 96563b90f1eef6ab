package appointment

import (
	"medrec/pkg/config"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/swagger"
	"go.uber.org/zap"
)

type Router struct {
	handler Handler
	app     *fiber.App
	conf    *config.Config
	logger  *zap.SugaredLogger
}

func NewRouter(handler Handler, app *fiber.App, conf *config.Config, logger *zap.SugaredLogger) *Router {
	return &Router{
		logger:  logger,
		app:     app,
		conf:    conf,
		handler: handler,
	}
}

func (r *Router) RegisterRouter() {
	r.app.Get("/health", r.handler.HealthCheck)

	r.app.Route("/appointment", func(router fiber.Router) {

		router.Use("/swagger/*", swagger.New(swagger.Config{
			DeepLinking: false,
			URL:         "/appointment/swagger/doc.json",
		}))

		api := router.Group("/api")

		v1 := api.Group("/v1")

		v1.Post("/appointment", r.handler.Create)
		v1.Get("/appointment", r.handler.List)
		// static segments before the :id routes
		v1.Get("/appointment/patient/:id", r.handler.ListByPatient)
		v1.Get("/appointment/doctor/:id", r.handler.ListByDoctor)
		v1.Get("/appointment/:id", r.handler.Get)
		v1.Put("/appointment/:id", r.handler.Update)
		v1.Delete("/appointment/:id", r.handler.Delete)
		v1.Post("/appointment/:id/complete", r.handler.Complete)
		v1.Post("/appointment/:id/cancel", r.handler.Cancel)
	})
}
