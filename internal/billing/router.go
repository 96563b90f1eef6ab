package billing

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

	r.app.Route("/billing", func(router fiber.Router) {

		router.Use("/swagger/*", swagger.New(swagger.Config{
			DeepLinking: false,
			URL:         "/billing/swagger/doc.json",
		}))

		api := router.Group("/api")

		v1 := api.Group("/v1")

		v1.Get("/bill", r.handler.List)
		v1.Get("/bill/patient/:id", r.handler.ListByPatient)
		v1.Get("/bill/:id", r.handler.Get)
		v1.Put("/bill/:id/charges", r.handler.UpdateCharges)
		v1.Post("/bill/:id/payment", r.handler.ProcessPayment)
		v1.Post("/bill/:id/cancel", r.handler.Cancel)
		v1.Delete("/bill/:id", r.handler.Delete)
	})
}
