package appointment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"medrec/internal/appers"
	"medrec/internal/common"
	"medrec/pkg/validator"

	playgroundvalidator "github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid"
	"go.uber.org/zap"
)

type Handler interface {
	Create(c *fiber.Ctx) error
	Get(c *fiber.Ctx) error
	List(c *fiber.Ctx) error
	ListByPatient(c *fiber.Ctx) error
	ListByDoctor(c *fiber.Ctx) error
	Update(c *fiber.Ctx) error
	Delete(c *fiber.Ctx) error
	Complete(c *fiber.Ctx) error
	Cancel(c *fiber.Ctx) error
	HealthCheck(c *fiber.Ctx) error
}

type HandlerImpl struct {
	service Service
	logger  *zap.SugaredLogger
}

func NewHandler(service Service, logger *zap.SugaredLogger) *HandlerImpl {
	return &HandlerImpl{
		service: service,
		logger:  logger,
	}
}

func formatValidationErrors(err error) fiber.Map {
	var details []string
	if validationErrors, ok := err.(playgroundvalidator.ValidationErrors); ok {
		for _, e := range validationErrors {
			field := e.Field()
			tag := e.Tag()
			var message string
			switch tag {
			case "required":
				message = fmt.Sprintf("field '%s' is required", field)
			case "uuid4":
				message = fmt.Sprintf("field '%s' must be a valid UUID", field)
			case "rfc3339", "rfc3339_optional":
				message = fmt.Sprintf("field '%s' must be in RFC3339 format (e.g. 2026-01-20T15:00:00Z)", field)
			case "amount":
				message = fmt.Sprintf("field '%s' must be a decimal amount with at most 2 fractional digits", field)
			default:
				message = fmt.Sprintf("field '%s' failed validation: %s", field, tag)
			}
			details = append(details, message)
		}
	} else {
		details = append(details, err.Error())
	}
	return fiber.Map{
		"error":   "validation failed",
		"details": details,
	}
}

func parseIDParam(c *fiber.Ctx) (uuid.UUID, error) {
	id, err := uuid.FromString(c.Params("id"))
	if err != nil {
		return uuid.Nil, errors.New("invalid id, expected UUID")
	}
	return id, nil
}

// HealthCheck godoc
// @Summary     Service health
// @Description Checks PostgreSQL and Kafka availability and reports each component.
// @Produce     json
// @Success     200
// @Failure     503
// @tags        Health
// @Router      /health [get]
func (h *HandlerImpl) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	dbHealthy, kafkaHealthy, _ := h.service.HealthCheck(ctx)

	health := fiber.Map{
		"status":  dbHealthy && kafkaHealthy,
		"message": "success",
		"version": common.Version,
		"checks": fiber.Map{
			"database": fiber.Map{
				"status": dbHealthy,
				"type":   "postgresql",
			},
			"kafka": fiber.Map{
				"status": kafkaHealthy,
				"type":   "kafka",
			},
		},
	}
	if !dbHealthy {
		health["checks"].(fiber.Map)["database"].(fiber.Map)["error"] = "Database connection failed"
		health["message"] = "Some services are unavailable"
	}
	if !kafkaHealthy {
		health["checks"].(fiber.Map)["kafka"].(fiber.Map)["error"] = "Kafka connection failed"
		health["message"] = "Some services are unavailable"
	}

	if !dbHealthy || !kafkaHealthy {
		return c.Status(fiber.StatusServiceUnavailable).JSON(health)
	}

	return c.Status(fiber.StatusOK).JSON(health)
}

// Create godoc
// @Summary     Create appointment
// @Description Schedules a new appointment for a patient with a doctor.
// @Accept      json
// @Produce     json
// @Param       body  body     appointment.CreateRequest  true  "Appointment data"
// @Success     201   {object} appointment.Appointment
// @Failure     400
// @Failure     500
// @tags        Appointment
// @Router      /v1/appointment [post]
func (h *HandlerImpl) Create(c *fiber.Ctx) error {
	var req CreateRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Errorf("error parsing body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := validator.Validate.Struct(&req); err != nil {
		h.logger.Warnf("validation error: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(formatValidationErrors(err))
	}

	a, err := h.service.Create(c.Context(), req)
	if err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(a)
}

// Get godoc
// @Summary     Get appointment
// @Description Returns a single appointment by id.
// @Produce     json
// @Param       id   path     string  true  "Appointment ID"
// @Success     200  {object} appointment.Appointment
// @Failure     400
// @Failure     404
// @tags        Appointment
// @Router      /v1/appointment/{id} [get]
func (h *HandlerImpl) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	a, err := h.service.Get(c.Context(), id)
	if err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(a)
}

// List godoc
// @Summary     List appointments
// @Description Returns all active appointments.
// @Produce     json
// @Success     200  {array} appointment.Appointment
// @Failure     500
// @tags        Appointment
// @Router      /v1/appointment [get]
func (h *HandlerImpl) List(c *fiber.Ctx) error {
	list, err := h.service.List(c.Context())
	if err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(list)
}

// ListByPatient godoc
// @Summary     List appointments by patient
// @Produce     json
// @Param       id   path    string  true  "Patient ID"
// @Success     200  {array} appointment.Appointment
// @Failure     400
// @tags        Appointment
// @Router      /v1/appointment/patient/{id} [get]
func (h *HandlerImpl) ListByPatient(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	list, err := h.service.ListByPatient(c.Context(), id)
	if err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(list)
}

// ListByDoctor godoc
// @Summary     List appointments by doctor
// @Produce     json
// @Param       id   path    string  true  "Doctor ID"
// @Success     200  {array} appointment.Appointment
// @Failure     400
// @tags        Appointment
// @Router      /v1/appointment/doctor/{id} [get]
func (h *HandlerImpl) ListByDoctor(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	list, err := h.service.ListByDoctor(c.Context(), id)
	if err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(list)
}

// Update godoc
// @Summary     Update appointment
// @Description Updates schedule details of an existing appointment.
// @Accept      json
// @Produce     json
// @Param       id    path     string                      true  "Appointment ID"
// @Param       body  body     appointment.UpdateRequest   true  "Fields to update"
// @Success     200   {object} appointment.Appointment
// @Failure     400
// @Failure     404
// @tags        Appointment
// @Router      /v1/appointment/{id} [put]
func (h *HandlerImpl) Update(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var req UpdateRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Errorf("error parsing body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := validator.Validate.Struct(&req); err != nil {
		h.logger.Warnf("validation error: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(formatValidationErrors(err))
	}

	a, err := h.service.Update(c.Context(), id, req)
	if err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(a)
}

// Delete godoc
// @Summary     Delete appointment
// @Description Soft-deletes an appointment by id.
// @Produce     json
// @Param       id   path     string  true  "Appointment ID"
// @Success     200
// @Failure     400
// @Failure     404
// @tags        Appointment
// @Router      /v1/appointment/{id} [delete]
func (h *HandlerImpl) Delete(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(fiber.Map{"description": "ok"})
}

// Complete godoc
// @Summary     Complete appointment
// @Description Marks a scheduled appointment as completed and queues the billing event.
// @Accept      json
// @Produce     json
// @Param       id    path     string                       true  "Appointment ID"
// @Param       body  body     appointment.CompleteRequest  true  "Completion data"
// @Success     200   {object} appointment.Appointment
// @Failure     400
// @Failure     404
// @Failure     409
// @tags        Appointment
// @Router      /v1/appointment/{id}/complete [post]
func (h *HandlerImpl) Complete(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var req CompleteRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Errorf("error parsing body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := validator.Validate.Struct(&req); err != nil {
		h.logger.Warnf("validation error: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(formatValidationErrors(err))
	}

	a, err := h.service.Complete(c.Context(), id, req)
	if err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(a)
}

// Cancel godoc
// @Summary     Cancel appointment
// @Description Cancels a scheduled appointment with a reason.
// @Accept      json
// @Produce     json
// @Param       id    path     string                     true  "Appointment ID"
// @Param       body  body     appointment.CancelRequest  true  "Cancellation data"
// @Success     200   {object} appointment.Appointment
// @Failure     400
// @Failure     404
// @Failure     409
// @tags        Appointment
// @Router      /v1/appointment/{id}/cancel [post]
func (h *HandlerImpl) Cancel(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var req CancelRequest
	if err := c.BodyParser(&req); err != nil {
		h.logger.Errorf("error parsing body: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "invalid request body",
		})
	}

	if err := validator.Validate.Struct(&req); err != nil {
		h.logger.Warnf("validation error: %v", err)
		return c.Status(fiber.StatusBadRequest).JSON(formatValidationErrors(err))
	}

	a, err := h.service.Cancel(c.Context(), id, req)
	if err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(a)
}
