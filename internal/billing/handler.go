package billing

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
	Get(c *fiber.Ctx) error
	List(c *fiber.Ctx) error
	ListByPatient(c *fiber.Ctx) error
	UpdateCharges(c *fiber.Ctx) error
	ProcessPayment(c *fiber.Ctx) error
	Cancel(c *fiber.Ctx) error
	Delete(c *fiber.Ctx) error
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
			case "amount":
				message = fmt.Sprintf("field '%s' must be a decimal amount with at most 2 fractional digits", field)
			case "oneof":
				message = fmt.Sprintf("field '%s' must be one of: %s", field, e.Param())
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

// Get godoc
// @Summary     Get bill
// @Produce     json
// @Param       id   path     string  true  "Bill ID"
// @Success     200  {object} billing.Bill
// @Failure     400
// @Failure     404
// @tags        Billing
// @Router      /v1/bill/{id} [get]
func (h *HandlerImpl) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	b, err := h.service.Get(c.Context(), id)
	if err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(b)
}

// List godoc
// @Summary     List bills
// @Produce     json
// @Success     200  {array} billing.Bill
// @Failure     500
// @tags        Billing
// @Router      /v1/bill [get]
func (h *HandlerImpl) List(c *fiber.Ctx) error {
	list, err := h.service.List(c.Context())
	if err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(list)
}

// ListByPatient godoc
// @Summary     List bills by patient
// @Produce     json
// @Param       id   path    string  true  "Patient ID"
// @Success     200  {array} billing.Bill
// @Failure     400
// @tags        Billing
// @Router      /v1/bill/patient/{id} [get]
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

// UpdateCharges godoc
// @Summary     Update bill charges
// @Description Updates fees and discount of a pending bill, recalculating totals.
// @Accept      json
// @Produce     json
// @Param       id    path     string                        true  "Bill ID"
// @Param       body  body     billing.UpdateChargesRequest  true  "Charges to update"
// @Success     200   {object} billing.Bill
// @Failure     400
// @Failure     404
// @Failure     409
// @tags        Billing
// @Router      /v1/bill/{id}/charges [put]
func (h *HandlerImpl) UpdateCharges(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var req UpdateChargesRequest
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

	b, err := h.service.UpdateCharges(c.Context(), id, req)
	if err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(b)
}

// ProcessPayment godoc
// @Summary     Process payment
// @Description Marks a pending bill as paid and notifies the appointment service.
// @Accept      json
// @Produce     json
// @Param       id    path     string                         true  "Bill ID"
// @Param       body  body     billing.ProcessPaymentRequest  true  "Payment data"
// @Success     200   {object} billing.Bill
// @Failure     400
// @Failure     404
// @Failure     409
// @tags        Billing
// @Router      /v1/bill/{id}/payment [post]
func (h *HandlerImpl) ProcessPayment(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	var req ProcessPaymentRequest
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

	b, err := h.service.ProcessPayment(c.Context(), id, req)
	if err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(b)
}

// Cancel godoc
// @Summary     Cancel bill
// @Description Voids a pending bill and notifies the appointment service.
// @Produce     json
// @Param       id   path     string  true  "Bill ID"
// @Success     200  {object} billing.Bill
// @Failure     400
// @Failure     404
// @Failure     409
// @tags        Billing
// @Router      /v1/bill/{id}/cancel [post]
func (h *HandlerImpl) Cancel(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	b, err := h.service.Cancel(c.Context(), id)
	if err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(b)
}

// Delete godoc
// @Summary     Delete bill
// @Produce     json
// @Param       id   path     string  true  "Bill ID"
// @Success     200
// @Failure     400
// @Failure     404
// @tags        Billing
// @Router      /v1/bill/{id} [delete]
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
