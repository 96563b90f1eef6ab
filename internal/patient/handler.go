package patient

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
	Update(c *fiber.Ctx) error
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
			case "email":
				message = fmt.Sprintf("field '%s' must be a valid email address", field)
			case "rfc3339":
				message = fmt.Sprintf("field '%s' must be in RFC3339 format (e.g. 1990-01-20T00:00:00Z)", field)
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
// @Description Checks PostgreSQL availability.
// @Produce     json
// @Success     200
// @Failure     503
// @tags        Health
// @Router      /health [get]
func (h *HandlerImpl) HealthCheck(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()

	dbErr := h.service.HealthCheck(ctx)
	dbHealthy := dbErr == nil

	health := fiber.Map{
		"status":  dbHealthy,
		"message": "success",
		"version": common.Version,
		"checks": fiber.Map{
			"database": fiber.Map{
				"status": dbHealthy,
				"type":   "postgresql",
			},
		},
	}
	if !dbHealthy {
		health["checks"].(fiber.Map)["database"].(fiber.Map)["error"] = "Database connection failed"
		health["message"] = "Some services are unavailable"
		return c.Status(fiber.StatusServiceUnavailable).JSON(health)
	}

	return c.Status(fiber.StatusOK).JSON(health)
}

// Create godoc
// @Summary     Register patient
// @Accept      json
// @Produce     json
// @Param       body  body     patient.CreateRequest  true  "Patient data"
// @Success     201   {object} patient.Patient
// @Failure     400
// @Failure     500
// @tags        Patient
// @Router      /v1/patient [post]
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

	p, err := h.service.Create(c.Context(), req)
	if err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(p)
}

// Get godoc
// @Summary     Get patient
// @Produce     json
// @Param       id   path     string  true  "Patient ID"
// @Success     200  {object} patient.Patient
// @Failure     400
// @Failure     404
// @tags        Patient
// @Router      /v1/patient/{id} [get]
func (h *HandlerImpl) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	p, err := h.service.Get(c.Context(), id)
	if err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(p)
}

// List godoc
// @Summary     List patients
// @Produce     json
// @Success     200  {array} patient.Patient
// @Failure     500
// @tags        Patient
// @Router      /v1/patient [get]
func (h *HandlerImpl) List(c *fiber.Ctx) error {
	list, err := h.service.List(c.Context())
	if err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(list)
}

// Update godoc
// @Summary     Update patient
// @Accept      json
// @Produce     json
// @Param       id    path     string                 true  "Patient ID"
// @Param       body  body     patient.UpdateRequest  true  "Fields to update"
// @Success     200   {object} patient.Patient
// @Failure     400
// @Failure     404
// @tags        Patient
// @Router      /v1/patient/{id} [put]
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

	p, err := h.service.Update(c.Context(), id, req)
	if err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(p)
}

// Delete godoc
// @Summary     Delete patient
// @Produce     json
// @Param       id   path     string  true  "Patient ID"
// @Success     200
// @Failure     400
// @Failure     404
// @tags        Patient
// @Router      /v1/patient/{id} [delete]
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
