package doctor

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
// @Summary     Register doctor
// @Accept      json
// @Produce     json
// @Param       body  body     doctor.CreateRequest  true  "Doctor data"
// @Success     201   {object} doctor.Doctor
// @Failure     400
// @Failure     500
// @tags        Doctor
// @Router      /v1/doctor [post]
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

	d, err := h.service.Create(c.Context(), req)
	if err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(d)
}

// Get godoc
// @Summary     Get doctor
// @Produce     json
// @Param       id   path     string  true  "Doctor ID"
// @Success     200  {object} doctor.Doctor
// @Failure     400
// @Failure     404
// @tags        Doctor
// @Router      /v1/doctor/{id} [get]
func (h *HandlerImpl) Get(c *fiber.Ctx) error {
	id, err := parseIDParam(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	d, err := h.service.Get(c.Context(), id)
	if err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(d)
}

// List godoc
// @Summary     List doctors
// @Description Returns all doctors, optionally filtered by the specialization query parameter.
// @Produce     json
// @Param       specialization  query   string false "Specialization filter"
// @Success     200  {array} doctor.Doctor
// @Failure     500
// @tags        Doctor
// @Router      /v1/doctor [get]
func (h *HandlerImpl) List(c *fiber.Ctx) error {
	var (
		list []*Doctor
		err  error
	)
	if spec := c.Query("specialization"); spec != "" {
		list, err = h.service.ListBySpecialization(c.Context(), spec)
	} else {
		list, err = h.service.List(c.Context())
	}
	if err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(list)
}

// Update godoc
// @Summary     Update doctor
// @Accept      json
// @Produce     json
// @Param       id    path     string                true  "Doctor ID"
// @Param       body  body     doctor.UpdateRequest  true  "Fields to update"
// @Success     200   {object} doctor.Doctor
// @Failure     400
// @Failure     404
// @tags        Doctor
// @Router      /v1/doctor/{id} [put]
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

	d, err := h.service.Update(c.Context(), id, req)
	if err != nil {
		return appers.SanitizeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(d)
}

// Delete godoc
// @Summary     Delete doctor
// @Produce     json
// @Param       id   path     string  true  "Doctor ID"
// @Success     200
// @Failure     400
// @Failure     404
// @tags        Doctor
// @Router      /v1/doctor/{id} [delete]
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
