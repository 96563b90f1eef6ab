package appers

import (
	"errors"
	"net/http"

	"github.com/gofiber/fiber/v2"
)

var (
	// Amount parsing errors, NUMERIC(18,2) bounds.
	ErrFormat    = errors.New("invalid decimal format")
	ErrScale     = errors.New("too many fractional digits (max 2)")
	ErrPrecision = errors.New("too many integer digits for NUMERIC(18,2)")
)

type ErrorResp struct {
	StatusCode int    `json:"statusCode,omitempty"`
	StatusDesc string `json:"statusDesc,omitempty"`
}

func (e ErrorResp) Error() string {
	return e.StatusDesc
}

var (
	ErrPatientNotFound = ErrorResp{
		http.StatusNotFound,
		"patient not found",
	}
	ErrDoctorNotFound = ErrorResp{
		http.StatusNotFound,
		"doctor not found",
	}
	ErrAppointmentNotFound = ErrorResp{
		http.StatusNotFound,
		"appointment not found",
	}
	ErrBillNotFound = ErrorResp{
		http.StatusNotFound,
		"bill not found",
	}
	ErrAppointmentAlreadyFinal = ErrorResp{
		http.StatusConflict,
		"appointment is already completed or cancelled",
	}
	ErrBillNotPending = ErrorResp{
		http.StatusConflict,
		"bill is not in pending state",
	}
)

func SanitizeError(c *fiber.Ctx, err error) error {
	var errResp ErrorResp

	if ok := errors.As(err, &errResp); ok {
		return c.Status(errResp.StatusCode).JSON(fiber.Map{
			"message": errResp.StatusDesc,
		})
	}
	return NewErr(c, http.StatusInternalServerError, err)
}

func NewErr(ctx *fiber.Ctx, status int, err error) error {
	return ctx.Status(status).JSON(fiber.Map{
		"message": err.Error(),
	})
}
