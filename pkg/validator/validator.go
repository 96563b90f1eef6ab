package validator

import (
	"regexp"
	"time"

	"github.com/go-playground/validator/v10"
)

var (
	// Validate is a shared singleton instance.
	Validate *validator.Validate

	reAmount = regexp.MustCompile(`^\d+(?:\.\d{1,2})?$`)
)

func init() {
	Validate = validator.New()

	_ = Validate.RegisterValidation("rfc3339", validateRFC3339)
	_ = Validate.RegisterValidation("rfc3339_optional", validateRFC3339Optional)
	_ = Validate.RegisterValidation("amount", validateAmount)
}

func validateRFC3339(fl validator.FieldLevel) bool {
	dateStr := fl.Field().String()
	if dateStr == "" {
		return false
	}
	_, err := time.Parse(time.RFC3339, dateStr)
	return err == nil
}

func validateRFC3339Optional(fl validator.FieldLevel) bool {
	dateStr := fl.Field().String()
	if dateStr == "" {
		return true
	}
	_, err := time.Parse(time.RFC3339, dateStr)
	return err == nil
}

// validateAmount accepts a non-negative decimal with at most two fractional
// digits, matching the NUMERIC(18,2) money columns.
func validateAmount(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if s == "" {
		return false
	}
	return reAmount.MatchString(s)
}
