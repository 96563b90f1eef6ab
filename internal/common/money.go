package common

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"medrec/internal/appers"
)

var (
	// accepted: "150", "150.5", "150,50", surrounding spaces
	reDec = regexp.MustCompile(`^\s*(\d+)(?:[.,](\d+))?\s*$`)

	// NUMERIC(18,2) -> at most 16 integer digits alongside 2 fractional ones
	maxIntDigits = 16
	maxScale     = 2
)

// Amount is an exact monetary value in cents. It marshals as a plain JSON
// number with two decimals ("150.00") so the payloads stay readable by the
// other services, and unmarshals from either a number or a quoted string.
type Amount int64

// ParseAmount parses a strict non-negative decimal with scale <= 2 and up to
// 16 integer digits. Nothing is rounded: more than two fractional digits is
// an error, not a truncation.
func ParseAmount(s string) (Amount, error) {
	m := reDec.FindStringSubmatch(s)
	if m == nil {
		return 0, appers.ErrFormat
	}
	intPart := trimZeros(m[1])
	frac := m[2]

	if len(frac) > maxScale {
		return 0, appers.ErrScale
	}
	if len(intPart) > maxIntDigits {
		return 0, appers.ErrPrecision
	}

	for len(frac) < maxScale {
		frac += "0"
	}

	units, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, appers.ErrFormat
	}
	cents, err := strconv.ParseInt(frac, 10, 64)
	if err != nil {
		return 0, appers.ErrFormat
	}

	return Amount(units*100 + cents), nil
}

func (a Amount) String() string {
	sign := ""
	v := int64(a)
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("%s%d.%02d", sign, v/100, v%100)
}

// Percent applies an integer percentage with half-up rounding on cents.
func (a Amount) Percent(rate int64) Amount {
	v := int64(a) * rate
	if v >= 0 {
		return Amount((v + 50) / 100)
	}
	return Amount((v - 50) / 100)
}

func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.String()), nil
}

func (a *Amount) UnmarshalJSON(data []byte) error {
	s := string(bytes.Trim(bytes.TrimSpace(data), `"`))
	if s == "null" || s == "" {
		*a = 0
		return nil
	}
	neg := strings.HasPrefix(s, "-")
	parsed, err := ParseAmount(strings.TrimPrefix(s, "-"))
	if err != nil {
		return fmt.Errorf("amount %q: %w", s, err)
	}
	if neg {
		parsed = -parsed
	}
	*a = parsed
	return nil
}

func trimZeros(s string) string {
	s = strings.TrimLeft(s, "0")
	if s == "" {
		return "0"
	}
	return s
}
