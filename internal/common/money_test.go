package common

import (
	"encoding/json"
	"errors"
	"testing"

	"medrec/internal/appers"
)

func TestParseAmount(t *testing.T) {
	cases := []struct {
		in   string
		want Amount
	}{
		{"150", 15000},
		{"150.00", 15000},
		{"150.5", 15050},
		{"150,50", 15050},
		{"0", 0},
		{"0.01", 1},
		{" 42.99 ", 4299},
		{"0000150.00", 15000},
	}
	for _, c := range cases {
		got, err := ParseAmount(c.in)
		if err != nil {
			t.Errorf("ParseAmount(%q): unexpected error %v", c.in, err)
			continue
		}
		if got != c.want {
			t.Errorf("ParseAmount(%q) = %d, want %d", c.in, got, c.want)
		}
	}
}

func TestParseAmountRejects(t *testing.T) {
	cases := []struct {
		in      string
		wantErr error
	}{
		{"", appers.ErrFormat},
		{"abc", appers.ErrFormat},
		{"-5.00", appers.ErrFormat},
		{"1.2.3", appers.ErrFormat},
		{"10.999", appers.ErrScale},
		{"12345678901234567.00", appers.ErrPrecision},
	}
	for _, c := range cases {
		_, err := ParseAmount(c.in)
		if !errors.Is(err, c.wantErr) {
			t.Errorf("ParseAmount(%q): got %v, want %v", c.in, err, c.wantErr)
		}
	}
}

func TestAmountString(t *testing.T) {
	cases := []struct {
		in   Amount
		want string
	}{
		{15000, "150.00"},
		{15050, "150.50"},
		{1, "0.01"},
		{0, "0.00"},
		{-4299, "-42.99"},
	}
	for _, c := range cases {
		if got := c.in.String(); got != c.want {
			t.Errorf("Amount(%d).String() = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestAmountPercentHalfUpRounding(t *testing.T) {
	cases := []struct {
		in   Amount
		rate int64
		want Amount
	}{
		{15000, 10, 1500},  // 150.00 -> 15.00
		{105, 10, 11},      // 1.05 -> 0.105 rounds to 0.11
		{104, 10, 10},      // 1.04 -> 0.104 rounds to 0.10
		{1, 10, 0},         // 0.01 -> 0.001 rounds to 0.00
		{5, 10, 1},         // 0.05 -> 0.005 rounds up
		{-105, 10, -11},    // symmetric for negatives
		{20000, 0, 0},
	}
	for _, c := range cases {
		if got := c.in.Percent(c.rate); got != c.want {
			t.Errorf("Amount(%d).Percent(%d) = %d, want %d", c.in, c.rate, got, c.want)
		}
	}
}

func TestAmountJSONRoundTrip(t *testing.T) {
	raw, err := json.Marshal(Amount(15000))
	if err != nil {
		t.Fatal(err)
	}
	if string(raw) != "150.00" {
		t.Fatalf("marshal: got %s, want 150.00", raw)
	}

	var a Amount
	if err := json.Unmarshal([]byte("150.00"), &a); err != nil {
		t.Fatal(err)
	}
	if a != 15000 {
		t.Fatalf("unmarshal number: got %d", a)
	}

	if err := json.Unmarshal([]byte(`"42.50"`), &a); err != nil {
		t.Fatal(err)
	}
	if a != 4250 {
		t.Fatalf("unmarshal string: got %d", a)
	}
}
