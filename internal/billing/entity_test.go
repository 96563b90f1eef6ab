package billing

import (
	"testing"

	"medrec/internal/common"
)

func amt(t *testing.T, s string) common.Amount {
	t.Helper()
	a, err := common.ParseAmount(s)
	if err != nil {
		t.Fatalf("ParseAmount(%q): %v", s, err)
	}
	return a
}

func TestCalculateAmounts(t *testing.T) {
	b := &Bill{
		ConsultationFee: amt(t, "150.00"),
		LabTestsFee:     amt(t, "200.00"),
		MedicineFee:     amt(t, "75.50"),
		OtherCharges:    amt(t, "24.50"),
		Discount:        amt(t, "50.00"),
	}
	b.CalculateAmounts()

	if got := b.TotalAmount.String(); got != "450.00" {
		t.Errorf("total: got %s, want 450.00", got)
	}
	// 10% of (450.00 - 50.00)
	if got := b.TaxAmount.String(); got != "40.00" {
		t.Errorf("tax: got %s, want 40.00", got)
	}
	// 450.00 - 50.00 + 40.00
	if got := b.NetAmount.String(); got != "440.00" {
		t.Errorf("net: got %s, want 440.00", got)
	}
}

func TestCalculateAmountsConsultationOnly(t *testing.T) {
	b := &Bill{ConsultationFee: amt(t, "150.00")}
	b.CalculateAmounts()

	if got := b.TotalAmount.String(); got != "150.00" {
		t.Errorf("total: got %s, want 150.00", got)
	}
	if got := b.TaxAmount.String(); got != "15.00" {
		t.Errorf("tax: got %s, want 15.00", got)
	}
	if got := b.NetAmount.String(); got != "165.00" {
		t.Errorf("net: got %s, want 165.00", got)
	}
}

func TestCalculateAmountsTaxRoundsHalfUp(t *testing.T) {
	// 10% of 1.05 is 0.105, rounding to 0.11
	b := &Bill{ConsultationFee: amt(t, "1.05")}
	b.CalculateAmounts()

	if got := b.TaxAmount.String(); got != "0.11" {
		t.Errorf("tax: got %s, want 0.11", got)
	}
	if got := b.NetAmount.String(); got != "1.16" {
		t.Errorf("net: got %s, want 1.16", got)
	}
}

func TestCalculateAmountsRecalculatesAfterChargeChange(t *testing.T) {
	b := &Bill{ConsultationFee: amt(t, "100.00")}
	b.CalculateAmounts()

	b.LabTestsFee = amt(t, "50.00")
	b.CalculateAmounts()

	if got := b.TotalAmount.String(); got != "150.00" {
		t.Errorf("total: got %s, want 150.00", got)
	}
	if got := b.NetAmount.String(); got != "165.00" {
		t.Errorf("net: got %s, want 165.00", got)
	}
}
