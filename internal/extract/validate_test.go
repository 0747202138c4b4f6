package extract

import (
	"math"
	"strings"
	"testing"
	"time"

	"github.com/dvloznov/receipt-auditor/internal/domain"
)

func taxOf(f float64) *float64 { return &f }

func TestValidateExtraction_CleanReceipt(t *testing.T) {
	r := &domain.Receipt{
		VendorName:  "Rewe",
		Date:        time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		TotalAmount: 6.07,
		TaxAmount:   taxOf(0.40),
	}
	items := []domain.LineItem{
		{Description: "Milk", Amount: 2.58},
		{Description: "Bread", Amount: 3.49},
	}

	v := ValidateExtraction(r, items, map[string]interface{}{})
	if v.Status != "valid" {
		t.Errorf("status = %q, warnings = %v", v.Status, v.Warnings)
	}
	if math.Abs(v.ItemsSum-6.07) > 1e-9 {
		t.Errorf("items sum = %v", v.ItemsSum)
	}
}

func TestValidateExtraction_TotalMismatch(t *testing.T) {
	r := &domain.Receipt{
		VendorName:  "MediaMarkt",
		Date:        time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		TotalAmount: 50.00,
		TaxAmount:   taxOf(7.98),
	}
	items := []domain.LineItem{{Description: "USB Cable", Amount: 45.00}}

	v := ValidateExtraction(r, items, map[string]interface{}{})
	if v.Status != "warning" {
		t.Errorf("status = %q", v.Status)
	}
	if len(v.Warnings) != 1 || !strings.Contains(v.Warnings[0], "difference 5.00€") {
		t.Errorf("warnings = %v", v.Warnings)
	}
	if v.Corrections["total"] != 45.00 {
		t.Errorf("corrections = %v, want suggested total 45.00", v.Corrections)
	}
}

func TestValidateExtraction_TaxInconsistency(t *testing.T) {
	r := &domain.Receipt{
		VendorName:  "Saturn",
		Date:        time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		TotalAmount: 119.00,
		TaxAmount:   taxOf(10.00),
	}
	items := []domain.LineItem{{Description: "Keyboard", Amount: 119.00}}
	raw := map[string]interface{}{"subtotal": 100.0, "tax_rate": 19.0}

	v := ValidateExtraction(r, items, raw)
	if len(v.Warnings) != 1 || !strings.Contains(v.Warnings[0], "computed tax (19.00€)") {
		t.Errorf("warnings = %v", v.Warnings)
	}
}

func TestValidateExtraction_DegradedReceipt(t *testing.T) {
	// No vendor, no date, no items: three warnings push the status to error.
	r := &domain.Receipt{VendorName: UnknownVendor, TotalAmount: 0}

	v := ValidateExtraction(r, nil, map[string]interface{}{})
	if v.Status != "error" {
		t.Errorf("status = %q, warnings = %v", v.Status, v.Warnings)
	}
	if len(v.Warnings) != 3 {
		t.Errorf("warnings = %v, want 3", v.Warnings)
	}
}
