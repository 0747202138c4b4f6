package extract

import (
	"fmt"
	"math"
	"strings"

	"github.com/dvloznov/receipt-auditor/internal/domain"
)

// Validation is the outcome of the post-extraction sanity checks. Warnings
// never block ingestion; they are surfaced so an operator can spot receipts
// the model probably misread.
type Validation struct {
	Status      string             `json:"status"` // valid | warning | error
	Warnings    []string           `json:"warnings"`
	Corrections map[string]float64 `json:"corrections"`
	ItemsSum    float64            `json:"items_sum"`
}

// ValidateExtraction cross-checks the extracted receipt against its own
// numbers. raw carries the optional subtotal/tax_rate fields that exist only
// in the model output, not in the domain model.
func ValidateExtraction(r *domain.Receipt, items []domain.LineItem, raw map[string]interface{}) Validation {
	v := Validation{Corrections: make(map[string]float64)}
	v.ItemsSum = domain.ItemsTotal(items)

	if r.TotalAmount != 0 && math.Abs(v.ItemsSum-r.TotalAmount) > 0.01 {
		diff := math.Abs(v.ItemsSum - r.TotalAmount)
		v.Warnings = append(v.Warnings, fmt.Sprintf(
			"total (%.2f€) does not match the item sum (%.2f€), difference %.2f€",
			r.TotalAmount, v.ItemsSum, diff))
		if v.ItemsSum > 0 {
			v.Corrections["total"] = v.ItemsSum
		}
	}

	if subtotal, taxRate := optionalNumber(raw, "subtotal"), optionalNumber(raw, "tax_rate"); r.TaxAmount != nil && subtotal != nil && taxRate != nil {
		expected := *subtotal * (*taxRate / 100)
		if math.Abs(*r.TaxAmount-expected) > 0.01 {
			v.Warnings = append(v.Warnings, fmt.Sprintf(
				"tax (%.2f€) does not match the computed tax (%.2f€)", *r.TaxAmount, expected))
		}
	}

	if len(items) == 0 {
		v.Warnings = append(v.Warnings, "no line items found - the receipt may be incomplete")
	}

	vendor := strings.ToLower(r.VendorName)
	if vendor == "" || vendor == strings.ToLower(UnknownVendor) {
		v.Warnings = append(v.Warnings, "vendor name is missing or could not be extracted")
	}

	if r.Date.IsZero() {
		v.Warnings = append(v.Warnings, "date is missing - needed for date-window queries")
	}

	switch {
	case len(v.Warnings) == 0:
		v.Status = "valid"
	case len(v.Warnings) <= 2:
		v.Status = "warning"
	default:
		v.Status = "error"
	}
	return v
}

func optionalNumber(raw map[string]interface{}, key string) *float64 {
	f, err := getOptionalFloat64Field(raw, key)
	if err != nil {
		return nil
	}
	return f
}
