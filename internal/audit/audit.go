// Package audit evaluates the fixed bookkeeping checks over one receipt and
// its line items. Flags are derived, never authoritative: they must be
// recomputed whenever line items or totals change.
package audit

import (
	"context"
	"fmt"
	"strings"

	"github.com/dvloznov/receipt-auditor/internal/domain"
	"github.com/dvloznov/receipt-auditor/internal/store"
)

// MathTolerance is the allowed rounding slack between the declared total and
// the sum of line items. Fixed, not configurable.
const MathTolerance = 0.01

// suspiciousKeywords is the bilingual alcohol/tobacco list. Matching is
// case-insensitive substring over line item descriptions.
var suspiciousKeywords = []string{
	"beer", "wine", "vodka", "whiskey", "cigarettes",
	"tobacco", "rum", "champagne", "gin", "tequila",
	"bier", "wein", "schnaps", "zigaretten", "tabak",
}

// RunAudit evaluates all four checks and sets the flags on the receipt.
// The checks are independent; any subset may hold. Line items are never
// mutated. The only failure mode is the repository lookup for duplicates.
func RunAudit(ctx context.Context, receipt *domain.Receipt, items []domain.LineItem, repo store.ReceiptRepository) error {
	flags := domain.AuditFlags{
		MissingVAT: missingVAT(receipt),
		MathError:  mathError(receipt, items),
		Suspicious: hasSuspiciousItem(items),
	}

	dup, err := repo.ExistsDuplicate(ctx, receipt.VendorName, receipt.Date, receipt.TotalAmount, receipt.ID)
	if err != nil {
		return fmt.Errorf("RunAudit: duplicate lookup: %w", err)
	}
	flags.Duplicate = dup

	receipt.Flags = flags
	return nil
}

// missingVAT holds iff the tax amount is absent or exactly zero.
func missingVAT(r *domain.Receipt) bool {
	return r.TaxAmount == nil || *r.TaxAmount == 0
}

// mathError holds iff the line items do not add up to the declared total,
// beyond the fixed rounding tolerance.
func mathError(r *domain.Receipt, items []domain.LineItem) bool {
	diff := domain.ItemsTotal(items) - r.TotalAmount
	if diff < 0 {
		diff = -diff
	}
	return diff > MathTolerance
}

// hasSuspiciousItem scans descriptions for the keyword list. One hit is
// enough, so the scan short-circuits.
func hasSuspiciousItem(items []domain.LineItem) bool {
	for _, it := range items {
		desc := strings.ToLower(it.Description)
		for _, kw := range suspiciousKeywords {
			if strings.Contains(desc, kw) {
				return true
			}
		}
	}
	return false
}

// MathDifference returns the absolute gap between the items sum and the
// declared total, for audit reporting.
func MathDifference(r *domain.Receipt, items []domain.LineItem) float64 {
	diff := domain.ItemsTotal(items) - r.TotalAmount
	if diff < 0 {
		diff = -diff
	}
	return diff
}
