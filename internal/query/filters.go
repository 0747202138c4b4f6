package query

import (
	"strings"

	"github.com/dvloznov/receipt-auditor/internal/domain"
)

// Filter is one predicate over the receipt collection together with the
// human-readable description that is surfaced to the user.
type Filter struct {
	Description string
	Match       func(r *domain.Receipt) bool
}

// ApplyFilters narrows the collection with AND semantics, preserving the
// input order of the surviving receipts.
func ApplyFilters(receipts []*domain.Receipt, filters []Filter) []*domain.Receipt {
	result := receipts
	for _, f := range filters {
		var kept []*domain.Receipt
		for _, r := range result {
			if f.Match(r) {
				kept = append(kept, r)
			}
		}
		result = kept
	}
	return result
}

// Describe joins the filter descriptions with " + ", or returns the
// fixed fallback when nothing matched.
func Describe(filters []Filter) string {
	if len(filters) == 0 {
		return "all receipts"
	}
	parts := make([]string, len(filters))
	for i, f := range filters {
		parts[i] = f.Description
	}
	return strings.Join(parts, " + ")
}
