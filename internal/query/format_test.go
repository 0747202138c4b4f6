package query

import (
	"strings"
	"testing"

	"github.com/dvloznov/receipt-auditor/internal/domain"
)

func TestFormatForGenerator_Empty(t *testing.T) {
	got := FormatForGenerator(Stats{Filter: "all receipts"})

	want := strings.Join([]string{
		"",
		"============================================================",
		"PRECISE CALCULATIONS (precomputed, 100% correct)",
		"============================================================",
		"",
		"MAIN RESULTS (use EXACTLY these numbers):",
		"   Total: 0.00€",
		"   Count: 0 receipts",
		"   Average: 0.00€",
		"   Filter: all receipts",
		"",
		"============================================================",
		"USE THE NUMBER AFTER 'Total:' AS YOUR ANSWER - DO NOT RECALCULATE",
		"============================================================",
	}, "\n")

	if got != want {
		t.Errorf("formatted block mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}
}

func TestFormatForGenerator_Full(t *testing.T) {
	stats := Stats{
		Total:   387.79,
		Count:   3,
		Average: 129.26,
		Filter:  "vendor: Shell + last 30 days",
		Min:     &AmountRef{Vendor: "Aldi", Total: 15.30},
		Max:     &AmountRef{Vendor: "Saturn", Total: 299.99},
		TopVendors: []VendorTotal{
			{Vendor: "Saturn", Total: 299.99},
			{Vendor: "Shell", Total: 72.50},
		},
		TopCategories: []CategoryTotal{
			{Category: "Electronics", Total: 299.99},
		},
		Receipts: []ReceiptSummary{
			{ID: "r1", Vendor: "Shell", Date: "2025-05-10", Total: 72.50, Category: "Fuel",
				Flags: domain.AuditFlags{Duplicate: true, MissingVAT: true}},
			{ID: "r2", Vendor: "Saturn", Date: "2025-05-11", Total: 299.99, Category: "Electronics"},
		},
	}

	got := FormatForGenerator(stats)

	want := strings.Join([]string{
		"",
		"============================================================",
		"PRECISE CALCULATIONS (precomputed, 100% correct)",
		"============================================================",
		"",
		"MAIN RESULTS (use EXACTLY these numbers):",
		"   Total: 387.79€",
		"   Count: 3 receipts",
		"   Average: 129.26€",
		"   Filter: vendor: Shell + last 30 days",
		"",
		"Smallest: 15.30€ (Aldi)",
		"Largest: 299.99€ (Saturn)",
		"",
		"Top Vendors:",
		"   1. Saturn: 299.99€",
		"   2. Shell: 72.50€",
		"",
		"Top Categories:",
		"   1. Electronics: 299.99€",
		"",
		"Receipt Details (first 2):",
		"   1. Shell: 72.50€ (Fuel) DUP VAT",
		"   2. Saturn: 299.99€ (Electronics)",
		"",
		"============================================================",
		"USE THE NUMBER AFTER 'Total:' AS YOUR ANSWER - DO NOT RECALCULATE",
		"============================================================",
	}, "\n")

	if got != want {
		t.Errorf("formatted block mismatch:\ngot:\n%s\nwant:\n%s", got, want)
	}

	if FormatForGenerator(stats) != got {
		t.Error("formatter output is not deterministic")
	}
}
