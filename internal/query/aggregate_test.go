package query

import (
	"fmt"
	"reflect"
	"sort"
	"testing"
	"time"

	"github.com/dvloznov/receipt-auditor/internal/domain"
)

func testReceipt(id, vendor string, total float64, category string) *domain.Receipt {
	return &domain.Receipt{
		ID:          id,
		VendorName:  vendor,
		Date:        time.Date(2025, 5, 10, 0, 0, 0, 0, time.UTC),
		TotalAmount: total,
		Category:    category,
	}
}

func TestAggregate_Empty(t *testing.T) {
	stats := Aggregate(nil, "all receipts")

	if stats.Total != 0 || stats.Count != 0 || stats.Average != 0 {
		t.Errorf("empty aggregate = %+v, want zero totals", stats)
	}
	if stats.Min != nil || stats.Max != nil {
		t.Error("min/max should be absent for an empty collection")
	}
	if stats.Filter != "all receipts" {
		t.Errorf("filter = %q, want passthrough", stats.Filter)
	}
}

func TestAggregate_UnderFilter(t *testing.T) {
	receipts := []*domain.Receipt{
		testReceipt("r1", "Rewe", 10.00, "Groceries"),
		testReceipt("r2", "IKEA", 20.00, "Furniture"),
		testReceipt("r3", "Saturn", 30.00, "Electronics"),
	}
	under25 := Filter{
		Description: "under 25.00€",
		Match:       func(r *domain.Receipt) bool { return r.TotalAmount < 25 },
	}

	filtered := ApplyFilters(receipts, []Filter{under25})
	stats := Aggregate(filtered, Describe([]Filter{under25}))

	if stats.Total != 30.00 || stats.Count != 2 || stats.Average != 15.00 {
		t.Errorf("stats = total %.2f count %d average %.2f, want 30.00 / 2 / 15.00",
			stats.Total, stats.Count, stats.Average)
	}
	if stats.Filter != "under 25.00€" {
		t.Errorf("filter = %q", stats.Filter)
	}
	if stats.Min == nil || stats.Min.Vendor != "Rewe" || stats.Min.Total != 10.00 {
		t.Errorf("min = %+v, want Rewe 10.00", stats.Min)
	}
	if stats.Max == nil || stats.Max.Vendor != "IKEA" || stats.Max.Total != 20.00 {
		t.Errorf("max = %+v, want IKEA 20.00", stats.Max)
	}
}

func TestAggregate_TopBreakdowns(t *testing.T) {
	var receipts []*domain.Receipt
	// Six vendors so the top list truncates; two of them tie on total.
	vendors := []struct {
		name  string
		total float64
	}{
		{"Saturn", 300}, {"Shell", 200}, {"Rewe", 100},
		{"Aldi", 100}, {"IKEA", 50}, {"Aral", 25},
	}
	for i, v := range vendors {
		receipts = append(receipts, testReceipt(fmt.Sprintf("r%d", i), v.name, v.total, ""))
	}

	stats := Aggregate(receipts, "all receipts")

	wantVendors := []VendorTotal{
		{"Saturn", 300}, {"Shell", 200},
		{"Aldi", 100}, {"Rewe", 100}, // tie resolved by name
		{"IKEA", 50},
	}
	if !reflect.DeepEqual(stats.TopVendors, wantVendors) {
		t.Errorf("top vendors = %v, want %v", stats.TopVendors, wantVendors)
	}

	// Empty categories all land in the Other bucket.
	wantCategories := []CategoryTotal{{"Other", 775}}
	if !reflect.DeepEqual(stats.TopCategories, wantCategories) {
		t.Errorf("top categories = %v, want %v", stats.TopCategories, wantCategories)
	}
}

func TestAggregate_Idempotent(t *testing.T) {
	receipts := []*domain.Receipt{
		testReceipt("r1", "Shell", 72.50, "Fuel"),
		testReceipt("r2", "Saturn", 299.99, "Electronics"),
	}

	first := Aggregate(receipts, "all receipts")
	second := Aggregate(receipts, "all receipts")
	if !reflect.DeepEqual(first, second) {
		t.Error("aggregation is not idempotent")
	}
}

func TestAggregate_DetailLimit(t *testing.T) {
	var receipts []*domain.Receipt
	for i := 0; i < 25; i++ {
		receipts = append(receipts, testReceipt(fmt.Sprintf("r%d", i), "Rewe", 5, "Groceries"))
	}

	stats := Aggregate(receipts, "all receipts")
	if len(stats.Receipts) != 20 {
		t.Errorf("detail list length = %d, want 20", len(stats.Receipts))
	}
	if stats.Receipts[0].ID != "r0" || stats.Receipts[19].ID != "r19" {
		t.Error("detail list should keep the first 20 receipts in arrival order")
	}
	if stats.Receipts[0].Date != "2025-05-10" {
		t.Errorf("detail date = %q, want ISO date", stats.Receipts[0].Date)
	}
}

func TestApplyFilters_OrderIndependentEffect(t *testing.T) {
	receipts := []*domain.Receipt{
		testReceipt("r1", "Shell", 72.50, "Fuel"),
		testReceipt("r2", "Shell", 30.00, "Meals"),
		testReceipt("r3", "Aral", 65.00, "Fuel"),
	}
	vendorShell := Filter{
		Description: "vendor: Shell",
		Match:       func(r *domain.Receipt) bool { return r.VendorName == "Shell" },
	}
	categoryFuel := Filter{
		Description: "category: Fuel",
		Match:       func(r *domain.Receipt) bool { return r.Category == "Fuel" },
	}

	ids := func(rs []*domain.Receipt) []string {
		var out []string
		for _, r := range rs {
			out = append(out, r.ID)
		}
		sort.Strings(out)
		return out
	}

	a := ids(ApplyFilters(receipts, []Filter{vendorShell, categoryFuel}))
	b := ids(ApplyFilters(receipts, []Filter{categoryFuel, vendorShell}))
	if !reflect.DeepEqual(a, b) {
		t.Errorf("filter order changed the result set: %v vs %v", a, b)
	}
	if !reflect.DeepEqual(a, []string{"r1"}) {
		t.Errorf("filtered ids = %v, want [r1]", a)
	}
}
