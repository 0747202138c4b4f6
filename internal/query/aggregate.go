package query

import (
	"math"
	"sort"

	"github.com/dvloznov/receipt-auditor/internal/classify"
	"github.com/dvloznov/receipt-auditor/internal/domain"
)

// AmountRef points at the receipt with the smallest or largest total.
type AmountRef struct {
	Vendor string  `json:"vendor"`
	Total  float64 `json:"total"`
}

// VendorTotal is one entry of the top-vendors breakdown.
type VendorTotal struct {
	Vendor string  `json:"vendor"`
	Total  float64 `json:"total"`
}

// CategoryTotal is one entry of the top-categories breakdown.
type CategoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// ReceiptSummary is the per-receipt detail row in the stats payload.
type ReceiptSummary struct {
	ID       string            `json:"id"`
	Vendor   string            `json:"vendor"`
	Date     string            `json:"date"`
	Total    float64           `json:"total"`
	Category string            `json:"category"`
	Flags    domain.AuditFlags `json:"flags"`
}

// Stats is the aggregation payload handed to the response generator. All
// monetary values are rounded to two decimal places at this boundary;
// internal summation is unrounded.
type Stats struct {
	Total         float64          `json:"total"`
	Count         int              `json:"count"`
	Average       float64          `json:"average"`
	Filter        string           `json:"filter"`
	Min           *AmountRef       `json:"min,omitempty"`
	Max           *AmountRef       `json:"max,omitempty"`
	TopVendors    []VendorTotal    `json:"top_vendors"`
	TopCategories []CategoryTotal  `json:"top_categories"`
	Receipts      []ReceiptSummary `json:"receipts"`
}

const detailLimit = 20

// Aggregate computes the summary statistics over an already-filtered
// snapshot. It is a pure function: the same input always produces the same
// payload, and an empty snapshot yields zero aggregates instead of an error.
func Aggregate(receipts []*domain.Receipt, filterDescription string) Stats {
	stats := Stats{
		Count:  len(receipts),
		Filter: filterDescription,
	}

	var total float64
	for _, r := range receipts {
		total += r.TotalAmount
	}
	stats.Total = round2(total)
	if stats.Count > 0 {
		stats.Average = round2(total / float64(stats.Count))
	}

	if len(receipts) > 0 {
		minR, maxR := receipts[0], receipts[0]
		for _, r := range receipts[1:] {
			if r.TotalAmount < minR.TotalAmount {
				minR = r
			}
			if r.TotalAmount > maxR.TotalAmount {
				maxR = r
			}
		}
		stats.Min = &AmountRef{Vendor: minR.VendorName, Total: minR.TotalAmount}
		stats.Max = &AmountRef{Vendor: maxR.VendorName, Total: maxR.TotalAmount}
	}

	stats.TopVendors = topVendors(receipts)
	stats.TopCategories = topCategories(receipts)

	for i, r := range receipts {
		if i == detailLimit {
			break
		}
		category := r.Category
		if category == "" {
			category = classify.CategoryOther
		}
		stats.Receipts = append(stats.Receipts, ReceiptSummary{
			ID:       r.ID,
			Vendor:   r.VendorName,
			Date:     r.Date.Format("2006-01-02"),
			Total:    r.TotalAmount,
			Category: category,
			Flags:    r.Flags,
		})
	}

	return stats
}

// topVendors groups by exact vendor name and returns up to five vendors
// sorted by summed total descending. Ties break on the vendor name so the
// payload stays deterministic.
func topVendors(receipts []*domain.Receipt) []VendorTotal {
	totals := make(map[string]float64)
	for _, r := range receipts {
		totals[r.VendorName] += r.TotalAmount
	}

	entries := make([]VendorTotal, 0, len(totals))
	for vendor, total := range totals {
		entries = append(entries, VendorTotal{Vendor: vendor, Total: round2(total)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		return entries[i].Vendor < entries[j].Vendor
	})
	if len(entries) > 5 {
		entries = entries[:5]
	}
	return entries
}

func topCategories(receipts []*domain.Receipt) []CategoryTotal {
	totals := make(map[string]float64)
	for _, r := range receipts {
		category := r.Category
		if category == "" {
			category = classify.CategoryOther
		}
		totals[category] += r.TotalAmount
	}

	entries := make([]CategoryTotal, 0, len(totals))
	for category, total := range totals {
		entries = append(entries, CategoryTotal{Category: category, Total: round2(total)})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Total != entries[j].Total {
			return entries[i].Total > entries[j].Total
		}
		return entries[i].Category < entries[j].Category
	})
	if len(entries) > 5 {
		entries = entries[:5]
	}
	return entries
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
