package rag

import (
	"fmt"
	"strings"

	"github.com/dvloznov/receipt-auditor/internal/domain"
)

// RenderDocument converts a receipt into the searchable text indexed in the
// vector store. The rendering is deterministic so re-indexing the same
// receipt produces the same document and embedding.
func RenderDocument(r *domain.Receipt, items []domain.LineItem) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Receipt from %s\n", r.VendorName)
	if r.Date.IsZero() {
		b.WriteString("Date: unknown\n")
	} else {
		fmt.Fprintf(&b, "Date: %s\n", r.Date.Format("2006-01-02"))
	}
	fmt.Fprintf(&b, "Total: %.2f€\n", r.TotalAmount)

	category := r.Category
	if category == "" {
		category = "unknown"
	}
	fmt.Fprintf(&b, "Category: %s\n", category)

	var tax float64
	if r.TaxAmount != nil {
		tax = *r.TaxAmount
	}
	fmt.Fprintf(&b, "VAT: %.2f€\n", tax)

	if len(items) == 0 {
		b.WriteString("Line items: no details")
	} else {
		b.WriteString("Line items:")
		for _, item := range items {
			fmt.Fprintf(&b, "\n  - %s: %.2f€", item.Description, item.Amount)
		}
	}

	return b.String()
}

// RenderContext formats search results into the context string handed to the
// response generator.
func RenderContext(results []SearchResult) string {
	if len(results) == 0 {
		return "No relevant receipts found."
	}

	var parts []string
	for i, res := range results {
		parts = append(parts, fmt.Sprintf("--- Receipt %d (relevance %.0f%%) ---", i+1, res.Similarity*100))
		parts = append(parts, res.Document)
	}
	return strings.Join(parts, "\n\n")
}
