package domain

import (
	"time"
)

// Receipt represents one recorded purchase event. This is a domain struct,
// not a BigQuery row; the store layer maps it into the bookkeeping.receipts
// table schema.
type Receipt struct {
	ID         string    `json:"id"`
	VendorName string    `json:"vendor"`
	Date       time.Time `json:"date"`

	TotalAmount float64  `json:"total"`
	TaxAmount   *float64 `json:"tax,omitempty"` // nil when the receipt shows no VAT at all
	Currency    string   `json:"currency"`

	Category string `json:"category,omitempty"` // empty until classified

	Flags AuditFlags `json:"flags"`

	CreatedAt time.Time `json:"created_at"`
}

// AuditFlags are derived booleans, recomputed whenever line items or totals
// change. They are never authoritative on their own.
type AuditFlags struct {
	Duplicate  bool `json:"duplicate"`
	Suspicious bool `json:"suspicious"`
	MissingVAT bool `json:"missing_vat"`
	MathError  bool `json:"math_error"`
}

// Any reports whether at least one audit flag is set.
func (f AuditFlags) Any() bool {
	return f.Duplicate || f.Suspicious || f.MissingVAT || f.MathError
}

// LineItem is one purchased position on a receipt. Amount is the line total
// for that position (quantity already multiplied in), never a unit price.
type LineItem struct {
	ID          string  `json:"id"`
	ReceiptID   string  `json:"receipt_id"`
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

// ItemsTotal sums the line totals of the given items.
func ItemsTotal(items []LineItem) float64 {
	var sum float64
	for _, it := range items {
		sum += it.Amount
	}
	return sum
}
