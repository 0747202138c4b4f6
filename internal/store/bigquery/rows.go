package bigquery

import (
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"

	"github.com/dvloznov/receipt-auditor/internal/domain"
)

// ReceiptRow maps a domain.Receipt into the bookkeeping.receipts table schema.
type ReceiptRow struct {
	ReceiptID  string `bigquery:"receipt_id"`  // REQUIRED
	VendorName string `bigquery:"vendor_name"` // REQUIRED

	PurchaseDateTime civil.DateTime `bigquery:"purchase_datetime"` // DATETIME, REQUIRED
	PurchaseDate     civil.Date     `bigquery:"purchase_date"`     // DATE, REQUIRED

	TotalAmount float64              `bigquery:"total_amount"` // NUMERIC, REQUIRED
	TaxAmount   bigquery.NullFloat64 `bigquery:"tax_amount"`   // NUMERIC, NULLABLE

	Currency string              `bigquery:"currency"` // REQUIRED
	Category bigquery.NullString `bigquery:"category"` // NULLABLE

	FlagDuplicate  bool `bigquery:"flag_duplicate"`
	FlagSuspicious bool `bigquery:"flag_suspicious"`
	FlagMissingVAT bool `bigquery:"flag_missing_vat"`
	FlagMathError  bool `bigquery:"flag_math_error"`

	CreatedTS time.Time `bigquery:"created_ts"` // REQUIRED (default CURRENT_TIMESTAMP())
}

// LineItemRow maps a domain.LineItem into bookkeeping.line_items.
type LineItemRow struct {
	LineItemID string `bigquery:"line_item_id"` // REQUIRED
	ReceiptID  string `bigquery:"receipt_id"`   // REQUIRED

	LineIndex   int64  `bigquery:"line_index"` // INTEGER → int64
	Description string `bigquery:"description"`

	Amount float64 `bigquery:"amount"` // NUMERIC, REQUIRED (line total)
}

func receiptToRow(r *domain.Receipt) *ReceiptRow {
	row := &ReceiptRow{
		ReceiptID:        r.ID,
		VendorName:       r.VendorName,
		PurchaseDateTime: civil.DateTimeOf(r.Date),
		PurchaseDate:     civil.DateOf(r.Date),
		TotalAmount:      r.TotalAmount,
		Currency:         r.Currency,
		FlagDuplicate:    r.Flags.Duplicate,
		FlagSuspicious:   r.Flags.Suspicious,
		FlagMissingVAT:   r.Flags.MissingVAT,
		FlagMathError:    r.Flags.MathError,
		CreatedTS:        r.CreatedAt,
	}
	if r.TaxAmount != nil {
		row.TaxAmount = bigquery.NullFloat64{Float64: *r.TaxAmount, Valid: true}
	}
	if r.Category != "" {
		row.Category = bigquery.NullString{StringVal: r.Category, Valid: true}
	}
	return row
}

func rowToReceipt(row *ReceiptRow) *domain.Receipt {
	r := &domain.Receipt{
		ID:          row.ReceiptID,
		VendorName:  row.VendorName,
		Date:        row.PurchaseDateTime.In(time.UTC),
		TotalAmount: row.TotalAmount,
		Currency:    row.Currency,
		Flags: domain.AuditFlags{
			Duplicate:  row.FlagDuplicate,
			Suspicious: row.FlagSuspicious,
			MissingVAT: row.FlagMissingVAT,
			MathError:  row.FlagMathError,
		},
		CreatedAt: row.CreatedTS,
	}
	if row.TaxAmount.Valid {
		tax := row.TaxAmount.Float64
		r.TaxAmount = &tax
	}
	if row.Category.Valid {
		r.Category = row.Category.StringVal
	}
	return r
}
