package store

import (
	"context"
	"errors"
	"time"

	"github.com/dvloznov/receipt-auditor/internal/domain"
)

// ErrNotFound is returned when a receipt does not exist in the store.
var ErrNotFound = errors.New("receipt not found")

// ReceiptRepository is the storage boundary the core operates against.
// Queries always see a point-in-time snapshot; the core never mutates
// shared state through it except during a single receipt's ingestion.
type ReceiptRepository interface {
	// InsertReceipt stores a receipt together with its line items in one
	// step. The receipt must already carry an ID; line items are linked
	// to it before insertion.
	InsertReceipt(ctx context.Context, r *domain.Receipt, items []domain.LineItem) error

	// UpdateAuditFlags persists recomputed audit flags for a receipt.
	UpdateAuditFlags(ctx context.Context, receiptID string, flags domain.AuditFlags) error

	// GetReceipt returns one receipt by ID, or ErrNotFound.
	GetReceipt(ctx context.Context, receiptID string) (*domain.Receipt, error)

	// ListReceipts returns the full receipt snapshot.
	ListReceipts(ctx context.Context) ([]*domain.Receipt, error)

	// ListLineItems returns the line items belonging to one receipt.
	ListLineItems(ctx context.Context, receiptID string) ([]domain.LineItem, error)

	// DistinctVendors returns the distinct vendor names currently stored.
	DistinctVendors(ctx context.Context) ([]string, error)

	// DistinctCategories returns the distinct non-empty category values.
	DistinctCategories(ctx context.Context) ([]string, error)

	// ExistsDuplicate reports whether another receipt (different ID) with
	// the same vendor, date and total exists.
	ExistsDuplicate(ctx context.Context, vendorName string, date time.Time, totalAmount float64, excludeID string) (bool, error)

	// DeleteAll removes every receipt and line item. Used by bulk reseeding.
	DeleteAll(ctx context.Context) error
}
