package bigquery

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/bigquery"

	"github.com/dvloznov/receipt-auditor/internal/domain"
	"github.com/dvloznov/receipt-auditor/internal/store"
)

// BigQueryReceiptRepository is the concrete implementation of
// store.ReceiptRepository backed by BigQuery. It holds a shared client to
// avoid creating a new connection for each operation.
type BigQueryReceiptRepository struct {
	client *bigquery.Client
}

// NewBigQueryReceiptRepository creates a repository with a shared BigQuery client.
func NewBigQueryReceiptRepository(ctx context.Context) (*BigQueryReceiptRepository, error) {
	client, err := bigquery.NewClient(ctx, ProjectID())
	if err != nil {
		return nil, fmt.Errorf("NewBigQueryReceiptRepository: creating client: %w", err)
	}
	return &BigQueryReceiptRepository{client: client}, nil
}

// Close closes the BigQuery client connection.
func (r *BigQueryReceiptRepository) Close() error {
	if r.client != nil {
		return r.client.Close()
	}
	return nil
}

// InsertReceipt delegates to InsertReceiptWithClient with the shared client.
func (r *BigQueryReceiptRepository) InsertReceipt(ctx context.Context, receipt *domain.Receipt, items []domain.LineItem) error {
	return InsertReceiptWithClient(ctx, r.client, receipt, items)
}

// UpdateAuditFlags delegates to UpdateAuditFlagsWithClient with the shared client.
func (r *BigQueryReceiptRepository) UpdateAuditFlags(ctx context.Context, receiptID string, flags domain.AuditFlags) error {
	return UpdateAuditFlagsWithClient(ctx, r.client, receiptID, flags)
}

// GetReceipt delegates to GetReceiptWithClient with the shared client.
func (r *BigQueryReceiptRepository) GetReceipt(ctx context.Context, receiptID string) (*domain.Receipt, error) {
	return GetReceiptWithClient(ctx, r.client, receiptID)
}

// ListReceipts delegates to ListReceiptsWithClient with the shared client.
func (r *BigQueryReceiptRepository) ListReceipts(ctx context.Context) ([]*domain.Receipt, error) {
	return ListReceiptsWithClient(ctx, r.client)
}

// ListLineItems delegates to ListLineItemsWithClient with the shared client.
func (r *BigQueryReceiptRepository) ListLineItems(ctx context.Context, receiptID string) ([]domain.LineItem, error) {
	return ListLineItemsWithClient(ctx, r.client, receiptID)
}

// DistinctVendors delegates to DistinctVendorsWithClient with the shared client.
func (r *BigQueryReceiptRepository) DistinctVendors(ctx context.Context) ([]string, error) {
	return DistinctVendorsWithClient(ctx, r.client)
}

// DistinctCategories delegates to DistinctCategoriesWithClient with the shared client.
func (r *BigQueryReceiptRepository) DistinctCategories(ctx context.Context) ([]string, error) {
	return DistinctCategoriesWithClient(ctx, r.client)
}

// ExistsDuplicate delegates to ExistsDuplicateWithClient with the shared client.
func (r *BigQueryReceiptRepository) ExistsDuplicate(ctx context.Context, vendorName string, date time.Time, totalAmount float64, excludeID string) (bool, error) {
	return ExistsDuplicateWithClient(ctx, r.client, vendorName, date, totalAmount, excludeID)
}

// DeleteAll delegates to DeleteAllWithClient with the shared client.
func (r *BigQueryReceiptRepository) DeleteAll(ctx context.Context) error {
	return DeleteAllWithClient(ctx, r.client)
}

// Ensure BigQueryReceiptRepository implements the repository interface.
var _ store.ReceiptRepository = (*BigQueryReceiptRepository)(nil)
