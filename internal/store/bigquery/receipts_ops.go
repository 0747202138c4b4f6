package bigquery

import (
	"context"
	"fmt"
	"os"
	"time"

	"cloud.google.com/go/bigquery"
	"cloud.google.com/go/civil"
	"google.golang.org/api/iterator"

	"github.com/dvloznov/receipt-auditor/internal/domain"
)

const (
	datasetID      = "bookkeeping"
	receiptsTable  = "receipts"
	lineItemsTable = "line_items"
)

// ProjectID resolves the GCP project from the environment.
func ProjectID() string {
	if p := os.Getenv("BQ_PROJECT_ID"); p != "" {
		return p
	}
	return "receipt-auditor-dev"
}

// InsertReceiptWithClient stores a receipt and its line items using the
// provided BigQuery client. The two inserts are not transactional; callers
// seeing a partial write should re-ingest the receipt rather than patch it.
func InsertReceiptWithClient(ctx context.Context, client *bigquery.Client, r *domain.Receipt, items []domain.LineItem) error {
	inserter := client.Dataset(datasetID).Table(receiptsTable).Inserter()
	if err := inserter.Put(ctx, receiptToRow(r)); err != nil {
		return fmt.Errorf("InsertReceipt: inserting receipt row: %w", err)
	}

	if len(items) == 0 {
		return nil
	}

	rows := make([]*LineItemRow, 0, len(items))
	for i, it := range items {
		rows = append(rows, &LineItemRow{
			LineItemID:  it.ID,
			ReceiptID:   r.ID,
			LineIndex:   int64(i),
			Description: it.Description,
			Amount:      it.Amount,
		})
	}

	itemInserter := client.Dataset(datasetID).Table(lineItemsTable).Inserter()
	if err := itemInserter.Put(ctx, rows); err != nil {
		return fmt.Errorf("InsertReceipt: inserting line item rows: %w", err)
	}

	return nil
}

// UpdateAuditFlagsWithClient persists recomputed audit flags for a receipt.
func UpdateAuditFlagsWithClient(ctx context.Context, client *bigquery.Client, receiptID string, flags domain.AuditFlags) error {
	q := client.Query(fmt.Sprintf(`
		UPDATE %s.%s
		SET flag_duplicate = @flag_duplicate,
		    flag_suspicious = @flag_suspicious,
		    flag_missing_vat = @flag_missing_vat,
		    flag_math_error = @flag_math_error
		WHERE receipt_id = @receipt_id
	`, datasetID, receiptsTable))

	q.Parameters = []bigquery.QueryParameter{
		{Name: "flag_duplicate", Value: flags.Duplicate},
		{Name: "flag_suspicious", Value: flags.Suspicious},
		{Name: "flag_missing_vat", Value: flags.MissingVAT},
		{Name: "flag_math_error", Value: flags.MathError},
		{Name: "receipt_id", Value: receiptID},
	}

	job, err := q.Run(ctx)
	if err != nil {
		return fmt.Errorf("UpdateAuditFlags: running update query: %w", err)
	}
	status, err := job.Wait(ctx)
	if err != nil {
		return fmt.Errorf("UpdateAuditFlags: waiting for job: %w", err)
	}
	if err := status.Err(); err != nil {
		return fmt.Errorf("UpdateAuditFlags: job error: %w", err)
	}

	return nil
}

// GetReceiptWithClient returns one receipt by ID.
func GetReceiptWithClient(ctx context.Context, client *bigquery.Client, receiptID string) (*domain.Receipt, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT *
		FROM %s.%s
		WHERE receipt_id = @receipt_id
		LIMIT 1
	`, datasetID, receiptsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "receipt_id", Value: receiptID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("GetReceipt: query read: %w", err)
	}

	var row ReceiptRow
	err = it.Next(&row)
	if err == iterator.Done {
		return nil, fmt.Errorf("GetReceipt: %s: not found", receiptID)
	}
	if err != nil {
		return nil, fmt.Errorf("GetReceipt: iter next: %w", err)
	}

	return rowToReceipt(&row), nil
}

// ListReceiptsWithClient returns the full receipt snapshot ordered by
// creation time, so repeated aggregations see a stable order.
func ListReceiptsWithClient(ctx context.Context, client *bigquery.Client) ([]*domain.Receipt, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT *
		FROM %s.%s
		ORDER BY created_ts, receipt_id
	`, datasetID, receiptsTable))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListReceipts: query read: %w", err)
	}

	var receipts []*domain.Receipt
	for {
		var row ReceiptRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListReceipts: iter next: %w", err)
		}
		receipts = append(receipts, rowToReceipt(&row))
	}

	return receipts, nil
}

// ListLineItemsWithClient returns the line items of one receipt in line order.
func ListLineItemsWithClient(ctx context.Context, client *bigquery.Client, receiptID string) ([]domain.LineItem, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT *
		FROM %s.%s
		WHERE receipt_id = @receipt_id
		ORDER BY line_index
	`, datasetID, lineItemsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "receipt_id", Value: receiptID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("ListLineItems: query read: %w", err)
	}

	var items []domain.LineItem
	for {
		var row LineItemRow
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListLineItems: iter next: %w", err)
		}
		items = append(items, domain.LineItem{
			ID:          row.LineItemID,
			ReceiptID:   row.ReceiptID,
			Description: row.Description,
			Amount:      row.Amount,
		})
	}

	return items, nil
}

// DistinctVendorsWithClient returns the distinct vendor names currently stored.
func DistinctVendorsWithClient(ctx context.Context, client *bigquery.Client) ([]string, error) {
	return distinctColumn(ctx, client, "vendor_name", false)
}

// DistinctCategoriesWithClient returns the distinct non-null categories.
func DistinctCategoriesWithClient(ctx context.Context, client *bigquery.Client) ([]string, error) {
	return distinctColumn(ctx, client, "category", true)
}

func distinctColumn(ctx context.Context, client *bigquery.Client, column string, skipNull bool) ([]string, error) {
	where := ""
	if skipNull {
		where = fmt.Sprintf("WHERE %s IS NOT NULL", column)
	}
	q := client.Query(fmt.Sprintf(`
		SELECT DISTINCT %s AS value
		FROM %s.%s
		%s
		ORDER BY value
	`, column, datasetID, receiptsTable, where))

	it, err := q.Read(ctx)
	if err != nil {
		return nil, fmt.Errorf("distinctColumn(%s): query read: %w", column, err)
	}

	var values []string
	for {
		var row struct {
			Value string `bigquery:"value"`
		}
		err := it.Next(&row)
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("distinctColumn(%s): iter next: %w", column, err)
		}
		values = append(values, row.Value)
	}

	return values, nil
}

// ExistsDuplicateWithClient reports whether another receipt with the same
// (vendor, date, total) tuple exists. The match is by tuple, not content.
func ExistsDuplicateWithClient(ctx context.Context, client *bigquery.Client, vendorName string, date time.Time, totalAmount float64, excludeID string) (bool, error) {
	q := client.Query(fmt.Sprintf(`
		SELECT COUNT(*) AS n
		FROM %s.%s
		WHERE vendor_name = @vendor_name
		  AND purchase_datetime = @purchase_datetime
		  AND total_amount = @total_amount
		  AND receipt_id != @exclude_id
	`, datasetID, receiptsTable))
	q.Parameters = []bigquery.QueryParameter{
		{Name: "vendor_name", Value: vendorName},
		{Name: "purchase_datetime", Value: civil.DateTimeOf(date)},
		{Name: "total_amount", Value: totalAmount},
		{Name: "exclude_id", Value: excludeID},
	}

	it, err := q.Read(ctx)
	if err != nil {
		return false, fmt.Errorf("ExistsDuplicate: query read: %w", err)
	}

	var row struct {
		N int64 `bigquery:"n"`
	}
	if err := it.Next(&row); err != nil && err != iterator.Done {
		return false, fmt.Errorf("ExistsDuplicate: iter next: %w", err)
	}

	return row.N > 0, nil
}

// DeleteAllWithClient truncates both tables. Used by bulk reseeding only.
func DeleteAllWithClient(ctx context.Context, client *bigquery.Client) error {
	for _, table := range []string{lineItemsTable, receiptsTable} {
		q := client.Query(fmt.Sprintf(`TRUNCATE TABLE %s.%s`, datasetID, table))
		job, err := q.Run(ctx)
		if err != nil {
			return fmt.Errorf("DeleteAll: truncating %s: %w", table, err)
		}
		status, err := job.Wait(ctx)
		if err != nil {
			return fmt.Errorf("DeleteAll: waiting for %s truncate: %w", table, err)
		}
		if err := status.Err(); err != nil {
			return fmt.Errorf("DeleteAll: truncate %s job error: %w", table, err)
		}
	}
	return nil
}
