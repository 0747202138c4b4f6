package ingest

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/receipt-auditor/internal/audit"
	"github.com/dvloznov/receipt-auditor/internal/classify"
	"github.com/dvloznov/receipt-auditor/internal/domain"
	"github.com/dvloznov/receipt-auditor/internal/extract"
	"github.com/dvloznov/receipt-auditor/internal/images"
	"github.com/dvloznov/receipt-auditor/internal/logger"
	"github.com/dvloznov/receipt-auditor/internal/store"
)

// Indexer receives every ingested receipt for semantic search. Indexing is
// best-effort: a failure is logged, never fatal to the ingestion.
type Indexer interface {
	IndexReceipt(ctx context.Context, r *domain.Receipt, items []domain.LineItem) error
}

// Service runs the ingestion pipeline: persist the receipt and its line
// items, compute audit flags, persist the flags, then index the receipt.
type Service struct {
	repo      store.ReceiptRepository
	extractor extract.VisionExtractor
	storage   images.StorageService
	index     Indexer
}

// NewService wires the pipeline. extractor and storage may be nil when only
// structured ingestion is needed; index may be nil when no vector store is
// configured.
func NewService(repo store.ReceiptRepository, extractor extract.VisionExtractor, storage images.StorageService, index Indexer) *Service {
	return &Service{repo: repo, extractor: extractor, storage: storage, index: index}
}

// IngestReceipt stores an already-structured receipt. Ids are assigned when
// missing, the category falls back to the vendor table, and the audit flags
// are always recomputed from the data, never trusted from the input.
func (s *Service) IngestReceipt(ctx context.Context, r *domain.Receipt, items []domain.LineItem) error {
	log := logger.FromContext(ctx)

	if r.ID == "" {
		r.ID = uuid.NewString()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now()
	}
	if r.Currency == "" {
		r.Currency = extract.DefaultCurrency
	}
	for i := range items {
		items[i].ReceiptID = r.ID
		if items[i].ID == "" {
			items[i].ID = uuid.NewString()
		}
	}

	if r.Category == "" {
		r.Category = classify.VendorCategory(r.VendorName)
	}

	if err := s.repo.InsertReceipt(ctx, r, items); err != nil {
		return fmt.Errorf("IngestReceipt: inserting receipt: %w", err)
	}

	if err := audit.RunAudit(ctx, r, items, s.repo); err != nil {
		return fmt.Errorf("IngestReceipt: running audit: %w", err)
	}
	if err := s.repo.UpdateAuditFlags(ctx, r.ID, r.Flags); err != nil {
		return fmt.Errorf("IngestReceipt: persisting audit flags: %w", err)
	}

	if s.index != nil {
		if err := s.index.IndexReceipt(ctx, r, items); err != nil {
			log.Warn().Err(err).Str("receipt_id", r.ID).Msg("indexing receipt failed")
		}
	}

	log.Info().
		Str("receipt_id", r.ID).
		Str("vendor", r.VendorName).
		Float64("total", r.TotalAmount).
		Bool("flagged", r.Flags.Any()).
		Msg("receipt ingested")

	return nil
}

// IngestReceiptFromGCS downloads a receipt image, extracts its structure
// with the vision model and runs the regular ingestion on the result.
func (s *Service) IngestReceiptFromGCS(ctx context.Context, gcsURI string) (*domain.Receipt, error) {
	if s.storage == nil || s.extractor == nil {
		return nil, fmt.Errorf("IngestReceiptFromGCS: image ingestion is not configured")
	}

	imageBytes, err := s.storage.FetchImage(ctx, gcsURI)
	if err != nil {
		return nil, fmt.Errorf("IngestReceiptFromGCS: %w", err)
	}

	mimeType := images.MIMETypeForFilename(images.FilenameFromGCSURI(gcsURI))
	receipt, items, err := s.extractor.ExtractReceipt(ctx, imageBytes, mimeType)
	if err != nil {
		return nil, fmt.Errorf("IngestReceiptFromGCS: %w", err)
	}

	if err := s.IngestReceipt(ctx, receipt, items); err != nil {
		return nil, err
	}
	return receipt, nil
}
