package ingest

import (
	"context"
	"testing"
	"time"

	"github.com/dvloznov/receipt-auditor/internal/domain"
	"github.com/dvloznov/receipt-auditor/internal/store/inmemory"
)

type recordingIndexer struct {
	indexed []string
}

func (ri *recordingIndexer) IndexReceipt(_ context.Context, r *domain.Receipt, _ []domain.LineItem) error {
	ri.indexed = append(ri.indexed, r.ID)
	return nil
}

func tax(f float64) *float64 { return &f }

func TestIngestReceipt_PersistsFlags(t *testing.T) {
	repo := inmemory.NewStore()
	index := &recordingIndexer{}
	svc := NewService(repo, nil, nil, index)
	ctx := context.Background()

	r := &domain.Receipt{
		VendorName:  "Rewe",
		Date:        time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		TotalAmount: 30.00,
		TaxAmount:   tax(0), // missing VAT
	}
	items := []domain.LineItem{
		{Description: "Printer Paper", Amount: 10.00},
		{Description: "Pen Set", Amount: 20.00},
	}

	if err := svc.IngestReceipt(ctx, r, items); err != nil {
		t.Fatalf("IngestReceipt failed: %v", err)
	}

	stored, err := repo.GetReceipt(ctx, r.ID)
	if err != nil {
		t.Fatalf("GetReceipt failed: %v", err)
	}
	if !stored.Flags.MissingVAT {
		t.Error("missing VAT flag should be persisted")
	}
	if stored.Flags.MathError || stored.Flags.Suspicious || stored.Flags.Duplicate {
		t.Errorf("unexpected flags: %+v", stored.Flags)
	}

	storedItems, err := repo.ListLineItems(ctx, r.ID)
	if err != nil {
		t.Fatalf("ListLineItems failed: %v", err)
	}
	if len(storedItems) != 2 || storedItems[0].ReceiptID != r.ID {
		t.Errorf("line items not linked to receipt: %+v", storedItems)
	}

	if len(index.indexed) != 1 || index.indexed[0] != r.ID {
		t.Errorf("indexer calls = %v, want the ingested receipt", index.indexed)
	}
}

func TestIngestReceipt_AssignsDefaults(t *testing.T) {
	repo := inmemory.NewStore()
	svc := NewService(repo, nil, nil, nil)

	r := &domain.Receipt{
		VendorName:  "Shell",
		Date:        time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC),
		TotalAmount: 60.00,
		TaxAmount:   tax(9.58),
	}
	items := []domain.LineItem{{Description: "Petrol", Amount: 60.00}}

	if err := svc.IngestReceipt(context.Background(), r, items); err != nil {
		t.Fatalf("IngestReceipt failed: %v", err)
	}

	if r.ID == "" {
		t.Error("receipt should get an id")
	}
	if r.Currency != "EUR" {
		t.Errorf("currency = %q, want EUR default", r.Currency)
	}
	if r.Category != "Fuel" {
		t.Errorf("category = %q, want vendor-table fallback", r.Category)
	}
}

func TestIngestReceipt_FlagsSecondDuplicate(t *testing.T) {
	repo := inmemory.NewStore()
	svc := NewService(repo, nil, nil, nil)
	ctx := context.Background()
	date := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	newReceipt := func() (*domain.Receipt, []domain.LineItem) {
		return &domain.Receipt{
			VendorName:  "Aral",
			Date:        date,
			TotalAmount: 55.00,
			TaxAmount:   tax(8.78),
		}, []domain.LineItem{{Description: "Diesel", Amount: 55.00}}
	}

	first, firstItems := newReceipt()
	if err := svc.IngestReceipt(ctx, first, firstItems); err != nil {
		t.Fatalf("IngestReceipt failed: %v", err)
	}
	if first.Flags.Duplicate {
		t.Error("first receipt should not be flagged")
	}

	second, secondItems := newReceipt()
	if err := svc.IngestReceipt(ctx, second, secondItems); err != nil {
		t.Fatalf("IngestReceipt failed: %v", err)
	}
	if !second.Flags.Duplicate {
		t.Error("second identical receipt should be flagged as duplicate")
	}
}
