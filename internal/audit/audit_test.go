package audit

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/receipt-auditor/internal/domain"
	"github.com/dvloznov/receipt-auditor/internal/store/inmemory"
)

func ptr(f float64) *float64 { return &f }

func newReceipt(vendor string, total float64, tax *float64) *domain.Receipt {
	return &domain.Receipt{
		ID:          uuid.NewString(),
		VendorName:  vendor,
		Date:        time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
		TotalAmount: total,
		TaxAmount:   tax,
		Currency:    "EUR",
	}
}

func TestRunAudit_MissingVAT(t *testing.T) {
	repo := inmemory.NewStore()
	ctx := context.Background()

	tests := []struct {
		name string
		tax  *float64
		want bool
	}{
		{"nil tax", nil, true},
		{"zero tax", ptr(0), true},
		{"normal tax", ptr(9.50), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newReceipt("Rewe", 50.00, tt.tax)
			items := []domain.LineItem{{Description: "Sandwich", Amount: 50.00}}

			if err := RunAudit(ctx, r, items, repo); err != nil {
				t.Fatalf("RunAudit failed: %v", err)
			}
			if r.Flags.MissingVAT != tt.want {
				t.Errorf("MissingVAT = %v, want %v", r.Flags.MissingVAT, tt.want)
			}
		})
	}
}

func TestRunAudit_MathError(t *testing.T) {
	repo := inmemory.NewStore()
	ctx := context.Background()

	tests := []struct {
		name  string
		total float64
		items []float64
		want  bool
	}{
		{"exact match", 30.00, []float64{10.00, 20.00}, false},
		{"within tolerance", 30.00, []float64{10.00, 20.009}, false},
		{"five euro gap", 50.00, []float64{45.00}, true},
		{"items above total", 45.00, []float64{50.00}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newReceipt("Rewe", tt.total, ptr(5.00))
			var items []domain.LineItem
			for _, a := range tt.items {
				items = append(items, domain.LineItem{Description: "Notebook", Amount: a})
			}

			if err := RunAudit(ctx, r, items, repo); err != nil {
				t.Fatalf("RunAudit failed: %v", err)
			}
			if r.Flags.MathError != tt.want {
				t.Errorf("MathError = %v, want %v", r.Flags.MathError, tt.want)
			}
		})
	}
}

func TestRunAudit_MathErrorDifference(t *testing.T) {
	// Line items sum to 45.00 against a declared total of 50.00.
	r := newReceipt("MediaMarkt", 50.00, ptr(7.98))
	items := []domain.LineItem{
		{Description: "USB Cable", Amount: 20.00},
		{Description: "Mouse Pad", Amount: 25.00},
	}

	if err := RunAudit(context.Background(), r, items, inmemory.NewStore()); err != nil {
		t.Fatalf("RunAudit failed: %v", err)
	}
	if !r.Flags.MathError {
		t.Fatal("expected MathError flag")
	}
	if diff := MathDifference(r, items); diff != 5.00 {
		t.Errorf("MathDifference = %v, want 5.00", diff)
	}
}

func TestRunAudit_Suspicious(t *testing.T) {
	repo := inmemory.NewStore()
	ctx := context.Background()

	tests := []struct {
		name  string
		items []string
		want  bool
	}{
		{"wine", []string{"Red Wine"}, true},
		{"case insensitive", []string{"VODKA Premium"}, true},
		{"german keyword", []string{"Zigaretten Box"}, true},
		{"substring inside word", []string{"Tabakwaren"}, true},
		{"clean items", []string{"Office Chair", "Desk Lamp"}, false},
		{"no items", nil, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := newReceipt("Pub Express", 42.00, ptr(6.71))
			var items []domain.LineItem
			var total float64
			for _, d := range tt.items {
				items = append(items, domain.LineItem{Description: d, Amount: 42.00 / float64(len(tt.items))})
				total += 42.00 / float64(len(tt.items))
			}
			_ = total

			if err := RunAudit(ctx, r, items, repo); err != nil {
				t.Fatalf("RunAudit failed: %v", err)
			}
			if r.Flags.Suspicious != tt.want {
				t.Errorf("Suspicious = %v, want %v", r.Flags.Suspicious, tt.want)
			}
		})
	}
}

func TestRunAudit_Duplicate(t *testing.T) {
	repo := inmemory.NewStore()
	ctx := context.Background()
	date := time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)

	first := newReceipt("Shell", 72.50, ptr(11.58))
	first.Date = date
	firstItems := []domain.LineItem{{Description: "Fuel", Amount: 72.50}}

	if err := RunAudit(ctx, first, firstItems, repo); err != nil {
		t.Fatalf("RunAudit failed: %v", err)
	}
	if first.Flags.Duplicate {
		t.Error("first receipt should not be a duplicate of itself")
	}
	if err := repo.InsertReceipt(ctx, first, firstItems); err != nil {
		t.Fatalf("InsertReceipt failed: %v", err)
	}

	// Same vendor, date and total, different id.
	second := newReceipt("Shell", 72.50, ptr(11.58))
	second.Date = date
	secondItems := []domain.LineItem{{Description: "Fuel", Amount: 72.50}}

	if err := RunAudit(ctx, second, secondItems, repo); err != nil {
		t.Fatalf("RunAudit failed: %v", err)
	}
	if !second.Flags.Duplicate {
		t.Error("second receipt with identical tuple should be flagged")
	}

	// Symmetry: re-auditing the first receipt now flags it too.
	if err := repo.InsertReceipt(ctx, second, secondItems); err != nil {
		t.Fatalf("InsertReceipt failed: %v", err)
	}
	if err := RunAudit(ctx, first, firstItems, repo); err != nil {
		t.Fatalf("RunAudit failed: %v", err)
	}
	if !first.Flags.Duplicate {
		t.Error("duplicate detection should be symmetric")
	}

	// Different total is not a duplicate.
	third := newReceipt("Shell", 80.00, ptr(12.77))
	third.Date = date
	if err := RunAudit(ctx, third, []domain.LineItem{{Description: "Fuel", Amount: 80.00}}, repo); err != nil {
		t.Fatalf("RunAudit failed: %v", err)
	}
	if third.Flags.Duplicate {
		t.Error("different total should not be flagged as duplicate")
	}
}

func TestRunAudit_IndependentFlags(t *testing.T) {
	// tax = 0, everything else clean: only MissingVAT should hold.
	r := newReceipt("Rewe", 30.00, ptr(0))
	items := []domain.LineItem{
		{Description: "Printer Paper", Amount: 10.00},
		{Description: "Pen Set", Amount: 20.00},
	}

	if err := RunAudit(context.Background(), r, items, inmemory.NewStore()); err != nil {
		t.Fatalf("RunAudit failed: %v", err)
	}

	if !r.Flags.MissingVAT {
		t.Error("expected MissingVAT")
	}
	if r.Flags.MathError || r.Flags.Suspicious || r.Flags.Duplicate {
		t.Errorf("expected all other flags false, got %+v", r.Flags)
	}
}
