package cord

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleAnnotation = `{
	"valid_line": [
		{"category": "store.name", "words": [{"text": "KOPI"}, {"text": "KENANGAN"}]},
		{"category": "menu.nm", "words": [{"text": "Americano"}]},
		{"category": "menu.cnt", "words": [{"text": "2"}]},
		{"category": "menu.price", "words": [{"text": "36,000"}]},
		{"category": "menu.nm", "words": [{"text": "Croissant"}]},
		{"category": "menu.price", "words": [{"text": "18.000"}]},
		{"category": "total.total_price", "words": [{"text": "54.000"}]},
		{"category": "total.tax_price", "words": [{"text": "4.909"}]},
		{"category": "meta.date", "words": [{"text": "2024-03-14"}]}
	]
}`

func TestParseAnnotation(t *testing.T) {
	receipt, items, err := ParseAnnotation([]byte(sampleAnnotation))
	if err != nil {
		t.Fatalf("ParseAnnotation() error = %v", err)
	}

	if receipt.VendorName != "KOPI KENANGAN" {
		t.Errorf("vendor = %q", receipt.VendorName)
	}
	if receipt.TotalAmount != 54.000 {
		t.Errorf("total = %v", receipt.TotalAmount)
	}
	if receipt.TaxAmount == nil || *receipt.TaxAmount != 4.909 {
		t.Errorf("tax = %v", receipt.TaxAmount)
	}
	if want := time.Date(2024, 3, 14, 0, 0, 0, 0, time.UTC); !receipt.Date.Equal(want) {
		t.Errorf("date = %v, want %v", receipt.Date, want)
	}

	if len(items) != 2 {
		t.Fatalf("items = %+v", items)
	}
	if items[0].Description != "Americano" || items[0].Amount != 36.000 {
		t.Errorf("first item = %+v", items[0])
	}
	if items[1].Description != "Croissant" || items[1].Amount != 18.000 {
		t.Errorf("second item = %+v", items[1])
	}
}

func TestParseAnnotationDefaults(t *testing.T) {
	receipt, items, err := ParseAnnotation([]byte(`{"valid_line": []}`))
	if err != nil {
		t.Fatalf("ParseAnnotation() error = %v", err)
	}
	if receipt.VendorName != "Unknown" {
		t.Errorf("vendor = %q, want Unknown", receipt.VendorName)
	}
	if receipt.Currency != "EUR" {
		t.Errorf("currency = %q, want EUR", receipt.Currency)
	}
	if len(items) != 0 {
		t.Errorf("items = %+v, want none", items)
	}
	if !receipt.Date.IsZero() {
		t.Errorf("date = %v, want zero", receipt.Date)
	}
}

func TestParseAnnotationRejectsInvalidJSON(t *testing.T) {
	if _, _, err := ParseAnnotation([]byte("not json")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestGuessCategory(t *testing.T) {
	tests := []struct {
		name   string
		vendor string
		want   string
	}{
		{"restaurant keyword", "Warung Pizza House", "Meals"},
		{"grocery keyword", "Mini Market 24", "Groceries"},
		{"fuel keyword", "Pertamina Gas Station", "Fuel"},
		{"known vendor table", "Shell", "Fuel"},
		{"unknown", "PT Maju Jaya", "Uncategorized"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := guessCategory(tt.vendor, nil); got != tt.want {
				t.Errorf("guessCategory(%q) = %q, want %q", tt.vendor, got, tt.want)
			}
		})
	}
}

func TestLoadDirSkipsBrokenFiles(t *testing.T) {
	dir := t.TempDir()

	if err := os.WriteFile(filepath.Join(dir, "good.json"), []byte(sampleAnnotation), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "broken.json"), []byte("{{{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("not an annotation"), 0o644); err != nil {
		t.Fatal(err)
	}

	receipts, itemLists, skipped, err := LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir() error = %v", err)
	}
	if len(receipts) != 1 || len(itemLists) != 1 {
		t.Fatalf("receipts = %d, itemLists = %d, want 1 each", len(receipts), len(itemLists))
	}
	if skipped != 1 {
		t.Errorf("skipped = %d, want 1", skipped)
	}
	if receipts[0].VendorName != "KOPI KENANGAN" {
		t.Errorf("vendor = %q", receipts[0].VendorName)
	}
}
