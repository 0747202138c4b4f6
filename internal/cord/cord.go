// Package cord loads receipts from CORD annotation files.
//
// CORD (Consolidated Receipt Dataset, github.com/clovaai/cord) ships scanned
// receipts together with JSON annotations. The annotations carry labeled text
// lines which map onto vendor, totals and line items.
package cord

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/dvloznov/receipt-auditor/internal/classify"
	"github.com/dvloznov/receipt-auditor/internal/domain"
	"github.com/dvloznov/receipt-auditor/internal/extract"
)

// annotation mirrors the subset of the CORD JSON schema we read.
type annotation struct {
	ValidLine []struct {
		Category string `json:"category"`
		Words    []struct {
			Text string `json:"text"`
		} `json:"words"`
	} `json:"valid_line"`
}

// dateLayouts covers the formats seen in the dataset.
var dateLayouts = []string{
	"2006-01-02",
	"02/01/2006",
	"02.01.2006",
	"02-01-2006",
	"2006/01/02",
}

// ParseAnnotation converts one CORD annotation into a receipt with line
// items. Unlabeled or unparsable fields degrade to zero values instead of
// failing: the dataset is noisy and partial receipts are still useful for
// audit and search testing.
func ParseAnnotation(data []byte) (*domain.Receipt, []domain.LineItem, error) {
	var ann annotation
	if err := json.Unmarshal(data, &ann); err != nil {
		return nil, nil, fmt.Errorf("ParseAnnotation: decoding annotation: %w", err)
	}

	receipt := &domain.Receipt{
		VendorName: extract.UnknownVendor,
		Currency:   extract.DefaultCurrency,
	}
	var items []domain.LineItem

	for _, line := range ann.ValidLine {
		texts := make([]string, 0, len(line.Words))
		for _, w := range line.Words {
			texts = append(texts, w.Text)
		}
		text := strings.TrimSpace(strings.Join(texts, " "))
		if text == "" {
			continue
		}

		switch {
		case line.Category == "menu.nm":
			items = append(items, domain.LineItem{Description: text})
		case line.Category == "menu.price":
			if len(items) > 0 {
				if price, ok := parsePrice(text); ok {
					items[len(items)-1].Amount = price
				}
			}
		case line.Category == "store.name" || line.Category == "store_name":
			receipt.VendorName = text
		case line.Category == "total.total_price" || line.Category == "total":
			if total, ok := parsePrice(text); ok {
				receipt.TotalAmount = total
			}
		case line.Category == "total.tax_price":
			if tax, ok := parsePrice(text); ok {
				receipt.TaxAmount = &tax
			}
		case strings.Contains(strings.ToLower(line.Category), "date"):
			if date, ok := parseDate(text); ok {
				receipt.Date = date
			}
		}
	}

	receipt.Category = guessCategory(receipt.VendorName, items)

	return receipt, items, nil
}

// LoadDir parses every .json annotation under dir. Files that fail to parse
// are skipped; the error count comes back alongside the receipts.
func LoadDir(dir string) ([]*domain.Receipt, [][]domain.LineItem, int, error) {
	var receipts []*domain.Receipt
	var itemLists [][]domain.LineItem
	skipped := 0

	err := filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, ".json") {
			return nil
		}

		data, err := os.ReadFile(path)
		if err != nil {
			skipped++
			return nil
		}

		receipt, items, err := ParseAnnotation(data)
		if err != nil {
			skipped++
			return nil
		}

		receipts = append(receipts, receipt)
		itemLists = append(itemLists, items)
		return nil
	})
	if err != nil {
		return nil, nil, skipped, fmt.Errorf("LoadDir: walking %s: %w", dir, err)
	}

	return receipts, itemLists, skipped, nil
}

// parsePrice reads CORD price strings like "18,000", "€ 4.50" or "$12".
func parsePrice(text string) (float64, bool) {
	cleaned := strings.NewReplacer("€", "", "$", "", " ", "").Replace(text)
	cleaned = strings.ReplaceAll(cleaned, ",", ".")

	// Prices like "18.000" (thousands separator) keep only the last dot as
	// the decimal point.
	if parts := strings.Split(cleaned, "."); len(parts) > 2 {
		cleaned = strings.Join(parts[:len(parts)-1], "") + "." + parts[len(parts)-1]
	}

	var v float64
	if _, err := fmt.Sscanf(cleaned, "%f", &v); err != nil {
		return 0, false
	}
	return v, true
}

func parseDate(text string) (time.Time, bool) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, strings.TrimSpace(text)); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

// guessCategory picks a category from the vendor name, falling back to the
// line items.
func guessCategory(vendor string, items []domain.LineItem) string {
	if c := classify.VendorCategory(vendor); c != classify.Uncategorized {
		return c
	}

	vendorLower := strings.ToLower(vendor)
	for _, rule := range vendorRules {
		for _, kw := range rule.keywords {
			if strings.Contains(vendorLower, kw) {
				return rule.category
			}
		}
	}

	for _, item := range items {
		if c := classify.ItemCategory(item.Description, vendor); c != classify.CategoryOther {
			return c
		}
	}
	return classify.Uncategorized
}

// vendorRules maps vendor name fragments common in CORD to categories.
// Evaluated in order, first hit wins.
var vendorRules = []struct {
	category string
	keywords []string
}{
	{"Meals", []string{"restaurant", "cafe", "coffee", "pizza", "burger", "sushi", "bar"}},
	{"Groceries", []string{"market", "grocery", "supermarket", "lidl", "edeka"}},
	{"Fuel", []string{"gas", "fuel", "esso", "tank"}},
	{"Office Supplies", []string{"office", "büro", "staples"}},
}
