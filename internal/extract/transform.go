package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dvloznov/receipt-auditor/internal/classify"
	"github.com/dvloznov/receipt-auditor/internal/domain"
)

// transformModelOutput converts the raw model JSON into a receipt with line
// items. Missing optional fields degrade to defaults; a receipt without any
// usable total is still returned so the caller can decide what to do with it.
func transformModelOutput(raw map[string]interface{}) (*domain.Receipt, []domain.LineItem, error) {
	vendor, err := getStringField(raw, "vendor_name", false)
	if err != nil {
		return nil, nil, err
	}
	if strings.TrimSpace(vendor) == "" {
		vendor = UnknownVendor
	}

	currency, err := getStringField(raw, "currency", false)
	if err != nil {
		return nil, nil, err
	}
	if currency == "" {
		currency = DefaultCurrency
	}

	total, err := getOptionalFloat64Field(raw, "total")
	if err != nil {
		return nil, nil, err
	}
	tax, err := getOptionalFloat64Field(raw, "tax")
	if err != nil {
		return nil, nil, err
	}

	var date time.Time
	if dateStr, err := getOptionalStringField(raw, "date"); err != nil {
		return nil, nil, err
	} else if dateStr != nil {
		parsed, err := time.Parse("2006-01-02", *dateStr)
		if err != nil {
			return nil, nil, fmt.Errorf("transformModelOutput: invalid date %q: %w", *dateStr, err)
		}
		date = parsed
	}

	receipt := &domain.Receipt{
		ID:         uuid.NewString(),
		VendorName: vendor,
		Date:       date,
		Currency:   strings.ToUpper(currency),
		TaxAmount:  tax,
		CreatedAt:  time.Now(),
	}
	if total != nil {
		receipt.TotalAmount = *total
	}

	items, err := transformLineItems(raw, receipt.ID)
	if err != nil {
		return nil, nil, err
	}

	category, err := getStringField(raw, "category", false)
	if err != nil {
		return nil, nil, err
	}
	receipt.Category = resolveCategory(category, vendor, items)

	return receipt, items, nil
}

func transformLineItems(raw map[string]interface{}, receiptID string) ([]domain.LineItem, error) {
	itemsAny, ok := raw["line_items"]
	if !ok || itemsAny == nil {
		return nil, nil
	}
	itemsSlice, ok := itemsAny.([]interface{})
	if !ok {
		return nil, fmt.Errorf("transformLineItems: 'line_items' is %T, want []interface{}", itemsAny)
	}

	result := make([]domain.LineItem, 0, len(itemsSlice))
	for i, item := range itemsSlice {
		obj, ok := item.(map[string]interface{})
		if !ok {
			return nil, fmt.Errorf("transformLineItems: element %d is %T, want map[string]interface{}", i, item)
		}

		desc, err := getStringField(obj, "description", true)
		if err != nil {
			return nil, fmt.Errorf("line item %d: %w", i, err)
		}

		amount, err := resolveLineAmount(obj)
		if err != nil {
			return nil, fmt.Errorf("line item %d: %w", i, err)
		}

		result = append(result, domain.LineItem{
			ID:          uuid.NewString(),
			ReceiptID:   receiptID,
			Description: desc,
			Amount:      amount,
		})
	}
	return result, nil
}

// resolveLineAmount settles the line amount on a single convention: the line
// total for the position. Models that only return a unit price get multiplied
// by quantity here, so downstream code never has to.
func resolveLineAmount(obj map[string]interface{}) (float64, error) {
	totalPrice, err := getOptionalFloat64Field(obj, "total_price")
	if err != nil {
		return 0, err
	}
	if totalPrice != nil {
		return *totalPrice, nil
	}

	unitPrice, err := getOptionalFloat64Field(obj, "unit_price")
	if err != nil {
		return 0, err
	}
	if unitPrice == nil {
		return 0, nil
	}

	quantity, err := getOptionalFloat64Field(obj, "quantity")
	if err != nil {
		return 0, err
	}
	if quantity == nil || *quantity <= 0 {
		return *unitPrice, nil
	}
	return *unitPrice * *quantity, nil
}

// resolveCategory prefers the model's answer, falls back to the vendor table
// and finally to item classification.
func resolveCategory(modelCategory, vendor string, items []domain.LineItem) string {
	if c := strings.TrimSpace(modelCategory); c != "" {
		return c
	}
	if c := classify.VendorCategory(vendor); c != classify.Uncategorized {
		return c
	}
	for _, item := range items {
		if c := classify.ItemCategory(item.Description, vendor); c != classify.CategoryOther {
			return c
		}
	}
	return classify.Uncategorized
}

func getStringField(m map[string]interface{}, key string, required bool) (string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		if required {
			return "", fmt.Errorf("missing required field %q", key)
		}
		return "", nil
	}
	switch val := v.(type) {
	case string:
		if required && strings.TrimSpace(val) == "" {
			return "", fmt.Errorf("required field %q is empty", key)
		}
		return val, nil
	default:
		return "", fmt.Errorf("field %q has type %T, want string", key, v)
	}
}

func getOptionalStringField(m map[string]interface{}, key string) (*string, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil, nil
		}
		return &s, nil
	default:
		return nil, fmt.Errorf("field %q has type %T, want string or null", key, v)
	}
}

func getOptionalFloat64Field(m map[string]interface{}, key string) (*float64, error) {
	v, ok := m[key]
	if !ok || v == nil {
		return nil, nil
	}
	switch val := v.(type) {
	case float64:
		f := val
		return &f, nil
	case int: // unlikely from encoding/json, but harmless to support
		f := float64(val)
		return &f, nil
	default:
		return nil, fmt.Errorf("field %q has type %T, want number or null", key, v)
	}
}
