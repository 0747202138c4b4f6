// Package classify assigns coarse spending categories to vendors and line
// items, and detects the language of free-text questions. Everything here is
// table-driven lookup; there is no model involved.
package classify

import (
	"strings"
)

// VendorCategory returns the category for a known vendor name, or
// Uncategorized for vendors not present in the lookup table.
func VendorCategory(vendorName string) string {
	if cat, ok := vendorCategories[vendorName]; ok {
		return cat
	}
	return Uncategorized
}

// ItemCategory classifies one line item from its description plus the vendor
// name. Rules are evaluated in order; the first keyword hit wins, and items
// no rule matches fall back to CategoryOther.
func ItemCategory(description, vendorName string) string {
	text := strings.ToLower(description + " " + vendorName)
	for _, rule := range itemRules {
		for _, kw := range rule.keywords {
			if strings.Contains(text, kw) {
				return rule.category
			}
		}
	}
	return CategoryOther
}

// DetectLanguage guesses "de" or "en" by counting language-specific keywords
// in the lowercased input. Ties resolve to German.
func DetectLanguage(text string) string {
	lower := strings.ToLower(text)

	var german, english int
	for _, w := range germanKeywords {
		if strings.Contains(lower, w) {
			german++
		}
	}
	for _, w := range englishKeywords {
		if strings.Contains(lower, w) {
			english++
		}
	}

	if english > german {
		return "en"
	}
	return "de"
}

// FindCategoryInQuery scans the bilingual translation table and returns the
// canonical English category for the first keyword found as a substring of
// the lowercased query, or "" when nothing matches.
func FindCategoryInQuery(query string) string {
	lower := strings.ToLower(query)
	for _, entry := range categoryTranslations {
		if strings.Contains(lower, entry.keyword) {
			return entry.category
		}
	}
	return ""
}
