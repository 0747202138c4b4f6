package query

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/receipt-auditor/internal/classify"
	"github.com/dvloznov/receipt-auditor/internal/domain"
	"github.com/dvloznov/receipt-auditor/internal/store"
)

// Amount patterns accept both "." and "," as the decimal separator.
var (
	underPattern   = regexp.MustCompile(`(?:under|unter|below|less than)\s+(\d+(?:[.,]\d+)?)`)
	overPattern    = regexp.MustCompile(`(?:über|ueber|above|over|more than|greater than)\s+(\d+(?:[.,]\d+)?)`)
	betweenPattern = regexp.MustCompile(`(?:zwischen|between)\s+(\d+(?:[.,]\d+)?)\s+(?:und|and)\s+(\d+(?:[.,]\d+)?)`)
)

// Rolling date windows. These are day-count windows ending now, never
// calendar-aligned.
var dateWindows = []struct {
	keywords    []string
	days        int
	description string
}{
	{[]string{"letzte woche", "letzten woche", "last week", "this week"}, 7, "last 7 days"},
	{[]string{"letzter monat", "letzten monat", "last month", "this month"}, 30, "last 30 days"},
	{[]string{"letztes jahr", "last year", "this year"}, 365, "last 365 days"},
}

// Audit flag triggers. Each set fires independently, so a query can stack
// several flag filters.
var auditTriggers = []struct {
	keywords    []string
	description string
	match       func(f domain.AuditFlags) bool
}{
	{
		keywords:    []string{"duplicate", "duplikat", "doppelt"},
		description: "duplicates",
		match:       func(f domain.AuditFlags) bool { return f.Duplicate },
	},
	{
		keywords:    []string{"suspicious", "verdächtig", "verdaechtig", "alkohol", "alcohol", "tabak", "tobacco"},
		description: "suspicious",
		match:       func(f domain.AuditFlags) bool { return f.Suspicious },
	},
	{
		keywords:    []string{"missing vat", "fehlende mwst", "ohne mwst", "no vat", "keine mwst"},
		description: "missing VAT",
		match:       func(f domain.AuditFlags) bool { return f.MissingVAT },
	},
	{
		keywords:    []string{"math error", "rechenfehler", "mismatch", "falsch berechnet"},
		description: "math errors",
		match:       func(f domain.AuditFlags) bool { return f.MathError },
	},
	{
		keywords:    []string{"problem", "issue", "fehler", "flag", "audit"},
		description: "any audit issue",
		match:       domain.AuditFlags.Any,
	},
}

// Parser turns a free-text question into an ordered list of filters. It
// reads the repository only for the distinct vendor and category values
// currently present, so recognition adapts to the data set.
type Parser struct {
	repo store.ReceiptRepository
	now  func() time.Time
}

// NewParser creates a parser backed by the given repository.
func NewParser(repo store.ReceiptRepository) *Parser {
	return &Parser{repo: repo, now: time.Now}
}

// extractor is one step of the parse. Steps run in a fixed order and each
// contributes zero or more filters.
type extractor func(ctx context.Context, p *Parser, q string) []Filter

var extractors = []extractor{
	extractAmountFilters,
	extractVendorFilter,
	extractCategoryFilter,
	extractDateFilter,
	extractAuditFilters,
}

// Parse extracts all recognizable filters from the question, in the order
// amount, vendor, category, date, audit. Unrecognized text yields an empty
// list, which callers treat as "all receipts". Parse never fails: a
// repository read error just means the vendor or category step is skipped.
func (p *Parser) Parse(ctx context.Context, question string) []Filter {
	q := strings.ToLower(question)

	var filters []Filter
	for _, ex := range extractors {
		filters = append(filters, ex(ctx, p, q)...)
	}
	return filters
}

func extractAmountFilters(_ context.Context, _ *Parser, q string) []Filter {
	var filters []Filter

	if m := underPattern.FindStringSubmatch(q); m != nil {
		if limit, ok := parseAmount(m[1]); ok {
			filters = append(filters, Filter{
				Description: fmt.Sprintf("under %s€", money(limit)),
				Match:       func(r *domain.Receipt) bool { return r.TotalAmount < limit },
			})
		}
	}
	if m := overPattern.FindStringSubmatch(q); m != nil {
		if limit, ok := parseAmount(m[1]); ok {
			filters = append(filters, Filter{
				Description: fmt.Sprintf("over %s€", money(limit)),
				Match:       func(r *domain.Receipt) bool { return r.TotalAmount > limit },
			})
		}
	}
	if m := betweenPattern.FindStringSubmatch(q); m != nil {
		lo, okLo := parseAmount(m[1])
		hi, okHi := parseAmount(m[2])
		if okLo && okHi {
			filters = append(filters, Filter{
				Description: fmt.Sprintf("between %s€ and %s€", money(lo), money(hi)),
				Match:       func(r *domain.Receipt) bool { return lo <= r.TotalAmount && r.TotalAmount <= hi },
			})
		}
	}
	return filters
}

// extractVendorFilter matches the distinct vendor names against the query.
// When several vendors match, the longest name wins, so "Aldi Süd" beats
// "Aldi" for a query that mentions both words.
func extractVendorFilter(ctx context.Context, p *Parser, q string) []Filter {
	vendors, err := p.repo.DistinctVendors(ctx)
	if err != nil {
		return nil
	}

	var best string
	for _, v := range vendors {
		if v == "" {
			continue
		}
		if strings.Contains(q, strings.ToLower(v)) && len(v) > len(best) {
			best = v
		}
	}
	if best == "" {
		return nil
	}

	vendor := best
	return []Filter{{
		Description: "vendor: " + vendor,
		Match:       func(r *domain.Receipt) bool { return r.VendorName == vendor },
	}}
}

// extractCategoryFilter applies at most one category filter. The bilingual
// translation table is consulted first; if it finds nothing, the distinct
// category values from the repository are matched by substring instead.
func extractCategoryFilter(ctx context.Context, p *Parser, q string) []Filter {
	category := classify.FindCategoryInQuery(q)

	if category == "" {
		categories, err := p.repo.DistinctCategories(ctx)
		if err != nil {
			return nil
		}
		for _, c := range categories {
			if c == "" {
				continue
			}
			if strings.Contains(q, strings.ToLower(c)) && len(c) > len(category) {
				category = c
			}
		}
	}
	if category == "" {
		return nil
	}

	cat := category
	return []Filter{{
		Description: "category: " + cat,
		Match:       func(r *domain.Receipt) bool { return r.Category == cat },
	}}
}

func extractDateFilter(_ context.Context, p *Parser, q string) []Filter {
	for _, w := range dateWindows {
		if containsAny(q, w.keywords) {
			cutoff := p.now().AddDate(0, 0, -w.days)
			return []Filter{{
				Description: w.description,
				Match:       func(r *domain.Receipt) bool { return !r.Date.Before(cutoff) },
			}}
		}
	}
	return nil
}

func extractAuditFilters(_ context.Context, _ *Parser, q string) []Filter {
	var filters []Filter
	for _, t := range auditTriggers {
		if containsAny(q, t.keywords) {
			match := t.match
			filters = append(filters, Filter{
				Description: t.description,
				Match:       func(r *domain.Receipt) bool { return match(r.Flags) },
			})
		}
	}
	return filters
}

func containsAny(q string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(q, kw) {
			return true
		}
	}
	return false
}

// parseAmount normalizes the decimal separator and parses the literal. A
// literal that still fails to parse is reported as a non-match rather than
// an error, so that filter is simply skipped.
func parseAmount(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}
