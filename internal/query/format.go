package query

import (
	"fmt"
	"strconv"
	"strings"
)

const formatDivider = "============================================================"

// detailRenderLimit bounds the per-receipt lines in the rendered block.
// The payload carries up to 20 details; the text block stays shorter so
// the headline numbers dominate the generator's context.
const detailRenderLimit = 10

// FormatForGenerator renders the stats payload into the fixed text block
// handed to the response generator. The framing instructs the generator to
// quote the precomputed numbers instead of recalculating them. The output
// is deterministic: the same payload always yields byte-identical text.
func FormatForGenerator(stats Stats) string {
	var b strings.Builder

	b.WriteString("\n" + formatDivider + "\n")
	b.WriteString("PRECISE CALCULATIONS (precomputed, 100% correct)\n")
	b.WriteString(formatDivider + "\n\n")

	b.WriteString("MAIN RESULTS (use EXACTLY these numbers):\n")
	fmt.Fprintf(&b, "   Total: %s€\n", money(stats.Total))
	fmt.Fprintf(&b, "   Count: %d receipts\n", stats.Count)
	fmt.Fprintf(&b, "   Average: %s€\n", money(stats.Average))
	fmt.Fprintf(&b, "   Filter: %s\n\n", stats.Filter)

	if stats.Min != nil {
		fmt.Fprintf(&b, "Smallest: %s€ (%s)\n", money(stats.Min.Total), stats.Min.Vendor)
	}
	if stats.Max != nil {
		fmt.Fprintf(&b, "Largest: %s€ (%s)\n", money(stats.Max.Total), stats.Max.Vendor)
	}
	if stats.Min != nil || stats.Max != nil {
		b.WriteString("\n")
	}

	if len(stats.TopVendors) > 0 {
		b.WriteString("Top Vendors:\n")
		for i, v := range stats.TopVendors {
			fmt.Fprintf(&b, "   %d. %s: %s€\n", i+1, v.Vendor, money(v.Total))
		}
		b.WriteString("\n")
	}

	if len(stats.TopCategories) > 0 {
		b.WriteString("Top Categories:\n")
		for i, c := range stats.TopCategories {
			fmt.Fprintf(&b, "   %d. %s: %s€\n", i+1, c.Category, money(c.Total))
		}
		b.WriteString("\n")
	}

	if len(stats.Receipts) > 0 {
		shown := len(stats.Receipts)
		if shown > detailRenderLimit {
			shown = detailRenderLimit
		}
		fmt.Fprintf(&b, "Receipt Details (first %d):\n", shown)
		for i, r := range stats.Receipts[:shown] {
			line := fmt.Sprintf("   %d. %s: %s€ (%s)", i+1, r.Vendor, money(r.Total), r.Category)
			if abbrev := flagAbbreviations(r); abbrev != "" {
				line += " " + abbrev
			}
			b.WriteString(line + "\n")
		}
		b.WriteString("\n")
	}

	b.WriteString(formatDivider + "\n")
	b.WriteString("USE THE NUMBER AFTER 'Total:' AS YOUR ANSWER - DO NOT RECALCULATE\n")
	b.WriteString(formatDivider)

	return b.String()
}

func flagAbbreviations(r ReceiptSummary) string {
	var abbrev []string
	if r.Flags.Duplicate {
		abbrev = append(abbrev, "DUP")
	}
	if r.Flags.Suspicious {
		abbrev = append(abbrev, "SUS")
	}
	if r.Flags.MissingVAT {
		abbrev = append(abbrev, "VAT")
	}
	if r.Flags.MathError {
		abbrev = append(abbrev, "ERR")
	}
	return strings.Join(abbrev, " ")
}

func money(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
