package extract

// Defaults for the vision extraction step.
const (
	// DefaultModelName is the Gemini model used for receipt extraction.
	DefaultModelName = "gemini-2.5-flash"

	// DefaultCurrency is assumed when the model cannot read a currency.
	DefaultCurrency = "EUR"

	// UnknownVendor marks receipts whose vendor could not be read.
	UnknownVendor = "Unknown"
)

// extractionPrompt instructs the vision model to read one receipt image and
// answer with a strict JSON object. The model must not add prose or fences;
// cleanModelJSON still strips them when it does anyway.
const extractionPrompt = `You are an expert at reading receipts and invoices.
Analyze this receipt image very carefully and extract ALL visible information.

Respond ONLY with a valid JSON object in this EXACT format:
{
    "vendor_name": "name of the store",
    "vendor_address": "address or null",
    "date": "YYYY-MM-DD",
    "total": 123.45,
    "subtotal": 100.00,
    "tax": 23.45,
    "tax_rate": 19.0,
    "currency": "EUR",
    "payment_method": "card/cash or null",
    "line_items": [
        {"description": "product name", "quantity": 1, "unit_price": 10.00, "total_price": 10.00}
    ],
    "category": "Groceries/Meals/Fuel/Office Supplies/Electronics/Other"
}

Rules:
1. Numbers as decimals (12.50, not "12,50")
2. Dates in ISO format YYYY-MM-DD
3. If a field is not readable, set it to null
4. The JSON must be valid - no comments, no trailing commas

Return ONLY the raw JSON object.
Do NOT wrap the response in code fences.
Do NOT use ` + "```json" + ` or any Markdown.
Output must begin with "{" and end with "}".
`
