package extract

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"google.golang.org/genai"

	"github.com/dvloznov/receipt-auditor/internal/domain"
	"github.com/dvloznov/receipt-auditor/internal/logger"
)

// maxAttempts bounds the retries when the model answers with broken JSON.
const maxAttempts = 3

// VisionExtractor turns a receipt image into a structured receipt. It is the
// boundary to the vision model; everything downstream works on domain types.
type VisionExtractor interface {
	ExtractReceipt(ctx context.Context, imageBytes []byte, mimeType string) (*domain.Receipt, []domain.LineItem, error)
}

// GeminiExtractor is the Gemini-backed implementation of VisionExtractor.
type GeminiExtractor struct {
	client *genai.Client
	model  string
}

// NewGeminiExtractor creates the extractor. Credentials come from the
// environment, same as every other Google client in this repo.
func NewGeminiExtractor(ctx context.Context) (*GeminiExtractor, error) {
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		HTTPOptions: genai.HTTPOptions{APIVersion: "v1"},
	})
	if err != nil {
		return nil, fmt.Errorf("NewGeminiExtractor: create genai client: %w", err)
	}
	return &GeminiExtractor{client: client, model: DefaultModelName}, nil
}

// WithModel overrides the default extraction model. Empty keeps the default.
func (e *GeminiExtractor) WithModel(model string) *GeminiExtractor {
	if model != "" {
		e.model = model
	}
	return e
}

// ExtractReceipt sends the image to the model and maps the JSON answer onto
// a receipt plus its line items. Broken JSON is retried; a receipt the model
// could not read at all comes back as an error, not a half-filled record.
func (e *GeminiExtractor) ExtractReceipt(ctx context.Context, imageBytes []byte, mimeType string) (*domain.Receipt, []domain.LineItem, error) {
	log := logger.FromContext(ctx)

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{Text: extractionPrompt},
				{
					InlineData: &genai.Blob{
						MIMEType: mimeType,
						Data:     imageBytes,
					},
				},
			},
		},
	}

	var raw map[string]interface{}
	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		resp, err := e.client.Models.GenerateContent(ctx, e.model, contents, nil)
		if err != nil {
			return nil, nil, fmt.Errorf("ExtractReceipt: generate content: %w", err)
		}

		rawText := resp.Text()
		if rawText == "" {
			return nil, nil, fmt.Errorf("ExtractReceipt: empty response from model")
		}

		raw, lastErr = parseModelResponse(rawText)
		if lastErr == nil {
			break
		}
		log.Warn().Err(lastErr).Int("attempt", attempt).Msg("model returned unparsable JSON")
	}
	if lastErr != nil {
		return nil, nil, fmt.Errorf("ExtractReceipt: parsing model output: %w", lastErr)
	}

	receipt, items, err := transformModelOutput(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("ExtractReceipt: %w", err)
	}

	validation := ValidateExtraction(receipt, items, raw)
	for _, w := range validation.Warnings {
		log.Warn().Str("vendor", receipt.VendorName).Msg(w)
	}

	return receipt, items, nil
}

func parseModelResponse(rawText string) (map[string]interface{}, error) {
	clean := cleanModelJSON(rawText)

	var parsed map[string]interface{}
	if err := json.Unmarshal([]byte(clean), &parsed); err != nil {
		return nil, fmt.Errorf("unmarshal JSON: %w", err)
	}
	return parsed, nil
}

// cleanModelJSON strips Markdown fences and surrounding prose when the model
// ignores the raw-JSON instruction.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)

	if strings.HasPrefix(s, "```") {
		// Drop the first line (``` or ```json).
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			return s
		}
		s = strings.TrimSpace(s)
	}

	if idx := strings.LastIndex(s, "```"); idx != -1 {
		s = s[:idx]
	}

	s = strings.TrimSpace(s)

	// If there is still junk around the JSON object, keep only the span from
	// the first '{' to the last '}'.
	if start := strings.Index(s, "{"); start != -1 {
		if end := strings.LastIndex(s, "}"); end != -1 && end > start {
			s = strings.TrimSpace(s[start : end+1])
		}
	}

	return s
}
