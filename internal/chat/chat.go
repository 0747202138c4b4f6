package chat

import (
	"context"
	"fmt"

	"github.com/dvloznov/receipt-auditor/internal/classify"
	"github.com/dvloznov/receipt-auditor/internal/logger"
	"github.com/dvloznov/receipt-auditor/internal/query"
	"github.com/dvloznov/receipt-auditor/internal/store"
)

const (
	// historyWindow bounds how many prior turns travel to the generator.
	historyWindow = 10

	// contextResults is how many retrieved receipts feed the context.
	contextResults = 5
)

// Message is one prior chat turn.
type Message struct {
	Role    string `json:"role"` // user | assistant
	Content string `json:"content"`
}

// Generator turns the prepared prompt into prose. The numbers are already
// computed by then; the generator only phrases them.
type Generator interface {
	Generate(ctx context.Context, systemPrompt string, history []Message, question string) (string, error)
}

// Retriever supplies semantically similar receipt documents as context.
type Retriever interface {
	ContextForQuery(ctx context.Context, q string, limit int) string
}

// Response is the full answer payload for one question.
type Response struct {
	Answer   string      `json:"response"`
	Language string      `json:"language"`
	Result   query.Stats `json:"result"`
}

// Service answers natural-language questions about the stored receipts. It
// parses the question into filters, aggregates exactly, and only then lets
// the generator phrase the result.
type Service struct {
	repo      store.ReceiptRepository
	parser    *query.Parser
	retriever Retriever
	generator Generator
}

// NewService wires the chat pipeline. retriever may be nil when no vector
// store is configured; answers then carry no retrieved context.
func NewService(repo store.ReceiptRepository, retriever Retriever, generator Generator) *Service {
	return &Service{
		repo:      repo,
		parser:    query.NewParser(repo),
		retriever: retriever,
		generator: generator,
	}
}

// Answer handles one question end to end.
func (s *Service) Answer(ctx context.Context, question string, history []Message) (*Response, error) {
	log := logger.FromContext(ctx)

	filters := s.parser.Parse(ctx, question)

	receipts, err := s.repo.ListReceipts(ctx)
	if err != nil {
		return nil, fmt.Errorf("Answer: listing receipts: %w", err)
	}

	filtered := query.ApplyFilters(receipts, filters)
	stats := query.Aggregate(filtered, query.Describe(filters))
	calculations := query.FormatForGenerator(stats)

	ragContext := "No relevant receipts found."
	if s.retriever != nil {
		ragContext = s.retriever.ContextForQuery(ctx, question, contextResults)
	}

	lang := classify.DetectLanguage(question)
	template := systemPromptDE
	if lang == "en" {
		template = systemPromptEN
	}
	systemPrompt := fmt.Sprintf(template, ragContext, calculations)

	if len(history) > historyWindow {
		history = history[len(history)-historyWindow:]
	}

	log.Info().
		Str("filter", stats.Filter).
		Int("matched", stats.Count).
		Str("language", lang).
		Msg("answering question")

	answer, err := s.generator.Generate(ctx, systemPrompt, history, question)
	if err != nil {
		return nil, fmt.Errorf("Answer: generating response: %w", err)
	}

	return &Response{
		Answer:   answer,
		Language: lang,
		Result:   stats,
	}, nil
}
