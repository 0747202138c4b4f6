package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/dvloznov/receipt-auditor/internal/api/middleware"
	"github.com/dvloznov/receipt-auditor/internal/audit"
	"github.com/dvloznov/receipt-auditor/internal/chat"
	"github.com/dvloznov/receipt-auditor/internal/classify"
	"github.com/dvloznov/receipt-auditor/internal/domain"
	"github.com/dvloznov/receipt-auditor/internal/images"
	"github.com/dvloznov/receipt-auditor/internal/ingest"
	"github.com/dvloznov/receipt-auditor/internal/jobs"
	"github.com/dvloznov/receipt-auditor/internal/rag"
	"github.com/dvloznov/receipt-auditor/internal/store"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// receiptNumber derives the display number shown in the frontend from a
// receipt ID.
func receiptNumber(id string) string {
	short := strings.ReplaceAll(id, "-", "")
	if len(short) > 8 {
		short = short[:8]
	}
	return "RCP-" + strings.ToUpper(short)
}

// formattedLineItem is the frontend line item shape.
type formattedLineItem struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unitPrice"`
	Total       float64 `json:"total"`
	VAT         float64 `json:"vat"`
}

// formattedReceipt is the frontend receipt shape.
type formattedReceipt struct {
	ID            string              `json:"id"`
	ReceiptNumber string              `json:"receiptNumber"`
	Vendor        string              `json:"vendor"`
	VendorVAT     *string             `json:"vendorVAT"`
	Date          string              `json:"date"`
	Total         float64             `json:"total"`
	Subtotal      float64             `json:"subtotal"`
	VAT           *float64            `json:"vat"`
	VATRate       *float64            `json:"vatRate"`
	PaymentMethod *string             `json:"paymentMethod"`
	Category      string              `json:"category"`
	Currency      string              `json:"currency"`
	ImageURL      *string             `json:"imageUrl"`
	LineItems     []formattedLineItem `json:"lineItems"`
	Status        string              `json:"status"`
	Tags          []string            `json:"tags"`
	Notes         *string             `json:"notes"`
	CreatedAt     string              `json:"createdAt"`
	UpdatedAt     string              `json:"updatedAt"`
	AuditFlags    auditFlagsPayload   `json:"auditFlags"`
}

type auditFlagsPayload struct {
	IsDuplicate        bool    `json:"isDuplicate"`
	HasTotalMismatch   bool    `json:"hasTotalMismatch"`
	MissingVAT         bool    `json:"missingVAT"`
	SuspiciousCategory *string `json:"suspiciousCategory"`
}

func formatReceipt(r *domain.Receipt, items []domain.LineItem) formattedReceipt {
	status := "verified"
	switch {
	case r.Flags.Duplicate:
		status = "duplicate"
	case r.Flags.Any():
		status = "flagged"
	}

	var vat *float64
	subtotal := r.TotalAmount
	if r.TaxAmount != nil && *r.TaxAmount != 0 {
		v := *r.TaxAmount
		vat = &v
		subtotal = r.TotalAmount - v
	}

	var suspicious *string
	if r.Flags.Suspicious {
		s := "Alcohol/Tobacco"
		suspicious = &s
	}

	category := r.Category
	if category == "" {
		category = classify.CategoryOther
	}

	lineItems := make([]formattedLineItem, 0, len(items))
	for _, item := range items {
		lineItems = append(lineItems, formattedLineItem{
			ID:          item.ID,
			Description: item.Description,
			Quantity:    1,
			UnitPrice:   item.Amount,
			Total:       item.Amount,
			VAT:         0,
		})
	}

	return formattedReceipt{
		ID:            r.ID,
		ReceiptNumber: receiptNumber(r.ID),
		Vendor:        r.VendorName,
		Date:          r.Date.Format("2006-01-02"),
		Total:         r.TotalAmount,
		Subtotal:      subtotal,
		VAT:           vat,
		Category:      category,
		Currency:      r.Currency,
		LineItems:     lineItems,
		Status:        status,
		Tags:          []string{},
		CreatedAt:     r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:     r.CreatedAt.Format(time.RFC3339),
		AuditFlags: auditFlagsPayload{
			IsDuplicate:        r.Flags.Duplicate,
			HasTotalMismatch:   r.Flags.MathError,
			MissingVAT:         r.Flags.MissingVAT,
			SuspiciousCategory: suspicious,
		},
	}
}

// ReceiptsHandler handles receipt listing endpoints.
type ReceiptsHandler struct {
	repo store.ReceiptRepository
	log  zerolog.Logger
}

// NewReceiptsHandler creates a new receipts handler.
func NewReceiptsHandler(repo store.ReceiptRepository, log zerolog.Logger) *ReceiptsHandler {
	return &ReceiptsHandler{repo: repo, log: log}
}

// ListReceipts handles GET /api/receipts
func (h *ReceiptsHandler) ListReceipts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	receipts, err := h.repo.ListReceipts(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list receipts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list receipts")
		return
	}

	formatted := make([]formattedReceipt, 0, len(receipts))
	for _, receipt := range receipts {
		items, err := h.repo.ListLineItems(ctx, receipt.ID)
		if err != nil {
			h.log.Error().Err(err).Str("receipt_id", receipt.ID).Msg("Failed to list line items")
			middleware.WriteError(w, http.StatusInternalServerError, "Failed to list receipts")
			return
		}
		formatted = append(formatted, formatReceipt(receipt, items))
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"count":    len(formatted),
		"receipts": formatted,
	})
}

// auditFinding is one row on the audit page. Only the fields relevant to the
// bucket it appears in are set.
type auditFinding struct {
	ReceiptID     string   `json:"receiptId"`
	ReceiptNumber string   `json:"receiptNumber"`
	Vendor        string   `json:"vendor"`
	Date          string   `json:"date"`
	Total         float64  `json:"total"`
	Reason        string   `json:"reason,omitempty"`
	Issue         string   `json:"issue,omitempty"`
	ExpectedTotal *float64 `json:"expectedTotal,omitempty"`
	ActualTotal   *float64 `json:"actualTotal,omitempty"`
	Difference    *float64 `json:"difference,omitempty"`
	Category      string   `json:"category,omitempty"`
}

// AuditHandler serves flagged receipts grouped by finding type.
type AuditHandler struct {
	repo store.ReceiptRepository
	log  zerolog.Logger
}

// NewAuditHandler creates a new audit handler.
func NewAuditHandler(repo store.ReceiptRepository, log zerolog.Logger) *AuditHandler {
	return &AuditHandler{repo: repo, log: log}
}

// ListFindings handles GET /api/audit
func (h *AuditHandler) ListFindings(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	receipts, err := h.repo.ListReceipts(ctx)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list receipts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to load audit findings")
		return
	}

	duplicates := []auditFinding{}
	mismatches := []auditFinding{}
	missingVAT := []auditFinding{}
	suspicious := []auditFinding{}

	for _, receipt := range receipts {
		if !receipt.Flags.Any() {
			continue
		}

		base := auditFinding{
			ReceiptID:     receipt.ID,
			ReceiptNumber: receiptNumber(receipt.ID),
			Vendor:        receipt.VendorName,
			Date:          receipt.Date.Format("2006-01-02"),
			Total:         receipt.TotalAmount,
		}

		if receipt.Flags.Duplicate {
			finding := base
			finding.Reason = "Duplicate receipt detected"
			duplicates = append(duplicates, finding)
		}

		if receipt.Flags.MathError {
			items, err := h.repo.ListLineItems(ctx, receipt.ID)
			if err != nil {
				h.log.Error().Err(err).Str("receipt_id", receipt.ID).Msg("Failed to list line items")
				middleware.WriteError(w, http.StatusInternalServerError, "Failed to load audit findings")
				return
			}
			expected := domain.ItemsTotal(items)
			actual := receipt.TotalAmount
			diff := audit.MathDifference(receipt, items)

			finding := base
			finding.Issue = "Total mismatch"
			finding.ExpectedTotal = &expected
			finding.ActualTotal = &actual
			finding.Difference = &diff
			mismatches = append(mismatches, finding)
		}

		if receipt.Flags.MissingVAT {
			finding := base
			finding.Issue = "Missing VAT"
			missingVAT = append(missingVAT, finding)
		}

		if receipt.Flags.Suspicious {
			finding := base
			finding.Issue = "Suspicious items detected"
			finding.Category = "Alcohol/Tobacco"
			suspicious = append(suspicious, finding)
		}
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"duplicates": duplicates,
		"mismatches": mismatches,
		"missingVAT": missingVAT,
		"suspicious": suspicious,
		"summary": map[string]int{
			"totalDuplicates": len(duplicates),
			"totalMismatches": len(mismatches),
			"totalMissingVAT": len(missingVAT),
			"totalSuspicious": len(suspicious),
		},
	})
}

// IngestHandler accepts structured receipts.
type IngestHandler struct {
	service *ingest.Service
	log     zerolog.Logger
}

// NewIngestHandler creates a new ingest handler.
func NewIngestHandler(service *ingest.Service, log zerolog.Logger) *IngestHandler {
	return &IngestHandler{service: service, log: log}
}

type ingestLineItem struct {
	Description string  `json:"description"`
	Amount      float64 `json:"amount"`
}

type ingestRequest struct {
	VendorName  string           `json:"vendor_name"`
	Date        string           `json:"date"`
	TotalAmount float64          `json:"total_amount"`
	TaxAmount   *float64         `json:"tax_amount"`
	Currency    string           `json:"currency"`
	Category    string           `json:"category"`
	Items       []ingestLineItem `json:"items"`
}

// IngestReceipt handles POST /api/ingest
// Audit checks run as part of ingestion; the response carries the resulting
// flags.
func (h *IngestHandler) IngestReceipt(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if req.VendorName == "" {
		middleware.WriteError(w, http.StatusBadRequest, "vendor_name is required")
		return
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	receipt := &domain.Receipt{
		VendorName:  req.VendorName,
		Date:        date,
		TotalAmount: req.TotalAmount,
		TaxAmount:   req.TaxAmount,
		Currency:    req.Currency,
		Category:    req.Category,
	}

	items := make([]domain.LineItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, domain.LineItem{
			Description: item.Description,
			Amount:      item.Amount,
		})
	}

	if err := h.service.IngestReceipt(r.Context(), receipt, items); err != nil {
		h.log.Error().Err(err).Str("vendor", req.VendorName).Msg("Failed to ingest receipt")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to ingest receipt")
		return
	}

	middleware.WriteJSON(w, http.StatusCreated, formatReceipt(receipt, items))
}

// ExtractHandler accepts receipt image uploads and enqueues extraction.
type ExtractHandler struct {
	storage   images.StorageService
	publisher jobs.Publisher
	bucket    string
	log       zerolog.Logger
}

// NewExtractHandler creates a new extract handler.
func NewExtractHandler(storage images.StorageService, publisher jobs.Publisher, bucket string, log zerolog.Logger) *ExtractHandler {
	return &ExtractHandler{
		storage:   storage,
		publisher: publisher,
		bucket:    bucket,
		log:       log,
	}
}

// UploadImage handles POST /api/extract/upload
// The image is stored in GCS and an extraction job is queued.
func (h *ExtractHandler) UploadImage(w http.ResponseWriter, r *http.Request) {
	if h.bucket == "" || h.storage == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Image uploads are not configured")
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	objectName := fmt.Sprintf("receipts/%s/%s", time.Now().Format("2006/01/02"), uuid.NewString()+"-"+header.Filename)

	ctx := r.Context()
	gcsURI, err := h.storage.UploadImage(ctx, h.bucket, objectName, file)
	if err != nil {
		h.log.Error().Err(err).Str("object", objectName).Msg("Failed to upload image")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to upload image")
		return
	}

	job := &jobs.ExtractReceiptJob{GCSURI: gcsURI}
	if err := h.publisher.PublishExtractReceipt(ctx, job); err != nil {
		h.log.Error().Err(err).Str("gcs_uri", gcsURI).Msg("Failed to enqueue extraction job")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to enqueue extraction job")
		return
	}

	h.log.Info().Str("job_id", job.JobID).Str("gcs_uri", gcsURI).Msg("Extraction job enqueued")

	middleware.WriteJSON(w, http.StatusAccepted, map[string]string{
		"job_id":  job.JobID,
		"gcs_uri": gcsURI,
		"status":  string(job.Status),
	})
}

// Answerer generates a chat response for a question.
type Answerer interface {
	Answer(ctx context.Context, question string, history []chat.Message) (*chat.Response, error)
}

// ChatHandler answers bookkeeping questions.
type ChatHandler struct {
	service Answerer
	log     zerolog.Logger
}

// NewChatHandler creates a new chat handler.
func NewChatHandler(service Answerer, log zerolog.Logger) *ChatHandler {
	return &ChatHandler{service: service, log: log}
}

type chatRequest struct {
	Message string         `json:"message"`
	History []chat.Message `json:"history"`
}

// Chat handles POST /api/chat
func (h *ChatHandler) Chat(w http.ResponseWriter, r *http.Request) {
	var req chatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		middleware.WriteError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	if strings.TrimSpace(req.Message) == "" {
		middleware.WriteError(w, http.StatusBadRequest, "message is required")
		return
	}

	resp, err := h.service.Answer(r.Context(), req.Message, req.History)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to answer chat message")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to answer question")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, resp)
}

// Searcher finds receipts semantically similar to a query.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]rag.SearchResult, error)
}

// SearchHandler serves semantic receipt search.
type SearchHandler struct {
	index Searcher
	log   zerolog.Logger
}

// NewSearchHandler creates a new search handler.
func NewSearchHandler(index Searcher, log zerolog.Logger) *SearchHandler {
	return &SearchHandler{index: index, log: log}
}

// Search handles GET /api/search
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	if h.index == nil {
		middleware.WriteError(w, http.StatusServiceUnavailable, "Semantic search is not configured")
		return
	}

	query := r.URL.Query().Get("query")
	if query == "" {
		middleware.WriteError(w, http.StatusBadRequest, "query is required")
		return
	}

	limit := 10
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if parsed, err := strconv.Atoi(limitStr); err == nil && parsed > 0 {
			limit = parsed
		}
	}

	results, err := h.index.Search(r.Context(), query, limit)
	if err != nil {
		h.log.Error().Err(err).Str("query", query).Msg("Search failed")
		middleware.WriteError(w, http.StatusInternalServerError, "Search failed")
		return
	}

	if results == nil {
		results = []rag.SearchResult{}
	}
	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": results,
		"count":   len(results),
	})
}

// AnalyticsHandler serves spending breakdowns.
type AnalyticsHandler struct {
	repo store.ReceiptRepository
	log  zerolog.Logger
}

// NewAnalyticsHandler creates a new analytics handler.
func NewAnalyticsHandler(repo store.ReceiptRepository, log zerolog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{repo: repo, log: log}
}

type monthlyTotal struct {
	Month string  `json:"month"`
	Total float64 `json:"total"`
}

type categoryTotal struct {
	Category string  `json:"category"`
	Total    float64 `json:"total"`
}

// MonthlyTotals handles GET /api/analytics/monthly
// Months are YYYY-MM, ascending.
func (h *AnalyticsHandler) MonthlyTotals(w http.ResponseWriter, r *http.Request) {
	receipts, err := h.repo.ListReceipts(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list receipts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute analytics")
		return
	}

	byMonth := make(map[string]float64)
	for _, receipt := range receipts {
		byMonth[receipt.Date.Format("2006-01")] += receipt.TotalAmount
	}

	totals := make([]monthlyTotal, 0, len(byMonth))
	for month, total := range byMonth {
		totals = append(totals, monthlyTotal{Month: month, Total: round2(total)})
	}
	sort.Slice(totals, func(i, j int) bool { return totals[i].Month < totals[j].Month })

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"monthly_totals": totals,
	})
}

// CategoryTotals handles GET /api/analytics/category
// Categories are ordered by descending total.
func (h *AnalyticsHandler) CategoryTotals(w http.ResponseWriter, r *http.Request) {
	receipts, err := h.repo.ListReceipts(r.Context())
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list receipts")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to compute analytics")
		return
	}

	byCategory := make(map[string]float64)
	for _, receipt := range receipts {
		category := receipt.Category
		if category == "" {
			category = classify.CategoryOther
		}
		byCategory[category] += receipt.TotalAmount
	}

	totals := make([]categoryTotal, 0, len(byCategory))
	for category, total := range byCategory {
		totals = append(totals, categoryTotal{Category: category, Total: round2(total)})
	}
	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Total != totals[j].Total {
			return totals[i].Total > totals[j].Total
		}
		return totals[i].Category < totals[j].Category
	})

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"category_totals": totals,
	})
}

// JobsHandler serves extraction job status.
type JobsHandler struct {
	store jobs.JobStore
	log   zerolog.Logger
}

// NewJobsHandler creates a new jobs handler.
func NewJobsHandler(store jobs.JobStore, log zerolog.Logger) *JobsHandler {
	return &JobsHandler{store: store, log: log}
}

// GetJob handles GET /api/jobs/{id}
func (h *JobsHandler) GetJob(w http.ResponseWriter, r *http.Request, jobID string) {
	job, err := h.store.GetJob(r.Context(), jobID)
	if err != nil {
		h.log.Error().Err(err).Str("job_id", jobID).Msg("Failed to get job")
		middleware.WriteError(w, http.StatusNotFound, "Job not found")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, job)
}

// ListJobs handles GET /api/jobs
func (h *JobsHandler) ListJobs(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	filter := jobs.JobFilter{
		GCSURI: query.Get("gcs_uri"),
		Status: jobs.JobStatus(query.Get("status")),
	}

	if limitStr := query.Get("limit"); limitStr != "" {
		if limit, err := strconv.Atoi(limitStr); err == nil {
			filter.Limit = limit
		}
	}

	if offsetStr := query.Get("offset"); offsetStr != "" {
		if offset, err := strconv.Atoi(offsetStr); err == nil {
			filter.Offset = offset
		}
	}

	jobsList, err := h.store.ListJobs(r.Context(), filter)
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to list jobs")
		middleware.WriteError(w, http.StatusInternalServerError, "Failed to list jobs")
		return
	}

	middleware.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"jobs":  jobsList,
		"count": len(jobsList),
	})
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
