package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/dvloznov/receipt-auditor/internal/api/handlers"
	"github.com/dvloznov/receipt-auditor/internal/api/middleware"
	"github.com/dvloznov/receipt-auditor/internal/chat"
	"github.com/dvloznov/receipt-auditor/internal/config"
	"github.com/dvloznov/receipt-auditor/internal/extract"
	"github.com/dvloznov/receipt-auditor/internal/images"
	"github.com/dvloznov/receipt-auditor/internal/ingest"
	"github.com/dvloznov/receipt-auditor/internal/jobs"
	jobsinmemory "github.com/dvloznov/receipt-auditor/internal/jobs/inmemory"
	"github.com/dvloznov/receipt-auditor/internal/logger"
	"github.com/dvloznov/receipt-auditor/internal/rag"
	storebq "github.com/dvloznov/receipt-auditor/internal/store/bigquery"
)

func main() {
	cfg := config.Load()
	log := logger.New()

	ctx := logger.WithContext(context.Background(), log)

	if cfg.GCSBucket == "" {
		log.Warn().Msg("No GCS bucket configured - receipt image uploads will be disabled")
	}

	// Receipt storage
	repo, err := storebq.NewBigQueryReceiptRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create receipt repository")
	}
	defer repo.Close()

	// Vision extraction
	extractor, err := extract.NewGeminiExtractor(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create extractor")
	}
	extractor.WithModel(cfg.ExtractionModel)

	storage := images.NewGCSStorageService()

	// Semantic search, optional
	var index *rag.Index
	if cfg.QdrantAddr != "" {
		embedder, err := rag.NewCachedEmbedder(
			rag.NewOpenAIEmbedder(cfg.OpenAIAPIKey, cfg.OpenAIBaseURL),
			rag.DefaultCacheSize,
		)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create embedder")
		}

		index, err = rag.NewIndex(cfg.QdrantAddr, embedder)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Qdrant")
		}
		defer index.Close()

		if err := index.InitCollection(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to initialize vector collection")
		}
	} else {
		log.Warn().Msg("No Qdrant address configured - semantic search will be disabled")
	}

	var ingestService *ingest.Service
	if index != nil {
		ingestService = ingest.NewService(repo, extractor, storage, index)
	} else {
		ingestService = ingest.NewService(repo, extractor, storage, nil)
	}

	// Answer generation
	generator, err := chat.NewGeminiGenerator(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create answer generator")
	}
	generator.WithModel(cfg.ExtractionModel)

	var retriever chat.Retriever
	if index != nil {
		retriever = index
	}
	chatService := chat.NewService(repo, retriever, generator)

	// Job infrastructure
	jobStore := jobsinmemory.NewStore()
	jobQueue := jobsinmemory.NewQueue(100, jobStore)

	workerCtx, cancelWorker := context.WithCancel(ctx)
	defer cancelWorker()

	jobHandler := func(ctx context.Context, job jobs.Job) error {
		extractJob, ok := job.(*jobs.ExtractReceiptJob)
		if !ok {
			return fmt.Errorf("unexpected job type: %T", job)
		}

		log.Info().
			Str("job_id", extractJob.JobID).
			Str("gcs_uri", extractJob.GCSURI).
			Msg("Processing extraction job")

		receipt, err := ingestService.IngestReceiptFromGCS(ctx, extractJob.GCSURI)
		if err != nil {
			log.Error().
				Err(err).
				Str("job_id", extractJob.JobID).
				Msg("Extraction job failed")
			return err
		}

		extractJob.ReceiptID = receipt.ID

		log.Info().
			Str("job_id", extractJob.JobID).
			Str("receipt_id", receipt.ID).
			Msg("Extraction job completed")

		return nil
	}

	go func() {
		log.Info().Msg("Starting extraction worker")
		if err := jobQueue.Start(workerCtx, jobHandler); err != nil {
			log.Error().Err(err).Msg("Extraction worker stopped with error")
		}
	}()

	// Handlers
	receiptsHandler := handlers.NewReceiptsHandler(repo, log)
	auditHandler := handlers.NewAuditHandler(repo, log)
	ingestHandler := handlers.NewIngestHandler(ingestService, log)
	extractHandler := handlers.NewExtractHandler(storage, jobQueue, cfg.GCSBucket, log)
	chatHandler := handlers.NewChatHandler(chatService, log)
	analyticsHandler := handlers.NewAnalyticsHandler(repo, log)
	jobsHandler := handlers.NewJobsHandler(jobStore, log)

	var searchHandler *handlers.SearchHandler
	if index != nil {
		searchHandler = handlers.NewSearchHandler(index, log)
	} else {
		searchHandler = handlers.NewSearchHandler(nil, log)
	}

	mux := http.NewServeMux()

	mux.HandleFunc("/api/receipts", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			receiptsHandler.ListReceipts(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/audit", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			auditHandler.ListFindings(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/ingest", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			ingestHandler.IngestReceipt(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.Handle("/api/extract/upload", middleware.LimitUpload(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			extractHandler.UploadImage(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})))

	mux.HandleFunc("/api/chat", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPost {
			chatHandler.Chat(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/search", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			searchHandler.Search(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/analytics/monthly", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			analyticsHandler.MonthlyTotals(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/analytics/category", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			analyticsHandler.CategoryTotals(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobsHandler.ListJobs(w, r)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/api/jobs/", func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodGet {
			jobID := strings.TrimPrefix(r.URL.Path, "/api/jobs/")
			if jobID == "" {
				middleware.WriteError(w, http.StatusBadRequest, "Job ID is required")
				return
			}
			jobsHandler.GetJob(w, r, jobID)
		} else {
			middleware.WriteError(w, http.StatusMethodNotAllowed, "Method not allowed")
		}
	})

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		middleware.WriteJSON(w, http.StatusOK, map[string]string{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	handler := middleware.Recovery(log)(
		middleware.Logger(log)(
			middleware.RequestID(
				middleware.CORS(mux),
			),
		),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Info().Str("port", cfg.Port).Msg("Starting API server")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("Shutting down server...")

	cancelWorker()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	if err := jobQueue.Stop(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Error stopping job queue")
	}

	if err := jobQueue.Close(); err != nil {
		log.Error().Err(err).Msg("Failed to close job queue")
	}

	log.Info().Msg("Server exited")
}
