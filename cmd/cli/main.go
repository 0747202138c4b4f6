package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dvloznov/receipt-auditor/internal/chat"
	"github.com/dvloznov/receipt-auditor/internal/config"
	"github.com/dvloznov/receipt-auditor/internal/domain"
	"github.com/dvloznov/receipt-auditor/internal/extract"
	"github.com/dvloznov/receipt-auditor/internal/images"
	"github.com/dvloznov/receipt-auditor/internal/ingest"
	"github.com/dvloznov/receipt-auditor/internal/logger"
	storebq "github.com/dvloznov/receipt-auditor/internal/store/bigquery"
	"github.com/rs/zerolog"
)

func main() {
	config.Load()
	log := logger.New()

	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "upload":
		runUpload(log)
	case "extract":
		runExtract(log)
	case "ask":
		runAsk(log)
	case "inspect":
		runInspect(log)
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Receipt Auditor CLI")
	fmt.Println("\nUsage:")
	fmt.Println("  cli <command> [options]")
	fmt.Println("\nCommands:")
	fmt.Println("  upload    Upload a receipt image to GCS")
	fmt.Println("  extract   Extract and ingest a receipt image from GCS")
	fmt.Println("  ask       Ask a question about your receipts")
	fmt.Println("  inspect   Inspect a receipt and its audit flags")
	fmt.Println("  help      Show this help message")
	fmt.Println("\nRun 'cli <command> -h' for more information on a command.")
}

func runUpload(log zerolog.Logger) {
	fs := flag.NewFlagSet("upload", flag.ExitOnError)
	bucketName := fs.String("bucket", os.Getenv("GCS_BUCKET"), "GCS bucket name")
	objectName := fs.String("object", "", "GCS object name (defaults to filename)")
	filePath := fs.String("file", "", "Path to local receipt image")
	fs.Parse(os.Args[2:])

	if *bucketName == "" || *filePath == "" {
		log.Fatal().Msg("Usage: cli upload -bucket NAME -file PATH")
	}

	if *objectName == "" {
		*objectName = filepath.Base(*filePath)
	}

	ctx := logger.WithContext(context.Background(), log)

	f, err := os.Open(*filePath)
	if err != nil {
		log.Fatal().Err(err).Str("file", *filePath).Msg("Failed to open file")
	}
	defer f.Close()

	storage := images.NewGCSStorageService()
	gcsURI, err := storage.UploadImage(ctx, *bucketName, *objectName, f)
	if err != nil {
		log.Fatal().Err(err).Msg("Upload failed")
	}

	fmt.Printf("Uploaded %s to %s\n", *filePath, gcsURI)
}

func runExtract(log zerolog.Logger) {
	fs := flag.NewFlagSet("extract", flag.ExitOnError)
	gcsURI := fs.String("gcs-uri", "", "GCS URI of the receipt image")
	fs.Parse(os.Args[2:])

	if *gcsURI == "" {
		log.Fatal().Msg("Error: --gcs-uri is required")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo, err := storebq.NewBigQueryReceiptRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create receipt repository")
	}
	defer repo.Close()

	extractor, err := extract.NewGeminiExtractor(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create extractor")
	}

	svc := ingest.NewService(repo, extractor, images.NewGCSStorageService(), nil)

	log.Info().Str("gcs_uri", *gcsURI).Msg("Starting extraction")

	receipt, err := svc.IngestReceiptFromGCS(ctx, *gcsURI)
	if err != nil {
		log.Fatal().Err(err).Msg("Extraction failed")
	}

	fmt.Printf("Ingested receipt %s from %s (%.2f %s)\n",
		receipt.ID, receipt.VendorName, receipt.TotalAmount, receipt.Currency)
	if receipt.Flags.Any() {
		fmt.Println("Audit flags:", flagSummary(receipt.Flags))
	}
}

func runAsk(log zerolog.Logger) {
	fs := flag.NewFlagSet("ask", flag.ExitOnError)
	fs.Parse(os.Args[2:])

	question := ""
	if args := fs.Args(); len(args) > 0 {
		question = args[0]
	}
	if question == "" {
		log.Fatal().Msg("Usage: cli ask \"question\"")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()
	ctx = logger.WithContext(ctx, log)

	repo, err := storebq.NewBigQueryReceiptRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create receipt repository")
	}
	defer repo.Close()

	generator, err := chat.NewGeminiGenerator(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create answer generator")
	}

	svc := chat.NewService(repo, nil, generator)

	resp, err := svc.Answer(ctx, question, nil)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to answer question")
	}

	fmt.Println(resp.Answer)
	fmt.Printf("\n(filter: %s, receipts: %d, total: %.2f)\n",
		resp.Result.Filter, resp.Result.Count, resp.Result.Total)
}

func runInspect(log zerolog.Logger) {
	fs := flag.NewFlagSet("inspect", flag.ExitOnError)
	receiptID := fs.String("receipt-id", "", "Receipt ID to inspect")
	fs.Parse(os.Args[2:])

	if *receiptID == "" {
		log.Fatal().Msg("Error: --receipt-id is required")
	}

	ctx := logger.WithContext(context.Background(), log)

	repo, err := storebq.NewBigQueryReceiptRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create receipt repository")
	}
	defer repo.Close()

	receipt, err := repo.GetReceipt(ctx, *receiptID)
	if err != nil {
		log.Fatal().Err(err).Msg("Receipt not found")
	}

	items, err := repo.ListLineItems(ctx, receipt.ID)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to list line items")
	}

	fmt.Println("\n=== Receipt Details ===")
	fmt.Printf("ID:       %s\n", receipt.ID)
	fmt.Printf("Vendor:   %s\n", receipt.VendorName)
	fmt.Printf("Date:     %s\n", receipt.Date.Format("2006-01-02"))
	fmt.Printf("Total:    %.2f %s\n", receipt.TotalAmount, receipt.Currency)
	if receipt.TaxAmount != nil {
		fmt.Printf("VAT:      %.2f %s\n", *receipt.TaxAmount, receipt.Currency)
	}
	if receipt.Category != "" {
		fmt.Printf("Category: %s\n", receipt.Category)
	}
	fmt.Printf("Flags:    %s\n", flagSummary(receipt.Flags))

	fmt.Printf("\n=== Line Items (%d) ===\n", len(items))
	for i, item := range items {
		fmt.Printf("%d. %-40s %8.2f\n", i+1, item.Description, item.Amount)
	}
	fmt.Println()
}

func flagSummary(flags domain.AuditFlags) string {
	if !flags.Any() {
		return "none"
	}

	var parts []string
	if flags.Duplicate {
		parts = append(parts, "duplicate")
	}
	if flags.Suspicious {
		parts = append(parts, "suspicious")
	}
	if flags.MissingVAT {
		parts = append(parts, "missing VAT")
	}
	if flags.MathError {
		parts = append(parts, "math error")
	}

	out := parts[0]
	for _, p := range parts[1:] {
		out += ", " + p
	}
	return out
}
