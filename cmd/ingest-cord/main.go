// Loads CORD dataset annotations into the receipt store. Point it at a
// directory of CORD JSON files; every parsed receipt runs through the normal
// ingestion path including audit checks.
package main

import (
	"context"
	"flag"

	"github.com/dvloznov/receipt-auditor/internal/config"
	"github.com/dvloznov/receipt-auditor/internal/cord"
	"github.com/dvloznov/receipt-auditor/internal/ingest"
	"github.com/dvloznov/receipt-auditor/internal/logger"
	storebq "github.com/dvloznov/receipt-auditor/internal/store/bigquery"
)

func main() {
	var (
		dir   = flag.String("dir", "", "directory containing CORD annotation JSON files")
		limit = flag.Int("limit", 0, "maximum receipts to ingest, 0 for all")
	)
	flag.Parse()

	config.Load()
	log := logger.New()
	ctx := logger.WithContext(context.Background(), log)

	if *dir == "" {
		log.Fatal().Msg("-dir is required")
	}

	repo, err := storebq.NewBigQueryReceiptRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create receipt repository")
	}
	defer repo.Close()

	receipts, itemLists, skipped, err := cord.LoadDir(*dir)
	if err != nil {
		log.Fatal().Err(err).Str("dir", *dir).Msg("Failed to load CORD annotations")
	}

	log.Info().
		Int("parsed", len(receipts)).
		Int("skipped", skipped).
		Msg("CORD annotations loaded")

	svc := ingest.NewService(repo, nil, nil, nil)

	ingested := 0
	for i, receipt := range receipts {
		if *limit > 0 && ingested >= *limit {
			break
		}

		if err := svc.IngestReceipt(ctx, receipt, itemLists[i]); err != nil {
			log.Error().Err(err).Str("vendor", receipt.VendorName).Msg("Failed to ingest receipt")
			continue
		}
		ingested++
	}

	log.Info().Int("ingested", ingested).Msg("CORD ingestion complete")
}
