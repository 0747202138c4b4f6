// Seeds the receipt store with test data covering every audit scenario:
// roughly 10% suspicious items, 10% math errors, 10% missing VAT, one
// deliberate duplicate pair, and clean receipts for the rest.
package main

import (
	"context"
	"flag"
	"math/rand"
	"time"

	"github.com/dvloznov/receipt-auditor/internal/classify"
	"github.com/dvloznov/receipt-auditor/internal/config"
	"github.com/dvloznov/receipt-auditor/internal/domain"
	"github.com/dvloznov/receipt-auditor/internal/ingest"
	"github.com/dvloznov/receipt-auditor/internal/logger"
	storebq "github.com/dvloznov/receipt-auditor/internal/store/bigquery"
)

var vendors = []string{"Amazon", "Deutsche Bahn", "Lufthansa", "Rewe", "Shell", "MediaMarkt", "Pub Express"}

var cleanItems = []string{
	"Office Chair", "Desk Lamp", "Notebook", "Pen Set", "Coffee",
	"Sandwich", "Water Bottle", "USB Cable", "Monitor", "Keyboard",
	"Mouse Pad", "Printer Paper", "Stapler", "File Folders", "Headphones",
	"Train Ticket", "Taxi Fare", "Hotel Stay", "Flight Ticket", "Fuel",
}

var suspiciousItems = []string{
	"Beer", "Wine", "Vodka", "Whiskey", "Cigarettes",
	"Tobacco", "Rum", "Champagne",
}

func main() {
	var (
		count = flag.Int("count", 50, "number of receipts to generate")
		seed  = flag.Int64("seed", time.Now().UnixNano(), "random seed")
		wipe  = flag.Bool("wipe", true, "delete existing receipts first")
	)
	flag.Parse()

	config.Load()
	log := logger.New()
	ctx := logger.WithContext(context.Background(), log)
	rng := rand.New(rand.NewSource(*seed))

	repo, err := storebq.NewBigQueryReceiptRepository(ctx)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to create receipt repository")
	}
	defer repo.Close()

	if *wipe {
		if err := repo.DeleteAll(ctx); err != nil {
			log.Fatal().Err(err).Msg("Failed to delete existing receipts")
		}
		log.Info().Msg("Existing receipts deleted")
	}

	svc := ingest.NewService(repo, nil, nil, nil)

	created := map[string]int{}
	for i := 0; i < *count; i++ {
		var receipt *domain.Receipt
		var items []domain.LineItem
		var kind string

		switch r := rng.Float64(); {
		case r < 0.10:
			receipt, items = suspiciousReceipt(rng)
			kind = "suspicious"
		case r < 0.20:
			receipt, items = mathErrorReceipt(rng)
			kind = "math_error"
		case r < 0.30:
			receipt, items = missingVATReceipt(rng)
			kind = "missing_vat"
		default:
			receipt, items = cleanReceipt(rng)
			kind = "clean"
		}

		if err := svc.IngestReceipt(ctx, receipt, items); err != nil {
			log.Fatal().Err(err).Str("vendor", receipt.VendorName).Msg("Failed to ingest receipt")
		}
		created[kind]++
	}

	// One deliberate duplicate pair on top of the random batch.
	first, firstItems := cleanReceipt(rng)
	if err := svc.IngestReceipt(ctx, first, firstItems); err != nil {
		log.Fatal().Err(err).Msg("Failed to ingest duplicate original")
	}
	second := &domain.Receipt{
		VendorName:  first.VendorName,
		Date:        first.Date,
		TotalAmount: first.TotalAmount,
		TaxAmount:   first.TaxAmount,
		Currency:    first.Currency,
		Category:    first.Category,
	}
	secondItems := make([]domain.LineItem, len(firstItems))
	for i, item := range firstItems {
		secondItems[i] = domain.LineItem{Description: item.Description, Amount: item.Amount}
	}
	if err := svc.IngestReceipt(ctx, second, secondItems); err != nil {
		log.Fatal().Err(err).Msg("Failed to ingest duplicate copy")
	}
	created["duplicate_pair"] = 2

	log.Info().
		Int("clean", created["clean"]).
		Int("suspicious", created["suspicious"]).
		Int("math_error", created["math_error"]).
		Int("missing_vat", created["missing_vat"]).
		Int("duplicate_pair", created["duplicate_pair"]).
		Msg("Seeding complete")
}

func randomDate(rng *rand.Rand) time.Time {
	daysAgo := rng.Intn(90)
	return time.Now().AddDate(0, 0, -daysAgo).Truncate(24 * time.Hour)
}

func randomItems(rng *rand.Rand, n int, pool []string, min, max float64) ([]domain.LineItem, float64) {
	items := make([]domain.LineItem, 0, n)
	var total float64
	for i := 0; i < n; i++ {
		amount := round2(min + rng.Float64()*(max-min))
		total += amount
		items = append(items, domain.LineItem{
			Description: pool[rng.Intn(len(pool))],
			Amount:      amount,
		})
	}
	return items, round2(total)
}

func cleanReceipt(rng *rand.Rand) (*domain.Receipt, []domain.LineItem) {
	vendor := vendors[rng.Intn(len(vendors))]
	items, total := randomItems(rng, 1+rng.Intn(5), cleanItems, 5.0, 150.0)
	tax := round2(total * 0.19)

	return &domain.Receipt{
		VendorName:  vendor,
		Date:        randomDate(rng),
		TotalAmount: total,
		TaxAmount:   &tax,
		Currency:    "EUR",
		Category:    classify.VendorCategory(vendor),
	}, items
}

func suspiciousReceipt(rng *rand.Rand) (*domain.Receipt, []domain.LineItem) {
	pubVendors := []string{"Rewe", "Shell", "Pub Express", "Aldi"}
	vendor := pubVendors[rng.Intn(len(pubVendors))]

	items, total := randomItems(rng, 1+rng.Intn(3), cleanItems, 5.0, 30.0)
	suspiciousAmount := round2(10.0 + rng.Float64()*40.0)
	items = append(items, domain.LineItem{
		Description: suspiciousItems[rng.Intn(len(suspiciousItems))],
		Amount:      suspiciousAmount,
	})
	total = round2(total + suspiciousAmount)
	tax := round2(total * 0.19)

	return &domain.Receipt{
		VendorName:  vendor,
		Date:        randomDate(rng),
		TotalAmount: total,
		TaxAmount:   &tax,
		Currency:    "EUR",
		Category:    "Meals",
	}, items
}

func mathErrorReceipt(rng *rand.Rand) (*domain.Receipt, []domain.LineItem) {
	vendor := vendors[rng.Intn(len(vendors))]
	items, total := randomItems(rng, 2+rng.Intn(4), cleanItems, 10.0, 100.0)

	// The stated total drifts away from the item sum.
	wrongTotal := round2(total + 5.0 + rng.Float64()*15.0)
	tax := round2(wrongTotal * 0.19)

	return &domain.Receipt{
		VendorName:  vendor,
		Date:        randomDate(rng),
		TotalAmount: wrongTotal,
		TaxAmount:   &tax,
		Currency:    "EUR",
		Category:    classify.VendorCategory(vendor),
	}, items
}

func missingVATReceipt(rng *rand.Rand) (*domain.Receipt, []domain.LineItem) {
	vendor := vendors[rng.Intn(len(vendors))]
	items, total := randomItems(rng, 1+rng.Intn(4), cleanItems, 10.0, 100.0)
	zero := 0.0

	return &domain.Receipt{
		VendorName:  vendor,
		Date:        randomDate(rng),
		TotalAmount: total,
		TaxAmount:   &zero,
		Currency:    "EUR",
		Category:    classify.VendorCategory(vendor),
	}, items
}

func round2(v float64) float64 {
	return float64(int(v*100+0.5)) / 100
}
