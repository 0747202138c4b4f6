package inmemory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/dvloznov/receipt-auditor/internal/domain"
	"github.com/dvloznov/receipt-auditor/internal/store"
)

// Store is an in-memory implementation of ReceiptRepository.
// It is safe for concurrent use and keeps insertion order, which makes it
// suitable for tests and for single-instance deployments without BigQuery.
type Store struct {
	mu       sync.RWMutex
	order    []string
	receipts map[string]*domain.Receipt
	items    map[string][]domain.LineItem
}

// NewStore creates an empty in-memory receipt store.
func NewStore() *Store {
	return &Store{
		receipts: make(map[string]*domain.Receipt),
		items:    make(map[string][]domain.LineItem),
	}
}

// InsertReceipt implements ReceiptRepository.
func (s *Store) InsertReceipt(ctx context.Context, r *domain.Receipt, items []domain.LineItem) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	cp := *r
	s.receipts[r.ID] = &cp
	s.order = append(s.order, r.ID)

	stored := make([]domain.LineItem, len(items))
	copy(stored, items)
	for i := range stored {
		stored[i].ReceiptID = r.ID
	}
	s.items[r.ID] = stored

	return nil
}

// UpdateAuditFlags implements ReceiptRepository.
func (s *Store) UpdateAuditFlags(ctx context.Context, receiptID string, flags domain.AuditFlags) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, ok := s.receipts[receiptID]
	if !ok {
		return store.ErrNotFound
	}
	r.Flags = flags
	return nil
}

// GetReceipt implements ReceiptRepository.
func (s *Store) GetReceipt(ctx context.Context, receiptID string) (*domain.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.receipts[receiptID]
	if !ok {
		return nil, store.ErrNotFound
	}
	cp := *r
	return &cp, nil
}

// ListReceipts implements ReceiptRepository. Receipts come back in
// insertion order so aggregation output stays deterministic.
func (s *Store) ListReceipts(ctx context.Context) ([]*domain.Receipt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Receipt, 0, len(s.order))
	for _, id := range s.order {
		cp := *s.receipts[id]
		result = append(result, &cp)
	}
	return result, nil
}

// ListLineItems implements ReceiptRepository.
func (s *Store) ListLineItems(ctx context.Context, receiptID string) ([]domain.LineItem, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	items, ok := s.items[receiptID]
	if !ok {
		return nil, store.ErrNotFound
	}
	result := make([]domain.LineItem, len(items))
	copy(result, items)
	return result, nil
}

// DistinctVendors implements ReceiptRepository.
func (s *Store) DistinctVendors(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var vendors []string
	for _, id := range s.order {
		v := s.receipts[id].VendorName
		if !seen[v] {
			seen[v] = true
			vendors = append(vendors, v)
		}
	}
	sort.Strings(vendors)
	return vendors, nil
}

// DistinctCategories implements ReceiptRepository.
func (s *Store) DistinctCategories(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	seen := make(map[string]bool)
	var categories []string
	for _, id := range s.order {
		c := s.receipts[id].Category
		if c != "" && !seen[c] {
			seen[c] = true
			categories = append(categories, c)
		}
	}
	sort.Strings(categories)
	return categories, nil
}

// ExistsDuplicate implements ReceiptRepository. The comparison is by exact
// (vendor, date, total) tuple, never by content.
func (s *Store) ExistsDuplicate(ctx context.Context, vendorName string, date time.Time, totalAmount float64, excludeID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, id := range s.order {
		r := s.receipts[id]
		if r.ID == excludeID {
			continue
		}
		if r.VendorName == vendorName && r.Date.Equal(date) && r.TotalAmount == totalAmount {
			return true, nil
		}
	}
	return false, nil
}

// DeleteAll implements ReceiptRepository.
func (s *Store) DeleteAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.order = nil
	s.receipts = make(map[string]*domain.Receipt)
	s.items = make(map[string][]domain.LineItem)
	return nil
}

// Ensure Store implements the repository interface.
var _ store.ReceiptRepository = (*Store)(nil)
