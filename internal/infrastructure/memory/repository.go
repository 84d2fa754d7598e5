// Package memory provides an in-process Repository implementation. It backs
// the development storage mode and the engine's tests; production deployments
// use the postgres implementation.
package memory

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/supplymatch/backend/internal/domain"
)

// Repository is a thread-safe in-memory implementation of domain.Repository.
type Repository struct {
	mutex       sync.RWMutex
	nextID      int64
	products    map[int64]domain.ProductIdentity
	suppliers   map[string]domain.Supplier
	listings    []domain.SupplierListing
	corrections []domain.Correction
	cache       map[string]*domain.CacheEntry
	history     []domain.ComparisonHistory
}

// NewRepository creates an empty in-memory repository.
func NewRepository() *Repository {
	return &Repository{
		nextID:    1,
		products:  make(map[int64]domain.ProductIdentity),
		suppliers: make(map[string]domain.Supplier),
		cache:     make(map[string]*domain.CacheEntry),
	}
}

// AddSupplier registers a supplier.
func (r *Repository) AddSupplier(s domain.Supplier) domain.Supplier {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	s.ID = r.nextID
	r.nextID++
	s.Active = true
	r.suppliers[s.Code] = s
	return s
}

// AddProduct stores a product and returns the copy with its assigned ID.
func (r *Repository) AddProduct(p domain.ProductIdentity) domain.ProductIdentity {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	p.ID = r.nextID
	r.nextID++
	now := time.Now().UTC()
	p.CreatedAt = now
	p.UpdatedAt = now
	r.products[p.ID] = p
	return p
}

// AddListing stores a supplier listing for a product.
func (r *Repository) AddListing(l domain.SupplierListing) domain.SupplierListing {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	l.ID = r.nextID
	r.nextID++
	l.UpdatedAt = time.Now().UTC()
	r.listings = append(r.listings, l)
	return l
}

// RemoveProduct deletes a product; its cache entries become stale.
func (r *Repository) RemoveProduct(productID int64) {
	r.mutex.Lock()
	defer r.mutex.Unlock()
	delete(r.products, productID)
}

// FindIdentityByCode resolves a supplier-specific code to the canonical
// product and listing.
func (r *Repository) FindIdentityByCode(ctx context.Context, code, supplier string) (*domain.ProductIdentity, *domain.SupplierListing, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, l := range r.listings {
		if l.Supplier == supplier && l.Code == code && l.Active {
			if p, ok := r.products[l.ProductID]; ok {
				product := p
				listing := l
				return &product, &listing, nil
			}
		}
	}
	return nil, nil, nil
}

// FindListing returns the active listing for a product at a supplier.
func (r *Repository) FindListing(ctx context.Context, productID int64, supplier string) (*domain.SupplierListing, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	for _, l := range r.listings {
		if l.ProductID == productID && l.Supplier == supplier && l.Active {
			listing := l
			return &listing, nil
		}
	}
	return nil, nil
}

// FindConfirmedCorrections returns corrections recorded for a source code.
func (r *Repository) FindConfirmedCorrections(ctx context.Context, code, supplier string) ([]domain.Correction, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	var out []domain.Correction
	for _, c := range r.corrections {
		if c.SourceCode == code && c.SourceSupplier == supplier {
			out = append(out, c)
		}
	}
	return out, nil
}

// FindProduct returns a product by ID.
func (r *Repository) FindProduct(ctx context.Context, productID int64) (*domain.ProductIdentity, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	p, ok := r.products[productID]
	if !ok {
		return nil, domain.ErrProductNotFound
	}
	product := p
	return &product, nil
}

// ScanCandidates returns up to limit products, joined with their listing at
// the given supplier when one is named. Results are ordered by product ID so
// scans are repeatable.
func (r *Repository) ScanCandidates(ctx context.Context, supplier, category string, limit int) ([]domain.ScanRow, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	listingByProduct := make(map[int64]domain.SupplierListing)
	if supplier != "" {
		for _, l := range r.listings {
			if l.Supplier == supplier && l.Active {
				listingByProduct[l.ProductID] = l
			}
		}
	}

	ids := make([]int64, 0, len(r.products))
	for id := range r.products {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	var rows []domain.ScanRow
	for _, id := range ids {
		if len(rows) >= limit {
			break
		}
		p := r.products[id]
		if category != "" && p.Category != category {
			continue
		}

		row := domain.ScanRow{Product: p}
		if supplier != "" {
			l, ok := listingByProduct[id]
			if !ok {
				continue
			}
			listing := l
			row.Listing = &listing
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// SaveCorrection stores a correction, overwriting a duplicate mapping.
func (r *Repository) SaveCorrection(ctx context.Context, c *domain.Correction) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.suppliers[c.SourceSupplier]; !ok {
		return domain.ErrUnknownSupplier
	}

	for i, existing := range r.corrections {
		if existing.SourceSupplier == c.SourceSupplier &&
			existing.SourceCode == c.SourceCode &&
			existing.ProductID == c.ProductID &&
			existing.TargetSupplier == c.TargetSupplier {
			c.ID = existing.ID
			c.CreatedAt = existing.CreatedAt
			r.corrections[i] = *c
			return nil
		}
	}

	c.ID = r.nextID
	r.nextID++
	c.CreatedAt = time.Now().UTC()
	r.corrections = append(r.corrections, *c)
	return nil
}

// CacheGet returns the entry for a normalized query and bumps its hit count.
func (r *Repository) CacheGet(ctx context.Context, normalizedQuery string) (*domain.CacheEntry, error) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	entry, ok := r.cache[hashQuery(normalizedQuery)]
	if !ok {
		return nil, domain.ErrCacheMiss
	}
	entry.HitCount++
	entry.LastUsed = time.Now().UTC()

	copied := *entry
	return &copied, nil
}

// CachePut inserts or refreshes the entry for a normalized query. Overwrites
// are idempotent; the hit counter survives refreshes.
func (r *Repository) CachePut(ctx context.Context, normalizedQuery string, productID int64, score float64) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	hash := hashQuery(normalizedQuery)
	if entry, ok := r.cache[hash]; ok {
		entry.ProductID = productID
		entry.Score = score
		entry.LastUsed = time.Now().UTC()
		return nil
	}

	r.cache[hash] = &domain.CacheEntry{
		QueryHash: hash,
		QueryText: normalizedQuery,
		ProductID: productID,
		Score:     score,
		HitCount:  1,
		LastUsed:  time.Now().UTC(),
	}
	return nil
}

// ListSuppliers returns all registered suppliers ordered by code.
func (r *Repository) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	out := make([]domain.Supplier, 0, len(r.suppliers))
	for _, s := range r.suppliers {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return strings.Compare(out[i].Code, out[j].Code) < 0 })
	return out, nil
}

// SaveComparison appends a comparison audit record.
func (r *Repository) SaveComparison(ctx context.Context, h *domain.ComparisonHistory) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	h.ID = r.nextID
	r.nextID++
	h.CreatedAt = time.Now().UTC()
	r.history = append(r.history, *h)
	return nil
}

// UpsertSupplier inserts or refreshes a supplier by code.
func (r *Repository) UpsertSupplier(ctx context.Context, s *domain.Supplier) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if existing, ok := r.suppliers[s.Code]; ok {
		s.ID = existing.ID
	} else {
		s.ID = r.nextID
		r.nextID++
	}
	s.Active = true
	r.suppliers[s.Code] = *s
	return nil
}

// UpsertProduct inserts or refreshes a product by GTIN.
func (r *Repository) UpsertProduct(ctx context.Context, p *domain.ProductIdentity) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := time.Now().UTC()
	for id, existing := range r.products {
		if existing.GTIN == p.GTIN {
			p.ID = id
			p.CreatedAt = existing.CreatedAt
			p.UpdatedAt = now
			r.products[id] = *p
			return nil
		}
	}

	p.ID = r.nextID
	r.nextID++
	p.CreatedAt = now
	p.UpdatedAt = now
	r.products[p.ID] = *p
	return nil
}

// UpsertListing inserts or refreshes a listing by (supplier, code).
func (r *Repository) UpsertListing(ctx context.Context, l *domain.SupplierListing) error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if _, ok := r.suppliers[l.Supplier]; !ok {
		return domain.ErrUnknownSupplier
	}

	l.UpdatedAt = time.Now().UTC()
	for i, existing := range r.listings {
		if existing.Supplier == l.Supplier && existing.Code == l.Code {
			l.ID = existing.ID
			r.listings[i] = *l
			return nil
		}
	}

	l.ID = r.nextID
	r.nextID++
	r.listings = append(r.listings, *l)
	return nil
}

// CacheSize returns the number of cached queries (for debugging/monitoring).
func (r *Repository) CacheSize() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()
	return len(r.cache)
}

func hashQuery(normalizedQuery string) string {
	sum := sha256.Sum256([]byte(normalizedQuery))
	return hex.EncodeToString(sum[:])
}
