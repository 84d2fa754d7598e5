package domain

import "context"

// Repository is the storage collaborator for the matching engine. All methods
// return detached value copies, never handles tied to a transaction scope.
//
// Lookup methods signal absence with nil/empty results, not errors; an error
// always means a genuine storage failure.
type Repository interface {
	// FindIdentityByCode resolves a supplier-specific code to the canonical
	// product and the matching listing. Nil when the code is unknown.
	FindIdentityByCode(ctx context.Context, code, supplier string) (*ProductIdentity, *SupplierListing, error)

	// FindListing returns the active listing for a product at a supplier,
	// or nil when the product is not carried there.
	FindListing(ctx context.Context, productID int64, supplier string) (*SupplierListing, error)

	// FindConfirmedCorrections returns every user-confirmed mapping recorded
	// for a source supplier code.
	FindConfirmedCorrections(ctx context.Context, code, supplier string) ([]Correction, error)

	// FindProduct returns the product with the given ID, or ErrProductNotFound.
	FindProduct(ctx context.Context, productID int64) (*ProductIdentity, error)

	// ScanCandidates returns up to limit products, each joined with its active
	// listing at the given supplier. An empty supplier scans the whole catalog
	// (listings nil). An empty category applies no category filter.
	ScanCandidates(ctx context.Context, supplier, category string, limit int) ([]ScanRow, error)

	// SaveCorrection persists a user-confirmed mapping, deduplicating on
	// (source supplier, source code, product, target supplier).
	SaveCorrection(ctx context.Context, c *Correction) error

	// CacheGet returns the cache entry for a normalized query, bumping its hit
	// counter, or ErrCacheMiss. Staleness is the caller's concern.
	CacheGet(ctx context.Context, normalizedQuery string) (*CacheEntry, error)

	// CachePut inserts or refreshes the cache entry for a normalized query.
	// Concurrent writes for the same query must not corrupt the hit counter.
	CachePut(ctx context.Context, normalizedQuery string, productID int64, score float64) error

	// ListSuppliers returns all active suppliers.
	ListSuppliers(ctx context.Context) ([]Supplier, error)

	// SaveComparison records an invoice comparison run for auditing.
	SaveComparison(ctx context.Context, h *ComparisonHistory) error
}

// ScanRow is one candidate from a bounded catalog scan: a product plus its
// listing at the requested supplier (nil when no supplier filter was given).
type ScanRow struct {
	Product ProductIdentity
	Listing *SupplierListing
}
