// Package postgres implements domain.Repository on PostgreSQL using sqlx.
// Every method returns detached value copies; rows are scanned into fresh
// structs and nothing holds a reference to the connection after returning.
package postgres

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"

	"github.com/supplymatch/backend/internal/domain"
)

// Repository is the PostgreSQL-backed storage collaborator.
type Repository struct {
	db *sqlx.DB
}

// Connect opens a connection pool and verifies it.
func Connect(ctx context.Context, dsn string) (*Repository, error) {
	db, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connecting to postgres: %w", err)
	}
	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(30 * time.Minute)
	return &Repository{db: db}, nil
}

// NewRepository wraps an existing connection pool.
func NewRepository(db *sqlx.DB) *Repository {
	return &Repository{db: db}
}

// Migrate applies the schema on this repository's pool.
func (r *Repository) Migrate(ctx context.Context) error {
	return Migrate(ctx, r.db)
}

// Close releases the connection pool.
func (r *Repository) Close() error {
	return r.db.Close()
}

// listingColumns are the supplier_listings columns selected by every listing
// query, with the supplier code joined in.
const listingColumns = "l.id, s.code AS supplier, l.product_id, l.code, l.price, l.active, l.updated_at"

const productColumns = "p.id, p.gtin, p.product_name, p.brand, p.format, p.packaging, p.category, p.created_at, p.updated_at"

// joinedColumns aliases every column so a product and its listing can be
// scanned out of one row without name collisions.
const joinedColumns = "p.id AS p_id, p.gtin AS p_gtin, p.product_name AS p_name, " +
	"p.brand AS p_brand, p.format AS p_format, p.packaging AS p_packaging, " +
	"p.category AS p_category, p.created_at AS p_created_at, p.updated_at AS p_updated_at, " +
	"l.id AS l_id, s.code AS l_supplier, l.product_id AS l_product_id, l.code AS l_code, " +
	"l.price AS l_price, l.active AS l_active, l.updated_at AS l_updated_at"

// FindIdentityByCode resolves a supplier-specific code to the canonical
// product and its listing. Unknown codes and suppliers come back nil.
func (r *Repository) FindIdentityByCode(ctx context.Context, code, supplier string) (*domain.ProductIdentity, *domain.SupplierListing, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(joinedColumns)
	sb.From("supplier_listings l")
	sb.Join("suppliers s", "s.id = l.supplier_id")
	sb.Join("products p", "p.id = l.product_id")
	sb.Where(
		sb.Equal("s.code", supplier),
		sb.Equal("l.code", code),
		sb.Equal("l.active", true),
	)
	sb.Limit(1)

	query, args := sb.Build()
	var joined productListingRow
	if err := r.db.GetContext(ctx, &joined, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil, nil
		}
		return nil, nil, fmt.Errorf("finding identity by code: %w", err)
	}

	product, listing := joined.split()
	return &product, &listing, nil
}

// FindListing returns the active listing for a product at a supplier, or nil.
func (r *Repository) FindListing(ctx context.Context, productID int64, supplier string) (*domain.SupplierListing, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(listingColumns)
	sb.From("supplier_listings l")
	sb.Join("suppliers s", "s.id = l.supplier_id")
	sb.Where(
		sb.Equal("l.product_id", productID),
		sb.Equal("s.code", supplier),
		sb.Equal("l.active", true),
	)
	sb.Limit(1)

	query, args := sb.Build()
	var listing domain.SupplierListing
	if err := r.db.GetContext(ctx, &listing, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("finding listing: %w", err)
	}
	return &listing, nil
}

// FindConfirmedCorrections returns every correction recorded for a source
// supplier code.
func (r *Repository) FindConfirmedCorrections(ctx context.Context, code, supplier string) ([]domain.Correction, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(
		"c.id", "src.code AS source_supplier", "c.source_code", "c.source_description",
		"c.product_id", "tgt.code AS target_supplier", "c.target_code",
		"c.similarity_score", "c.created_by", "c.created_at",
	)
	sb.From("user_corrections c")
	sb.Join("suppliers src", "src.id = c.source_supplier_id")
	sb.Join("suppliers tgt", "tgt.id = c.target_supplier_id")
	sb.Where(
		sb.Equal("src.code", supplier),
		sb.Equal("c.source_code", code),
	)
	sb.OrderBy("c.created_at").Desc()

	query, args := sb.Build()
	var corrections []domain.Correction
	if err := r.db.SelectContext(ctx, &corrections, query, args...); err != nil {
		return nil, fmt.Errorf("finding corrections: %w", err)
	}
	return corrections, nil
}

// FindProduct returns the product with the given ID.
func (r *Repository) FindProduct(ctx context.Context, productID int64) (*domain.ProductIdentity, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select(productColumns)
	sb.From("products p")
	sb.Where(sb.Equal("p.id", productID))

	query, args := sb.Build()
	var product domain.ProductIdentity
	if err := r.db.GetContext(ctx, &product, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrProductNotFound
		}
		return nil, fmt.Errorf("finding product %d: %w", productID, err)
	}
	return &product, nil
}

// ScanCandidates returns up to limit products for fuzzy scoring, joined with
// their active listing when a supplier filter is given. Ordered by product ID
// so the scan is repeatable across calls.
func (r *Repository) ScanCandidates(ctx context.Context, supplier, category string, limit int) ([]domain.ScanRow, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()

	if supplier == "" {
		sb.Select(productColumns)
		sb.From("products p")
	} else {
		sb.Select(joinedColumns)
		sb.From("products p")
		sb.Join("supplier_listings l", "l.product_id = p.id")
		sb.Join("suppliers s", "s.id = l.supplier_id")
		sb.Where(
			sb.Equal("s.code", supplier),
			sb.Equal("l.active", true),
		)
	}
	if category != "" {
		sb.Where(sb.Equal("p.category", category))
	}
	sb.OrderBy("p.id")
	sb.Limit(limit)

	query, args := sb.Build()

	if supplier == "" {
		var products []domain.ProductIdentity
		if err := r.db.SelectContext(ctx, &products, query, args...); err != nil {
			return nil, fmt.Errorf("scanning catalog: %w", err)
		}
		rows := make([]domain.ScanRow, len(products))
		for i, p := range products {
			rows[i] = domain.ScanRow{Product: p}
		}
		return rows, nil
	}

	var joined []productListingRow
	if err := r.db.SelectContext(ctx, &joined, query, args...); err != nil {
		return nil, fmt.Errorf("scanning candidates at %q: %w", supplier, err)
	}
	rows := make([]domain.ScanRow, len(joined))
	for i, j := range joined {
		product, listing := j.split()
		rows[i] = domain.ScanRow{Product: product, Listing: &listing}
	}
	return rows, nil
}

// SaveCorrection upserts a user-confirmed mapping, deduplicating on
// (source supplier, source code, product, target supplier).
func (r *Repository) SaveCorrection(ctx context.Context, c *domain.Correction) error {
	sourceID, err := r.supplierID(ctx, c.SourceSupplier)
	if err != nil {
		return err
	}
	targetID, err := r.supplierID(ctx, c.TargetSupplier)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO user_corrections
			(source_supplier_id, source_code, source_description, product_id,
			 target_supplier_id, target_code, similarity_score, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (source_supplier_id, source_code, product_id, target_supplier_id)
		DO UPDATE SET
			source_description = EXCLUDED.source_description,
			target_code        = EXCLUDED.target_code,
			similarity_score   = EXCLUDED.similarity_score
		RETURNING id, created_at`

	row := r.db.QueryRowxContext(ctx, query,
		sourceID, c.SourceCode, c.SourceDescription, c.ProductID,
		targetID, c.TargetCode, c.SimilarityScore, c.CreatedBy)
	if err := row.Scan(&c.ID, &c.CreatedAt); err != nil {
		return fmt.Errorf("saving correction: %w", err)
	}
	return nil
}

// CacheGet returns the cache entry for a normalized query, atomically bumping
// its hit counter in the same statement.
func (r *Repository) CacheGet(ctx context.Context, normalizedQuery string) (*domain.CacheEntry, error) {
	query := `
		UPDATE matching_cache
		SET hit_count = hit_count + 1, last_used = now()
		WHERE query_hash = $1
		RETURNING query_hash, query_text, product_id, score, hit_count, last_used`

	var entry domain.CacheEntry
	err := r.db.GetContext(ctx, &entry, query, hashQuery(normalizedQuery))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("reading match cache: %w", err)
	}
	return &entry, nil
}

// CachePut inserts or refreshes the entry for a normalized query. Concurrent
// writers race harmlessly: the upsert is idempotent and preserves the hit
// counter on refresh.
func (r *Repository) CachePut(ctx context.Context, normalizedQuery string, productID int64, score float64) error {
	query := `
		INSERT INTO matching_cache (query_hash, query_text, product_id, score)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (query_hash)
		DO UPDATE SET product_id = EXCLUDED.product_id,
		              score      = EXCLUDED.score,
		              last_used  = now()`

	if _, err := r.db.ExecContext(ctx, query, hashQuery(normalizedQuery), normalizedQuery, productID, score); err != nil {
		return fmt.Errorf("writing match cache: %w", err)
	}
	return nil
}

// ListSuppliers returns all active suppliers ordered by code.
func (r *Repository) ListSuppliers(ctx context.Context) ([]domain.Supplier, error) {
	sb := sqlbuilder.PostgreSQL.NewSelectBuilder()
	sb.Select("id", "code", "name", "full_name", "active")
	sb.From("suppliers")
	sb.Where(sb.Equal("active", true))
	sb.OrderBy("code")

	query, args := sb.Build()
	var suppliers []domain.Supplier
	if err := r.db.SelectContext(ctx, &suppliers, query, args...); err != nil {
		return nil, fmt.Errorf("listing suppliers: %w", err)
	}
	return suppliers, nil
}

// SaveComparison appends a comparison audit record.
func (r *Repository) SaveComparison(ctx context.Context, h *domain.ComparisonHistory) error {
	query := `
		INSERT INTO comparison_history
			(invoice_number, source_supplier, target_supplier, total_items,
			 matched_items, original_total, target_total, potential_savings)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id, created_at`

	row := r.db.QueryRowxContext(ctx, query,
		h.InvoiceNumber, h.SourceSupplier, h.TargetSupplier, h.TotalItems,
		h.MatchedItems, h.OriginalTotal, h.TargetTotal, h.PotentialSavings)
	if err := row.Scan(&h.ID, &h.CreatedAt); err != nil {
		return fmt.Errorf("saving comparison history: %w", err)
	}
	return nil
}

// UpsertSupplier creates or updates a supplier by code and fills in its ID.
func (r *Repository) UpsertSupplier(ctx context.Context, s *domain.Supplier) error {
	query := `
		INSERT INTO suppliers (code, name, full_name)
		VALUES ($1, $2, $3)
		ON CONFLICT (code) DO UPDATE SET name = EXCLUDED.name, full_name = EXCLUDED.full_name
		RETURNING id`

	if err := r.db.QueryRowxContext(ctx, query, s.Code, s.Name, s.FullName).Scan(&s.ID); err != nil {
		return fmt.Errorf("upserting supplier %q: %w", s.Code, err)
	}
	s.Active = true
	return nil
}

// UpsertProduct creates or updates a product by GTIN and fills in its ID.
func (r *Repository) UpsertProduct(ctx context.Context, p *domain.ProductIdentity) error {
	query := `
		INSERT INTO products (gtin, product_name, brand, format, packaging, category)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (gtin) DO UPDATE SET
			product_name = EXCLUDED.product_name,
			brand        = EXCLUDED.brand,
			format       = EXCLUDED.format,
			packaging    = EXCLUDED.packaging,
			category     = EXCLUDED.category,
			updated_at   = now()
		RETURNING id`

	if err := r.db.QueryRowxContext(ctx, query, p.GTIN, p.Name, p.Brand, p.Format, p.Packaging, p.Category).Scan(&p.ID); err != nil {
		return fmt.Errorf("upserting product %q: %w", p.GTIN, err)
	}
	return nil
}

// UpsertListing creates or updates a supplier listing by (supplier, code).
func (r *Repository) UpsertListing(ctx context.Context, l *domain.SupplierListing) error {
	supplierID, err := r.supplierID(ctx, l.Supplier)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO supplier_listings (supplier_id, product_id, code, price, active)
		VALUES ($1, $2, $3, $4, TRUE)
		ON CONFLICT (supplier_id, code) DO UPDATE SET
			product_id = EXCLUDED.product_id,
			price      = COALESCE(EXCLUDED.price, supplier_listings.price),
			active     = TRUE,
			updated_at = now()
		RETURNING id`

	if err := r.db.QueryRowxContext(ctx, query, supplierID, l.ProductID, l.Code, l.Price).Scan(&l.ID); err != nil {
		return fmt.Errorf("upserting listing %q at %q: %w", l.Code, l.Supplier, err)
	}
	l.Active = true
	return nil
}

// supplierID resolves a supplier code to its row ID.
func (r *Repository) supplierID(ctx context.Context, code string) (int64, error) {
	var id int64
	err := r.db.GetContext(ctx, &id, "SELECT id FROM suppliers WHERE code = $1", code)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("%w: %s", domain.ErrUnknownSupplier, code)
	}
	if err != nil {
		return 0, fmt.Errorf("resolving supplier %q: %w", code, err)
	}
	return id, nil
}

// productListingRow scans a joined product + listing row.
type productListingRow struct {
	PID        int64     `db:"p_id"`
	PGTIN      string    `db:"p_gtin"`
	PName      string    `db:"p_name"`
	PBrand     string    `db:"p_brand"`
	PFormat    string    `db:"p_format"`
	PPackaging string    `db:"p_packaging"`
	PCategory  string    `db:"p_category"`
	PCreatedAt time.Time `db:"p_created_at"`
	PUpdatedAt time.Time `db:"p_updated_at"`

	LID        int64               `db:"l_id"`
	LSupplier  string              `db:"l_supplier"`
	LProductID int64               `db:"l_product_id"`
	LCode      string              `db:"l_code"`
	LPrice     decimal.NullDecimal `db:"l_price"`
	LActive    bool                `db:"l_active"`
	LUpdatedAt time.Time           `db:"l_updated_at"`
}

// split separates the joined row into its detached domain values.
func (j productListingRow) split() (domain.ProductIdentity, domain.SupplierListing) {
	product := domain.ProductIdentity{
		ID:        j.PID,
		GTIN:      j.PGTIN,
		Name:      j.PName,
		Brand:     j.PBrand,
		Format:    j.PFormat,
		Packaging: j.PPackaging,
		Category:  j.PCategory,
		CreatedAt: j.PCreatedAt,
		UpdatedAt: j.PUpdatedAt,
	}
	listing := domain.SupplierListing{
		ID:        j.LID,
		Supplier:  j.LSupplier,
		ProductID: j.LProductID,
		Code:      j.LCode,
		Price:     j.LPrice,
		Active:    j.LActive,
		UpdatedAt: j.LUpdatedAt,
	}
	return product, listing
}

func hashQuery(normalizedQuery string) string {
	sum := sha256.Sum256([]byte(normalizedQuery))
	return hex.EncodeToString(sum[:])
}
