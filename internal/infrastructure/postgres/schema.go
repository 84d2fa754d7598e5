package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schemaStatements create the catalog tables. Kept as idempotent DDL rather
// than a migration tool; the schema changes rarely and deployments run this
// at startup.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS suppliers (
		id         BIGSERIAL PRIMARY KEY,
		code       TEXT NOT NULL UNIQUE,
		name       TEXT NOT NULL,
		full_name  TEXT NOT NULL DEFAULT '',
		active     BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS products (
		id           BIGSERIAL PRIMARY KEY,
		gtin         VARCHAR(14) NOT NULL UNIQUE,
		product_name TEXT NOT NULL,
		brand        TEXT NOT NULL DEFAULT '',
		format       TEXT NOT NULL DEFAULT '',
		packaging    TEXT NOT NULL DEFAULT '',
		category     TEXT NOT NULL DEFAULT '',
		created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
		updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_products_search ON products (product_name, brand)`,

	`CREATE TABLE IF NOT EXISTS supplier_listings (
		id          BIGSERIAL PRIMARY KEY,
		supplier_id BIGINT NOT NULL REFERENCES suppliers (id),
		product_id  BIGINT NOT NULL REFERENCES products (id) ON DELETE CASCADE,
		code        TEXT NOT NULL,
		price       NUMERIC(12, 4),
		active      BOOLEAN NOT NULL DEFAULT TRUE,
		updated_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (supplier_id, code)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_listings_product_supplier ON supplier_listings (product_id, supplier_id)`,

	`CREATE TABLE IF NOT EXISTS user_corrections (
		id                 BIGSERIAL PRIMARY KEY,
		source_supplier_id BIGINT NOT NULL REFERENCES suppliers (id),
		source_code        TEXT NOT NULL,
		source_description TEXT NOT NULL DEFAULT '',
		product_id         BIGINT NOT NULL REFERENCES products (id) ON DELETE CASCADE,
		target_supplier_id BIGINT NOT NULL REFERENCES suppliers (id),
		target_code        TEXT NOT NULL DEFAULT '',
		similarity_score   DOUBLE PRECISION NOT NULL DEFAULT 0,
		created_by         TEXT NOT NULL DEFAULT '',
		created_at         TIMESTAMPTZ NOT NULL DEFAULT now(),
		UNIQUE (source_supplier_id, source_code, product_id, target_supplier_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_corrections_lookup ON user_corrections (source_supplier_id, source_code)`,

	`CREATE TABLE IF NOT EXISTS comparison_history (
		id                BIGSERIAL PRIMARY KEY,
		invoice_number    TEXT NOT NULL DEFAULT '',
		source_supplier   TEXT NOT NULL,
		target_supplier   TEXT NOT NULL,
		total_items       INTEGER NOT NULL DEFAULT 0,
		matched_items     INTEGER NOT NULL DEFAULT 0,
		original_total    NUMERIC(14, 4) NOT NULL DEFAULT 0,
		target_total      NUMERIC(14, 4) NOT NULL DEFAULT 0,
		potential_savings NUMERIC(14, 4) NOT NULL DEFAULT 0,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,

	`CREATE TABLE IF NOT EXISTS matching_cache (
		query_hash TEXT PRIMARY KEY,
		query_text TEXT NOT NULL,
		product_id BIGINT NOT NULL REFERENCES products (id) ON DELETE CASCADE,
		score      DOUBLE PRECISION NOT NULL,
		hit_count  BIGINT NOT NULL DEFAULT 1,
		last_used  TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
}

// Migrate applies the schema. Safe to run on every startup.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for _, stmt := range schemaStatements {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("applying schema: %w", err)
		}
	}
	return nil
}
