package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProductIdentity is the canonical product record keyed by GTIN.
// Repositories return detached value copies; the engine never mutates one.
type ProductIdentity struct {
	ID        int64     `json:"id" db:"id"`
	GTIN      string    `json:"gtin" db:"gtin"`
	Name      string    `json:"name" db:"product_name"`
	Brand     string    `json:"brand,omitempty" db:"brand"`
	Format    string    `json:"format,omitempty" db:"format"`       // e.g. "3 KG", "12X454 G"
	Packaging string    `json:"packaging,omitempty" db:"packaging"` // e.g. "BOX", "CASE"
	Category  string    `json:"category,omitempty" db:"category"`
	CreatedAt time.Time `json:"createdAt,omitempty" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt,omitempty" db:"updated_at"`
}

// SupplierListing associates a product with a supplier-specific code and price.
// A product has at most one active listing per supplier.
type SupplierListing struct {
	ID        int64               `json:"id" db:"id"`
	Supplier  string              `json:"supplier" db:"supplier"` // supplier machine code, e.g. "colabor"
	ProductID int64               `json:"productId" db:"product_id"`
	Code      string              `json:"code" db:"code"` // supplier-specific product code
	Price     decimal.NullDecimal `json:"price,omitempty" db:"price"`
	Active    bool                `json:"active" db:"active"`
	UpdatedAt time.Time           `json:"updatedAt,omitempty" db:"updated_at"`
}

// Supplier is a catalog source, identified by a short machine code.
type Supplier struct {
	ID       int64  `json:"id" db:"id"`
	Code     string `json:"code" db:"code"` // e.g. "colabor", "dube_loiselle"
	Name     string `json:"name" db:"name"`
	FullName string `json:"fullName,omitempty" db:"full_name"`
	Active   bool   `json:"active" db:"active"`
}

// QueryDescriptor is the transient per-line-item input to the matching engine.
// An empty string means the field is absent; the scorer applies its
// neutral-score policy when both sides of a comparison are absent.
type QueryDescriptor struct {
	Name       string `json:"name" binding:"required"`
	Brand      string `json:"brand,omitempty"`
	Format     string `json:"format,omitempty"`
	Packaging  string `json:"packaging,omitempty"`
	SourceCode string `json:"sourceCode,omitempty"` // supplier-specific code at the source supplier
}

// Correction is a user-confirmed mapping from a source supplier code to a
// canonical product, persisted for reuse on later invoices.
type Correction struct {
	ID                int64     `json:"id" db:"id"`
	SourceSupplier    string    `json:"sourceSupplier" db:"source_supplier"`
	SourceCode        string    `json:"sourceCode" db:"source_code"`
	SourceDescription string    `json:"sourceDescription,omitempty" db:"source_description"`
	ProductID         int64     `json:"productId" db:"product_id"`
	TargetSupplier    string    `json:"targetSupplier" db:"target_supplier"`
	TargetCode        string    `json:"targetCode,omitempty" db:"target_code"`
	SimilarityScore   float64   `json:"similarityScore,omitempty" db:"similarity_score"`
	CreatedBy         string    `json:"createdBy,omitempty" db:"created_by"`
	CreatedAt         time.Time `json:"createdAt,omitempty" db:"created_at"`
}
