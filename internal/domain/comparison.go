package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchStatus classifies the outcome of matching one invoice line.
type MatchStatus string

const (
	MatchStatusExact         MatchStatus = "exact_match"
	MatchStatusFuzzy         MatchStatus = "fuzzy_match"
	MatchStatusLowConfidence MatchStatus = "low_confidence"
	MatchStatusNoMatch       MatchStatus = "no_match"
)

// InvoiceItem is a single structured line from a supplier invoice.
type InvoiceItem struct {
	SupplierCode string          `json:"supplierCode"`
	Name         string          `json:"name"`
	Brand        string          `json:"brand,omitempty"`
	Format       string          `json:"format,omitempty"`
	Packaging    string          `json:"packaging,omitempty"`
	Category     string          `json:"category,omitempty"`
	Price        decimal.Decimal `json:"price"`
	Quantity     decimal.Decimal `json:"quantity"`
}

// LineTotal is the extended price of the line (price × quantity).
func (i InvoiceItem) LineTotal() decimal.Decimal {
	return i.Price.Mul(i.Quantity)
}

// Descriptor converts the invoice line into a matching engine query.
func (i InvoiceItem) Descriptor() QueryDescriptor {
	return QueryDescriptor{
		Name:       i.Name,
		Brand:      i.Brand,
		Format:     i.Format,
		Packaging:  i.Packaging,
		SourceCode: i.SupplierCode,
	}
}

// ComparisonLine is the matching and pricing outcome for one invoice line.
type ComparisonLine struct {
	Item         InvoiceItem         `json:"item"`
	Status       MatchStatus         `json:"status"`
	BestMatch    *MatchCandidate     `json:"bestMatch,omitempty"`
	Alternatives []MatchCandidate    `json:"alternatives,omitempty"`
	PriceDelta   decimal.NullDecimal `json:"priceDelta,omitempty"`   // per unit, source minus target
	Savings      decimal.NullDecimal `json:"savings,omitempty"`      // delta × quantity
	SavingsRate  decimal.NullDecimal `json:"savingsRate,omitempty"`  // percent of the source price
}

// ComparisonReport aggregates a whole invoice comparison.
type ComparisonReport struct {
	SourceSupplier string           `json:"sourceSupplier"`
	TargetSupplier string           `json:"targetSupplier"`
	Lines          []ComparisonLine `json:"lines"`

	TotalItems    int `json:"totalItems"`
	MatchedItems  int `json:"matchedItems"`
	ExactMatches  int `json:"exactMatches"`
	FuzzyMatches  int `json:"fuzzyMatches"`
	LowConfidence int `json:"lowConfidence"`
	NoMatches     int `json:"noMatches"`

	OriginalTotal    decimal.Decimal `json:"originalTotal"`
	TargetTotal      decimal.Decimal `json:"targetTotal"`
	PotentialSavings decimal.Decimal `json:"potentialSavings"`
	SavingsPercent   decimal.Decimal `json:"savingsPercent"`
}

// ComparisonHistory is the persisted audit record of a comparison run.
type ComparisonHistory struct {
	ID               int64           `json:"id" db:"id"`
	InvoiceNumber    string          `json:"invoiceNumber,omitempty" db:"invoice_number"`
	SourceSupplier   string          `json:"sourceSupplier" db:"source_supplier"`
	TargetSupplier   string          `json:"targetSupplier" db:"target_supplier"`
	TotalItems       int             `json:"totalItems" db:"total_items"`
	MatchedItems     int             `json:"matchedItems" db:"matched_items"`
	OriginalTotal    decimal.Decimal `json:"originalTotal" db:"original_total"`
	TargetTotal      decimal.Decimal `json:"targetTotal" db:"target_total"`
	PotentialSavings decimal.Decimal `json:"potentialSavings" db:"potential_savings"`
	CreatedAt        time.Time       `json:"createdAt" db:"created_at"`
}
