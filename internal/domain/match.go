package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// MatchKind identifies which strategy produced a candidate. The set is closed;
// consumers should treat any other value as a programming error.
type MatchKind string

const (
	// MatchKindExactGTIN is a cross-supplier resolution through the canonical
	// GTIN record. Always carries score 100 and suppresses other strategies.
	MatchKindExactGTIN MatchKind = "exact-gtin"

	// MatchKindUserCorrection is a previously human-confirmed mapping.
	// Fixed score 95: trusted, but not cryptographically exact.
	MatchKindUserCorrection MatchKind = "user-correction"

	// MatchKindFuzzy is a weighted text/numeric similarity match.
	MatchKindFuzzy MatchKind = "fuzzy"
)

// Valid reports whether k is one of the defined match kinds.
func (k MatchKind) Valid() bool {
	switch k {
	case MatchKindExactGTIN, MatchKindUserCorrection, MatchKindFuzzy:
		return true
	}
	return false
}

// SimilarityScore holds the four weighted sub-scores and their total,
// all in [0,100]. Sub-scores are only meaningful for fuzzy candidates.
type SimilarityScore struct {
	Brand       float64 `json:"brand"`
	ProductType float64 `json:"productType"`
	Format      float64 `json:"format"`
	Packaging   float64 `json:"packaging"`
	Total       float64 `json:"total"`
}

// MatchCandidate is one ranked result from the matching engine.
type MatchCandidate struct {
	Product    ProductIdentity     `json:"product"`
	Score      float64             `json:"score"`
	Kind       MatchKind           `json:"kind"`
	TargetCode string              `json:"targetCode,omitempty"` // listing code at the target supplier
	Price      decimal.NullDecimal `json:"price,omitempty"`
	SubScores  *SimilarityScore    `json:"subScores,omitempty"` // set for fuzzy candidates only
}

// CacheEntry memoizes a high-confidence fuzzy result for a normalized query.
// An entry whose product no longer exists is stale and must read as a miss.
type CacheEntry struct {
	QueryHash string    `json:"queryHash" db:"query_hash"`
	QueryText string    `json:"queryText" db:"query_text"`
	ProductID int64     `json:"productId" db:"product_id"`
	Score     float64   `json:"score" db:"score"`
	HitCount  int64     `json:"hitCount" db:"hit_count"`
	LastUsed  time.Time `json:"lastUsed" db:"last_used"`
}
