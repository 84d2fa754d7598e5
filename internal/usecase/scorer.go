package usecase

import (
	"fmt"
	"math"
	"strings"

	"github.com/supplymatch/backend/internal/domain"
)

// Scoring constants
const (
	// neutralScore is used when a field is absent on both sides: no
	// information is not a mismatch.
	neutralScore = 50.0

	// synonymScore is awarded when two brands map through the synonym table.
	synonymScore = 95.0

	// sameUnitBonus is the multiplicative bonus when both formats parse to
	// the same unit class.
	sameUnitBonus = 1.1
)

// ScoreWeights are the relative weights of the four sub-scores. They must sum
// to 1.0.
type ScoreWeights struct {
	Brand       float64
	ProductType float64
	Format      float64
	Packaging   float64
}

// Sum returns the total of all four weights.
func (w ScoreWeights) Sum() float64 {
	return w.Brand + w.ProductType + w.Format + w.Packaging
}

// ScorerConfig carries the weight set and lookup tables for a scorer. The
// scorer copies nothing out of it after construction, so callers should treat
// a config handed to NewSimilarityScorer as immutable.
type ScorerConfig struct {
	Weights ScoreWeights

	// BrandSynonyms maps a canonical brand to its known aliases.
	BrandSynonyms map[string][]string

	// PackagingKeywords is matched by substring, in order, against packaging
	// text. Order matters for determinism.
	PackagingKeywords []string

	// TypeStopWords are dropped when deriving a product type signature.
	TypeStopWords map[string]bool
}

// DefaultScorerConfig returns the production weight set and tables.
func DefaultScorerConfig() ScorerConfig {
	return ScorerConfig{
		Weights: ScoreWeights{
			Brand:       0.25,
			ProductType: 0.40,
			Format:      0.25,
			Packaging:   0.10,
		},
		BrandSynonyms: map[string][]string{
			"olimel":     {"olymel"},
			"maple leaf": {"maple", "mapleleaf"},
			"coca cola":  {"coca-cola", "coke"},
			"pepsi":      {"pepsi-cola"},
		},
		// English and French packaging terms seen on Quebec supplier catalogs
		PackagingKeywords: []string{
			"box", "boite", "case", "caisse", "bag", "sac",
			"bottle", "bouteille", "can", "canne", "jar", "pot",
			"tray", "plateau",
		},
		TypeStopWords: map[string]bool{
			"bio": true, "organic": true, "naturel": true,
			"nature": true, "original": true, "orig": true,
		},
	}
}

// ProductFields are the four descriptor fields the scorer compares. Empty
// string means absent.
type ProductFields struct {
	Name      string
	Brand     string
	Format    string
	Packaging string
}

// FieldsFromQuery adapts a query descriptor for scoring.
func FieldsFromQuery(q domain.QueryDescriptor) ProductFields {
	return ProductFields{Name: q.Name, Brand: q.Brand, Format: q.Format, Packaging: q.Packaging}
}

// FieldsFromProduct adapts a catalog product for scoring.
func FieldsFromProduct(p domain.ProductIdentity) ProductFields {
	return ProductFields{Name: p.Name, Brand: p.Brand, Format: p.Format, Packaging: p.Packaging}
}

// SimilarityScorer computes weighted multi-field similarity between two
// product descriptions. It is a pure function of its inputs: identical inputs
// always produce identical scores.
type SimilarityScorer struct {
	cfg ScorerConfig
}

// NewSimilarityScorer validates the config and builds a scorer.
func NewSimilarityScorer(cfg ScorerConfig) (*SimilarityScorer, error) {
	if math.Abs(cfg.Weights.Sum()-1.0) > 1e-9 {
		return nil, fmt.Errorf("scorer weights must sum to 1.0, got %v", cfg.Weights.Sum())
	}
	return &SimilarityScorer{cfg: cfg}, nil
}

// CalculateSimilarity scores query against candidate and returns the four
// sub-scores plus the weighted total, all in [0,100].
func (s *SimilarityScorer) CalculateSimilarity(query, candidate ProductFields) domain.SimilarityScore {
	brand := s.compareBrands(query.Brand, candidate.Brand)
	productType := s.compareProductTypes(query.Name, candidate.Name)
	format := s.compareFormats(query.Format, candidate.Format, query.Name, candidate.Name)
	packaging := s.comparePackaging(query.Packaging, candidate.Packaging, query.Name, candidate.Name)

	total := brand*s.cfg.Weights.Brand +
		productType*s.cfg.Weights.ProductType +
		format*s.cfg.Weights.Format +
		packaging*s.cfg.Weights.Packaging

	return domain.SimilarityScore{
		Brand:       brand,
		ProductType: productType,
		Format:      format,
		Packaging:   packaging,
		Total:       total,
	}
}

// neutralWhenBothMissing is the shared missing-data policy: both sides absent
// yields the neutral score. The second return reports whether it applied.
func neutralWhenBothMissing(a, b string) (float64, bool) {
	if a == "" && b == "" {
		return neutralScore, true
	}
	return 0, false
}

// compareBrands scores brand similarity with synonym support. One-sided
// absence scores 0: a brand we cannot confirm is not a brand match.
func (s *SimilarityScorer) compareBrands(brand1, brand2 string) float64 {
	b1 := NormalizeText(brand1)
	b2 := NormalizeText(brand2)

	if score, ok := neutralWhenBothMissing(b1, b2); ok {
		return score
	}
	if b1 == "" || b2 == "" {
		return 0
	}
	if b1 == b2 {
		return 100
	}
	if s.brandSynonymMatch(b1, b2) {
		return synonymScore
	}
	return similarityRatio(b1, b2)
}

func (s *SimilarityScorer) brandSynonymMatch(b1, b2 string) bool {
	for canonical, synonyms := range s.cfg.BrandSynonyms {
		in1 := containsString(synonyms, b1)
		in2 := containsString(synonyms, b2)
		if in1 && b2 == canonical {
			return true
		}
		if in2 && b1 == canonical {
			return true
		}
		if in1 && in2 {
			return true
		}
	}
	return false
}

// compareProductTypes derives short type signatures from both names and
// compares them order-insensitively.
func (s *SimilarityScorer) compareProductTypes(name1, name2 string) float64 {
	t1 := s.typeSignature(name1)
	t2 := s.typeSignature(name2)

	if score, ok := neutralWhenBothMissing(t1, t2); ok {
		return score
	}
	return tokenSortRatio(t1, t2)
}

// typeSignature keeps the first three name tokens that are not numeric, not
// short noise, and not stop words. "YOGOURT VANILLE 1.5% ORIG IOGO" becomes
// "yogourt vanille iogo".
func (s *SimilarityScorer) typeSignature(name string) string {
	words := strings.Fields(NormalizeText(name))

	kept := make([]string, 0, 3)
	for _, word := range words {
		if word[0] >= '0' && word[0] <= '9' {
			continue
		}
		if len(word) <= 2 {
			continue
		}
		if s.cfg.TypeStopWords[word] {
			continue
		}
		kept = append(kept, word)
		if len(kept) == 3 {
			break
		}
	}
	return strings.Join(kept, " ")
}

// compareFormats compares parsed magnitudes when both sides parse, otherwise
// falls back to string similarity on the raw format fields.
func (s *SimilarityScorer) compareFormats(format1, format2, name1, name2 string) float64 {
	qty1, unit1 := ExtractFormat(format1, name1)
	qty2, unit2 := ExtractFormat(format2, name2)

	if qty1 == 0 || qty2 == 0 {
		n1 := NormalizeText(format1)
		n2 := NormalizeText(format2)
		if score, ok := neutralWhenBothMissing(n1, n2); ok {
			return score
		}
		return similarityRatio(n1, n2)
	}

	diffPercent := math.Abs(qty1-qty2) / math.Max(qty1, qty2) * 100
	similarity := math.Max(0, 100-diffPercent)

	if unit1 == unit2 {
		similarity = math.Min(100, similarity*sameUnitBonus)
	}
	return similarity
}

// comparePackaging maps both sides to a packaging category and compares the
// categories.
func (s *SimilarityScorer) comparePackaging(pkg1, pkg2, name1, name2 string) float64 {
	c1 := s.packagingCategory(pkg1, name1)
	c2 := s.packagingCategory(pkg2, name2)

	if c1 == "unknown" && c2 == "unknown" {
		return neutralScore
	}
	if c1 == c2 {
		return 100
	}
	return similarityRatio(c1, c2)
}

// packagingCategory finds the first known packaging keyword in the packaging
// field or the product name, else "unknown".
func (s *SimilarityScorer) packagingCategory(packaging, name string) string {
	text := NormalizeText(packaging + " " + name)
	for _, keyword := range s.cfg.PackagingKeywords {
		if strings.Contains(text, keyword) {
			return keyword
		}
	}
	return "unknown"
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
