package usecase

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sort"
	"strings"

	"github.com/supplymatch/backend/internal/domain"
)

// Strategy score conventions
const (
	// exactMatchScore is assigned to cross-supplier GTIN resolutions.
	exactMatchScore = 100.0

	// correctionScore is assigned to user-confirmed mappings: above any fuzzy
	// match, below a code-exact one.
	correctionScore = 95.0

	// cacheWriteThreshold is the minimum top score for memoizing a fuzzy result.
	cacheWriteThreshold = 85.0

	// defaultScanLimit bounds the fuzzy candidate scan when none is configured.
	defaultScanLimit = 10000
)

// MatchConfig holds configuration for the match service
type MatchConfig struct {
	ScanLimit          int
	EnableDebugLogging bool
}

// MatchService runs the three matching strategies in priority order:
// exact cross-supplier code resolution, user corrections, fuzzy similarity.
type MatchService struct {
	repo               domain.Repository
	scorer             *SimilarityScorer
	scanLimit          int
	enableDebugLogging bool
}

// NewMatchService creates a match service over the given repository and scorer.
func NewMatchService(repo domain.Repository, scorer *SimilarityScorer, config MatchConfig) *MatchService {
	scanLimit := config.ScanLimit
	if scanLimit <= 0 {
		scanLimit = defaultScanLimit
	}

	return &MatchService{
		repo:               repo,
		scorer:             scorer,
		scanLimit:          scanLimit,
		enableDebugLogging: config.EnableDebugLogging,
	}
}

// FindMatches returns ranked candidates at targetSupplier for one query.
//
// Precondition (caller-enforced): minSimilarity in [0,100], maxResults > 0.
// An unknown supplier is not an error; every strategy just comes back empty.
// An exact code resolution is authoritative and suppresses all other
// strategies.
func (s *MatchService) FindMatches(
	ctx context.Context,
	query domain.QueryDescriptor,
	sourceSupplier string,
	targetSupplier string,
	minSimilarity float64,
	maxResults int,
) ([]domain.MatchCandidate, error) {
	var results []domain.MatchCandidate

	// Strategy 1: exact resolution through the canonical GTIN record
	if query.SourceCode != "" {
		exact, err := s.resolveCrossSupplier(ctx, query.SourceCode, sourceSupplier, targetSupplier)
		if err != nil {
			return nil, err
		}
		if exact != nil {
			if s.enableDebugLogging {
				log.Printf("[MATCH] exact hit for code %q: %q", query.SourceCode, exact.Product.Name)
			}
			return []domain.MatchCandidate{*exact}, nil
		}

		// Strategy 2: user corrections
		corrections, err := s.correctionCandidates(ctx, query.SourceCode, sourceSupplier, targetSupplier)
		if err != nil {
			return nil, err
		}
		results = append(results, corrections...)
	}

	// Strategy 3: fuzzy similarity over the bounded candidate set
	fuzzy, err := s.SearchSimilar(ctx, query, targetSupplier, "", minSimilarity, maxResults)
	if err != nil {
		return nil, err
	}
	results = append(results, fuzzy...)

	results = dedupeByProduct(results)
	sortCandidates(results)

	if len(results) > maxResults {
		results = results[:maxResults]
	}
	return results, nil
}

// resolveCrossSupplier maps a source supplier code to the canonical product
// and on to its listing at the target supplier. Nil at any step means no
// exact match; unknown codes are common and not errors.
func (s *MatchService) resolveCrossSupplier(ctx context.Context, code, sourceSupplier, targetSupplier string) (*domain.MatchCandidate, error) {
	product, _, err := s.repo.FindIdentityByCode(ctx, code, sourceSupplier)
	if err != nil {
		return nil, fmt.Errorf("resolving code %q at %s: %w", code, sourceSupplier, err)
	}
	if product == nil {
		return nil, nil
	}

	listing, err := s.repo.FindListing(ctx, product.ID, targetSupplier)
	if err != nil {
		return nil, fmt.Errorf("resolving listing for product %d at %s: %w", product.ID, targetSupplier, err)
	}
	if listing == nil {
		return nil, nil
	}

	return &domain.MatchCandidate{
		Product:    *product,
		Score:      exactMatchScore,
		Kind:       domain.MatchKindExactGTIN,
		TargetCode: listing.Code,
		Price:      listing.Price,
	}, nil
}

// correctionCandidates converts stored user corrections into candidates.
// A correction whose product has vanished, or that has no listing at the
// target supplier, is silently dropped.
func (s *MatchService) correctionCandidates(ctx context.Context, code, sourceSupplier, targetSupplier string) ([]domain.MatchCandidate, error) {
	corrections, err := s.repo.FindConfirmedCorrections(ctx, code, sourceSupplier)
	if err != nil {
		return nil, fmt.Errorf("loading corrections for code %q: %w", code, err)
	}

	var results []domain.MatchCandidate
	for _, c := range corrections {
		product, err := s.repo.FindProduct(ctx, c.ProductID)
		if err != nil {
			if errors.Is(err, domain.ErrProductNotFound) {
				continue
			}
			return nil, err
		}

		listing, err := s.repo.FindListing(ctx, product.ID, targetSupplier)
		if err != nil {
			return nil, err
		}
		if listing == nil {
			continue
		}

		results = append(results, domain.MatchCandidate{
			Product:    *product,
			Score:      correctionScore,
			Kind:       domain.MatchKindUserCorrection,
			TargetCode: listing.Code,
			Price:      listing.Price,
		})
	}
	return results, nil
}

// SearchSimilar is the fuzzy path: score the bounded candidate set against the
// query and keep everything at or above minSimilarity. The result cache is
// only consulted (and written) when no target supplier constrains the search;
// the cache answers "what product does this text describe", not "what is
// available where".
func (s *MatchService) SearchSimilar(
	ctx context.Context,
	query domain.QueryDescriptor,
	targetSupplier string,
	category string,
	minSimilarity float64,
	maxResults int,
) ([]domain.MatchCandidate, error) {
	queryFields := FieldsFromQuery(query)

	if targetSupplier == "" {
		if hit := s.cachedCandidate(ctx, queryFields); hit != nil {
			return []domain.MatchCandidate{*hit}, nil
		}
	}

	rows, err := s.repo.ScanCandidates(ctx, targetSupplier, category, s.scanLimit)
	if err != nil {
		return nil, fmt.Errorf("scanning candidates at %q: %w", targetSupplier, err)
	}

	var results []domain.MatchCandidate
	for _, row := range rows {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		score := s.scorer.CalculateSimilarity(queryFields, FieldsFromProduct(row.Product))
		if score.Total < minSimilarity {
			continue
		}

		candidate := domain.MatchCandidate{
			Product:   row.Product,
			Score:     score.Total,
			Kind:      domain.MatchKindFuzzy,
			SubScores: &score,
		}
		if row.Listing != nil {
			candidate.TargetCode = row.Listing.Code
			candidate.Price = row.Listing.Price
		}
		results = append(results, candidate)
	}

	sortCandidates(results)
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	if len(results) > 0 && results[0].Score >= cacheWriteThreshold && targetSupplier == "" {
		key := cacheKey(queryFields)
		if err := s.repo.CachePut(ctx, key, results[0].Product.ID, results[0].Score); err != nil {
			// Cache writes are best-effort; a failed write never fails the match.
			log.Printf("[CACHE] put failed for %q: %v", key, err)
		}
	}

	return results, nil
}

// cachedCandidate returns a candidate rebuilt from the result cache, or nil on
// miss. A stale entry, one whose product no longer resolves, reads as a miss.
func (s *MatchService) cachedCandidate(ctx context.Context, queryFields ProductFields) *domain.MatchCandidate {
	key := cacheKey(queryFields)

	entry, err := s.repo.CacheGet(ctx, key)
	if err != nil {
		if !errors.Is(err, domain.ErrCacheMiss) {
			log.Printf("[CACHE] get failed for %q: %v", key, err)
		}
		return nil
	}

	product, err := s.repo.FindProduct(ctx, entry.ProductID)
	if err != nil {
		if !errors.Is(err, domain.ErrProductNotFound) {
			log.Printf("[CACHE] product lookup failed for %d: %v", entry.ProductID, err)
		}
		return nil
	}

	score := s.scorer.CalculateSimilarity(queryFields, FieldsFromProduct(*product))
	if s.enableDebugLogging {
		log.Printf("[CACHE] hit for %q (score %.1f, hits %d)", key, entry.Score, entry.HitCount)
	}

	return &domain.MatchCandidate{
		Product:   *product,
		Score:     entry.Score,
		Kind:      domain.MatchKindFuzzy,
		SubScores: &score,
	}
}

// cacheKey builds the supplier-agnostic cache key from the descriptive fields.
func cacheKey(f ProductFields) string {
	return NormalizeText(strings.TrimSpace(f.Name + " " + f.Brand + " " + f.Format))
}

// dedupeByProduct drops repeated product identities, keeping the first
// occurrence. Correction candidates precede fuzzy ones in the merged slice,
// so a human-confirmed mapping wins over an equal-scoring fuzzy match.
func dedupeByProduct(candidates []domain.MatchCandidate) []domain.MatchCandidate {
	seen := make(map[int64]bool, len(candidates))
	unique := candidates[:0]
	for _, c := range candidates {
		if seen[c.Product.ID] {
			continue
		}
		seen[c.Product.ID] = true
		unique = append(unique, c)
	}
	return unique
}

// sortCandidates orders by score descending. Ties break on GTIN ascending so
// the ordering never depends on storage scan order.
func sortCandidates(candidates []domain.MatchCandidate) {
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].Score != candidates[j].Score {
			return candidates[i].Score > candidates[j].Score
		}
		return candidates[i].Product.GTIN < candidates[j].Product.GTIN
	})
}
