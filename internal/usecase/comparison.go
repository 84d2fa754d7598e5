package usecase

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/supplymatch/backend/internal/domain"
)

// fuzzyStatusThreshold separates confident fuzzy matches from low-confidence
// ones when classifying comparison lines.
const fuzzyStatusThreshold = 80.0

// invoiceColumnAliases maps the header spellings seen across supplier CSV
// exports (English and French) onto canonical field names.
var invoiceColumnAliases = map[string]string{
	"code":          "code",
	"supplier_code": "code",
	"product_code":  "code",
	"name":          "name",
	"product":       "name",
	"produit":       "name",
	"description":   "name",
	"brand":         "brand",
	"marque":        "brand",
	"format":        "format",
	"size":          "format",
	"packaging":     "packaging",
	"empaquetage":   "packaging",
	"category":      "category",
	"categorie":     "category",
	"price":         "price",
	"prix":          "price",
	"unit_price":    "price",
	"quantity":      "quantity",
	"qty":           "quantity",
	"quantite":      "quantity",
}

// ComparisonService matches every line of an invoice against another
// supplier's catalog and totals the price differences. Lines are matched
// independently; the service makes no attempt at a globally optimal
// assignment.
type ComparisonService struct {
	matcher            *MatchService
	repo               domain.Repository
	enableDebugLogging bool
}

// NewComparisonService creates a comparison service.
func NewComparisonService(matcher *MatchService, repo domain.Repository, enableDebugLogging bool) *ComparisonService {
	return &ComparisonService{
		matcher:            matcher,
		repo:               repo,
		enableDebugLogging: enableDebugLogging,
	}
}

// ParseInvoiceCSV reads structured invoice lines from CSV. The header row is
// required; column order is free and headers may use any known alias. Rows
// missing a product name are skipped, as are rows with malformed numbers.
func ParseInvoiceCSV(r io.Reader) ([]domain.InvoiceItem, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err != nil {
		return nil, fmt.Errorf("reading invoice header: %w", err)
	}

	fields := make(map[int]string, len(header))
	for i, col := range header {
		key := strings.ToLower(strings.TrimSpace(col))
		if canonical, ok := invoiceColumnAliases[key]; ok {
			fields[i] = canonical
		}
	}
	if !hasField(fields, "name") {
		return nil, fmt.Errorf("invoice CSV has no product name column (header: %v)", header)
	}

	var items []domain.InvoiceItem
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading invoice row: %w", err)
		}

		item := domain.InvoiceItem{Quantity: decimal.NewFromInt(1)}
		valid := true
		for i, value := range record {
			value = strings.TrimSpace(value)
			switch fields[i] {
			case "code":
				item.SupplierCode = value
			case "name":
				item.Name = value
			case "brand":
				item.Brand = value
			case "format":
				item.Format = value
			case "packaging":
				item.Packaging = value
			case "category":
				item.Category = value
			case "price":
				if value == "" {
					continue
				}
				price, err := decimal.NewFromString(strings.TrimPrefix(value, "$"))
				if err != nil {
					valid = false
					continue
				}
				item.Price = price
			case "quantity":
				if value == "" {
					continue
				}
				qty, err := decimal.NewFromString(value)
				if err != nil {
					valid = false
					continue
				}
				item.Quantity = qty
			}
		}

		if item.Name == "" || !valid {
			continue
		}
		items = append(items, item)
	}
	return items, nil
}

func hasField(fields map[int]string, name string) bool {
	for _, f := range fields {
		if f == name {
			return true
		}
	}
	return false
}

// CompareInvoice matches every invoice line at targetSupplier and builds the
// full report, then records the run for auditing.
func (s *ComparisonService) CompareInvoice(
	ctx context.Context,
	invoiceNumber string,
	items []domain.InvoiceItem,
	sourceSupplier string,
	targetSupplier string,
	minSimilarity float64,
	maxResults int,
) (*domain.ComparisonReport, error) {
	report := &domain.ComparisonReport{
		SourceSupplier: sourceSupplier,
		TargetSupplier: targetSupplier,
		Lines:          make([]domain.ComparisonLine, 0, len(items)),
	}

	for _, item := range items {
		matches, err := s.matcher.FindMatches(ctx, item.Descriptor(), sourceSupplier, targetSupplier, minSimilarity, maxResults)
		if err != nil {
			return nil, fmt.Errorf("matching %q: %w", item.Name, err)
		}

		line := buildComparisonLine(item, matches)
		if s.enableDebugLogging {
			log.Printf("[COMPARE] %q -> %s (%d matches)", item.Name, line.Status, len(matches))
		}

		report.Lines = append(report.Lines, line)
	}

	summarize(report)

	history := &domain.ComparisonHistory{
		InvoiceNumber:    invoiceNumber,
		SourceSupplier:   sourceSupplier,
		TargetSupplier:   targetSupplier,
		TotalItems:       report.TotalItems,
		MatchedItems:     report.MatchedItems,
		OriginalTotal:    report.OriginalTotal,
		TargetTotal:      report.TargetTotal,
		PotentialSavings: report.PotentialSavings,
	}
	if err := s.repo.SaveComparison(ctx, history); err != nil {
		return nil, fmt.Errorf("recording comparison history: %w", err)
	}

	return report, nil
}

// buildComparisonLine classifies the match outcome for one line and computes
// the per-line price delta when both sides carry a positive price.
func buildComparisonLine(item domain.InvoiceItem, matches []domain.MatchCandidate) domain.ComparisonLine {
	line := domain.ComparisonLine{
		Item:   item,
		Status: domain.MatchStatusNoMatch,
	}
	if len(matches) == 0 {
		return line
	}

	best := matches[0]
	line.BestMatch = &best
	if len(matches) > 1 {
		line.Alternatives = matches[1:]
	}

	switch {
	case best.Kind == domain.MatchKindExactGTIN:
		line.Status = domain.MatchStatusExact
	case best.Score >= fuzzyStatusThreshold:
		line.Status = domain.MatchStatusFuzzy
	default:
		line.Status = domain.MatchStatusLowConfidence
	}

	if best.Price.Valid && best.Price.Decimal.IsPositive() && item.Price.IsPositive() {
		delta := item.Price.Sub(best.Price.Decimal)
		line.PriceDelta = decimal.NewNullDecimal(delta)
		line.Savings = decimal.NewNullDecimal(delta.Mul(item.Quantity))
		line.SavingsRate = decimal.NewNullDecimal(
			delta.Div(item.Price).Mul(decimal.NewFromInt(100)).Round(2))
	}

	return line
}

// summarize fills in the report counters and financial totals.
func summarize(report *domain.ComparisonReport) {
	report.TotalItems = len(report.Lines)

	for _, line := range report.Lines {
		switch line.Status {
		case domain.MatchStatusExact:
			report.ExactMatches++
			report.MatchedItems++
		case domain.MatchStatusFuzzy:
			report.FuzzyMatches++
			report.MatchedItems++
		case domain.MatchStatusLowConfidence:
			// Low-confidence lines still cleared the caller's threshold.
			report.LowConfidence++
			report.MatchedItems++
		case domain.MatchStatusNoMatch:
			report.NoMatches++
		}

		report.OriginalTotal = report.OriginalTotal.Add(line.Item.LineTotal())

		if line.BestMatch != nil && line.BestMatch.Price.Valid {
			report.TargetTotal = report.TargetTotal.Add(
				line.BestMatch.Price.Decimal.Mul(line.Item.Quantity))
		}
		if line.Savings.Valid {
			report.PotentialSavings = report.PotentialSavings.Add(line.Savings.Decimal)
		}
	}

	if report.OriginalTotal.IsPositive() {
		report.SavingsPercent = report.PotentialSavings.
			Div(report.OriginalTotal).
			Mul(decimal.NewFromInt(100)).
			Round(2)
	}
}
