// Package excel imports the master GTIN workbook: one row per product, one
// column of supplier-specific codes per supplier.
package excel

import (
	"context"
	"fmt"
	"io"
	"log"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"

	"github.com/supplymatch/backend/internal/domain"
)

// CatalogStore is the subset of storage the importer writes to.
type CatalogStore interface {
	UpsertSupplier(ctx context.Context, s *domain.Supplier) error
	UpsertProduct(ctx context.Context, p *domain.ProductIdentity) error
	UpsertListing(ctx context.Context, l *domain.SupplierListing) error
}

// ColumnMap names the workbook columns. Product columns are matched by
// header; SupplierColumns maps a header like "Code Colabor" to the supplier
// machine code that owns it.
type ColumnMap struct {
	GTIN            string
	Name            string
	Brand           string
	Format          string
	Packaging       string
	Category        string
	SupplierColumns map[string]string
}

// DefaultColumnMap matches the master GTIN workbook as exported by purchasing
// (French headers, trailing spaces included).
func DefaultColumnMap() ColumnMap {
	return ColumnMap{
		GTIN:      "GTIN",
		Name:      "Produit",
		Brand:     "Marque",
		Format:    "Format",
		Packaging: "Empaquetage",
		Category:  "Categorie",
		SupplierColumns: map[string]string{
			"Code Colabor":       "colabor",
			"Code Mayrand":       "mayrand",
			"Code FLB":           "flb",
			"Code Ben Deshaies":  "ben_deshaies",
			"Code Dubé Loiselle": "dube_loiselle",
		},
	}
}

// ImportStats summarizes one import run.
type ImportStats struct {
	BatchID        string `json:"batchId"`
	RowsRead       int    `json:"rowsRead"`
	ProductsLoaded int    `json:"productsLoaded"`
	ListingsLoaded int    `json:"listingsLoaded"`
	SkippedBadGTIN int    `json:"skippedBadGtin"`
}

// Importer loads catalog workbooks into the store.
type Importer struct {
	store              CatalogStore
	columns            ColumnMap
	enableDebugLogging bool
}

// NewImporter creates an importer with the given column mapping.
func NewImporter(store CatalogStore, columns ColumnMap, enableDebugLogging bool) *Importer {
	return &Importer{store: store, columns: columns, enableDebugLogging: enableDebugLogging}
}

// Import reads the first sheet of the workbook and upserts every valid row.
// Rows whose GTIN fails normalization are counted and skipped, never fatal.
func (im *Importer) Import(ctx context.Context, r io.Reader) (*ImportStats, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %q is empty", sheets[0])
	}

	header := newHeaderIndex(rows[0])
	gtinCol, ok := header.find(im.columns.GTIN)
	if !ok {
		return nil, fmt.Errorf("missing required column %q (header: %v)", im.columns.GTIN, rows[0])
	}

	// Make sure every supplier referenced by the mapping exists before rows
	// start pointing listings at it.
	supplierCols := make(map[int]string)
	for headerName, supplierCode := range im.columns.SupplierColumns {
		col, ok := header.find(headerName)
		if !ok {
			continue
		}
		supplier := domain.Supplier{Code: supplierCode, Name: supplierCode}
		if err := im.store.UpsertSupplier(ctx, &supplier); err != nil {
			return nil, err
		}
		supplierCols[col] = supplierCode
	}

	stats := &ImportStats{BatchID: uuid.New().String()}

	for _, row := range rows[1:] {
		stats.RowsRead++

		gtin := domain.NormalizeGTIN(cell(row, gtinCol))
		if gtin == "" {
			stats.SkippedBadGTIN++
			continue
		}

		product := domain.ProductIdentity{
			GTIN:      gtin,
			Name:      headerCell(row, header, im.columns.Name, "Unknown"),
			Brand:     headerCell(row, header, im.columns.Brand, ""),
			Format:    headerCell(row, header, im.columns.Format, ""),
			Packaging: headerCell(row, header, im.columns.Packaging, ""),
			Category:  headerCell(row, header, im.columns.Category, ""),
		}
		if err := im.store.UpsertProduct(ctx, &product); err != nil {
			return stats, err
		}
		stats.ProductsLoaded++

		for col, supplierCode := range supplierCols {
			code := normalizeSupplierCode(cell(row, col))
			if code == "" {
				continue
			}
			listing := domain.SupplierListing{
				Supplier:  supplierCode,
				ProductID: product.ID,
				Code:      code,
				Active:    true,
			}
			if err := im.store.UpsertListing(ctx, &listing); err != nil {
				return stats, err
			}
			stats.ListingsLoaded++
		}
	}

	if im.enableDebugLogging {
		log.Printf("[IMPORT] batch %s: %d rows, %d products, %d listings, %d bad GTINs",
			stats.BatchID, stats.RowsRead, stats.ProductsLoaded, stats.ListingsLoaded, stats.SkippedBadGTIN)
	}
	return stats, nil
}

// normalizeSupplierCode strips the spreadsheet float artifact from numeric
// codes ("123456.0") and passes alphanumeric codes through.
func normalizeSupplierCode(raw string) string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return ""
	}
	if d, err := decimal.NewFromString(s); err == nil {
		return d.Truncate(0).String()
	}
	return s
}

// headerIndex resolves header names case-insensitively, tolerating the
// trailing spaces the source workbooks carry.
type headerIndex map[string]int

func newHeaderIndex(header []string) headerIndex {
	idx := make(headerIndex, len(header))
	for i, name := range header {
		idx[strings.ToLower(strings.TrimSpace(name))] = i
	}
	return idx
}

func (h headerIndex) find(name string) (int, bool) {
	i, ok := h[strings.ToLower(strings.TrimSpace(name))]
	return i, ok
}

func cell(row []string, col int) string {
	if col < 0 || col >= len(row) {
		return ""
	}
	return strings.TrimSpace(row[col])
}

func headerCell(row []string, header headerIndex, name, fallback string) string {
	col, ok := header.find(name)
	if !ok {
		return fallback
	}
	if v := cell(row, col); v != "" {
		return v
	}
	return fallback
}
