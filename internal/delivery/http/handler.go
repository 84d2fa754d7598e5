package http

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/supplymatch/backend/internal/domain"
	"github.com/supplymatch/backend/internal/infrastructure/excel"
	"github.com/supplymatch/backend/internal/usecase"
)

// HandlerConfig carries the request defaults applied when a caller omits
// matching parameters.
type HandlerConfig struct {
	DefaultMinSimilarity float64
	DefaultMaxResults    int
}

// Handler holds dependencies for HTTP handlers
type Handler struct {
	matcher    *usecase.MatchService
	comparison *usecase.ComparisonService
	repo       domain.Repository
	importer   *excel.Importer
	config     HandlerConfig
}

// NewHandler creates a new HTTP handler
func NewHandler(
	matcher *usecase.MatchService,
	comparison *usecase.ComparisonService,
	repo domain.Repository,
	importer *excel.Importer,
	config HandlerConfig,
) *Handler {
	return &Handler{
		matcher:    matcher,
		comparison: comparison,
		repo:       repo,
		importer:   importer,
		config:     config,
	}
}

// HealthCheck returns the health status of the API
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "supplymatch-backend",
		"version": "1.0.0",
	})
}

type searchRequest struct {
	Query          domain.QueryDescriptor `json:"query" binding:"required"`
	SourceSupplier string                 `json:"sourceSupplier"`
	TargetSupplier string                 `json:"targetSupplier"`
	MinSimilarity  *float64               `json:"minSimilarity"`
	MaxResults     *int                   `json:"maxResults"`
}

// SearchMatches ranks target-supplier candidates for one product query.
func (h *Handler) SearchMatches(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	minSimilarity, maxResults, err := h.matchParams(req.MinSimilarity, req.MaxResults)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	matches, err := h.matcher.FindMatches(c.Request.Context(), req.Query,
		req.SourceSupplier, req.TargetSupplier, minSimilarity, maxResults)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "match search failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"query":   req.Query,
		"matches": matches,
		"count":   len(matches),
	})
}

// CompareInvoice accepts a CSV invoice upload and returns the line-by-line
// comparison against the target supplier's catalog.
func (h *Handler) CompareInvoice(c *gin.Context) {
	sourceSupplier := c.PostForm("sourceSupplier")
	targetSupplier := c.PostForm("targetSupplier")
	if sourceSupplier == "" || targetSupplier == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "sourceSupplier and targetSupplier are required"})
		return
	}

	reqMin, err := formFloat(c, "minSimilarity")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	reqMax, err := formInt(c, "maxResults")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	minSimilarity, maxResults, err := h.matchParams(reqMin, reqMax)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, _, err := c.Request.FormFile("invoice")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invoice file is required"})
		return
	}
	defer file.Close()

	items, err := usecase.ParseInvoiceCSV(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid invoice CSV: " + err.Error()})
		return
	}
	if len(items) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invoice contains no usable line items"})
		return
	}

	report, err := h.comparison.CompareInvoice(c.Request.Context(),
		c.PostForm("invoiceNumber"), items, sourceSupplier, targetSupplier, minSimilarity, maxResults)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "comparison failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, report)
}

type correctionRequest struct {
	SourceSupplier    string  `json:"sourceSupplier" binding:"required"`
	SourceCode        string  `json:"sourceCode" binding:"required"`
	SourceDescription string  `json:"sourceDescription"`
	ProductID         int64   `json:"productId" binding:"required"`
	TargetSupplier    string  `json:"targetSupplier"`
	TargetCode        string  `json:"targetCode"`
	SimilarityScore   float64 `json:"similarityScore"`
	CreatedBy         string  `json:"createdBy"`
}

// SaveCorrection records a user-confirmed code-to-product mapping.
func (h *Handler) SaveCorrection(c *gin.Context) {
	var req correctionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body: " + err.Error()})
		return
	}

	if _, err := h.repo.FindProduct(c.Request.Context(), req.ProductID); err != nil {
		if errors.Is(err, domain.ErrProductNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "unknown product"})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	correction := domain.Correction{
		SourceSupplier:    req.SourceSupplier,
		SourceCode:        req.SourceCode,
		SourceDescription: req.SourceDescription,
		ProductID:         req.ProductID,
		TargetSupplier:    req.TargetSupplier,
		TargetCode:        req.TargetCode,
		SimilarityScore:   req.SimilarityScore,
		CreatedBy:         req.CreatedBy,
	}
	if err := h.repo.SaveCorrection(c.Request.Context(), &correction); err != nil {
		if errors.Is(err, domain.ErrUnknownSupplier) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "unknown supplier: " + req.SourceSupplier})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, correction)
}

// ListSuppliers returns the registered suppliers.
func (h *Handler) ListSuppliers(c *gin.Context) {
	suppliers, err := h.repo.ListSuppliers(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"suppliers": suppliers, "count": len(suppliers)})
}

// ImportCatalog loads a master GTIN workbook into the catalog.
func (h *Handler) ImportCatalog(c *gin.Context) {
	file, _, err := c.Request.FormFile("workbook")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "workbook file is required"})
		return
	}
	defer file.Close()

	stats, err := h.importer.Import(c.Request.Context(), file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "import failed: " + err.Error()})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// matchParams applies configured defaults and validates the caller-supplied
// matching parameters. These checks guard the engine's preconditions, so every
// violation is a client error.
func (h *Handler) matchParams(minSimilarity *float64, maxResults *int) (float64, int, error) {
	min := h.config.DefaultMinSimilarity
	if minSimilarity != nil {
		min = *minSimilarity
	}
	if min < 0 || min > 100 {
		return 0, 0, errInvalidMinSimilarity
	}

	max := h.config.DefaultMaxResults
	if maxResults != nil {
		max = *maxResults
	}
	if max <= 0 {
		return 0, 0, errInvalidMaxResults
	}

	return min, max, nil
}

var (
	errInvalidMinSimilarity = fmt.Errorf("%w: minSimilarity must be between 0 and 100", domain.ErrInvalidRequest)
	errInvalidMaxResults    = fmt.Errorf("%w: maxResults must be a positive integer", domain.ErrInvalidRequest)
)

func formFloat(c *gin.Context, name string) (*float64, error) {
	raw := c.PostForm(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidRequest, name)
	}
	return &v, nil
}

func formInt(c *gin.Context, name string) (*int, error) {
	raw := c.PostForm(name)
	if raw == "" {
		return nil, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidRequest, name)
	}
	return &v, nil
}
