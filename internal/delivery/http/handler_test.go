package http

import (
	"bytes"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/supplymatch/backend/config"
	"github.com/supplymatch/backend/internal/domain"
	"github.com/supplymatch/backend/internal/infrastructure/excel"
	"github.com/supplymatch/backend/internal/infrastructure/memory"
	"github.com/supplymatch/backend/internal/usecase"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

// setupTestRouter builds the full stack over a seeded in-memory repository.
func setupTestRouter(t *testing.T) (*gin.Engine, *memory.Repository, domain.ProductIdentity) {
	t.Helper()

	repo := memory.NewRepository()
	repo.AddSupplier(domain.Supplier{Code: "colabor", Name: "Colabor"})
	repo.AddSupplier(domain.Supplier{Code: "mayrand", Name: "Mayrand"})

	product := repo.AddProduct(domain.ProductIdentity{
		GTIN: "00628915000017", Name: "YOGOURT VANILLE IOGO", Brand: "IOGO", Format: "12X100G",
	})
	repo.AddListing(domain.SupplierListing{
		Supplier: "colabor", ProductID: product.ID, Code: "COL-001", Active: true,
	})
	repo.AddListing(domain.SupplierListing{
		Supplier: "mayrand", ProductID: product.ID, Code: "MAY-001",
		Price: decimal.NewNullDecimal(decimal.RequireFromString("45.99")), Active: true,
	})

	scorer, err := usecase.NewSimilarityScorer(usecase.DefaultScorerConfig())
	require.NoError(t, err)
	matcher := usecase.NewMatchService(repo, scorer, usecase.MatchConfig{})
	comparison := usecase.NewComparisonService(matcher, repo, false)
	importer := excel.NewImporter(repo, excel.DefaultColumnMap(), false)

	handler := NewHandler(matcher, comparison, repo, importer, HandlerConfig{
		DefaultMinSimilarity: 60,
		DefaultMaxResults:    5,
	})

	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"http://localhost:*"},
		},
		Storage:   config.StorageConfig{Type: "memory"},
		RateLimit: config.RateLimitConfig{PerIP: 6000, Burst: 100},
	}
	return SetupRouter(cfg, handler), repo, product
}

func TestHealthCheck(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "healthy")
}

func TestSearchMatches(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	postSearch := func(t *testing.T, body string) *httptest.ResponseRecorder {
		t.Helper()
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/matches/search", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("returns ranked matches", func(t *testing.T) {
		w := postSearch(t, `{
			"query": {"name": "YOGOURT VANILLE IOGO", "brand": "IOGO", "format": "12X100G"},
			"sourceSupplier": "colabor",
			"targetSupplier": "mayrand"
		}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Matches []domain.MatchCandidate `json:"matches"`
			Count   int                     `json:"count"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.NotZero(t, resp.Count)
		assert.Equal(t, "MAY-001", resp.Matches[0].TargetCode)
	})

	t.Run("exact code resolution", func(t *testing.T) {
		w := postSearch(t, `{
			"query": {"name": "anything", "sourceCode": "COL-001"},
			"sourceSupplier": "colabor",
			"targetSupplier": "mayrand"
		}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var resp struct {
			Matches []domain.MatchCandidate `json:"matches"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Matches, 1)
		assert.Equal(t, domain.MatchKindExactGTIN, resp.Matches[0].Kind)
		assert.Equal(t, 100.0, resp.Matches[0].Score)
	})

	t.Run("missing query name is a client error", func(t *testing.T) {
		w := postSearch(t, `{"query": {"brand": "IOGO"}}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("minSimilarity out of range is a client error", func(t *testing.T) {
		w := postSearch(t, `{"query": {"name": "YOGOURT"}, "minSimilarity": 150}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)

		w = postSearch(t, `{"query": {"name": "YOGOURT"}, "minSimilarity": -1}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("non-positive maxResults is a client error", func(t *testing.T) {
		w := postSearch(t, `{"query": {"name": "YOGOURT"}, "maxResults": 0}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestSaveCorrectionEndpoint(t *testing.T) {
	router, _, product := setupTestRouter(t)

	postCorrection := func(t *testing.T, body string) *httptest.ResponseRecorder {
		t.Helper()
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/v1/corrections", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		router.ServeHTTP(w, req)
		return w
	}

	t.Run("records a correction", func(t *testing.T) {
		w := postCorrection(t, fmt.Sprintf(`{
			"sourceSupplier": "colabor",
			"sourceCode": "COL-X99",
			"productId": %d,
			"targetSupplier": "mayrand"
		}`, product.ID))
		assert.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	})

	t.Run("unknown product is not found", func(t *testing.T) {
		w := postCorrection(t, `{
			"sourceSupplier": "colabor",
			"sourceCode": "COL-X99",
			"productId": 9999,
			"targetSupplier": "mayrand"
		}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("unknown supplier is a client error", func(t *testing.T) {
		w := postCorrection(t, fmt.Sprintf(`{
			"sourceSupplier": "sysco",
			"sourceCode": "S-1",
			"productId": %d,
			"targetSupplier": "mayrand"
		}`, product.ID))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing required fields", func(t *testing.T) {
		w := postCorrection(t, `{"sourceSupplier": "colabor"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestListSuppliersEndpoint(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/suppliers", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Suppliers []domain.Supplier `json:"suppliers"`
		Count     int               `json:"count"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, "colabor", resp.Suppliers[0].Code)
}

func TestCompareInvoiceEndpoint(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	buildRequest := func(t *testing.T, fields map[string]string, csv string) *http.Request {
		t.Helper()
		var buf bytes.Buffer
		writer := multipart.NewWriter(&buf)
		for k, v := range fields {
			require.NoError(t, writer.WriteField(k, v))
		}
		if csv != "" {
			part, err := writer.CreateFormFile("invoice", "invoice.csv")
			require.NoError(t, err)
			_, err = part.Write([]byte(csv))
			require.NoError(t, err)
		}
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(http.MethodPost, "/api/v1/invoices/compare", &buf)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		return req
	}

	t.Run("compares an uploaded invoice", func(t *testing.T) {
		csv := "code,name,price,quantity\n" +
			"COL-001,YOGOURT VANILLE IOGO,50.00,2\n"
		req := buildRequest(t, map[string]string{
			"sourceSupplier": "colabor",
			"targetSupplier": "mayrand",
			"invoiceNumber":  "INV-001",
		}, csv)

		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var report domain.ComparisonReport
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
		assert.Equal(t, 1, report.TotalItems)
		assert.Equal(t, 1, report.ExactMatches)
		assert.True(t, report.PotentialSavings.Equal(decimal.RequireFromString("8.02")),
			"PotentialSavings = %s", report.PotentialSavings)
	})

	t.Run("missing suppliers is a client error", func(t *testing.T) {
		req := buildRequest(t, map[string]string{"sourceSupplier": "colabor"}, "name\nYOGOURT\n")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing file is a client error", func(t *testing.T) {
		req := buildRequest(t, map[string]string{
			"sourceSupplier": "colabor",
			"targetSupplier": "mayrand",
		}, "")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("empty invoice is a client error", func(t *testing.T) {
		req := buildRequest(t, map[string]string{
			"sourceSupplier": "colabor",
			"targetSupplier": "mayrand",
		}, "name,price\n")
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCORSPreflightRequest(t *testing.T) {
	router, _, _ := setupTestRouter(t)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/suppliers", nil)
	req.Header.Set("Origin", "http://localhost:3000")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNoContent, w.Code)
	assert.Equal(t, "http://localhost:3000", w.Header().Get("Access-Control-Allow-Origin"))
}
