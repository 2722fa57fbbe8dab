package http

import (
	"encoding/csv"
	"errors"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/reviewlens/harvester/internal/domain"
	"github.com/reviewlens/harvester/internal/usecase"
)

// Handler serves the collected review corpora over HTTP. It reads the same
// per-product CSV files the acquisition runs write, so the API always
// reflects the latest completed run.
type Handler struct {
	catalog   usecase.CatalogSource
	outputDir string
}

// NewHandler creates a handler over the catalog source and the output dir.
func NewHandler(catalog usecase.CatalogSource, outputDir string) *Handler {
	return &Handler{catalog: catalog, outputDir: outputDir}
}

// HealthCheck handles GET /health
func (h *Handler) HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "healthy",
		"service": "reviewlens-harvester",
	})
}

type productSummary struct {
	domain.CatalogProduct
	CollectedReviews int `json:"collected_reviews"`
}

// ListProducts handles GET /api/v1/products
func (h *Handler) ListProducts(c *gin.Context) {
	products, err := h.catalog.Products()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load catalog"})
		return
	}

	summaries := make([]productSummary, 0, len(products))
	for _, p := range products {
		count, _ := h.countReviews(p.ProductID)
		summaries = append(summaries, productSummary{CatalogProduct: p, CollectedReviews: count})
	}
	c.JSON(http.StatusOK, gin.H{
		"products": summaries,
		"count":    len(summaries),
	})
}

// GetProductReviews handles GET /api/v1/products/:id/reviews
func (h *Handler) GetProductReviews(c *gin.Context) {
	id := c.Param("id")

	products, err := h.catalog.Products()
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load catalog"})
		return
	}
	known := false
	for _, p := range products {
		if p.ProductID == id {
			known = true
			break
		}
	}
	if !known {
		c.JSON(http.StatusNotFound, gin.H{"error": domain.ErrProductUnknown.Error(), "product_id": id})
		return
	}

	reviews, err := h.readReviews(id)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			c.JSON(http.StatusNotFound, gin.H{"error": "no reviews collected yet", "product_id": id})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read reviews"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"product_id": id,
		"reviews":    reviews,
		"count":      len(reviews),
	})
}

// countReviews counts data rows in a product's review file.
func (h *Handler) countReviews(productID string) (int, error) {
	rows, err := h.readReviews(productID)
	if err != nil {
		return 0, err
	}
	return len(rows), nil
}

// readReviews loads a product's canonical rows back from its CSV file.
func (h *Handler) readReviews(productID string) ([]domain.NormalizedReview, error) {
	path := filepath.Join(h.outputDir, usecase.ReviewFileName(productID))
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	header, err := r.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, err
	}
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[name] = i
	}

	var reviews []domain.NormalizedReview
	for {
		row, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}
		get := func(name string) string {
			i, ok := idx[name]
			if !ok || i >= len(row) {
				return ""
			}
			return row[i]
		}
		reviews = append(reviews, domain.NormalizedReview{
			ProductID:        get("product_id"),
			ReviewID:         get("review_id"),
			StarRating:       get("star_rating"),
			ReviewBody:       get("review_body"),
			ReviewDate:       get("review_date"),
			ReviewDateISO:    get("review_date_iso"),
			Summary:          get("summary"),
			VerifiedPurchase: get("verified_purchase"),
			Author:           get("author"),
			ASIN:             get("asin"),
		})
	}
	return reviews, nil
}
