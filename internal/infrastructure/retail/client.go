package retail

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/reviewlens/harvester/internal/domain"
)

const (
	userAgent      = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	acceptLanguage = "en-US,en;q=0.9"
)

// externalIDPatterns cover the URL shapes an external id appears in.
var externalIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`/dp/([A-Z0-9]{10})`),
	regexp.MustCompile(`/gp/product/([A-Z0-9]{10})`),
	regexp.MustCompile(`/product-reviews/([A-Z0-9]{10})`),
}

// Client talks to the retail site. All outbound requests share one rate
// limiter so the cascade never exceeds the configured request interval,
// whatever order its states fire in.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *rate.Limiter
}

// NewClient creates a retail client for a base URL. The interval sets the
// minimum spacing between requests.
func NewClient(baseURL string, timeout, interval time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    rate.NewLimiter(rate.Every(interval), 1),
	}
}

// ExtractExternalID pulls an external id out of a product URL.
func (c *Client) ExtractExternalID(sourceURL string) (string, bool) {
	for _, pattern := range externalIDPatterns {
		if m := pattern.FindStringSubmatch(sourceURL); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// SearchExternalID fetches one search-results page and returns the id of the
// first organic result.
func (c *Client) SearchExternalID(ctx context.Context, query string) (string, error) {
	searchURL := fmt.Sprintf("%s/s?k=%s", c.baseURL, url.QueryEscape(query))
	html, err := c.FetchPage(ctx, searchURL)
	if err != nil {
		return "", err
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", fmt.Errorf("parsing search results: %w", err)
	}

	var found string
	doc.Find(`div[data-asin][data-component-type="s-search-result"]`).EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		id, ok := sel.Attr("data-asin")
		if id = strings.TrimSpace(id); ok && len(id) == 10 {
			found = id
			return false
		}
		return true
	})
	if found == "" {
		return "", fmt.Errorf("%w: no search result for %q", domain.ErrNoExternalID, query)
	}
	return found, nil
}

// ReviewsPageURL builds the review-listing URL for an id and page number.
func (c *Client) ReviewsPageURL(externalID string, page int) string {
	return fmt.Sprintf("%s/product-reviews/%s/?reviewerType=all_reviews&pageNumber=%d", c.baseURL, externalID, page)
}

// FetchPage performs one rate-limited GET with browser headers and returns
// the body. Any non-200 status maps to ErrFetchFailed.
func (c *Client) FetchPage(ctx context.Context, pageURL string) (string, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept-Language", acceptLanguage)

	log.Printf("[retail] GET %s", pageURL)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("%w: status %d for %s", domain.ErrFetchFailed, resp.StatusCode, pageURL)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrFetchFailed, err)
	}
	return string(body), nil
}

// ParseReviewCards extracts review-card units from listing HTML.
func (c *Client) ParseReviewCards(html string) []domain.ReviewCard {
	return ParseReviewCards(html)
}

// ParseMarkupReviews extracts review objects from embedded structured data.
func (c *Client) ParseMarkupReviews(html string) []domain.MarkupReview {
	return ParseMarkupReviews(html)
}
