package usecase

import (
	"context"
	"fmt"
	"log"
	"strings"

	"github.com/reviewlens/harvester/internal/domain"
)

// cascadeState names one step of the live extraction cascade.
type cascadeState int

const (
	stateDirectID cascadeState = iota
	stateSearchID
	statePaginated
	stateSinglePage
	stateMarkup
	stateDone
)

func (s cascadeState) String() string {
	switch s {
	case stateDirectID:
		return "direct-id"
	case stateSearchID:
		return "search-id"
	case statePaginated:
		return "paginated-fetch"
	case stateSinglePage:
		return "single-page"
	case stateMarkup:
		return "markup-extract"
	case stateDone:
		return "done"
	default:
		return "unknown"
	}
}

// CascadeConfig holds configuration for the live extraction cascade
type CascadeConfig struct {
	SearchEnabled bool
	ForceLive     bool
	SiteHost      string // host fragment a source URL must contain to be eligible
}

// ExtractionCascade acquires reviews for one product from the live retail
// site, trying progressively cheaper extraction steps. Each state either
// yields records and finishes, or transitions forward. Fetch and parse
// failures never abort the run; they advance the machine to the next state.
type ExtractionCascade struct {
	gateway domain.RetailGateway
	store   domain.FragmentStore
	budget  domain.Budget
	config  CascadeConfig
}

// NewExtractionCascade creates a cascade over the given gateway and store.
func NewExtractionCascade(gateway domain.RetailGateway, store domain.FragmentStore, budget domain.Budget, config CascadeConfig) *ExtractionCascade {
	return &ExtractionCascade{
		gateway: gateway,
		store:   store,
		budget:  budget,
		config:  config,
	}
}

// eligible reports whether the product's source URL points at the configured
// retail site, where id-based extraction is worth attempting.
func (c *ExtractionCascade) eligible(p domain.CatalogProduct) bool {
	if c.config.ForceLive {
		return true
	}
	return c.config.SiteHost != "" && strings.Contains(strings.ToLower(p.SourceURL), c.config.SiteHost)
}

// Run drives the state machine for one product and returns every raw record
// the first yielding state produced. It returns ErrNoReviews only after the
// whole cascade ran dry.
func (c *ExtractionCascade) Run(ctx context.Context, p domain.CatalogProduct) ([]domain.RawRecord, error) {
	var (
		records    []domain.RawRecord
		externalID string
		pageHTML   string
	)

	state := stateDirectID
	if !c.eligible(p) {
		// Id-based steps only make sense on the configured site. Other
		// sources still get a single-page parse of whatever they serve.
		log.Printf("[cascade] %s: source not on %s, skipping id-based steps", p.ProductID, c.config.SiteHost)
		state = stateSinglePage
	}
	for state != stateDone {
		log.Printf("[cascade] %s: state=%s", p.ProductID, state)

		switch state {
		case stateDirectID:
			externalID = c.directID(p)
			if externalID != "" {
				state = statePaginated
			} else if c.config.SearchEnabled {
				state = stateSearchID
			} else {
				state = stateSinglePage
			}

		case stateSearchID:
			id, err := c.gateway.SearchExternalID(ctx, searchQuery(p))
			if err != nil {
				log.Printf("[cascade] %s: search failed: %v", p.ProductID, err)
				state = stateSinglePage
				break
			}
			externalID = id
			state = statePaginated

		case statePaginated:
			records = c.fetchPages(ctx, p, externalID)
			if len(records) > 0 {
				state = stateDone
			} else {
				state = stateSinglePage
			}

		case stateSinglePage:
			html, err := c.singlePage(ctx, p)
			if err != nil {
				log.Printf("[cascade] %s: single-page fetch failed: %v", p.ProductID, err)
				state = stateDone
				break
			}
			pageHTML = html
			for _, card := range c.gateway.ParseReviewCards(pageHTML) {
				records = append(records, card)
			}
			if len(records) > 0 {
				state = stateDone
			} else {
				state = stateMarkup
			}

		case stateMarkup:
			for _, mr := range c.gateway.ParseMarkupReviews(pageHTML) {
				records = append(records, mr)
			}
			state = stateDone
		}
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: product %s", domain.ErrNoReviews, p.ProductID)
	}
	if len(records) > c.budget.MaxPerProduct {
		records = records[:c.budget.MaxPerProduct]
	}
	log.Printf("[cascade] %s: collected %d raw records", p.ProductID, len(records))
	return records, nil
}

// directID resolves an external id without touching the network: the catalog
// column first, then the product URL.
func (c *ExtractionCascade) directID(p domain.CatalogProduct) string {
	if p.ExternalID != "" {
		return NormalizeExternalID(p.ExternalID)
	}
	if id, ok := c.gateway.ExtractExternalID(p.SourceURL); ok {
		return NormalizeExternalID(id)
	}
	return ""
}

// fetchPages walks the review listing for an id up to the page cap. The walk
// halts on the first failed fetch, the first page with no review cards, or
// the per-product cap.
func (c *ExtractionCascade) fetchPages(ctx context.Context, p domain.CatalogProduct, externalID string) []domain.RawRecord {
	var records []domain.RawRecord
	for page := 1; page <= c.budget.MaxPages; page++ {
		if len(records) >= c.budget.MaxPerProduct {
			break
		}
		pageURL := c.gateway.ReviewsPageURL(externalID, page)
		html, err := c.gateway.FetchPage(ctx, pageURL)
		if err != nil {
			log.Printf("[cascade] %s: page %d fetch failed: %v", p.ProductID, page, err)
			break
		}
		if err := c.store.SavePage(p.ProductID, page, html); err != nil {
			log.Printf("[cascade] %s: page %d save failed: %v", p.ProductID, page, err)
		}
		cards := c.gateway.ParseReviewCards(html)
		if len(cards) == 0 {
			break
		}
		for _, card := range cards {
			records = append(records, card)
		}
	}
	return records
}

// singlePage returns HTML for the product page, preferring saved fragments
// over a live fetch.
func (c *ExtractionCascade) singlePage(ctx context.Context, p domain.CatalogProduct) (string, error) {
	html, ok, err := c.store.Load(p.ProductID)
	if err != nil {
		log.Printf("[cascade] %s: fragment load failed, fetching live: %v", p.ProductID, err)
	} else if ok {
		log.Printf("[cascade] %s: using saved page fragments", p.ProductID)
		return html, nil
	}
	html, err = c.gateway.FetchPage(ctx, p.SourceURL)
	if err != nil {
		return "", err
	}
	if err := c.store.SaveSingle(p.ProductID, html); err != nil {
		log.Printf("[cascade] %s: save failed: %v", p.ProductID, err)
	}
	return html, nil
}

// searchQuery builds the free-text query used for search-assisted resolution.
func searchQuery(p domain.CatalogProduct) string {
	parts := []string{p.Brand, p.ProductName, p.Flavor, p.SizeVariant}
	var kept []string
	for _, part := range parts {
		if strings.TrimSpace(part) != "" {
			kept = append(kept, strings.TrimSpace(part))
		}
	}
	return strings.Join(kept, " ")
}
