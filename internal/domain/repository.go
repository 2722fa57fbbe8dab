package domain

import "context"

// RetailGateway abstracts all retail-site specifics: URL shapes, id formats
// and page markup. The cascade depends only on this interface.
type RetailGateway interface {
	// ExtractExternalID pulls an external id out of a known product URL.
	ExtractExternalID(sourceURL string) (string, bool)

	// SearchExternalID fetches one search-results page for the query and
	// returns the first well-formed result's id.
	SearchExternalID(ctx context.Context, query string) (string, error)

	// ReviewsPageURL builds the review-listing URL for an id and page number.
	ReviewsPageURL(externalID string, page int) string

	// FetchPage performs one bounded GET and returns the page body.
	FetchPage(ctx context.Context, pageURL string) (string, error)

	// ParseReviewCards extracts repeated review-card units from listing HTML.
	ParseReviewCards(html string) []ReviewCard

	// ParseMarkupReviews extracts review objects from embedded structured-data
	// blocks, including one level of nested graph/review containers.
	ParseMarkupReviews(html string) []MarkupReview
}

// FragmentStore reads previously saved page fragments for a product and
// persists freshly fetched HTML for later offline parsing.
type FragmentStore interface {
	// Load returns the concatenation of all saved fragments named
	// <productID>* in the read directory, and whether any were found.
	Load(productID string) (string, bool, error)

	// SavePage persists one paginated review page (<productID>_pN.html).
	SavePage(productID string, page int, html string) error

	// SaveSingle persists a single product-page fetch (<productID>.html).
	SaveSingle(productID string, html string) error
}
