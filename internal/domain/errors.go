package domain

import "errors"

var (
	// ErrMissingColumns is returned when the catalog table lacks required columns
	ErrMissingColumns = errors.New("catalog is missing required columns")

	// ErrCorpusUnreadable is returned when the bulk corpus file cannot be opened
	ErrCorpusUnreadable = errors.New("corpus file is unreadable")

	// ErrRecordParse is returned for a malformed corpus line in strict mode
	ErrRecordParse = errors.New("corpus record parse failure")

	// ErrFetchFailed is returned when a page fetch fails or times out
	ErrFetchFailed = errors.New("page fetch failed")

	// ErrNoExternalID is returned when no external id could be determined for a product
	ErrNoExternalID = errors.New("no external id found")

	// ErrNoReviews is returned when a cascade exhausts every step with zero reviews
	ErrNoReviews = errors.New("no reviews found")

	// ErrProductUnknown is returned when a requested product id is not in the catalog
	ErrProductUnknown = errors.New("product not in catalog")

	// ErrRateLimited is returned when the per-IP request limit is exceeded
	ErrRateLimited = errors.New("rate limit exceeded")
)
