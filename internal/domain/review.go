package domain

// RawRecord is one not-yet-normalized review from any source. It is a
// closed union: exactly the three variants below implement it, and each
// carries the field shape of its origin. Raw records never escape past the
// normalizer.
type RawRecord interface {
	rawRecord()
}

// CorpusRecord is one line of the bulk offline corpus.
type CorpusRecord struct {
	ASIN       string   `json:"asin"`
	ReviewerID string   `json:"reviewerID"`
	Overall    *float64 `json:"overall"`
	ReviewText string   `json:"reviewText"`
	ReviewTime string   `json:"reviewTime"`
	Summary    string   `json:"summary"`
	Verified   *bool    `json:"verified"`
	Title      string   `json:"title"`
}

// ReviewCard is one review block parsed from a live review-listing page.
// RatingText keeps the raw "5.0 out of 5 stars" style text; the normalizer
// extracts the leading number when it can.
type ReviewCard struct {
	ID         string
	Title      string
	Body       string
	RatingText string
	Author     string
	Date       string
}

// MarkupReview is one review object lifted from a structured-markup block
// (schema.org style). Fields stay as decoded JSON because key names vary by
// site; the normalizer resolves candidates in precedence order.
type MarkupReview struct {
	Fields map[string]any
}

func (CorpusRecord) rawRecord() {}
func (ReviewCard) rawRecord()   {}
func (MarkupReview) rawRecord() {}

// NormalizedReview is the canonical output row. ReviewBody is always a
// string after normalization, never null. StarRating holds numeric text
// ("5.0") when the source rating parsed, otherwise the raw source text so
// downstream consumers can decide what to do with it.
type NormalizedReview struct {
	ProductID        string `json:"productId"`
	ReviewID         string `json:"reviewId"`
	StarRating       string `json:"starRating"`
	ReviewBody       string `json:"reviewBody"`
	ReviewDate       string `json:"reviewDate"`
	ReviewDateISO    string `json:"reviewDateIso"`
	Summary          string `json:"summary"`
	VerifiedPurchase string `json:"verifiedPurchase"`
	Author           string `json:"author"`
	ASIN             string `json:"asin"`
}

// ReviewColumns is the column order of the per-product output files. This is
// the sole contract with the downstream cleaning and analysis stages.
var ReviewColumns = []string{
	"product_id",
	"review_id",
	"star_rating",
	"review_body",
	"review_date",
	"review_date_iso",
	"summary",
	"verified_purchase",
	"author",
	"asin",
}

// Row renders the review in ReviewColumns order.
func (r NormalizedReview) Row() []string {
	return []string{
		r.ProductID,
		r.ReviewID,
		r.StarRating,
		r.ReviewBody,
		r.ReviewDate,
		r.ReviewDateISO,
		r.Summary,
		r.VerifiedPurchase,
		r.Author,
		r.ASIN,
	}
}
