package usecase

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/reviewlens/harvester/internal/domain"
)

// leadingNumberRegex pulls the numeric prefix out of rating strings such as
// "4.0 out of 5 stars".
var leadingNumberRegex = regexp.MustCompile(`^\s*(\d+(?:\.\d+)?)`)

// dateLayouts are tried in order when normalizing review dates.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02",
	"January 2, 2006",
	"01 2, 2006",
}

// ReviewNormalizer converts raw records of any acquisition path into the
// canonical review row. Normalization is total: fields that cannot be parsed
// are carried through as raw text rather than dropped.
type ReviewNormalizer struct {
	maxPerProduct int
}

// NewReviewNormalizer creates a normalizer that caps output per product.
func NewReviewNormalizer(maxPerProduct int) *ReviewNormalizer {
	return &ReviewNormalizer{maxPerProduct: maxPerProduct}
}

// Normalize maps every raw record for a product onto canonical rows. Records
// beyond the per-product cap are discarded. Record order is preserved, and
// records without an intrinsic id get a positional one so re-runs over the
// same input produce identical rows.
func (n *ReviewNormalizer) Normalize(productID string, records []domain.RawRecord) []domain.NormalizedReview {
	if n.maxPerProduct > 0 && len(records) > n.maxPerProduct {
		records = records[:n.maxPerProduct]
	}

	out := make([]domain.NormalizedReview, 0, len(records))
	for i, rec := range records {
		var row domain.NormalizedReview
		switch r := rec.(type) {
		case domain.CorpusRecord:
			row = n.fromCorpus(r)
		case domain.ReviewCard:
			row = n.fromCard(r)
		case domain.MarkupReview:
			row = n.fromMarkup(r)
		}
		row.ProductID = productID
		if row.ReviewID == "" {
			row.ReviewID = fmt.Sprintf("%s_%d", productID, i)
		}
		out = append(out, row)
	}
	return out
}

func (n *ReviewNormalizer) fromCorpus(r domain.CorpusRecord) domain.NormalizedReview {
	row := domain.NormalizedReview{
		ReviewID:   r.ReviewerID,
		ReviewBody: r.ReviewText,
		Summary:    r.Summary,
		ASIN:       r.ASIN,
	}
	if r.Overall != nil {
		row.StarRating = strconv.FormatFloat(*r.Overall, 'f', -1, 64)
	}
	if r.Verified != nil {
		row.VerifiedPurchase = strconv.FormatBool(*r.Verified)
	}
	row.ReviewDate = r.ReviewTime
	row.ReviewDateISO = toISODate(r.ReviewTime)
	return row
}

func (n *ReviewNormalizer) fromCard(r domain.ReviewCard) domain.NormalizedReview {
	return domain.NormalizedReview{
		ReviewID:      r.ID,
		StarRating:    ParseRating(r.RatingText),
		ReviewBody:    r.Body,
		ReviewDate:    r.Date,
		ReviewDateISO: toISODate(cardDate(r.Date)),
		Summary:       r.Title,
		Author:        r.Author,
	}
}

func (n *ReviewNormalizer) fromMarkup(r domain.MarkupReview) domain.NormalizedReview {
	row := domain.NormalizedReview{
		ReviewID:   firstString(r.Fields, "@id", "url", "review_id"),
		ReviewBody: firstString(r.Fields, "reviewBody", "description", "body"),
		Summary:    firstString(r.Fields, "name", "headline", "title"),
		ReviewDate: firstString(r.Fields, "datePublished", "dateCreated"),
	}
	row.StarRating = markupRating(r.Fields)
	row.Author = markupAuthor(r.Fields)
	row.ReviewDateISO = toISODate(row.ReviewDate)
	return row
}

// ParseRating extracts the leading number from a rating string. Unparseable
// input is passed through untouched so nothing is silently lost.
func ParseRating(text string) string {
	m := leadingNumberRegex.FindStringSubmatch(text)
	if m == nil {
		return strings.TrimSpace(text)
	}
	f, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return strings.TrimSpace(text)
	}
	return strconv.FormatFloat(f, 'f', -1, 64)
}

// toISODate parses a review date in any known layout and reformats it as
// YYYY-MM-DD. Unknown layouts yield the empty string.
func toISODate(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.Format("2006-01-02")
		}
	}
	return ""
}

// cardDate strips the locale preamble from review-card dates, which arrive
// as "Reviewed in the United States on January 2, 2006".
func cardDate(text string) string {
	if i := strings.LastIndex(text, " on "); i >= 0 {
		return text[i+len(" on "):]
	}
	return text
}

// firstString returns the first non-empty string value among the keys.
func firstString(fields map[string]any, keys ...string) string {
	for _, key := range keys {
		if v, ok := fields[key].(string); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
	}
	return ""
}

// markupRating reads a structured-data rating, which may be a bare value or
// nested under reviewRating.ratingValue.
func markupRating(fields map[string]any) string {
	if nested, ok := fields["reviewRating"].(map[string]any); ok {
		if s := anyToString(nested["ratingValue"]); s != "" {
			return ParseRating(s)
		}
	}
	if s := anyToString(fields["ratingValue"]); s != "" {
		return ParseRating(s)
	}
	return ""
}

// markupAuthor reads an author that may be a plain string or a person object.
func markupAuthor(fields map[string]any) string {
	switch a := fields["author"].(type) {
	case string:
		return strings.TrimSpace(a)
	case map[string]any:
		return strings.TrimSpace(anyToString(a["name"]))
	}
	return ""
}

func anyToString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	}
	return ""
}
