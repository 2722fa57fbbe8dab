package retail

import (
	"encoding/json"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/reviewlens/harvester/internal/domain"
)

// ParseReviewCards extracts the repeated review-card units from review
// listing or product-page HTML. Cards with neither title nor body are kept;
// downstream normalization decides what a usable row is.
func ParseReviewCards(html string) []domain.ReviewCard {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var cards []domain.ReviewCard
	doc.Find(`div[data-hook="review"]`).Each(func(_ int, sel *goquery.Selection) {
		card := domain.ReviewCard{
			Title:  cardText(sel, `[data-hook="review-title"]`),
			Body:   cardText(sel, `[data-hook="review-body"]`),
			Author: cardText(sel, "span.a-profile-name"),
			Date:   cardText(sel, `[data-hook="review-date"]`),
		}
		if id, ok := sel.Attr("id"); ok {
			card.ID = strings.TrimSpace(id)
		}
		card.RatingText = cardText(sel, `[data-hook="review-star-rating"]`)
		if card.RatingText == "" {
			card.RatingText = cardText(sel, `[data-hook="cmps-review-star-rating"]`)
		}
		cards = append(cards, card)
	})
	return cards
}

// ParseMarkupReviews walks every JSON-LD block in the page and collects
// review objects. It descends one level into @graph containers and into
// "review" members holding a single object or an array.
func ParseMarkupReviews(html string) []domain.MarkupReview {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil
	}

	var reviews []domain.MarkupReview
	doc.Find(`script[type="application/ld+json"]`).Each(func(_ int, sel *goquery.Selection) {
		var payload any
		if err := json.Unmarshal([]byte(sel.Text()), &payload); err != nil {
			return
		}
		for _, node := range flattenMarkup(payload) {
			reviews = append(reviews, collectReviews(node)...)
		}
	})
	return reviews
}

// flattenMarkup turns a JSON-LD payload into a flat list of object nodes,
// expanding top-level arrays and @graph containers one level deep.
func flattenMarkup(payload any) []map[string]any {
	var nodes []map[string]any
	switch v := payload.(type) {
	case map[string]any:
		nodes = append(nodes, v)
		if graph, ok := v["@graph"].([]any); ok {
			for _, item := range graph {
				if m, ok := item.(map[string]any); ok {
					nodes = append(nodes, m)
				}
			}
		}
	case []any:
		for _, item := range v {
			if m, ok := item.(map[string]any); ok {
				nodes = append(nodes, m)
			}
		}
	}
	return nodes
}

// collectReviews extracts review objects from one node: the node itself when
// typed as a Review, plus anything under its "review" member.
func collectReviews(node map[string]any) []domain.MarkupReview {
	var reviews []domain.MarkupReview
	if t, ok := node["@type"].(string); ok && strings.EqualFold(t, "Review") {
		reviews = append(reviews, domain.MarkupReview{Fields: node})
	}
	switch nested := node["review"].(type) {
	case map[string]any:
		reviews = append(reviews, domain.MarkupReview{Fields: nested})
	case []any:
		for _, item := range nested {
			if m, ok := item.(map[string]any); ok {
				reviews = append(reviews, domain.MarkupReview{Fields: m})
			}
		}
	}
	return reviews
}

// cardText returns the trimmed text of the first matching child element.
func cardText(sel *goquery.Selection, selector string) string {
	return strings.TrimSpace(sel.Find(selector).First().Text())
}
