package usecase

import (
	"log"
	"regexp"
	"strings"

	"github.com/reviewlens/harvester/internal/domain"
)

// Package-level compiled regex patterns for performance
var (
	punctuationRegex    = regexp.MustCompile(`[^\w\s]`)
	multipleSpacesRegex = regexp.MustCompile(`\s+`)
)

// prefixTokenCount is the length of the extra prefix phrase derived from
// long product names to increase recall.
const prefixTokenCount = 3

// curatedPhrases are manual phrase lists tuned to reduce false positives.
// A product listed here skips phrase derivation entirely.
var curatedPhrases = map[string][]string{
	"p1": {"purina one tender selects", "tender selects", "purina one"},
	"p2": {"blue buffalo wilderness", "wilderness high protein", "blue buffalo high protein"},
	"p3": {"science diet indoor", "hill s science diet indoor", "hill science diet indoor"},
	"p4": {"iams indoor weight", "iams hairball", "proactive health indoor"},
	"p5": {"royal canin indoor", "feline care nutrition indoor"},
}

// IdentityResolver builds per-product match criteria from catalog metadata
// and an optional external-id table. Resolution never fails: a product
// without usable metadata gets empty criteria and simply collects nothing.
type IdentityResolver struct {
	overrides map[string][]string
}

// NewIdentityResolver creates a resolver with the curated phrase overrides.
func NewIdentityResolver() *IdentityResolver {
	return &IdentityResolver{overrides: curatedPhrases}
}

// Resolve chooses the match mode for the whole run and derives criteria for
// every catalog product. Exact-match mode is selected whenever the external-id
// table supplied at least one id; otherwise every product matches by phrase.
func (r *IdentityResolver) Resolve(products []domain.CatalogProduct, externalIDs map[string]string) (domain.MatchMode, map[string]domain.MatchCriteria) {
	criteria := make(map[string]domain.MatchCriteria, len(products))

	if len(externalIDs) > 0 {
		for _, p := range products {
			c := domain.MatchCriteria{ProductID: p.ProductID}
			if id, ok := externalIDs[p.ProductID]; ok {
				c.ExternalID = NormalizeExternalID(id)
			}
			criteria[p.ProductID] = c
		}
		return domain.MatchByExternalID, criteria
	}

	for _, p := range products {
		c := domain.MatchCriteria{
			ProductID: p.ProductID,
			Phrases:   r.phrasesFor(p),
		}
		if c.Empty() {
			log.Printf("[identity] %s has no usable metadata; it will collect zero matches", p.ProductID)
		}
		criteria[p.ProductID] = c
	}
	return domain.MatchByPhrase, criteria
}

// phrasesFor returns the ordered phrase list for one product. Curated
// overrides take precedence and skip derivation.
func (r *IdentityResolver) phrasesFor(p domain.CatalogProduct) []string {
	if preset, ok := r.overrides[p.ProductID]; ok {
		return preset
	}

	brand := NormalizePhrase(p.Brand)
	name := NormalizePhrase(p.ProductName)
	flavor := NormalizePhrase(p.Flavor)

	var phrases []string
	for _, frag := range []string{name, flavor} {
		if frag == "" {
			continue
		}
		phrases = append(phrases, frag)
		parts := strings.Fields(frag)
		if len(parts) > prefixTokenCount {
			phrases = append(phrases, strings.Join(parts[:prefixTokenCount], " "))
		}
	}
	if brand != "" {
		phrases = append(phrases, brand)
	}
	return phrases
}

// NormalizePhrase lowercases, strips punctuation and collapses whitespace.
func NormalizePhrase(s string) string {
	s = strings.ToLower(s)
	s = punctuationRegex.ReplaceAllString(s, " ")
	s = multipleSpacesRegex.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// NormalizeExternalID trims and uppercases an external id for comparison.
func NormalizeExternalID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

// ContainsAny reports whether any phrase is contained in the normalized title.
func ContainsAny(titleNorm string, phrases []string) bool {
	for _, p := range phrases {
		if p != "" && strings.Contains(titleNorm, p) {
			return true
		}
	}
	return false
}
