package domain

// CatalogProduct is one entry of the fixed product catalog. Loaded once at
// run start and read-only afterwards.
type CatalogProduct struct {
	ProductID   string `json:"productId"`
	Brand       string `json:"brand"`
	ProductName string `json:"productName"`
	Flavor      string `json:"flavor,omitempty"`
	SizeVariant string `json:"sizeVariant,omitempty"`
	SourceSite  string `json:"sourceSite"`
	SourceURL   string `json:"sourceUrl"`
	ExternalID  string `json:"externalId,omitempty"`
}

// MatchMode selects how bulk-corpus records are classified. The mode is
// global for a run: if any product supplies an external id, every product
// matches by id, and products without one never match.
type MatchMode int

const (
	MatchByPhrase MatchMode = iota
	MatchByExternalID
)

func (m MatchMode) String() string {
	if m == MatchByExternalID {
		return "external-id"
	}
	return "phrase"
}

// MatchCriteria holds the acceptable match evidence for one product. Which
// field is populated depends on the run's MatchMode; both may be empty, in
// which case the product can never match.
type MatchCriteria struct {
	ProductID  string
	ExternalID string
	Phrases    []string
}

// Empty reports whether the criteria can never match anything.
func (c MatchCriteria) Empty() bool {
	return c.ExternalID == "" && len(c.Phrases) == 0
}

// Budget bounds resource use of one acquisition run. MaxScan caps total
// corpus lines read; MaxPages caps review-listing pages fetched per product.
type Budget struct {
	MaxPerProduct int
	MaxScan       int
	MaxPages      int
}
