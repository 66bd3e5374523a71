package scraper

// Listing is one normalized marketplace item record.
//
// Optional fields hold their zero value when a field could not be extracted;
// extractors never yield empty strings, so "" always means absent, not
// extracted-but-empty. A Listing is built once per poll cycle and never
// mutated in place: enrichment returns an augmented copy.
type Listing struct {
	// ID is the marketplace-stable identifier: the numeric ID from the
	// canonical URL when one exists, otherwise a truncated sha256 of the
	// URL. The hash fallback is deterministic but not collision-free.
	ID    string `json:"id"`
	Title string `json:"title"`
	// Price is a normalized decimal string ("149.99"), never a binary float.
	Price    string `json:"price"`
	Currency string `json:"currency"`
	URL      string `json:"url"`
	// Condition falls back to the marketplace default when absent.
	Condition    string   `json:"condition"`
	Seller       *Seller  `json:"seller,omitempty"`
	Location     string   `json:"location,omitempty"`
	Shipping     string   `json:"shipping,omitempty"`
	BrandTitle   string   `json:"brand_title,omitempty"`
	SizeTitle    string   `json:"size_title,omitempty"`
	ImageURL     string   `json:"image_url,omitempty"`
	// Photos preserves source ordering; when both are set, Photos[0] equals
	// ImageURL.
	Photos       []string `json:"photos,omitempty"`
	CountryCode  string   `json:"country_code,omitempty"`
	CountryTitle string   `json:"country_title,omitempty"`
	Marketplace  string   `json:"marketplace"`
}

// Seller is the optional seller entity attached to a listing.
type Seller struct {
	Login      string `json:"login"`
	ID         string `json:"id"`
	ProfileURL string `json:"profile_url,omitempty"`
	PhotoURL   string `json:"photo_url,omitempty"`
	// Rating is a decimal string; empty when unknown.
	Rating string `json:"rating,omitempty"`
	// Feedback counts may be estimated from an aggregate rating; see
	// EstimateFeedback.
	PositiveFeedbackCount int    `json:"positive_feedback_count"`
	NegativeFeedbackCount int    `json:"negative_feedback_count"`
	NeutralFeedbackCount  int    `json:"neutral_feedback_count"`
	Country               string `json:"country,omitempty"`
	CountryCode           string `json:"country_code,omitempty"`
	ItemsCount            int    `json:"items_count,omitempty"`
}

// SearchQuery carries the per-cycle search parameters into the pipeline.
type SearchQuery struct {
	Text      string
	PriceFrom int
	PriceTo   int
	PerPage   int
}

const (
	// TitlePlaceholder is used when every title strategy misses.
	TitlePlaceholder = "Unknown Item"
	// ZeroPrice is the degraded amount for unparseable price text.
	ZeroPrice = "0.00"
)
