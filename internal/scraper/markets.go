package scraper

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// Marketplace is the full strategy table for one site: where the listing
// cards live, how each field is extracted, how search and enrichment URLs
// are built. Adding a marketplace is a data change here, not new code.
type Marketplace struct {
	Name             string
	BaseURL          string
	DefaultCurrency  string
	DefaultCondition string

	// ItemIDPattern captures the numeric/stable ID from a canonical item URL.
	ItemIDPattern *regexp.Regexp

	// Card selects one search-result fragment; SkipText drops promotional
	// cards whose text contains it; CardIDAttr, when set, names a card
	// attribute carrying the ID directly.
	Card       string
	SkipText   string
	CardIDAttr string

	// Field fallback chains, run against one card.
	Title       Chain
	Link        Chain
	Price       Chain
	Condition   Chain
	SellerLogin Chain
	Shipping    Chain
	Location    Chain
	Brand       Chain
	Size        Chain
	Image       Chain

	// SearchURL builds the search page URL for a query.
	SearchURL func(base string, q SearchQuery) string

	// Enrichment. When Enrich is false the baseline listing is final.
	Enrich     bool
	ItemURL    func(base, id string) string
	ProfileURL func(base, sellerID string) string
	Detail     DetailSelectors
	Profile    ProfileSelectors
}

// DetailSelectors extract enrichment fields from an item detail page.
// Photos are additionally sourced from JSON-LD Product blocks before these
// chains run.
type DetailSelectors struct {
	Photos   Chain
	Location Chain
}

// ProfileSelectors extract enrichment fields from a seller profile page.
type ProfileSelectors struct {
	Login      Chain
	Location   Chain
	Rating     Chain
	Photo      Chain
	ItemsCount Chain
}

var marketplaces = map[string]*Marketplace{
	"ebay": {
		Name:             "ebay",
		BaseURL:          "https://www.ebay.com",
		DefaultCurrency:  "$",
		DefaultCondition: "Not specified",
		ItemIDPattern:    regexp.MustCompile(`/itm/(?:[\w-]+/)?(\d+)`),
		Card:             ".s-item",
		SkipText:         "Shop on eBay",
		Title: Chain{
			{Selector: ".s-item__title"},
		},
		Link: Chain{
			{Selector: ".s-item__link", Attr: "href"},
		},
		Price: Chain{
			{Selector: ".s-item__price"},
		},
		Condition: Chain{
			{Selector: ".SECONDARY_INFO"},
			{Selector: ".s-item__subtitle"},
		},
		SellerLogin: Chain{
			{Selector: ".s-item__seller-info-text"},
		},
		Shipping: Chain{
			{Selector: ".s-item__shipping"},
			{Selector: ".s-item__logisticsCost"},
		},
		Location: Chain{
			{Selector: ".s-item__location"},
			{Selector: ".s-item__itemLocation"},
		},
		Image: Chain{
			{Selector: ".s-item__image-img", Attr: "src"},
			{Selector: ".s-item__image img", Attr: "src"},
		},
		SearchURL: func(base string, q SearchQuery) string {
			u := fmt.Sprintf("%s/sch/i.html?_nkw=%s", base, plusEscape(q.Text))
			if q.PriceTo > q.PriceFrom {
				u += fmt.Sprintf("&_udlo=%d&_udhi=%d", q.PriceFrom, q.PriceTo)
			}
			return u
		},
	},

	"amazon": {
		Name:             "amazon",
		BaseURL:          "https://www.amazon.com",
		DefaultCurrency:  "$",
		DefaultCondition: "New",
		ItemIDPattern:    regexp.MustCompile(`/dp/([A-Z0-9]+)`),
		Card:             `[data-component-type="s-search-result"]`,
		CardIDAttr:       "data-asin",
		Title: Chain{
			{Selector: "h2 a span"},
			{Selector: "h2 span"},
		},
		Link: Chain{
			{Selector: "h2 a", Attr: "href"},
			{Selector: "a.a-link-normal", Attr: "href"},
		},
		Price: Chain{
			{Selector: ".a-price .a-offscreen"},
			{Selector: ".a-price-whole"},
		},
		SellerLogin: Chain{
			{Selector: ".a-row.a-size-base.a-color-secondary"},
		},
		Shipping: Chain{
			{Selector: ".a-row.a-size-base.a-color-secondary .a-text-bold"},
		},
		Image: Chain{
			{Selector: "img.s-image", Attr: "src"},
		},
		SearchURL: func(base string, q SearchQuery) string {
			u := fmt.Sprintf("%s/s?k=%s", base, plusEscape(q.Text))
			if q.PriceTo > q.PriceFrom {
				u += fmt.Sprintf("&price=%d-%d", q.PriceFrom, q.PriceTo)
			}
			return u
		},
	},

	"vinted": {
		Name:             "vinted",
		BaseURL:          "https://www.vinted.pl",
		DefaultCurrency:  "PLN",
		DefaultCondition: "Used",
		ItemIDPattern:    regexp.MustCompile(`/items/(\d+)`),
		Card:             ".feed-grid__item .feed-grid__item-content",
		Title: Chain{
			{Selector: ".feed-grid__item__title"},
			{Selector: ".feed-grid__item__link", Attr: "title"},
		},
		Link: Chain{
			{Selector: ".feed-grid__item__link", Attr: "href"},
			{Selector: "a", Attr: "href"},
		},
		Price: Chain{
			{Selector: ".feed-grid__item__price"},
			{Selector: `[data-testid$="price-text"]`},
		},
		Brand: Chain{
			{Selector: ".feed-grid__item__brand"},
		},
		Size: Chain{
			{Selector: ".feed-grid__item__size"},
		},
		SellerLogin: Chain{
			{Selector: ".feed-grid__item__user"},
		},
		Image: Chain{
			{Selector: "img.feed-grid__item__photo", Attr: "src"},
			{Selector: "img", Attr: "data-src"},
			{Selector: "img", Attr: "src"},
		},
		SearchURL: func(base string, q SearchQuery) string {
			u := fmt.Sprintf("%s/catalog?search_text=%s&order=newest_first", base, plusEscape(q.Text))
			if q.PriceTo > 0 {
				u += fmt.Sprintf("&price_to=%d", q.PriceTo)
			}
			if q.PriceFrom > 0 {
				u += fmt.Sprintf("&price_from=%d", q.PriceFrom)
			}
			return u
		},

		Enrich: true,
		ItemURL: func(base, id string) string {
			return fmt.Sprintf("%s/item/%s", base, id)
		},
		ProfileURL: func(base, sellerID string) string {
			return fmt.Sprintf("%s/member/%s", base, sellerID)
		},
		Detail: DetailSelectors{
			Photos: Chain{
				{Selector: ".item-photos img", Attr: "src"},
				{Selector: ".item-photos img", Attr: "data-src"},
			},
			Location: Chain{
				{Selector: `[data-testid="item-location"]`},
				{Selector: ".item-location"},
				{Selector: ".details-list__item-details"},
			},
		},
		Profile: ProfileSelectors{
			Login: Chain{
				{Selector: `h2[class*="text"]`},
				{Selector: "h1"},
				{Selector: "h2"},
			},
			Location: Chain{
				{Selector: `[data-testid="user-location"]`},
				{Selector: ".user-location"},
				{Selector: ".details-list__item-value"},
			},
			Rating: Chain{
				{Selector: `[data-testid="user-rating"]`},
				{Selector: ".user-rating"},
				{Selector: ".details-list__item"},
			},
			Photo: Chain{
				{Selector: `img[class^="Avatar_image"]`, Attr: "src"},
				{Selector: ".profile img", Attr: "src"},
			},
			ItemsCount: Chain{
				{Selector: `[data-testid="user-items-count"]`, Pattern: regexp.MustCompile(`(\d+)`)},
				{Selector: ".user-items-count", Pattern: regexp.MustCompile(`(\d+)`)},
			},
		},
	},
}

// Lookup returns the strategy table for a marketplace name.
func Lookup(name string) (*Marketplace, bool) {
	m, ok := marketplaces[strings.ToLower(strings.TrimSpace(name))]
	return m, ok
}

// Names returns the supported marketplace names, sorted.
func Names() []string {
	names := make([]string, 0, len(marketplaces))
	for name := range marketplaces {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func plusEscape(text string) string {
	return strings.ReplaceAll(strings.TrimSpace(text), " ", "+")
}
