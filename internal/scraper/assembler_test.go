package scraper

import (
	"context"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listingradar/helpers"
	"listingradar/services/cache"
)

// fakeFetcher serves canned pages by URL substring and counts hits.
type fakeFetcher struct {
	mu    sync.Mutex
	pages map[string]string // URL substring -> HTML
	hits  map[string]int
	fail  map[string]bool
}

func newFakeFetcher() *fakeFetcher {
	return &fakeFetcher{
		pages: make(map[string]string),
		hits:  make(map[string]int),
		fail:  make(map[string]bool),
	}
}

func (f *fakeFetcher) fetch(_ context.Context, url string, _ helpers.FetchMode) (io.Reader, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for substr, html := range f.pages {
		if strings.Contains(url, substr) {
			f.hits[substr]++
			if f.fail[substr] {
				return nil, fmt.Errorf("connection refused")
			}
			return strings.NewReader(html), nil
		}
	}
	return nil, fmt.Errorf("no page for %s", url)
}

const ebaySearchPage = `
<html><body>
	<div class="s-item">
		<a class="s-item__link" href="https://www.ebay.com/itm/111111"></a>
		<div class="s-item__title">Blue iPhone</div>
		<span class="s-item__price">$55.00</span>
		<span class="SECONDARY_INFO">Used</span>
		<span class="s-item__location">from Poland</span>
		<img class="s-item__image-img" src="https://img.example/1.jpg" />
	</div>
	<div class="s-item">
		<a class="s-item__link" href="https://www.ebay.com/itm/222222"></a>
		<span class="s-item__price">$72.50</span>
	</div>
	<div class="s-item">
		<a class="s-item__link" href="https://www.ebay.com/itm/333333"></a>
		<div class="s-item__title">Charger</div>
		<span class="s-item__price">N/A</span>
	</div>
</body></html>`

func TestSearchAssemblesBaselineListings(t *testing.T) {
	market, ok := Lookup("ebay")
	require.True(t, ok)

	fetcher := newFakeFetcher()
	fetcher.pages["/sch/"] = ebaySearchPage

	assembler := NewAssembler(market, fetcher.fetch, cache.NewMemoryCache(), 0)
	listings, err := assembler.Search(context.Background(), SearchQuery{
		Text: "iphone", PriceFrom: 0, PriceTo: 100, PerPage: 10,
	})
	require.NoError(t, err)
	require.Len(t, listings, 3)

	first := listings[0]
	assert.Equal(t, "111111", first.ID)
	assert.Equal(t, "Blue iPhone", first.Title)
	assert.Equal(t, "55.00", first.Price)
	assert.Equal(t, "$", first.Currency)
	assert.Equal(t, "Used", first.Condition)
	assert.Equal(t, "from Poland", first.Location)
	assert.Equal(t, "https://img.example/1.jpg", first.ImageURL)

	// card without a title carries the placeholder, not an empty string
	assert.Equal(t, "222222", listings[1].ID)
	assert.Equal(t, TitlePlaceholder, listings[1].Title)

	// malformed price degrades to zero with the marketplace default currency
	assert.Equal(t, ZeroPrice, listings[2].Price)
	assert.Equal(t, "$", listings[2].Currency)
}

func TestSearchHonorsPerPageLimit(t *testing.T) {
	market, _ := Lookup("ebay")
	fetcher := newFakeFetcher()
	fetcher.pages["/sch/"] = ebaySearchPage

	assembler := NewAssembler(market, fetcher.fetch, nil, 0)
	listings, err := assembler.Search(context.Background(), SearchQuery{Text: "iphone", PerPage: 2})
	require.NoError(t, err)
	assert.Len(t, listings, 2)
}

func TestSearchFetchFailureReturnsError(t *testing.T) {
	market, _ := Lookup("ebay")
	fetcher := newFakeFetcher()
	fetcher.pages["/sch/"] = ebaySearchPage
	fetcher.fail["/sch/"] = true

	assembler := NewAssembler(market, fetcher.fetch, nil, 0)
	_, err := assembler.Search(context.Background(), SearchQuery{Text: "iphone", PerPage: 5})
	assert.Error(t, err)
}

const vintedSearchPage = `
<html><body>
	<div class="feed-grid__item">
		<div class="feed-grid__item-content">
			<a class="feed-grid__item__link" href="/items/4242-wool-hat"></a>
			<div class="feed-grid__item__title">Wool hat</div>
			<div class="feed-grid__item__price">45,50 zł</div>
			<div class="feed-grid__item__brand">Acme</div>
			<div class="feed-grid__item__user">anna_k</div>
			<img class="feed-grid__item__photo" src="https://img.example/hat-thumb.jpg" />
		</div>
	</div>
</body></html>`

const vintedItemPage = `
<html><body>
	<script type="application/ld+json">
		{"@type":"Product","image":["https://img.example/hat-1.jpg","https://img.example/hat-2.jpg"]}
	</script>
	<div data-testid="item-location">Gdańsk, Polska</div>
	<a href="/member/777-anna">anna_k</a>
</body></html>`

const vintedProfilePage = `
<html><body>
	<h2 class="text-heading">anna_k</h2>
	<div data-testid="user-location">Kraków, Niemcy</div>
	<div data-testid="user-rating">4,5 (40 opinii)</div>
</body></html>`

func TestEnrichMergesDetailAndProfile(t *testing.T) {
	market, ok := Lookup("vinted")
	require.True(t, ok)

	fetcher := newFakeFetcher()
	fetcher.pages["/catalog"] = vintedSearchPage
	fetcher.pages["/items/"] = vintedItemPage
	fetcher.pages["/member/"] = vintedProfilePage

	assembler := NewAssembler(market, fetcher.fetch, cache.NewMemoryCache(), 0)
	listings, err := assembler.Search(context.Background(), SearchQuery{Text: "hat", PerPage: 5})
	require.NoError(t, err)
	require.Len(t, listings, 1)

	l := listings[0]
	assert.Equal(t, "4242", l.ID)
	assert.Equal(t, "Wool hat", l.Title)
	assert.Equal(t, "45.50", l.Price)
	assert.Equal(t, "zł", l.Currency)
	assert.Equal(t, "Used", l.Condition)

	// detail page photos win over the card thumbnail, first one is primary
	assert.Equal(t, []string{"https://img.example/hat-1.jpg", "https://img.example/hat-2.jpg"}, l.Photos)
	assert.Equal(t, "https://img.example/hat-1.jpg", l.ImageURL)
	assert.Equal(t, "Gdańsk", l.Location)

	// seller-profile country outranks the item-page country
	assert.Equal(t, "Niemcy", l.CountryTitle)
	assert.Equal(t, "DE", l.CountryCode)

	require.NotNil(t, l.Seller)
	assert.Equal(t, "anna_k", l.Seller.Login)
	assert.Equal(t, "4.5", l.Seller.Rating)
	assert.Equal(t, 36, l.Seller.PositiveFeedbackCount)
	assert.Equal(t, 40, l.Seller.PositiveFeedbackCount+l.Seller.NegativeFeedbackCount+l.Seller.NeutralFeedbackCount)
}

func TestEnrichUsesSellerCacheAcrossSearches(t *testing.T) {
	market, _ := Lookup("vinted")
	fetcher := newFakeFetcher()
	fetcher.pages["/catalog"] = vintedSearchPage
	fetcher.pages["/items/"] = vintedItemPage
	fetcher.pages["/member/"] = vintedProfilePage

	assembler := NewAssembler(market, fetcher.fetch, cache.NewMemoryCache(), 0)

	_, err := assembler.Search(context.Background(), SearchQuery{Text: "hat", PerPage: 5})
	require.NoError(t, err)
	_, err = assembler.Search(context.Background(), SearchQuery{Text: "hat", PerPage: 5})
	require.NoError(t, err)

	assert.Equal(t, 1, fetcher.hits["/member/"])
	assert.Equal(t, 2, fetcher.hits["/items/"])
}

func TestEnrichKeepsBaselineSellerWhenProfileFails(t *testing.T) {
	market, _ := Lookup("vinted")
	fetcher := newFakeFetcher()
	fetcher.pages["/catalog"] = vintedSearchPage
	fetcher.pages["/items/"] = vintedItemPage
	fetcher.pages["/member/"] = vintedProfilePage
	fetcher.fail["/member/"] = true

	assembler := NewAssembler(market, fetcher.fetch, cache.NewMemoryCache(), 0)
	listings, err := assembler.Search(context.Background(), SearchQuery{Text: "hat", PerPage: 5})
	require.NoError(t, err)
	require.Len(t, listings, 1)

	// item-page enrichment still applied, seller stays at its baseline
	l := listings[0]
	assert.Equal(t, "https://img.example/hat-1.jpg", l.ImageURL)
	require.NotNil(t, l.Seller)
	assert.Equal(t, "anna_k", l.Seller.Login)
	assert.Empty(t, l.Seller.Rating)
	assert.Zero(t, l.Seller.PositiveFeedbackCount)
}

func TestEnrichSkipsFailedFetchesPerField(t *testing.T) {
	market, _ := Lookup("vinted")
	fetcher := newFakeFetcher()
	fetcher.pages["/catalog"] = vintedSearchPage
	fetcher.pages["/items/"] = vintedItemPage
	fetcher.fail["/items/"] = true

	assembler := NewAssembler(market, fetcher.fetch, cache.NewMemoryCache(), 0)
	listings, err := assembler.Search(context.Background(), SearchQuery{Text: "hat", PerPage: 5})
	require.NoError(t, err)
	require.Len(t, listings, 1)

	// baseline fields survive; enrichment-only fields stay absent
	l := listings[0]
	assert.Equal(t, "Wool hat", l.Title)
	assert.Equal(t, "https://img.example/hat-thumb.jpg", l.ImageURL)
	assert.Empty(t, l.Photos)
	assert.Empty(t, l.CountryCode)
	require.NotNil(t, l.Seller)
	assert.Equal(t, "anna_k", l.Seller.Login)
}
