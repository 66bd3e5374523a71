package scraper

import (
	"context"
	"encoding/json"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"listingradar/helpers"
	"listingradar/logger"
	apperrors "listingradar/pkg/errors"
	"listingradar/services/cache"
)

// FetchFunc retrieves a page. Injected so tests can swap the network out.
type FetchFunc func(ctx context.Context, url string, mode helpers.FetchMode) (io.Reader, error)

// Assembler turns one marketplace's search page into normalized listings,
// optionally enriching them from item detail and seller profile pages.
type Assembler struct {
	market   *Marketplace
	fetch    FetchFunc
	cache    cache.CacheService
	cacheTTL time.Duration
	log      *logger.Logger
}

// NewAssembler creates an assembler for one marketplace.
func NewAssembler(market *Marketplace, fetch FetchFunc, cacheSvc cache.CacheService, cacheTTL time.Duration) *Assembler {
	return &Assembler{
		market:   market,
		fetch:    fetch,
		cache:    cacheSvc,
		cacheTTL: cacheTTL,
		log:      logger.ForMarketplace(market.Name),
	}
}

// Search fetches the search page and assembles up to q.PerPage listings in
// source order. A bad fragment is logged and skipped; only a failed search
// fetch or an unparseable page surfaces as an error, which the scheduler
// degrades to an empty result set.
func (a *Assembler) Search(ctx context.Context, q SearchQuery) ([]Listing, error) {
	searchURL := a.market.SearchURL(a.market.BaseURL, q)
	a.log.Debug().Str("url", searchURL).Msg("Fetching search page")

	body, err := a.fetch(ctx, searchURL, helpers.ModeSearch)
	if err != nil {
		return nil, apperrors.NewFetch(a.market.Name, "search page fetch failed", err)
	}

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, apperrors.NewAssembly(a.market.Name, "search page parse failed", err)
	}

	limit := q.PerPage
	if limit <= 0 {
		limit = 10
	}

	var listings []Listing
	doc.Find(a.market.Card).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		if len(listings) >= limit {
			return false
		}
		if a.market.SkipText != "" && strings.Contains(s.Text(), a.market.SkipText) {
			return true
		}

		listing, err := a.Assemble(s)
		if err != nil {
			a.log.Warn().Err(err).Msg("Skipping unparseable result fragment")
			return true
		}

		if a.market.Enrich {
			listing = a.Enrich(ctx, listing)
		}
		listings = append(listings, *listing)
		return true
	})

	a.log.Debug().Int("count", len(listings)).Msg("Assembled listings")
	return listings, nil
}

// Assemble builds the baseline listing from one search-result card. Fields
// whose strategies all miss stay at their zero value or marketplace default;
// only a card with no derivable identity fails.
func (a *Assembler) Assemble(s *goquery.Selection) (*Listing, error) {
	listing := &Listing{
		Marketplace: a.market.Name,
		Title:       TitlePlaceholder,
		Price:       ZeroPrice,
		Currency:    a.market.DefaultCurrency,
		Condition:   a.market.DefaultCondition,
	}

	if link, ok := a.market.Link.Extract(s); ok {
		listing.URL = ResolveURL(a.market.BaseURL, link)
	}

	if a.market.CardIDAttr != "" {
		if id, exists := s.Attr(a.market.CardIDAttr); exists && strings.TrimSpace(id) != "" {
			listing.ID = strings.TrimSpace(id)
		}
	}
	if listing.ID == "" {
		fragment, _ := goquery.OuterHtml(s)
		id, ok := ExtractID(listing.URL, a.market.ItemIDPattern, fragment)
		if !ok {
			return nil, apperrors.NewAssembly(a.market.Name, "fragment has no URL and no content to derive an id from", nil)
		}
		listing.ID = id
	}

	if title, ok := a.market.Title.Extract(s); ok {
		listing.Title = title
	}

	if priceText, ok := a.market.Price.Extract(s); ok {
		amount, currency := ExtractPrice(priceText)
		listing.Price = amount
		if currency != "" {
			listing.Currency = currency
		}
	}

	if condition, ok := a.market.Condition.Extract(s); ok {
		listing.Condition = condition
	}
	if shipping, ok := a.market.Shipping.Extract(s); ok {
		listing.Shipping = shipping
	}
	if location, ok := a.market.Location.Extract(s); ok {
		listing.Location = location
	}
	if brand, ok := a.market.Brand.Extract(s); ok {
		listing.BrandTitle = brand
	}
	if size, ok := a.market.Size.Extract(s); ok {
		listing.SizeTitle = size
	}
	if image, ok := a.market.Image.Extract(s); ok {
		listing.ImageURL = image
	}

	if login, ok := a.market.SellerLogin.Extract(s); ok {
		listing.Seller = &Seller{
			Login: login,
			ID:    HashID(login),
		}
	}

	return listing, nil
}

// Enrich augments a baseline listing from the item detail page and, when a
// seller profile is discoverable, from the profile page. Every step is
// skippable: a failed fetch leaves the affected fields at their baseline
// values. The input is not mutated.
func (a *Assembler) Enrich(ctx context.Context, l *Listing) *Listing {
	out := *l
	if l.Seller != nil {
		sellerCopy := *l.Seller
		out.Seller = &sellerCopy
	}

	profileURL := ""
	if out.Seller != nil {
		profileURL = out.Seller.ProfileURL
	}

	if doc := a.fetchDoc(ctx, a.itemURL(&out)); doc != nil {
		photos := extractJSONLDPhotos(doc)
		if len(photos) == 0 {
			photos = httpOnly(a.market.Detail.Photos.ExtractAll(doc.Selection))
		}
		if len(photos) > 0 {
			out.Photos = photos
			// deeper pages win: the detail page's first photo becomes primary
			out.ImageURL = photos[0]
		}

		if locText, ok := a.market.Detail.Location.Extract(doc.Selection); ok {
			city, country := parseLocation(locText)
			if city != "" && out.Location == "" {
				out.Location = city
			}
			if country != "" {
				out.CountryTitle = country
				if code, ok := CountryCode(country); ok {
					out.CountryCode = code
				}
			}
		}

		if profileURL == "" {
			if href, exists := doc.Find(`a[href*="/member/"]`).First().Attr("href"); exists {
				profileURL = ResolveURL(a.market.BaseURL, href)
			}
		}
	}

	if profileURL != "" {
		if seller := a.sellerDetails(ctx, profileURL, out.Seller); seller != nil {
			out.Seller = seller
			// seller-profile data takes priority over item-page data
			if seller.Country != "" {
				out.CountryTitle = seller.Country
				out.CountryCode = seller.CountryCode
			}
		}
	}

	return &out
}

// sellerDetails resolves a seller profile, consulting the enrichment cache
// first so sellers with several listings in one result set are fetched once.
func (a *Assembler) sellerDetails(ctx context.Context, profileURL string, baseline *Seller) *Seller {
	cacheKey := "seller:" + a.market.Name + ":" + HashID(profileURL)

	if a.cache != nil {
		if data, err := a.cache.Get(cacheKey); err == nil {
			var cached Seller
			if err := json.Unmarshal(data, &cached); err == nil {
				a.log.Debug().Str("profile", profileURL).Msg("Seller details served from cache")
				return &cached
			}
		}
	}

	doc := a.fetchDoc(ctx, profileURL)
	if doc == nil {
		return baseline
	}

	seller := &Seller{ProfileURL: profileURL}
	if baseline != nil {
		*seller = *baseline
		seller.ProfileURL = profileURL
	}
	if seller.ID == "" {
		seller.ID = HashID(profileURL)
	}

	p := a.market.Profile
	if login, ok := p.Login.Extract(doc.Selection); ok {
		seller.Login = login
	}
	if photo, ok := p.Photo.Extract(doc.Selection); ok {
		seller.PhotoURL = photo
	}
	if locText, ok := p.Location.Extract(doc.Selection); ok {
		_, country := parseLocation(locText)
		if country != "" {
			seller.Country = country
			if code, ok := CountryCode(country); ok {
				seller.CountryCode = code
			}
		}
	}
	if ratingText, ok := p.Rating.Extract(doc.Selection); ok {
		rating, count, ok := ParseRating(ratingText)
		if ok {
			seller.Rating = rating
			seller.PositiveFeedbackCount,
				seller.NegativeFeedbackCount,
				seller.NeutralFeedbackCount = EstimateFeedback(rating, count)
		}
	}
	if itemsText, ok := p.ItemsCount.Extract(doc.Selection); ok {
		if n, err := strconv.Atoi(itemsText); err == nil {
			seller.ItemsCount = n
		}
	}

	if a.cache != nil {
		if data, err := json.Marshal(seller); err == nil {
			if err := a.cache.Set(cacheKey, data, a.cacheTTL); err != nil {
				a.log.Warn().Err(err).Msg("Failed to cache seller details")
			}
		}
	}

	return seller
}

func (a *Assembler) itemURL(l *Listing) string {
	if l.URL != "" {
		return l.URL
	}
	if a.market.ItemURL != nil {
		return a.market.ItemURL(a.market.BaseURL, l.ID)
	}
	return ""
}

// fetchDoc fetches and parses one enrichment page; any failure is logged
// and reported as nil so the caller keeps its baseline fields.
func (a *Assembler) fetchDoc(ctx context.Context, url string) *goquery.Document {
	if url == "" {
		return nil
	}
	body, err := a.fetch(ctx, url, helpers.ModeDirect)
	if err != nil {
		a.log.Warn().Err(err).Str("url", url).Msg("Enrichment fetch failed, keeping baseline fields")
		return nil
	}
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		a.log.Warn().Err(err).Str("url", url).Msg("Enrichment page parse failed")
		return nil
	}
	return doc
}

// extractJSONLDPhotos pulls the image list from a JSON-LD Product block.
func extractJSONLDPhotos(doc *goquery.Document) []string {
	var photos []string
	doc.Find(`script[type="application/ld+json"]`).EachWithBreak(func(_ int, s *goquery.Selection) bool {
		var block struct {
			Type  string      `json:"@type"`
			Image interface{} `json:"image"`
		}
		if err := json.Unmarshal([]byte(s.Text()), &block); err != nil {
			return true
		}
		if block.Type != "Product" || block.Image == nil {
			return true
		}

		switch image := block.Image.(type) {
		case string:
			photos = []string{image}
		case []interface{}:
			for _, entry := range image {
				if url, ok := entry.(string); ok {
					photos = append(photos, url)
				}
			}
		}
		return len(photos) == 0
	})
	return httpOnly(photos)
}

func httpOnly(urls []string) []string {
	var out []string
	for _, u := range urls {
		if strings.HasPrefix(u, "http") {
			out = append(out, u)
		}
	}
	return out
}

// parseLocation splits a "City, Country" blob; a lone token is treated as
// the country.
func parseLocation(text string) (city, country string) {
	parts := strings.Split(strings.TrimSpace(text), ",")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	switch {
	case len(parts) >= 2 && parts[len(parts)-1] != "":
		return parts[0], parts[len(parts)-1]
	case len(parts) == 1 && parts[0] != "":
		return "", parts[0]
	}
	return "", ""
}
