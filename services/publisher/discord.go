package publisher

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"listingradar/internal/scraper"
	apperrors "listingradar/pkg/errors"
)

const (
	embedColor = 0x5865F2
	// maxExtraPhotos bounds the gallery beyond the primary image.
	maxExtraPhotos = 5
)

// DiscordNotifier delivers listings to a Discord channel through a webhook.
// Extra photos ride as additional embeds sharing the listing URL, which
// Discord renders as one gallery.
type DiscordNotifier struct {
	webhookURL string
	client     *http.Client
}

// NewDiscordNotifier creates a webhook notifier with a bounded send timeout.
func NewDiscordNotifier(webhookURL string, timeout time.Duration) *DiscordNotifier {
	return &DiscordNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: timeout},
	}
}

type webhookPayload struct {
	Content string  `json:"content,omitempty"`
	Embeds  []embed `json:"embeds,omitempty"`
}

type embed struct {
	Title       string       `json:"title,omitempty"`
	URL         string       `json:"url,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color,omitempty"`
	Fields      []embedField `json:"fields,omitempty"`
	Image       *embedImage  `json:"image,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

type embedImage struct {
	URL string `json:"url"`
}

// Notify renders the listing as an embed and posts it to the webhook.
func (n *DiscordNotifier) Notify(ctx context.Context, listing scraper.Listing) error {
	return n.post(ctx, webhookPayload{Embeds: renderEmbeds(listing)})
}

// NotifyError posts a plain failure message.
func (n *DiscordNotifier) NotifyError(ctx context.Context, message string) error {
	return n.post(ctx, webhookPayload{Content: "❌ " + message})
}

// Close is a no-op; webhooks hold no connection state.
func (n *DiscordNotifier) Close() error {
	return nil
}

func (n *DiscordNotifier) post(ctx context.Context, payload webhookPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return apperrors.NewNotify("discord", "failed to marshal webhook payload", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.webhookURL, bytes.NewReader(body))
	if err != nil {
		return apperrors.NewNotify("discord", "failed to create webhook request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := n.client.Do(req)
	if err != nil {
		return apperrors.NewNotify("discord", "webhook send failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return apperrors.NewNotify("discord", fmt.Sprintf("webhook returned status %d", resp.StatusCode), nil)
	}
	return nil
}

func renderEmbeds(listing scraper.Listing) []embed {
	description := fmt.Sprintf("💰 Price: %s %s\n📦 Condition: %s",
		listing.Price, listing.Currency, listing.Condition)

	main := embed{
		Title:       "🛍️ " + listing.Title,
		URL:         listing.URL,
		Description: description,
		Color:       embedColor,
	}

	if listing.Seller != nil && listing.Seller.Login != "" {
		value := "👤 " + listing.Seller.Login
		if listing.Seller.Rating != "" {
			value += fmt.Sprintf(" (⭐ %s)", listing.Seller.Rating)
		}
		main.Fields = append(main.Fields, embedField{Name: "Seller", Value: value})
	}
	if listing.Location != "" {
		main.Fields = append(main.Fields, embedField{Name: "Location", Value: "📍 " + listing.Location, Inline: true})
	}
	if listing.CountryTitle != "" {
		main.Fields = append(main.Fields, embedField{Name: "Country", Value: listing.CountryTitle, Inline: true})
	}
	if listing.Shipping != "" {
		main.Fields = append(main.Fields, embedField{Name: "Shipping", Value: "🚚 " + listing.Shipping, Inline: true})
	}
	if listing.BrandTitle != "" {
		main.Fields = append(main.Fields, embedField{Name: "Brand", Value: listing.BrandTitle, Inline: true})
	}

	if strings.HasPrefix(listing.ImageURL, "http") {
		main.Image = &embedImage{URL: listing.ImageURL}
	}

	embeds := []embed{main}
	for _, photo := range listing.Photos {
		if photo == listing.ImageURL || !strings.HasPrefix(photo, "http") {
			continue
		}
		if len(embeds) > maxExtraPhotos {
			break
		}
		embeds = append(embeds, embed{URL: listing.URL, Image: &embedImage{URL: photo}})
	}
	return embeds
}
