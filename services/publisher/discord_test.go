package publisher

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listingradar/internal/scraper"
	apperrors "listingradar/pkg/errors"
)

func sampleListing() scraper.Listing {
	return scraper.Listing{
		ID:        "abc123",
		Title:     "Vintage Denim Jacket",
		Price:     "45.00",
		Currency:  "EUR",
		URL:       "https://www.vinted.pl/items/12345",
		Condition: "Used",
		Seller: &scraper.Seller{
			Login:  "jacketlover",
			Rating: "4.5",
		},
		Location: "Gdańsk",
		Shipping: "Free shipping",
		ImageURL: "https://img.example.com/1.jpg",
		Photos: []string{
			"https://img.example.com/1.jpg",
			"https://img.example.com/2.jpg",
			"https://img.example.com/3.jpg",
		},
		Marketplace: "vinted",
	}
}

func TestDiscordNotifySendsEmbed(t *testing.T) {
	var captured webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notifier := NewDiscordNotifier(server.URL, 5*time.Second)
	err := notifier.Notify(context.Background(), sampleListing())
	require.NoError(t, err)

	require.Len(t, captured.Embeds, 3)
	main := captured.Embeds[0]
	assert.Equal(t, "🛍️ Vintage Denim Jacket", main.Title)
	assert.Equal(t, "https://www.vinted.pl/items/12345", main.URL)
	assert.Contains(t, main.Description, "45.00 EUR")
	assert.Contains(t, main.Description, "Used")
	require.NotNil(t, main.Image)
	assert.Equal(t, "https://img.example.com/1.jpg", main.Image.URL)

	var fieldNames []string
	for _, f := range main.Fields {
		fieldNames = append(fieldNames, f.Name)
	}
	assert.Contains(t, fieldNames, "Seller")
	assert.Contains(t, fieldNames, "Location")
	assert.Contains(t, fieldNames, "Shipping")

	// The primary image is not repeated in the gallery.
	assert.Equal(t, "https://img.example.com/2.jpg", captured.Embeds[1].Image.URL)
	assert.Equal(t, "https://img.example.com/3.jpg", captured.Embeds[2].Image.URL)
}

func TestDiscordNotifyCapsExtraPhotos(t *testing.T) {
	var captured webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	listing := sampleListing()
	listing.Photos = nil
	for i := 0; i < 10; i++ {
		listing.Photos = append(listing.Photos, "https://img.example.com/photo.jpg")
	}

	notifier := NewDiscordNotifier(server.URL, 5*time.Second)
	require.NoError(t, notifier.Notify(context.Background(), listing))

	// main embed plus at most five photo embeds
	assert.LessOrEqual(t, len(captured.Embeds), 1+maxExtraPhotos)
}

func TestDiscordNotifyErrorSendsContent(t *testing.T) {
	var captured webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notifier := NewDiscordNotifier(server.URL, 5*time.Second)
	require.NoError(t, notifier.NotifyError(context.Background(), "search failed for ebay"))

	assert.Contains(t, captured.Content, "search failed for ebay")
	assert.Empty(t, captured.Embeds)
}

func TestDiscordNotifyReportsHTTPFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer server.Close()

	notifier := NewDiscordNotifier(server.URL, 5*time.Second)
	err := notifier.Notify(context.Background(), sampleListing())
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeNotify))
}
