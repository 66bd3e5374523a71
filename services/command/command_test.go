package command

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"listingradar/config"
	"listingradar/services/dedup"
)

func newTestHandler() (*Handler, *config.SearchConfig, *dedup.Store) {
	search := config.NewSearchConfig(config.Config{
		Marketplace:  "vinted",
		PerPage:      20,
		MinPrice:     0,
		MaxPrice:     100,
		PollInterval: 60 * time.Second,
	})
	seen := dedup.NewStore()
	return NewHandler(search, seen), search, seen
}

func TestHandleIgnoresNonCommands(t *testing.T) {
	h, _, _ := newTestHandler()

	reply, handled := h.Handle("just chatting about jackets")
	assert.False(t, handled)
	assert.Empty(t, reply)
}

func TestHandleUnknownCommand(t *testing.T) {
	h, _, _ := newTestHandler()

	reply, handled := h.Handle("!frobnicate")
	assert.True(t, handled)
	assert.Contains(t, reply, "Unknown command")
}

func TestSetKeyword(t *testing.T) {
	h, search, _ := newTestHandler()

	reply, handled := h.Handle("!set_keyword denim jacket")
	require.True(t, handled)
	assert.Contains(t, reply, "denim jacket")
	assert.Equal(t, "denim jacket", search.Snapshot().Keyword)
}

func TestSetKeywordRequiresArgument(t *testing.T) {
	h, search, _ := newTestHandler()

	reply, _ := h.Handle("!set_keyword")
	assert.Contains(t, reply, "Usage")
	assert.Empty(t, search.Snapshot().Keyword)
}

func TestSetPriceValidation(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		wantMin int
		wantMax int
		ok      bool
	}{
		{"valid range", "!set_price 10 50", 10, 50, true},
		{"zero minimum", "!set_price 0 30", 0, 30, true},
		{"negative minimum", "!set_price -5 50", 0, 100, false},
		{"max equals min", "!set_price 20 20", 0, 100, false},
		{"max below min", "!set_price 50 10", 0, 100, false},
		{"non-numeric", "!set_price cheap expensive", 0, 100, false},
		{"missing argument", "!set_price 10", 0, 100, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, search, _ := newTestHandler()

			reply, handled := h.Handle(tt.line)
			require.True(t, handled)
			snap := search.Snapshot()
			assert.Equal(t, tt.wantMin, snap.MinPrice)
			assert.Equal(t, tt.wantMax, snap.MaxPrice)
			if tt.ok {
				assert.Contains(t, reply, "Price range set")
			} else {
				assert.NotContains(t, reply, "Price range set")
			}
		})
	}
}

func TestSetMarketplace(t *testing.T) {
	h, search, _ := newTestHandler()

	reply, _ := h.Handle("!set_marketplace ebay")
	assert.Contains(t, reply, "ebay")
	assert.Equal(t, "ebay", search.Snapshot().Marketplace)

	// case-insensitive
	_, _ = h.Handle("!set_marketplace AMAZON")
	assert.Equal(t, "amazon", search.Snapshot().Marketplace)
}

func TestSetMarketplaceRejectsUnknown(t *testing.T) {
	h, search, _ := newTestHandler()

	reply, _ := h.Handle("!set_marketplace etsy")
	assert.Contains(t, reply, "Unknown marketplace")
	assert.Equal(t, "vinted", search.Snapshot().Marketplace)
}

func TestSetIntervalBounds(t *testing.T) {
	tests := []struct {
		name string
		line string
		want time.Duration
		ok   bool
	}{
		{"lower bound", "!set_interval 10", 10 * time.Second, true},
		{"upper bound", "!set_interval 3600", 3600 * time.Second, true},
		{"below bound", "!set_interval 9", 60 * time.Second, false},
		{"above bound", "!set_interval 3601", 60 * time.Second, false},
		{"non-numeric", "!set_interval fast", 60 * time.Second, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, search, _ := newTestHandler()

			reply, handled := h.Handle(tt.line)
			require.True(t, handled)
			assert.Equal(t, tt.want, search.Snapshot().Interval)
			if !tt.ok {
				assert.NotContains(t, reply, "Poll interval set")
			}
		})
	}
}

func TestStatusReflectsState(t *testing.T) {
	h, _, seen := newTestHandler()
	seen.MarkSeen("a")
	seen.MarkSeen("b")

	reply, _ := h.Handle("!status")
	assert.Contains(t, reply, "State: idle")
	assert.Contains(t, reply, "(not set)")
	assert.Contains(t, reply, "Seen listings: 2")

	_, _ = h.Handle("!set_keyword boots")
	reply, _ = h.Handle("!status")
	assert.Contains(t, reply, "State: polling")
	assert.Contains(t, reply, "boots")
}

func TestClearResetsDedup(t *testing.T) {
	h, _, seen := newTestHandler()
	seen.MarkSeen("item-1")
	require.False(t, seen.IsNew("item-1"))

	reply, _ := h.Handle("!clear")
	assert.Contains(t, reply, "cleared")
	assert.True(t, seen.IsNew("item-1"))
	assert.Equal(t, 0, seen.Size())
}

func TestHelpListsCommands(t *testing.T) {
	h, _, _ := newTestHandler()

	reply, _ := h.Handle("!help")
	for _, cmd := range []string{"!set_keyword", "!set_price", "!set_marketplace", "!set_interval", "!status", "!clear"} {
		assert.Contains(t, reply, cmd)
	}
}
