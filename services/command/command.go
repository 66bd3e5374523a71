package command

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"listingradar/config"
	"listingradar/internal/scraper"
	"listingradar/logger"
	"listingradar/services/dedup"
)

// Poll interval bounds in seconds. Values outside are rejected here; the
// scheduler itself trusts whatever SearchConfig holds.
const (
	MinIntervalSeconds = 10
	MaxIntervalSeconds = 3600
)

const helpText = `Available commands:
!set_keyword <text> - set the search keyword (required to start polling)
!set_price <min> <max> - set the price range
!set_marketplace <name> - choose the marketplace to poll
!set_interval <seconds> - set the poll interval (10-3600)
!status - show the current search settings
!clear - forget seen listings (matching items will notify again)
!help - show this message`

// Handler turns chat-style command lines into SearchConfig mutations.
// It is transport agnostic: a frontend delivers raw lines and relays the
// returned reply. Rejected values leave the configuration unchanged.
type Handler struct {
	search *config.SearchConfig
	seen   *dedup.Store
	log    *logger.Logger
}

// NewHandler creates a command handler over the shared search state.
func NewHandler(search *config.SearchConfig, seen *dedup.Store) *Handler {
	return &Handler{
		search: search,
		seen:   seen,
		log:    logger.ForCommands(),
	}
}

// Handle processes one input line. The second return value is false when
// the line is not a command at all.
func (h *Handler) Handle(line string) (string, bool) {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "!") {
		return "", false
	}

	parts := strings.Fields(line)
	name := strings.ToLower(parts[0])
	args := parts[1:]

	h.log.Debug().Str("command", name).Int("args", len(args)).Msg("Handling command")

	switch name {
	case "!help":
		return helpText, true
	case "!set_keyword":
		return h.setKeyword(args), true
	case "!set_price":
		return h.setPrice(args), true
	case "!set_marketplace":
		return h.setMarketplace(args), true
	case "!set_interval":
		return h.setInterval(args), true
	case "!status":
		return h.status(), true
	case "!clear":
		return h.clear(), true
	default:
		return fmt.Sprintf("Unknown command %s. Try !help.", name), true
	}
}

func (h *Handler) setKeyword(args []string) string {
	if len(args) == 0 {
		return "Usage: !set_keyword <text>"
	}
	keyword := strings.Join(args, " ")
	h.search.SetKeyword(keyword)
	h.log.Info().Str("keyword", keyword).Msg("Keyword updated")
	return fmt.Sprintf("Keyword set to %q. Polling starts on the next cycle.", keyword)
}

func (h *Handler) setPrice(args []string) string {
	if len(args) != 2 {
		return "Usage: !set_price <min> <max>"
	}
	min, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Sprintf("Invalid minimum price %q.", args[0])
	}
	max, err := strconv.Atoi(args[1])
	if err != nil {
		return fmt.Sprintf("Invalid maximum price %q.", args[1])
	}
	if min < 0 {
		return "Minimum price must be zero or more."
	}
	if max <= min {
		return "Maximum price must be greater than the minimum."
	}
	h.search.SetPriceRange(min, max)
	h.log.Info().Int("min", min).Int("max", max).Msg("Price range updated")
	return fmt.Sprintf("Price range set to %d-%d.", min, max)
}

func (h *Handler) setMarketplace(args []string) string {
	if len(args) != 1 {
		return "Usage: !set_marketplace <name>"
	}
	name := strings.ToLower(args[0])
	if _, ok := scraper.Lookup(name); !ok {
		return fmt.Sprintf("Unknown marketplace %q. Available: %s.",
			args[0], strings.Join(scraper.Names(), ", "))
	}
	h.search.SetMarketplace(name)
	h.log.Info().Str("marketplace", name).Msg("Marketplace updated")
	return fmt.Sprintf("Marketplace set to %s.", name)
}

func (h *Handler) setInterval(args []string) string {
	if len(args) != 1 {
		return "Usage: !set_interval <seconds>"
	}
	seconds, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Sprintf("Invalid interval %q.", args[0])
	}
	if seconds < MinIntervalSeconds || seconds > MaxIntervalSeconds {
		return fmt.Sprintf("Interval must be between %d and %d seconds.",
			MinIntervalSeconds, MaxIntervalSeconds)
	}
	h.search.SetInterval(time.Duration(seconds) * time.Second)
	h.log.Info().Int("seconds", seconds).Msg("Poll interval updated")
	return fmt.Sprintf("Poll interval set to %d seconds. Takes effect after the current sleep.", seconds)
}

func (h *Handler) status() string {
	snap := h.search.Snapshot()
	keyword := snap.Keyword
	state := "polling"
	if keyword == "" {
		keyword = "(not set)"
		state = "idle"
	}
	return fmt.Sprintf(
		"State: %s\nKeyword: %s\nMarketplace: %s\nPrice range: %d-%d\nPer page: %d\nInterval: %s\nSeen listings: %d",
		state, keyword, snap.Marketplace, snap.MinPrice, snap.MaxPrice,
		snap.PerPage, snap.Interval, h.seen.Size())
}

func (h *Handler) clear() string {
	h.seen.Clear()
	h.log.Info().Msg("Dedup store cleared")
	return "Seen listings cleared. Matching items will be notified again on the next cycle."
}
