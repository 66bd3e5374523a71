package config

import (
	"sync"
	"time"
)

// SearchConfig is the process-wide mutable search state. The poll scheduler
// reads a snapshot once per cycle while the command handler mutates it from
// another goroutine, so every access goes through the mutex. Setters do not
// validate; bounds are enforced by the command surface.
type SearchConfig struct {
	mu sync.RWMutex

	keyword     string
	minPrice    int
	maxPrice    int
	perPage     int
	interval    time.Duration
	marketplace string
}

// SearchSnapshot is a consistent point-in-time copy of the search state.
type SearchSnapshot struct {
	Keyword     string
	MinPrice    int
	MaxPrice    int
	PerPage     int
	Interval    time.Duration
	Marketplace string
}

// NewSearchConfig builds the search state from the startup configuration.
// The keyword starts empty; the scheduler idles until a command sets one.
func NewSearchConfig(cfg Config) *SearchConfig {
	return &SearchConfig{
		minPrice:    cfg.MinPrice,
		maxPrice:    cfg.MaxPrice,
		perPage:     cfg.PerPage,
		interval:    cfg.PollInterval,
		marketplace: cfg.Marketplace,
	}
}

// Snapshot returns a torn-read-free copy of the current search state.
func (s *SearchConfig) Snapshot() SearchSnapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return SearchSnapshot{
		Keyword:     s.keyword,
		MinPrice:    s.minPrice,
		MaxPrice:    s.maxPrice,
		PerPage:     s.perPage,
		Interval:    s.interval,
		Marketplace: s.marketplace,
	}
}

// SetKeyword sets the search keyword. An empty keyword idles the scheduler.
func (s *SearchConfig) SetKeyword(keyword string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keyword = keyword
}

// SetPriceRange sets both price bounds atomically.
func (s *SearchConfig) SetPriceRange(min, max int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.minPrice = min
	s.maxPrice = max
}

// SetInterval sets the poll interval. The change takes effect at the next
// sleep boundary, not preemptively.
func (s *SearchConfig) SetInterval(interval time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.interval = interval
}

// SetMarketplace selects the marketplace to poll.
func (s *SearchConfig) SetMarketplace(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.marketplace = name
}
