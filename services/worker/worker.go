package worker

import (
	"context"
	"fmt"
	"time"

	"listingradar/config"
	"listingradar/internal/scraper"
	"listingradar/logger"
	apperrors "listingradar/pkg/errors"
	"listingradar/services/dedup"
	"listingradar/services/publisher"
)

// SearchFunc runs one marketplace search. Implementations must not panic;
// the scheduler still guards each cycle with a recover.
type SearchFunc func(ctx context.Context, marketplace string, q scraper.SearchQuery) ([]scraper.Listing, error)

// Scheduler drives the poll loop: read the search state, run the search,
// gate results through the dedup store, and emit new listings to the sink.
// It idles while no keyword is configured and never stops on a cycle error.
type Scheduler struct {
	search       *config.SearchConfig
	seen         *dedup.Store
	searchFn     SearchFunc
	notifier     publisher.Notifier
	messageDelay time.Duration
	log          *logger.Logger
}

// NewScheduler creates a new poll scheduler.
func NewScheduler(
	search *config.SearchConfig,
	seen *dedup.Store,
	searchFn SearchFunc,
	notifier publisher.Notifier,
	messageDelay time.Duration,
) *Scheduler {
	return &Scheduler{
		search:       search,
		seen:         seen,
		searchFn:     searchFn,
		notifier:     notifier,
		messageDelay: messageDelay,
		log:          logger.ForScheduler(),
	}
}

// Run executes poll cycles until the context is cancelled. The interval is
// re-read each cycle, so changes take effect at the next sleep boundary.
func (s *Scheduler) Run(ctx context.Context) {
	s.log.Info().Msg("Scheduler started")
	for {
		interval := s.runCycle(ctx)
		if !sleep(ctx, interval) {
			s.log.Info().Msg("Scheduler stopped")
			return
		}
	}
}

// runCycle executes one poll iteration and returns the sleep interval read
// at cycle start. Panics are contained here; the loop must survive anything
// a cycle throws at it.
func (s *Scheduler) runCycle(ctx context.Context) (interval time.Duration) {
	snap := s.search.Snapshot()
	interval = snap.Interval

	defer func() {
		if r := recover(); r != nil {
			cycleErr := apperrors.NewCycle(fmt.Sprintf("poll cycle panicked: %v", r), nil)
			s.log.WithError(cycleErr).Error().Msg("Cycle failed")
			s.reportError(ctx, cycleErr.Error())
		}
	}()

	if snap.Keyword == "" {
		s.log.Debug().Msg("No keyword configured, idling")
		return interval
	}

	start := time.Now()
	listings := s.runSearch(ctx, snap)

	emitted := 0
	for _, listing := range listings {
		if !s.seen.IsNew(listing.ID) {
			continue
		}
		if err := s.notifier.Notify(ctx, listing); err != nil {
			logger.LogError("scheduler", err, "failed to notify listing %s", listing.ID)
		}
		s.seen.MarkSeen(listing.ID)
		emitted++
		if !sleep(ctx, s.messageDelay) {
			break
		}
	}

	s.log.Info().
		Str("marketplace", snap.Marketplace).
		Str("keyword", snap.Keyword).
		Int("found", len(listings)).
		Int("new", emitted).
		Dur("elapsed", time.Since(start)).
		Msg("Cycle complete")
	return interval
}

// runSearch invokes the search pipeline. Failures degrade to an empty
// result set with one logged, user-visible error; the cycle continues.
func (s *Scheduler) runSearch(ctx context.Context, snap config.SearchSnapshot) []scraper.Listing {
	q := scraper.SearchQuery{
		Text:      snap.Keyword,
		PriceFrom: snap.MinPrice,
		PriceTo:   snap.MaxPrice,
		PerPage:   snap.PerPage,
	}

	listings, err := s.searchFn(ctx, snap.Marketplace, q)
	if err != nil {
		logger.LogError("scheduler", err, "search failed for %s", snap.Marketplace)
		s.reportError(ctx, fmt.Sprintf("Search failed for %s: %v", snap.Marketplace, err))
		return nil
	}
	return listings
}

func (s *Scheduler) reportError(ctx context.Context, message string) {
	if err := s.notifier.NotifyError(ctx, message); err != nil {
		logger.LogError("scheduler", err, "failed to deliver error notification")
	}
}

// sleep waits for d or until the context is cancelled. Returns false on
// cancellation.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
