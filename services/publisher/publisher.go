package publisher

import (
	"context"

	"listingradar/internal/scraper"
)

// Notifier is the outbound boundary of the pipeline. Implementations must
// bound their send time; the scheduler catches and logs failures but never
// crashes on them.
type Notifier interface {
	// Notify renders and delivers one new listing.
	Notify(ctx context.Context, listing scraper.Listing) error

	// NotifyError delivers a best-effort, user-visible failure message for
	// a failed poll cycle.
	NotifyError(ctx context.Context, message string) error

	// Close releases the sink's resources.
	Close() error
}
