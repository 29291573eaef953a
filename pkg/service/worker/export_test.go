package worker

import (
	"context"
	"time"
)

// Tick is exported for testing the execution loop without the ticker
func (s *Scheduler) Tick(ctx context.Context, now time.Time) error {
	return s.tick(ctx, now)
}

// FormatCalendarSummary is exported for testing
var FormatCalendarSummary = formatCalendarSummary
