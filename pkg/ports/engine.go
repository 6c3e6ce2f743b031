// Package ports defines interfaces for external dependencies.
package ports

import "context"

// DateInterval selects the step granularity for date arithmetic.
type DateInterval string

const (
	IntervalYear  DateInterval = "year"
	IntervalMonth DateInterval = "month"
	IntervalWeek  DateInterval = "week"
	IntervalDay   DateInterval = "day"
)

// ParseDateInterval parses a string into a DateInterval.
func ParseDateInterval(s string) (DateInterval, bool) {
	switch DateInterval(s) {
	case IntervalYear, IntervalMonth, IntervalWeek, IntervalDay:
		return DateInterval(s), true
	default:
		return "", false
	}
}

// SimDate is an in-save date as the engine reports it. Days is the ordinal
// since the save's epoch and is the only field used for comparison; Text is
// the human-readable label shown in the overlay.
type SimDate struct {
	Days int
	Text string
}

// MapRenderPayload describes a map colorization request.
type MapRenderPayload struct {
	// MapMode selects the colorization, e.g. "political" or "religion".
	MapMode string
	// Tag optionally restricts the colorization to a single country.
	Tag string
	// DateOverride colors the map as of this ordinal instead of the save's
	// current date. Nil means no override.
	DateOverride *int
	// ShowSecondaryColor enables striped rendering for occupied provinces.
	ShowSecondaryColor bool
}

// ColorBuffers holds the per-province color arrays produced by a map
// colorization query.
type ColorBuffers struct {
	Primary   []byte
	Secondary []byte
}

// SaveEngine abstracts the save-file computation worker. Requests are
// asynchronous with one in flight at a time; callers sequence their calls.
type SaveEngine interface {
	// IncrementDate advances the given day ordinal by one interval step.
	IncrementDate(ctx context.Context, days int, interval DateInterval) (SimDate, error)

	// MapColors computes province color buffers for the payload.
	MapColors(ctx context.Context, payload MapRenderPayload) (ColorBuffers, error)
}
