// Package mocks provides mock implementations of the ports for testing.
package mocks

import (
	"context"
	"fmt"

	"github.com/clemux/pdx-tools/pkg/ports"
)

// SaveEngine is a mock implementation of ports.SaveEngine. When no funcs are
// set, IncrementDate steps by a fixed number of days per interval and
// MapColors returns small constant buffers.
type SaveEngine struct {
	IncrementDateFunc func(ctx context.Context, days int, interval ports.DateInterval) (ports.SimDate, error)
	MapColorsFunc     func(ctx context.Context, payload ports.MapRenderPayload) (ports.ColorBuffers, error)

	// Recorded calls for verification
	IncrementDateCalls []IncrementDateCall
	MapColorsCalls     []ports.MapRenderPayload
}

// IncrementDateCall records a call to IncrementDate.
type IncrementDateCall struct {
	Days     int
	Interval ports.DateInterval
}

func (m *SaveEngine) IncrementDate(ctx context.Context, days int, interval ports.DateInterval) (ports.SimDate, error) {
	m.IncrementDateCalls = append(m.IncrementDateCalls, IncrementDateCall{Days: days, Interval: interval})
	if m.IncrementDateFunc != nil {
		return m.IncrementDateFunc(ctx, days, interval)
	}

	step := 1
	switch interval {
	case ports.IntervalYear:
		step = 365
	case ports.IntervalMonth:
		step = 30
	case ports.IntervalWeek:
		step = 7
	}
	next := days + step
	return ports.SimDate{Days: next, Text: fmt.Sprintf("day %d", next)}, nil
}

func (m *SaveEngine) MapColors(ctx context.Context, payload ports.MapRenderPayload) (ports.ColorBuffers, error) {
	m.MapColorsCalls = append(m.MapColorsCalls, payload)
	if m.MapColorsFunc != nil {
		return m.MapColorsFunc(ctx, payload)
	}
	return ports.ColorBuffers{Primary: []byte{1, 2, 3, 4}, Secondary: []byte{5, 6, 7, 8}}, nil
}

var _ ports.SaveEngine = (*SaveEngine)(nil)
