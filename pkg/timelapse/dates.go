package timelapse

import (
	"context"
	"fmt"

	"github.com/clemux/pdx-tools/pkg/ports"
)

// DateCursor walks the in-save dates between a start and end bound, stepping
// by a caller-chosen interval. The sequence is lazy, finite, non-restartable
// and inclusive of both bounds: when a step overshoots the end date, the
// following emission is clamped to the end date exactly. Date arithmetic is
// delegated to the save engine one step at a time, so a cancelled export
// never pays for dates it will not visit.
type DateCursor struct {
	engine   ports.SaveEngine
	interval ports.DateInterval
	end      ports.SimDate
	current  ports.SimDate
	done     bool
}

// NewDateCursor creates a cursor over [start, end]. start.Days must be at
// most end.Days; a degenerate range where start equals end yields exactly one
// date.
func NewDateCursor(engine ports.SaveEngine, start, end ports.SimDate, interval ports.DateInterval) *DateCursor {
	return &DateCursor{
		engine:   engine,
		interval: interval,
		end:      end,
		current:  start,
	}
}

// Next emits the next date in the sequence. The second return value is false
// once the sequence is exhausted.
func (c *DateCursor) Next(ctx context.Context) (ports.SimDate, bool, error) {
	if c.done {
		return ports.SimDate{}, false, nil
	}

	emit := c.current
	if emit.Days >= c.end.Days {
		c.done = true
		return emit, true, nil
	}

	next, err := c.engine.IncrementDate(ctx, c.current.Days, c.interval)
	if err != nil {
		c.done = true
		return ports.SimDate{}, false, fmt.Errorf("increment date %d by %s: %w", c.current.Days, c.interval, err)
	}

	if next.Days > c.end.Days {
		c.current = c.end
	} else {
		c.current = next
	}

	return emit, true, nil
}
