package intervals

import (
	"errors"
	"fmt"
	"time"
)

// DateLayout is the dd/mm/yyyy format the report portal expects in its
// date-range inputs.
const DateLayout = "02/01/2006"

var ErrInvalidRange = errors.New("intervals: start date after end date")

// Interval is an inclusive date range.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Strings renders the interval bounds as dd/mm/yyyy, the format handed to the
// extraction collaborator.
func (iv Interval) Strings() (string, string) {
	return iv.Start.Format(DateLayout), iv.End.Format(DateLayout)
}

// Days returns the span of the interval in whole days.
func (iv Interval) Days() int {
	return int(iv.End.Sub(iv.Start) / (24 * time.Hour))
}

// Generate splits [start, end] into consecutive inclusive date ranges, each
// spanning at most maxSpanDays days. Ranges are contiguous and do not overlap:
// every range starts the day after the previous one ended, and the last range
// is truncated to the exact end date. Returns ErrInvalidRange when start is
// after end.
func Generate(start, end time.Time, maxSpanDays int) ([]Interval, error) {
	if maxSpanDays <= 0 {
		return nil, fmt.Errorf("intervals: maxSpanDays must be positive, got %d", maxSpanDays)
	}
	start = dateOnly(start)
	end = dateOnly(end)
	if start.After(end) {
		return nil, fmt.Errorf("%w: %s > %s", ErrInvalidRange, start.Format(DateLayout), end.Format(DateLayout))
	}

	var out []Interval
	for cur := start; !cur.After(end); {
		next := cur.AddDate(0, 0, maxSpanDays)
		if next.After(end) {
			next = end
		}
		out = append(out, Interval{Start: cur, End: next})
		cur = next.AddDate(0, 0, 1)
	}
	return out, nil
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
