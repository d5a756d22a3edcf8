package intervals

import (
	"errors"
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestGenerateCoversRangeWithoutGapsOrOverlap(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		start   time.Time
		end     time.Time
		maxSpan int
	}{
		{name: "even split", start: date(2025, 1, 1), end: date(2025, 3, 2), maxSpan: 30},
		{name: "truncated tail", start: date(2025, 1, 1), end: date(2025, 1, 20), maxSpan: 7},
		{name: "single window", start: date(2025, 1, 1), end: date(2025, 1, 5), maxSpan: 180},
		{name: "one day", start: date(2025, 6, 1), end: date(2025, 6, 1), maxSpan: 30},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, err := Generate(tc.start, tc.end, tc.maxSpan)
			if err != nil {
				t.Fatalf("Generate: %v", err)
			}
			if len(got) == 0 {
				t.Fatal("expected at least one interval")
			}
			if !got[0].Start.Equal(tc.start) {
				t.Fatalf("first interval starts at %s, want %s", got[0].Start, tc.start)
			}
			if !got[len(got)-1].End.Equal(tc.end) {
				t.Fatalf("last interval ends at %s, want %s", got[len(got)-1].End, tc.end)
			}
			for i, iv := range got {
				if iv.Start.After(iv.End) {
					t.Fatalf("interval %d inverted: %+v", i, iv)
				}
				if iv.Days() > tc.maxSpan {
					t.Fatalf("interval %d spans %d days, max is %d", i, iv.Days(), tc.maxSpan)
				}
				if i > 0 {
					prev := got[i-1]
					if !iv.Start.Equal(prev.End.AddDate(0, 0, 1)) {
						t.Fatalf("interval %d starts at %s, want day after %s", i, iv.Start, prev.End)
					}
				}
			}
		})
	}
}

func TestGenerateInvalidRange(t *testing.T) {
	t.Parallel()

	_, err := Generate(date(2025, 2, 1), date(2025, 1, 1), 30)
	if !errors.Is(err, ErrInvalidRange) {
		t.Fatalf("expected ErrInvalidRange, got %v", err)
	}
}

func TestGenerateRejectsNonPositiveSpan(t *testing.T) {
	t.Parallel()

	if _, err := Generate(date(2025, 1, 1), date(2025, 2, 1), 0); err == nil {
		t.Fatal("expected error for zero span")
	}
}

func TestIntervalStrings(t *testing.T) {
	t.Parallel()

	iv := Interval{Start: date(2025, 11, 1), End: date(2025, 11, 30)}
	start, end := iv.Strings()
	if start != "01/11/2025" || end != "30/11/2025" {
		t.Fatalf("got %q..%q", start, end)
	}
}
