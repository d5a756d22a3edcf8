package extraction

import (
	"fmt"
	"time"

	"github.com/iota-uz/sigos-etl/modules/reports/domain/report"
	"github.com/iota-uz/sigos-etl/pkg/intervals"
)

// PlanWindows produces the date ranges a collaborator must request from the
// portal for one run. The end date is pushed one day past today because the
// portal treats its range input as exclusive of the final day.
//
// Full mode walks from the configured collection start up to that end date in
// windowDays-sized steps; incremental mode requests a single trailing window.
func PlanWindows(mode report.Mode, today, collectionStart time.Time, windowDays int) ([]intervals.Interval, error) {
	if windowDays <= 0 {
		return nil, fmt.Errorf("extraction: windowDays must be positive, got %d", windowDays)
	}
	end := today.AddDate(0, 0, 1)

	switch mode {
	case report.Full:
		return intervals.Generate(collectionStart, end, windowDays)
	case report.Incremental:
		return intervals.Generate(end.AddDate(0, 0, -windowDays), end, windowDays)
	default:
		return nil, fmt.Errorf("extraction: unknown run mode %q", mode)
	}
}
