package extraction

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/sigos-etl/modules/reports/domain/report"
)

// ManualExtractor covers the operator-driven workflow: it announces the date
// windows to request from the portal, then blocks until the exports land in
// the downloads directory.
type ManualExtractor struct {
	dir             string
	timeout         time.Duration
	collectionStart time.Time
	windowDays      int
	logger          *logrus.Logger
	now             func() time.Time
}

func NewManualExtractor(dir string, timeout time.Duration, collectionStart time.Time, windowDays int, logger *logrus.Logger) *ManualExtractor {
	return &ManualExtractor{
		dir:             dir,
		timeout:         timeout,
		collectionStart: collectionStart,
		windowDays:      windowDays,
		logger:          logger,
		now:             time.Now,
	}
}

func (e *ManualExtractor) Extract(ctx context.Context, t report.Type, mode report.Mode) error {
	windows, err := PlanWindows(mode, e.now(), e.collectionStart, e.windowDays)
	if err != nil {
		return err
	}

	e.logger.WithFields(logrus.Fields{
		"report":  t,
		"mode":    mode,
		"windows": len(windows),
		"dir":     e.dir,
	}).Info("extraction: request these date ranges from the portal")
	for i, w := range windows {
		start, end := w.Strings()
		e.logger.Infof("extraction: window %d/%d: %s to %s", i+1, len(windows), start, end)
	}

	files, err := WaitForDownloads(ctx, e.dir, e.timeout)
	if err != nil {
		return err
	}
	e.logger.WithField("files", files).Info("extraction: downloads complete")
	return nil
}
