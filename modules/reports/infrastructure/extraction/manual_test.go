package extraction

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/sigos-etl/modules/reports/domain/report"
)

func TestManualExtractor(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)

	e := NewManualExtractor(dir, 5*time.Second, time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC), 180, l)
	e.now = func() time.Time { return time.Date(2025, 11, 10, 0, 0, 0, 0, time.UTC) }

	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = os.WriteFile(filepath.Join(dir, "retorno_x.csv"), []byte("a;b\n1;2\n"), 0o644)
	}()

	require.NoError(t, e.Extract(context.Background(), report.Return, report.Incremental))
}

func TestManualExtractorTimeout(t *testing.T) {
	t.Parallel()

	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	e := NewManualExtractor(t.TempDir(), 150*time.Millisecond, time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC), 180, l)

	err := e.Extract(context.Background(), report.General, report.Full)
	assert.Error(t, err)
}

func TestManualExtractorRejectsBadWindow(t *testing.T) {
	t.Parallel()

	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	e := NewManualExtractor(t.TempDir(), time.Second, time.Date(2022, 3, 1, 0, 0, 0, 0, time.UTC), 0, l)

	err := e.Extract(context.Background(), report.General, report.Full)
	assert.Error(t, err)
}
