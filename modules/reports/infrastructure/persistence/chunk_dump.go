package persistence

import (
	"encoding/csv"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"github.com/iota-uz/sigos-etl/modules/reports/domain/report"
)

// dumpChunk persists a rejected chunk as CSV for offline inspection and
// returns its path. Best effort: a dump failure is logged but never masks the
// original load error.
func (r *ReportRepository) dumpChunk(def report.Definition, columns []string, chunk []report.Record, cause error) string {
	if r.opts.FailedChunkDir == "" {
		return ""
	}
	if err := os.MkdirAll(r.opts.FailedChunkDir, 0o755); err != nil {
		r.opts.Logger.WithError(err).Warn("loader: cannot create failed-chunk directory")
		return ""
	}

	name := def.Table + "_" + time.Now().Format("20060102T150405") + "_" + uuid.NewString()[:8] + ".csv"
	path := filepath.Join(r.opts.FailedChunkDir, name)

	f, err := os.Create(path)
	if err != nil {
		r.opts.Logger.WithError(err).Warn("loader: cannot write failed chunk")
		return ""
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(columns); err != nil {
		r.opts.Logger.WithError(err).Warn("loader: cannot write failed chunk header")
		return ""
	}
	line := make([]string, len(columns))
	for _, rec := range chunk {
		for i, col := range columns {
			line[i] = rec[col].KeyString()
			if !rec[col].Valid {
				line[i] = ""
			}
		}
		if err := w.Write(line); err != nil {
			r.opts.Logger.WithError(err).Warn("loader: cannot write failed chunk row")
			return ""
		}
	}
	w.Flush()

	r.opts.Logger.WithError(cause).WithField("chunk", path).
		Error("loader: chunk rejected by destination schema, saved for inspection")
	return path
}
