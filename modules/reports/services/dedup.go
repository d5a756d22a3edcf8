package services

import (
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/iota-uz/sigos-etl/modules/reports/domain/report"
)

// Deduplicate collapses records sharing a business key, keeping the one with
// the most recent extraction timestamp. Key columns missing from the batch are
// ignored; when none are present the batch passes through untouched.
func (s *TransformService) Deduplicate(batch report.Batch, keys []string) report.Batch {
	present := make([]string, 0, len(keys))
	for _, k := range keys {
		if batch.HasColumn(k) {
			present = append(present, k)
		}
	}
	if len(present) == 0 {
		if len(batch.Records) > 0 {
			s.logger.WithField("keys", keys).
				Warn("dedup: no key columns present, skipping deduplication")
		}
		return batch
	}

	// Oldest first; the later record for a key is the fresher extraction.
	records := make([]report.Record, len(batch.Records))
	copy(records, batch.Records)
	sort.SliceStable(records, func(i, j int) bool {
		return extractedAt(records[i]).Before(extractedAt(records[j]))
	})

	last := make(map[string]int, len(records))
	for i, rec := range records {
		last[keyOf(rec, present)] = i
	}

	out := batch
	out.Records = make([]report.Record, 0, len(last))
	for i, rec := range records {
		if last[keyOf(rec, present)] == i {
			out.Records = append(out.Records, rec)
		}
	}

	if removed := len(records) - len(out.Records); removed > 0 {
		s.logger.WithFields(logrus.Fields{
			"removed": removed,
			"kept":    len(out.Records),
		}).Info("dedup: duplicate records collapsed")
	}
	return out
}

func keyOf(rec report.Record, keys []string) string {
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = rec[k].KeyString()
	}
	return strings.Join(parts, "\x1f")
}

// extractedAt is the dedup recency ordering; records without a valid audit
// timestamp sort first and lose ties.
func extractedAt(rec report.Record) time.Time {
	v := rec[report.ColExtractedAt]
	if !v.Valid {
		return time.Time{}
	}
	return v.Time
}
