package services

import (
	"strings"
	"time"
	"unicode"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"github.com/iota-uz/sigos-etl/modules/reports/domain/report"
)

// nullTokens are the raw cell spellings treated as absent values in typed
// columns. Text columns keep them verbatim: an empty cell stays an empty
// string, a literal "None" stays "NONE", and key cells with different
// spellings stay distinct through deduplication.
var nullTokens = map[string]struct{}{
	"":           {},
	"NULL":       {},
	"null":       {},
	"None":       {},
	"nan":        {},
	"0000-00-00": {},
	"00/00/0000": {},
}

// deaccent builds a fresh transformer per call: chained transformers carry
// internal state and must not be shared across goroutines.
func deaccent() transform.Transformer {
	return transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
}

// TransformService turns raw tables into one canonical batch: normalized
// column names, typed cells, the audit timestamp, the derived region and
// voltage-group columns, and uppercase canonical form.
type TransformService struct {
	logger *logrus.Logger
}

func NewTransformService(logger *logrus.Logger) *TransformService {
	return &TransformService{logger: logger}
}

// Transform merges the tables of one run into a single batch. Files may
// disagree on their column sets; the batch carries the union and absent cells
// stay null.
func (s *TransformService) Transform(tables []report.RawTable, def report.Definition, extractedAt time.Time) report.Batch {
	batch := report.Batch{}
	seen := map[string]bool{}

	for _, tbl := range tables {
		cols, rows := s.normalizeTable(tbl, def)
		for _, c := range cols {
			if !seen[c] {
				seen[c] = true
				batch.Columns = append(batch.Columns, c)
			}
		}
		batch.Records = append(batch.Records, rows...)
	}

	for _, rec := range batch.Records {
		rec[report.ColExtractedAt] = report.TimestampValue(extractedAt)
	}
	if len(batch.Records) > 0 && !seen[report.ColExtractedAt] {
		batch.Columns = append(batch.Columns, report.ColExtractedAt)
	}

	s.derive(&batch)
	return batch
}

// normalizeTable produces one table's canonical (uppercase) columns and typed
// records.
func (s *TransformService) normalizeTable(tbl report.RawTable, def report.Definition) ([]string, []report.Record) {
	// Original header name -> canonical name, in header order.
	type column struct {
		raw       string
		canonical string
		kind      report.ColumnKind
	}
	var cols []column
	taken := map[string]bool{}
	dropped := 0

	for _, raw := range tbl.Columns {
		name := NormalizeName(raw)
		if isExecutionDateAlias(name) {
			name = report.ColExecutionDate
		}
		if isDropped(name, def.DropColumns) {
			dropped++
			continue
		}
		canonical := strings.ToUpper(name)
		if taken[canonical] {
			continue
		}
		taken[canonical] = true
		cols = append(cols, column{raw: raw, canonical: canonical, kind: columnKind(name, def)})
	}
	if dropped > 0 {
		s.logger.WithFields(logrus.Fields{
			"report":  def.Type,
			"dropped": dropped,
		}).Debug("transform: irrelevant columns removed")
	}

	records := make([]report.Record, 0, len(tbl.Rows))
	for _, row := range tbl.Rows {
		rec := make(report.Record, len(cols))
		for _, c := range cols {
			rec[c.canonical] = parseCell(row[c.raw], c.kind)
		}
		records = append(records, rec)
	}

	names := make([]string, len(cols))
	for i, c := range cols {
		names[i] = c.canonical
	}
	return names, records
}

// derive appends the region and voltage-group columns computed from the crew
// code: a southern crew carries the PEL marker, a high-voltage crew A0.
func (s *TransformService) derive(batch *report.Batch) {
	if !batch.HasColumn(report.ColCrewUpper) {
		if len(batch.Records) > 0 {
			s.logger.Warn("transform: crew column absent, skipping region and group derivation")
		}
		return
	}
	for _, rec := range batch.Records {
		crew := rec[report.ColCrewUpper]
		region, group := report.RegionNorth, report.GroupLow
		if crew.Valid {
			if strings.Contains(crew.Text, report.SouthernCrewMarker) {
				region = report.RegionSouth
			}
			if strings.Contains(crew.Text, report.HighVoltageMarker) {
				group = report.GroupHigh
			}
		}
		rec[report.ColRegion] = report.TextValue(region)
		rec[report.ColGroup] = report.TextValue(group)
	}
	if !batch.HasColumn(report.ColRegion) {
		batch.Columns = append(batch.Columns, report.ColRegion)
	}
	if !batch.HasColumn(report.ColGroup) {
		batch.Columns = append(batch.Columns, report.ColGroup)
	}
}

// NormalizeName canonicalizes one header: quotes stripped, whitespace trimmed
// and collapsed, accents removed.
func NormalizeName(s string) string {
	s = strings.Trim(s, `"'`)
	s = strings.Join(strings.Fields(s), " ")
	if out, _, err := transform.String(deaccent(), s); err == nil {
		s = out
	}
	return s
}

func isExecutionDateAlias(name string) bool {
	if strings.EqualFold(name, report.ColExecutionDate) {
		return true
	}
	for _, alias := range report.ExecutionDateAliases {
		if strings.EqualFold(name, alias) {
			return true
		}
	}
	return false
}

func isDropped(name string, dropColumns []string) bool {
	for _, d := range dropColumns {
		if strings.EqualFold(name, d) {
			return true
		}
	}
	return false
}

// columnKind decides a column's storage type from its normalized,
// pre-uppercase name. Any remaining column mentioning DATA holds dates; the
// portal has never shipped a counterexample.
func columnKind(name string, def report.Definition) report.ColumnKind {
	if strings.EqualFold(name, report.ColExtractedAt) {
		return report.KindTimestamp
	}
	for _, tc := range def.TimeColumns {
		if strings.EqualFold(name, tc) {
			return report.KindTime
		}
	}
	if strings.Contains(strings.ToUpper(name), "DATA") {
		return report.KindDate
	}
	return report.KindText
}

// parseCell converts one raw cell into its typed value. Anything
// unparsable in a typed column becomes a null rather than failing the run.
func parseCell(raw string, kind report.ColumnKind) report.Value {
	cleaned := strings.TrimSpace(strings.Trim(strings.TrimSpace(raw), `"`))
	if kind == report.KindText {
		return report.TextValue(strings.ToUpper(cleaned))
	}
	if _, isNull := nullTokens[cleaned]; isNull {
		return report.NullValue(kind)
	}

	switch kind {
	case report.KindDate, report.KindTimestamp:
		if t, ok := parseDate(cleaned); ok {
			if kind == report.KindTimestamp {
				return report.TimestampValue(t)
			}
			return report.DateValue(t)
		}
		return report.NullValue(kind)
	case report.KindTime:
		if t, ok := parseTimeOfDay(cleaned); ok {
			return report.TimeValue(t)
		}
	}
	return report.NullValue(kind)
}

// parseDate accepts the portal's day-first format, zero-padding short day and
// month fields, plus ISO as a fallback.
func parseDate(s string) (time.Time, bool) {
	if parts := strings.Split(s, "/"); len(parts) == 3 {
		d, m, y := pad2(parts[0]), pad2(parts[1]), strings.TrimSpace(parts[2])
		if t, err := time.Parse("02/01/2006", d+"/"+m+"/"+y); err == nil {
			return t, true
		}
		return time.Time{}, false
	}
	for _, layout := range []string{"2006-01-02", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func parseTimeOfDay(s string) (time.Time, bool) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func pad2(s string) string {
	s = strings.TrimSpace(s)
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
