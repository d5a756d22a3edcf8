package report

import "time"

// RawTable is one delimited file as read from disk: unnormalized column names
// and untyped string cells. Numeric-looking values stay strings so nothing is
// coerced before the normalizer sees it.
type RawTable struct {
	Columns []string
	Rows    []map[string]string
}

// Value is one canonical cell. Valid=false is an explicit null of the given
// kind.
type Value struct {
	Kind  ColumnKind
	Valid bool
	Text  string
	Time  time.Time
}

func TextValue(s string) Value {
	return Value{Kind: KindText, Valid: true, Text: s}
}

func DateValue(t time.Time) Value {
	return Value{Kind: KindDate, Valid: true, Time: t}
}

func TimeValue(t time.Time) Value {
	return Value{Kind: KindTime, Valid: true, Time: t}
}

func TimestampValue(t time.Time) Value {
	return Value{Kind: KindTimestamp, Valid: true, Time: t}
}

func NullValue(kind ColumnKind) Value {
	return Value{Kind: kind}
}

// KeyString renders the value for business-key comparison.
func (v Value) KeyString() string {
	if !v.Valid {
		return "\x00"
	}
	switch v.Kind {
	case KindDate:
		return v.Time.Format("2006-01-02")
	case KindTime:
		return v.Time.Format("15:04:05")
	case KindTimestamp:
		return v.Time.Format(time.RFC3339Nano)
	default:
		return v.Text
	}
}

// Record is one canonical row. A column absent from the map is a null: files
// in the same batch may disagree on their column sets.
type Record map[string]Value

// Batch is the full in-memory row set for one (report, mode) run, owned
// exclusively by the pipeline until the loader consumes it.
type Batch struct {
	Columns []string
	Records []Record
}

func (b Batch) HasColumn(name string) bool {
	for _, c := range b.Columns {
		if c == name {
			return true
		}
	}
	return false
}

// MinExecutionDate returns the smallest valid execution date in the batch.
// ok=false when the batch is empty or the column is entirely null.
func (b Batch) MinExecutionDate() (time.Time, bool) {
	var min time.Time
	found := false
	for _, rec := range b.Records {
		v, present := rec[ColExecutionDate]
		if !present || !v.Valid {
			continue
		}
		if !found || v.Time.Before(min) {
			min = v.Time
			found = true
		}
	}
	return min, found
}
