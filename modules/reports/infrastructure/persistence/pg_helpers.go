package persistence

import (
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgtype"

	"github.com/iota-uz/sigos-etl/modules/reports/domain/report"
)

// pgValue converts a canonical cell into its pgx argument. Absent columns are
// passed as a null of the column's storage kind.
func pgValue(v report.Value, kind report.ColumnKind) any {
	if !v.Valid {
		return nullOf(kind)
	}
	switch v.Kind {
	case report.KindDate:
		return pgtype.Date{Time: v.Time, Valid: true}
	case report.KindTime:
		return pgtype.Time{Microseconds: microsSinceMidnight(v.Time), Valid: true}
	case report.KindTimestamp:
		return pgtype.Timestamptz{Time: v.Time, Valid: true}
	default:
		return pgtype.Text{String: v.Text, Valid: true}
	}
}

func nullOf(kind report.ColumnKind) any {
	switch kind {
	case report.KindDate:
		return pgtype.Date{}
	case report.KindTime:
		return pgtype.Time{}
	case report.KindTimestamp:
		return pgtype.Timestamptz{}
	default:
		return pgtype.Text{}
	}
}

func microsSinceMidnight(t time.Time) int64 {
	return int64(t.Hour())*int64(time.Hour/time.Microsecond) +
		int64(t.Minute())*int64(time.Minute/time.Microsecond) +
		int64(t.Second())*int64(time.Second/time.Microsecond)
}

// quoteIdent quotes a canonical column name as a Postgres identifier; the
// exports produce names with spaces and slashes ("UC / MD").
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

func quoteIdents(names []string) string {
	quoted := make([]string, len(names))
	for i, n := range names {
		quoted[i] = quoteIdent(n)
	}
	return strings.Join(quoted, ", ")
}

// buildInsert renders a multi-row INSERT for one chunk plus its flattened
// argument list.
func buildInsert(table string, columns []string, def report.Definition, chunk []report.Record) (string, []any) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO %s (%s) VALUES ", table, quoteIdents(columns))

	args := make([]any, 0, len(chunk)*len(columns))
	for i, rec := range chunk {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j, col := range columns {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", len(args)+1)
			args = append(args, pgValue(rec[col], def.StorageKind(col)))
		}
		sb.WriteString(")")
	}
	return sb.String(), args
}
