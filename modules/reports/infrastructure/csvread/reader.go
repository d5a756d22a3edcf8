package csvread

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/charmap"

	"github.com/iota-uz/sigos-etl/modules/reports/domain/report"
)

// headerScanLines bounds the search for a real header hidden behind banner or
// preamble lines.
const headerScanLines = 100

// Result is the outcome of reading one glob's worth of files. Skipped lists
// files that exhausted every parse strategy; they never abort the batch.
type Result struct {
	Tables  []report.RawTable
	Paths   []string
	Skipped []string
}

// ReadDir reads every file matching pattern under dir into raw tables.
// A file that cannot be parsed at all is logged and skipped; the run only
// fails when nothing readable matched.
func ReadDir(dir, pattern string, knownColumns []string, logger *logrus.Logger) (Result, error) {
	paths, err := filepath.Glob(filepath.Join(dir, pattern))
	if err != nil {
		return Result{}, err
	}
	sort.Strings(paths)
	if len(paths) == 0 {
		return Result{}, fmt.Errorf("%w: %s in %s", report.ErrNoInputFiles, pattern, dir)
	}

	var res Result
	for _, p := range paths {
		t, err := ReadFile(p, knownColumns)
		if err != nil {
			logger.WithError(err).WithField("file", filepath.Base(p)).
				Warn("csvread: giving up on file, batch continues")
			res.Skipped = append(res.Skipped, p)
			continue
		}
		logger.WithFields(logrus.Fields{
			"file": filepath.Base(p),
			"rows": len(t.Rows),
			"cols": len(t.Columns),
		}).Info("csvread: file read")
		res.Tables = append(res.Tables, t)
		res.Paths = append(res.Paths, p)
	}
	if len(res.Tables) == 0 {
		return Result{}, fmt.Errorf("%w: all %d matching files were unreadable", report.ErrNoInputFiles, len(paths))
	}
	return res, nil
}

// ReadFile parses a single delimited file of uncertain dialect. Attempts run
// in a fixed order (sniffed delimiter, inferred, then forced ';', ',', tab),
// first strictly, then with malformed-line skipping. The last strict error is
// what surfaces when everything fails.
func ReadFile(path string, knownColumns []string) (report.RawTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return report.RawTable{}, err
	}
	content := decode(raw)

	var lastErr error
	for _, skipBad := range []bool{false, true} {
		for _, delim := range attemptDelimiters(content) {
			t, err := parse(content, delim, skipBad, knownColumns)
			if err == nil {
				return t, nil
			}
			if !skipBad {
				lastErr = err
			}
		}
	}
	return report.RawTable{}, fmt.Errorf("%w: %s: %v", report.ErrUnparsableFile, filepath.Base(path), lastErr)
}

func attemptDelimiters(content string) []rune {
	attempts := make([]rune, 0, 5)
	if d, ok := sniffDelimiter(content); ok {
		attempts = append(attempts, d)
	}
	attempts = append(attempts, inferDelimiter(content), ';', ',', '\t')
	return attempts
}

// decode strips a UTF-8 BOM and falls back to Latin-1 when the content is not
// valid UTF-8. Latin-1 decoding cannot fail, so no byte sequence is ever
// rejected for encoding reasons alone.
func decode(raw []byte) string {
	raw = stripBOM(raw)
	if utf8.Valid(raw) {
		return string(raw)
	}
	decoded, err := charmap.ISO8859_1.NewDecoder().Bytes(raw)
	if err != nil {
		return string(raw)
	}
	return string(decoded)
}

func stripBOM(b []byte) []byte {
	if len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF {
		return b[3:]
	}
	return b
}

func parse(content string, delim rune, skipBad bool, knownColumns []string) (report.RawTable, error) {
	t, err := parseFrom(content, delim, skipBad, 0)
	if err == nil && (len(knownColumns) == 0 || headerHasAny(t.Columns, knownColumns)) {
		return t, nil
	}

	// Exports sometimes carry banner lines before the true header. When none
	// of the expected columns show up (or the banner broke the parse
	// outright), look for a line mentioning a known column and restart there.
	if len(knownColumns) > 0 {
		if idx, ok := findHeaderLine(content, knownColumns); ok && idx > 0 {
			if realigned, rerr := parseFrom(content, delim, skipBad, idx); rerr == nil {
				return realigned, nil
			}
		}
	}
	if err != nil {
		return report.RawTable{}, err
	}
	return t, nil
}

func parseFrom(content string, delim rune, skipBad bool, startLine int) (report.RawTable, error) {
	if startLine > 0 {
		lines := strings.SplitAfterN(content, "\n", startLine+1)
		if len(lines) <= startLine {
			return report.RawTable{}, fmt.Errorf("header line %d beyond end of file", startLine)
		}
		content = lines[startLine]
	}

	r := csv.NewReader(strings.NewReader(content))
	r.Comma = delim
	r.FieldsPerRecord = -1
	r.LazyQuotes = skipBad

	var records [][]string
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			if skipBad {
				continue
			}
			return report.RawTable{}, err
		}
		records = append(records, rec)
	}
	if len(records) == 0 {
		return report.RawTable{}, errors.New("no parsable lines")
	}

	header := make([]string, len(records[0]))
	for i, h := range records[0] {
		header[i] = strings.TrimSpace(h)
	}
	// A single-column result means the delimiter attempt did not actually
	// split anything; treat it as a failed attempt so the ladder moves on.
	if len(header) < 2 {
		return report.RawTable{}, fmt.Errorf("delimiter %q produced a single column", delim)
	}

	rows := make([]map[string]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		if len(rec) > len(header) {
			if skipBad {
				continue
			}
			return report.RawTable{}, fmt.Errorf("row has %d fields, header has %d", len(rec), len(header))
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(rec) {
				row[col] = rec[i]
			} else {
				// Short rows are padded; the portal truncates trailing
				// empty fields.
				row[col] = ""
			}
		}
		rows = append(rows, row)
	}
	return report.RawTable{Columns: header, Rows: rows}, nil
}

func headerHasAny(header, known []string) bool {
	for _, h := range header {
		for _, k := range known {
			if h == k {
				return true
			}
		}
	}
	return false
}

func findHeaderLine(content string, known []string) (int, bool) {
	lines := strings.Split(content, "\n")
	limit := len(lines)
	if limit > headerScanLines {
		limit = headerScanLines
	}
	for i := 0; i < limit; i++ {
		for _, k := range known {
			if strings.Contains(lines[i], k) {
				return i, true
			}
		}
	}
	return 0, false
}
