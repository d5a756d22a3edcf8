package csvread

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/iota-uz/sigos-etl/modules/reports/domain/report"
)

func writeFile(t *testing.T, dir, name string, content []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return path
}

func quietLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func TestReadFileSemicolon(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "retorno_1.csv",
		[]byte("UC / MD;CODIGO;EQUIPE\n123;A1;RS-PEL-F001M\n456;B2;RS-POA-F002M\n"))

	table, err := ReadFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"UC / MD", "CODIGO", "EQUIPE"}, table.Columns)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "123", table.Rows[0]["UC / MD"])
	assert.Equal(t, "RS-POA-F002M", table.Rows[1]["EQUIPE"])
}

func TestReadFileCommaAndTab(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	comma := writeFile(t, dir, "comma.csv", []byte("A,B\n1,2\n"))
	tab := writeFile(t, dir, "tab.csv", []byte("A\tB\n1\t2\n"))

	for _, p := range []string{comma, tab} {
		table, err := ReadFile(p, nil)
		require.NoError(t, err, p)
		assert.Equal(t, []string{"A", "B"}, table.Columns)
		require.Len(t, table.Rows, 1)
		assert.Equal(t, "2", table.Rows[0]["B"])
	}
}

func TestReadFileLatin1(t *testing.T) {
	t.Parallel()

	// "REGIÃO;EQUIPE" with the Latin-1 byte 0xC3 for Ã.
	content := append([]byte("REGI"), 0xC3)
	content = append(content, []byte("O;EQUIPE\nSUL;RS-PEL-F001M\n")...)
	path := writeFile(t, t.TempDir(), "latin1.csv", content)

	table, err := ReadFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "REGIÃO", table.Columns[0])
	assert.Equal(t, "SUL", table.Rows[0]["REGIÃO"])
}

func TestReadFileStripsBOM(t *testing.T) {
	t.Parallel()

	content := append([]byte{0xEF, 0xBB, 0xBF}, []byte("A;B\n1;2\n")...)
	path := writeFile(t, t.TempDir(), "bom.csv", content)

	table, err := ReadFile(path, nil)
	require.NoError(t, err)
	assert.Equal(t, "A", table.Columns[0])
}

func TestReadFileRealignsHeaderAfterPreamble(t *testing.T) {
	t.Parallel()

	content := "Relatorio gerado em 01/11/2025\n\nUC / MD;CODIGO;EQUIPE\n123;A1;RS-PEL-F001M\n"
	path := writeFile(t, t.TempDir(), "banner.csv", []byte(content))

	table, err := ReadFile(path, []string{"UC / MD", "CODIGO"})
	require.NoError(t, err)
	assert.Equal(t, []string{"UC / MD", "CODIGO", "EQUIPE"}, table.Columns)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "123", table.Rows[0]["UC / MD"])
}

func TestReadFileSkipsMalformedLines(t *testing.T) {
	t.Parallel()

	// Third line has an extra field; strict attempts fail, the skip pass
	// drops it and keeps the rest.
	content := "A;B\n1;2\n3;4;5;6\n7;8\n"
	path := writeFile(t, t.TempDir(), "bad.csv", []byte(content))

	table, err := ReadFile(path, nil)
	require.NoError(t, err)
	require.Len(t, table.Rows, 2)
	assert.Equal(t, "7", table.Rows[1]["A"])
}

func TestReadFilePadsShortRows(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "short.csv", []byte("A;B;C\n1;2\n"))

	table, err := ReadFile(path, nil)
	require.NoError(t, err)
	require.Len(t, table.Rows, 1)
	assert.Equal(t, "", table.Rows[0]["C"])
}

func TestReadFileUnparsable(t *testing.T) {
	t.Parallel()

	path := writeFile(t, t.TempDir(), "junk.csv", []byte("nodatahere\n"))

	_, err := ReadFile(path, nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, report.ErrUnparsableFile), "got %v", err)
}

func TestReadDirSkipsCorruptFileAndContinues(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "retorno_1.csv", []byte("A;B\n1;2\n"))
	writeFile(t, dir, "retorno_2.csv", []byte("garbage\n"))

	res, err := ReadDir(dir, "retorno*.csv", nil, quietLogger())
	require.NoError(t, err)
	assert.Len(t, res.Tables, 1)
	assert.Len(t, res.Skipped, 1)
	assert.Contains(t, res.Skipped[0], "retorno_2.csv")
}

func TestReadDirNoMatches(t *testing.T) {
	t.Parallel()

	_, err := ReadDir(t.TempDir(), "retorno*.csv", nil, quietLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, report.ErrNoInputFiles), "got %v", err)
}

func TestReadDirAllFilesUnreadable(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, dir, "retorno_1.csv", []byte("junk\n"))

	_, err := ReadDir(dir, "retorno*.csv", nil, quietLogger())
	require.Error(t, err)
	assert.True(t, errors.Is(err, report.ErrNoInputFiles), "got %v", err)
}

func TestSniffDelimiter(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name    string
		content string
		want    rune
		ok      bool
	}{
		{name: "semicolon", content: "a;b;c\n1;2;3\n", want: ';', ok: true},
		{name: "comma", content: "a,b\n1,2\n", want: ',', ok: true},
		{name: "tab", content: "a\tb\n1\t2\n", want: '\t', ok: true},
		{name: "pipe", content: "a|b\n1|2\n", want: '|', ok: true},
		{name: "none", content: "plain text\nmore text\n", ok: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			got, ok := sniffDelimiter(tc.content)
			assert.Equal(t, tc.ok, ok)
			if tc.ok {
				assert.Equal(t, string(tc.want), string(got))
			}
		})
	}
}
