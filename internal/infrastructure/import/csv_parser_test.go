package csvimport

import (
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewCSVParser(t *testing.T) {
	t.Run("UTF-8 BOM is stripped", func(t *testing.T) {
		csv := "\xEF\xBB\xBFfirst_name,last_name\nГлеб,Голубин"
		parser, err := NewCSVParser(strings.NewReader(csv))
		require.NoError(t, err)

		require.NoError(t, parser.ParseHeader())
		assert.Equal(t, []string{"first_name", "last_name"}, parser.Headers())
	})

	t.Run("Empty file returns error", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader(""))

		assert.ErrorIs(t, err, ErrEmptyFile)
		assert.Nil(t, parser)
	})

	t.Run("Invalid encoding returns error", func(t *testing.T) {
		// "Глеб" in windows-1251
		_, err := NewCSVParser(strings.NewReader("first_name\n\xc3\xeb\xe5\xe1"))

		assert.ErrorIs(t, err, ErrInvalidEncoding)
	})

	t.Run("windows-1251 decoded with fallback", func(t *testing.T) {
		enc, err := LookupCharset("Windows-1251")
		require.NoError(t, err)

		parser, err := NewCSVParser(strings.NewReader("first_name\n\xc3\xeb\xe5\xe1"), WithFallbackEncoding(enc))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		row, err := parser.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "Глеб", row.Get("first_name"))
	})

	t.Run("UTF-8 input ignores fallback", func(t *testing.T) {
		enc, err := LookupCharset("koi8-r")
		require.NoError(t, err)

		parser, err := NewCSVParser(strings.NewReader("first_name\nГлеб"), WithFallbackEncoding(enc))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())
		row, err := parser.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "Глеб", row.Get("first_name"))
	})

	t.Run("Cyrillic across the encoding check boundary", func(t *testing.T) {
		csv := "first_name\n" + strings.Repeat("я", 3000)
		_, err := NewCSVParser(strings.NewReader(csv))

		assert.NoError(t, err)
	})

	t.Run("Custom delimiter", func(t *testing.T) {
		parser, err := NewCSVParser(strings.NewReader("first_name;last_name\nГлеб;Голубин"), WithDelimiter(';'))
		require.NoError(t, err)
		require.NoError(t, parser.ParseHeader())

		row, err := parser.ReadRow()
		require.NoError(t, err)
		assert.Equal(t, "Голубин", row.Get("last_name"))
	})
}

func TestCSVParser_ReadRow(t *testing.T) {
	csv := "first_name, last_name ,phone\n  Глеб , Голубин,89495052256\nТамби,Масаев\n"
	parser, err := NewCSVParser(strings.NewReader(csv))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	assert.True(t, parser.HasHeader("last_name"))
	assert.Equal(t, []string{"birth_date"}, parser.ValidateHeaders([]string{"first_name", "birth_date"}))

	row, err := parser.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, 2, row.LineNumber)
	assert.Equal(t, "Глеб", row.Get("first_name"))
	assert.Equal(t, "Голубин", row.Get("last_name"))

	row, err = parser.ReadRow()
	require.NoError(t, err)
	assert.Equal(t, 3, row.LineNumber)
	assert.Equal(t, "", row.Get("phone"))

	_, err = parser.ReadRow()
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, 2, parser.TotalRows())
}

func TestCSVParser_ReadAllRows(t *testing.T) {
	parser, err := NewCSVParser(strings.NewReader("a,b\n1,2\n,\n3,4\n"))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	rows, err := parser.ReadAllRows()

	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "3", rows[1].Get("a"))
	assert.Equal(t, 4, rows[1].LineNumber)
}

func TestCSVParser_Rows(t *testing.T) {
	parser, err := NewCSVParser(strings.NewReader("a\n1\n2\n3\n"))
	require.NoError(t, err)
	require.NoError(t, parser.ParseHeader())

	var seen []string
	for row, err := range parser.Rows() {
		require.NoError(t, err)
		seen = append(seen, row.Get("a"))
		if len(seen) == 2 {
			break
		}
	}
	assert.Equal(t, []string{"1", "2"}, seen)

	rest, err := parser.ReadAllRows()
	require.NoError(t, err)
	require.Len(t, rest, 1)
	assert.Equal(t, "3", rest[0].Get("a"))
}

func TestLookupCharset(t *testing.T) {
	enc, err := LookupCharset("")
	assert.NoError(t, err)
	assert.Nil(t, enc)

	_, err = LookupCharset("latin-9")
	assert.ErrorContains(t, err, "unsupported charset")
}

func TestCSVParser_MissingHeader(t *testing.T) {
	parser, err := NewCSVParser(strings.NewReader("\n"))
	require.NoError(t, err)

	assert.ErrorIs(t, parser.ParseHeader(), ErrMissingHeader)
}
