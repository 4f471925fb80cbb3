package csvimport

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"iter"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// bytes inspected for a BOM and for UTF-8 validity
const sniffSize = 4096

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// charsets accepted by LookupCharset
var charsets = map[string]encoding.Encoding{
	"windows-1251": charmap.Windows1251,
	"cp1251":       charmap.Windows1251,
	"koi8-r":       charmap.KOI8R,
	"cp866":        charmap.CodePage866,
}

// LookupCharset returns the legacy single-byte encoding registered under
// name. An empty name returns nil, meaning UTF-8 only.
func LookupCharset(name string) (encoding.Encoding, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, nil
	}
	enc, ok := charsets[name]
	if !ok {
		return nil, fmt.Errorf("unsupported charset %q", name)
	}
	return enc, nil
}

// CSVParser reads a CSV file whose first row names the columns.
// Cells are trimmed; rows shorter than the header are padded with "".
type CSVParser struct {
	comma    rune
	fallback encoding.Encoding

	reader  *csv.Reader
	header  []string
	columns map[string]int
	line    int
	read    int
}

// ParserOption is a functional option for CSVParser configuration
type ParserOption func(*CSVParser)

// WithDelimiter sets the field delimiter (default is comma)
func WithDelimiter(d rune) ParserOption {
	return func(p *CSVParser) {
		p.comma = d
	}
}

// WithFallbackEncoding decodes the file with enc when it is not valid UTF-8,
// as with spreadsheets saved in windows-1251. A nil enc keeps UTF-8 only.
func WithFallbackEncoding(enc encoding.Encoding) ParserOption {
	return func(p *CSVParser) {
		p.fallback = enc
	}
}

// NewCSVParser prepares r for reading. A leading UTF-8 BOM is skipped. An
// empty input fails with ErrEmptyFile; input that is neither UTF-8 nor
// decodable with the fallback encoding fails with ErrInvalidEncoding.
func NewCSVParser(r io.Reader, opts ...ParserOption) (*CSVParser, error) {
	p := &CSVParser{comma: ','}
	for _, opt := range opts {
		opt(p)
	}

	src := bufio.NewReaderSize(r, sniffSize)
	head, err := src.Peek(sniffSize)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, bufio.ErrBufferFull) {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	truncated := len(head) == sniffSize
	if bytes.HasPrefix(head, utf8BOM) {
		_, _ = src.Discard(len(utf8BOM))
		head = head[len(utf8BOM):]
	}
	if len(head) == 0 {
		return nil, ErrEmptyFile
	}

	var body io.Reader = src
	if !utf8.Valid(trimPartialRune(head, truncated)) {
		if p.fallback == nil {
			return nil, ErrInvalidEncoding
		}
		body = p.fallback.NewDecoder().Reader(src)
	}

	p.reader = csv.NewReader(body)
	p.reader.Comma = p.comma
	p.reader.LazyQuotes = true
	p.reader.TrimLeadingSpace = true
	p.reader.FieldsPerRecord = -1
	return p, nil
}

// trimPartialRune drops a multi-byte rune cut off by the end of a full sniff
// buffer, so it is not mistaken for invalid UTF-8
func trimPartialRune(b []byte, truncated bool) []byte {
	if !truncated {
		return b
	}
	for i := 1; i <= utf8.UTFMax && i <= len(b); i++ {
		if utf8.RuneStart(b[len(b)-i]) {
			if !utf8.FullRune(b[len(b)-i:]) {
				return b[:len(b)-i]
			}
			break
		}
	}
	return b
}

// ParseHeader reads the header row
func (p *CSVParser) ParseHeader() error {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return ErrMissingHeader
	}
	if err != nil {
		return fmt.Errorf("failed to read header: %w", err)
	}

	p.header = make([]string, len(record))
	p.columns = make(map[string]int, len(record))
	for i, name := range record {
		name = strings.TrimSpace(name)
		p.header[i] = name
		p.columns[name] = i
	}
	p.line = 1
	return nil
}

// Headers returns the parsed header names
func (p *CSVParser) Headers() []string {
	return p.header
}

// HasHeader checks if a header exists
func (p *CSVParser) HasHeader(name string) bool {
	_, ok := p.columns[name]
	return ok
}

// ValidateHeaders returns the required headers missing from the file
func (p *CSVParser) ValidateHeaders(required []string) []string {
	var missing []string
	for _, h := range required {
		if !p.HasHeader(h) {
			missing = append(missing, h)
		}
	}
	return missing
}

// Row is one data row keyed by header name. LineNumber counts the header as
// line 1.
type Row struct {
	LineNumber int
	Data       map[string]string
}

// Get returns the value for a column by header name
func (r *Row) Get(header string) string {
	return r.Data[header]
}

// IsEmpty reports whether every cell of the row is blank
func (r *Row) IsEmpty() bool {
	for _, v := range r.Data {
		if v != "" {
			return false
		}
	}
	return true
}

// ReadRow reads the next row. It returns io.EOF after the last row.
func (p *CSVParser) ReadRow() (*Row, error) {
	record, err := p.reader.Read()
	if errors.Is(err, io.EOF) {
		return nil, io.EOF
	}
	p.line++
	if err != nil {
		return nil, fmt.Errorf("error reading row %d: %w", p.line, err)
	}
	p.read++

	row := &Row{LineNumber: p.line, Data: make(map[string]string, len(p.header))}
	for i, name := range p.header {
		if i < len(record) {
			row.Data[name] = strings.TrimSpace(record[i])
		} else {
			row.Data[name] = ""
		}
	}
	return row, nil
}

// Rows iterates over the remaining non-blank rows. A read error is yielded
// once and ends the sequence.
func (p *CSVParser) Rows() iter.Seq2[*Row, error] {
	return func(yield func(*Row, error) bool) {
		for {
			row, err := p.ReadRow()
			if errors.Is(err, io.EOF) {
				return
			}
			if err != nil {
				yield(nil, err)
				return
			}
			if row.IsEmpty() {
				continue
			}
			if !yield(row, nil) {
				return
			}
		}
	}
}

// ReadAllRows collects Rows
func (p *CSVParser) ReadAllRows() ([]*Row, error) {
	var rows []*Row
	for row, err := range p.Rows() {
		if err != nil {
			return rows, err
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// TotalRows returns the number of data rows read, blank ones included
func (p *CSVParser) TotalRows() int {
	return p.read
}
