package spectra

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
)

const (
	MaxFileSize = 10 << 20 // 10MB
	MaxRows     = 10000
)

// Parser validates band-headed datasets. The zero value is not usable;
// use NewParser.
type Parser struct {
	Delimiter       rune
	DetectDelimiter bool
	MaxRows         int
}

func NewParser() *Parser {
	return &Parser{Delimiter: ',', MaxRows: MaxRows}
}

// Parse validates CSV text with the default parser.
func Parse(text string) ([]Sample, error) {
	return NewParser().Parse(text)
}

// ParseFile dispatches on the file extension: CSV text or the first sheet
// of an Excel workbook.
func (p *Parser) ParseFile(name string, r io.Reader) ([]Sample, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv", ".txt", "":
		b, err := io.ReadAll(r)
		if err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
		return p.Parse(string(b))
	case ".xlsx", ".xlsm":
		return p.parseExcel(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedType, filepath.Ext(name))
	}
}

// Parse validates CSV text. The whole input is rejected on the first
// malformed header or row. Rows are numbered by their line after the
// header, so a blank line is reported as an invalid row.
func (p *Parser) Parse(text string) ([]Sample, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrInsufficientRows
	}

	delim := p.Delimiter
	if p.DetectDelimiter {
		delim = DetermineDelimiter(strings.NewReader(text))
	}

	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delim
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	first, err := reader.Read()
	if err != nil {
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			return nil, ErrHeaderFormat
		}
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	headers, err := parseHeaders(first)
	if err != nil {
		return nil, err
	}

	var samples []Sample
	next := 2
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				return nil, &RowError{Row: pe.StartLine - 1, Headers: headers, Err: pe}
			}
			return nil, fmt.Errorf("reading CSV: %w", err)
		}

		line, _ := reader.FieldPos(0)
		if line > next {
			return nil, &RowError{Row: next - 1, Headers: headers, Err: errors.New("blank line")}
		}
		last := len(record) - 1
		end, _ := reader.FieldPos(last)
		next = end + strings.Count(record[last], "\n") + 1

		if p.MaxRows > 0 && len(samples) == p.MaxRows {
			return nil, fmt.Errorf("%w (> %d)", ErrTooManyRows, p.MaxRows)
		}
		sample, err := parseRow(headers, line-1, record)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}

	if len(samples) == 0 {
		return nil, ErrInsufficientRows
	}
	return samples, nil
}

// ParseRecords applies the header and row rules to already split records.
// Rows are numbered by their position after the header.
func (p *Parser) ParseRecords(records [][]string) ([]Sample, error) {
	if len(records) < 2 {
		return nil, ErrInsufficientRows
	}
	headers, err := parseHeaders(records[0])
	if err != nil {
		return nil, err
	}

	rows := records[1:]
	if p.MaxRows > 0 && len(rows) > p.MaxRows {
		return nil, fmt.Errorf("%w (> %d)", ErrTooManyRows, p.MaxRows)
	}

	samples := make([]Sample, 0, len(rows))
	for i, row := range rows {
		sample, err := parseRow(headers, i+1, row)
		if err != nil {
			return nil, err
		}
		samples = append(samples, sample)
	}
	return samples, nil
}

func parseHeaders(record []string) ([]string, error) {
	if len(record) == 0 {
		return nil, ErrHeaderFormat
	}
	headers := make([]string, len(record))
	for i, h := range record {
		h = strings.TrimSpace(h)
		if h != BandName(i) {
			return nil, ErrHeaderFormat
		}
		headers[i] = h
	}
	return headers, nil
}

func parseRow(headers []string, row int, record []string) (Sample, error) {
	if len(record) != len(headers) {
		return nil, &RowError{Row: row, Headers: headers,
			Err: fmt.Errorf("got %d fields", len(record))}
	}
	sample := make(Sample, len(headers))
	for j, raw := range record {
		v, err := parseReading(raw)
		if err != nil {
			return nil, &RowError{Row: row, Headers: headers, Err: err}
		}
		sample[headers[j]] = v
	}
	return sample, nil
}

func parseReading(raw string) (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.New("not a finite number")
	}
	return v, nil
}

func (p *Parser) parseExcel(r io.Reader) ([]Sample, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheet := f.GetSheetName(0)
	if sheet == "" {
		return nil, ErrInsufficientRows
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", sheet, err)
	}
	return p.ParseRecords(rows)
}
