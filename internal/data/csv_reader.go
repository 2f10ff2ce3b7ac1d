package data

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

var (
	ErrNotFound = errors.New("input not found")
	ErrParse    = errors.New("parse failure")
)

type CSVReader struct {
	filename string
	comma    rune
}

func NewCSVReader(filename string) *CSVReader {
	return &CSVReader{filename: filename, comma: ','}
}

// WithComma switches the field delimiter.
func (cr *CSVReader) WithComma(comma rune) *CSVReader {
	cr.comma = comma
	return cr
}

func (cr *CSVReader) LoadData() (*Table, error) {
	file, err := os.Open(cr.filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, cr.filename)
		}
		return nil, fmt.Errorf("failed to open %s: %w", cr.filename, err)
	}
	defer file.Close()

	return cr.read(file)
}

func (cr *CSVReader) read(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = cr.comma

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrParse, filepath.Base(cr.filename), err)
	}

	if len(records) == 0 {
		return nil, fmt.Errorf("%w: %s: no header row", ErrParse, filepath.Base(cr.filename))
	}

	return FromRecords(records)
}

// FromRecords builds a table from CSV records whose first record is the
// header. Header names are kept verbatim apart from a UTF-8 BOM.
func FromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 || len(records[0]) == 0 {
		return nil, fmt.Errorf("%w: no header row", ErrParse)
	}

	headers := append([]string(nil), records[0]...)
	headers[0] = strings.TrimPrefix(headers[0], "\ufeff")
	rows := records[1:]

	columns := make([]*Column, len(headers))
	for j, name := range headers {
		cells := make([]string, len(rows))
		for i, record := range rows {
			if len(record) != len(headers) {
				return nil, fmt.Errorf("%w: record %d has %d fields, header has %d", ErrParse, i+1, len(record), len(headers))
			}
			cells[i] = record[j]
		}
		columns[j] = NewColumn(name, cells)
	}

	return NewTable(columns...), nil
}

// Load reads a header-delimited CSV file into a Table.
func Load(path string) (*Table, error) {
	return NewCSVReader(path).LoadData()
}

// WriteCSV writes the table with its header.
func WriteCSV(w io.Writer, t *Table) error {
	writer := csv.NewWriter(w)
	if err := writer.WriteAll(t.Records()); err != nil {
		return fmt.Errorf("failed to write table: %w", err)
	}
	return nil
}
