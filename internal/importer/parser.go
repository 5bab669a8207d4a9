package importer

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Row is one CSV data row: trimmed column header to trimmed value, plus
// the 1-based physical data row number (the header row is not counted).
// Blank rows are skipped but keep their place in the numbering, so a row
// number in the report always points at the matching line of the source
// file.
type Row struct {
	Number int
	Values map[string]string
}

// Value returns the trimmed value for a column, or "" when absent.
func (r Row) Value(column string) string {
	return r.Values[column]
}

// ParseError marks a file-level failure. It aborts the whole import and
// is reported once, unlike per-row validation errors.
type ParseError struct {
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse import file: %v", e.Err)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

// ParseCSV decodes a UTF-8 CSV stream into rows. A leading byte-order
// mark is tolerated. Rows whose cells are all empty are skipped.
func ParseCSV(r io.Reader) ([]Row, error) {
	br := bufio.NewReader(r)
	if lead, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(lead, utf8BOM) {
		_, _ = br.Discard(len(utf8BOM))
	}

	reader := csv.NewReader(br)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, &ParseError{Err: fmt.Errorf("file is empty")}
	}
	if err != nil {
		return nil, &ParseError{Err: err}
	}
	columns := make([]string, len(header))
	for i, h := range header {
		columns[i] = strings.TrimSpace(h)
	}

	var rows []Row
	number := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &ParseError{Err: err}
		}
		number++

		values := make(map[string]string, len(columns))
		empty := true
		for i, column := range columns {
			if column == "" || i >= len(record) {
				continue
			}
			value := strings.TrimSpace(record[i])
			if !utf8.ValidString(value) {
				return nil, &ParseError{Err: fmt.Errorf("invalid UTF-8 in row %d", number)}
			}
			values[column] = value
			if value != "" {
				empty = false
			}
		}
		if empty {
			continue
		}
		rows = append(rows, Row{Number: number, Values: values})
	}
	return rows, nil
}
