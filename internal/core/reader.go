package core

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
)

// ErrNoHeader is returned when the input has no header row.
var ErrNoHeader = errors.New("no header row")

// RecordReader streams Records from CSV input one row at a time.
type RecordReader struct {
	csv    *csv.Reader
	header []string
	line   int
}

// NewRecordReader reads the header row from r. Rows after it are read
// lazily by Next.
func NewRecordReader(r io.Reader) (*RecordReader, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true
	cr.ReuseRecord = false

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrNoHeader
	}
	if err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}

	return &RecordReader{csv: cr, header: header}, nil
}

// Header returns the column names.
func (r *RecordReader) Header() []string {
	return r.header
}

// Next returns the next data row, or io.EOF after the last one.
// Cells beyond the header width are dropped and reported via extra.
func (r *RecordReader) Next() (rec Record, extra int, err error) {
	values, err := r.csv.Read()
	if err != nil {
		if err == io.EOF {
			return Record{}, 0, io.EOF
		}
		return Record{}, 0, fmt.Errorf("read row %d: %w", r.line+1, err)
	}

	r.line++
	if len(values) > len(r.header) {
		extra = len(values) - len(r.header)
		values = values[:len(r.header)]
	}

	return Record{Line: r.line, Header: r.header, Values: values}, extra, nil
}
