// Package sheet is the row-level spreadsheet I/O the converters run on.
// A Source yields rows of cell text after a header row; a Sink accepts
// them.
package sheet

import "errors"

// ErrNoHeader is returned by Source.Header for a sheet without rows.
var ErrNoHeader = errors.New("sheet has no header row")

// Source iterates the data rows of one sheet.
//
//	header, err := src.Header()
//	for src.Next() {
//		cells := src.Row()
//	}
//	err = src.Err()
type Source interface {
	// Header returns the first row. It must be called before Next.
	Header() ([]string, error)
	Next() bool
	// Row returns the current row; it may be shorter than the header.
	Row() []string
	Err() error
	Close() error
}

// Sink appends rows to a workbook.
type Sink interface {
	WriteHeader(header []string) error
	AppendRow(cells []string) error
	Close() error
}
