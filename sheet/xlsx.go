package sheet

import (
	"fmt"
	"io"
	"os"

	"github.com/xuri/excelize/v2"
)

// XLSXSource streams the rows of one worksheet.
type XLSXSource struct {
	file *excelize.File
	rows *excelize.Rows
	row  []string
	err  error
}

// OpenXLSX opens a workbook file. An empty sheet name selects the active
// sheet.
func OpenXLSX(path, sheetName string) (*XLSXSource, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	return newXLSXSource(f, sheetName)
}

// NewXLSXSource reads a workbook from r.
func NewXLSXSource(r io.Reader, sheetName string) (*XLSXSource, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read workbook: %w", err)
	}
	return newXLSXSource(f, sheetName)
}

func newXLSXSource(f *excelize.File, sheetName string) (*XLSXSource, error) {
	if sheetName == "" {
		sheetName = f.GetSheetName(f.GetActiveSheetIndex())
	}
	rows, err := f.Rows(sheetName)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheetName, err)
	}
	return &XLSXSource{file: f, rows: rows}, nil
}

func (s *XLSXSource) Header() ([]string, error) {
	if !s.Next() {
		if s.err != nil {
			return nil, s.err
		}
		return nil, ErrNoHeader
	}
	return s.row, nil
}

func (s *XLSXSource) Next() bool {
	if s.err != nil {
		return false
	}
	if !s.rows.Next() {
		s.err = s.rows.Error()
		return false
	}
	s.row, s.err = s.rows.Columns()
	return s.err == nil
}

func (s *XLSXSource) Row() []string {
	return s.row
}

func (s *XLSXSource) Err() error {
	return s.err
}

func (s *XLSXSource) Close() error {
	rerr := s.rows.Close()
	if err := s.file.Close(); err != nil {
		return err
	}
	return rerr
}

// XLSXSink writes rows with the excelize stream writer. Once a sheet holds
// maxRows data rows, writing continues on a new sheet (Sheet2, Sheet3, ...)
// that repeats the header.
type XLSXSink struct {
	w       io.Writer
	closer  io.Closer
	file    *excelize.File
	stream  *excelize.StreamWriter
	maxRows int
	header  []string
	sheets  int
	row     int
	data    int
}

// NewXLSXSink returns a sink that writes the workbook to w on Close.
// maxRows <= 0 means one sheet of unlimited size.
func NewXLSXSink(w io.Writer, maxRows int) (*XLSXSink, error) {
	f := excelize.NewFile()
	s := &XLSXSink{w: w, file: f, maxRows: maxRows, sheets: 1}
	stream, err := f.NewStreamWriter(f.GetSheetName(0))
	if err != nil {
		f.Close()
		return nil, err
	}
	s.stream = stream
	return s, nil
}

// CreateXLSX returns a sink writing to a new file at path.
func CreateXLSX(path string, maxRows int) (*XLSXSink, error) {
	out, err := os.Create(path)
	if err != nil {
		return nil, err
	}
	s, err := NewXLSXSink(out, maxRows)
	if err != nil {
		out.Close()
		return nil, err
	}
	s.closer = out
	return s, nil
}

func (s *XLSXSink) WriteHeader(header []string) error {
	s.header = append([]string(nil), header...)
	return s.write(s.header)
}

func (s *XLSXSink) AppendRow(cells []string) error {
	if s.maxRows > 0 && s.data >= s.maxRows {
		if err := s.rollover(); err != nil {
			return err
		}
	}
	if err := s.write(cells); err != nil {
		return err
	}
	s.data++
	return nil
}

// Sheets returns the number of sheets written so far.
func (s *XLSXSink) Sheets() int {
	return s.sheets
}

func (s *XLSXSink) rollover() error {
	if err := s.stream.Flush(); err != nil {
		return err
	}
	s.sheets++
	name := fmt.Sprintf("Sheet%d", s.sheets)
	if _, err := s.file.NewSheet(name); err != nil {
		return err
	}
	stream, err := s.file.NewStreamWriter(name)
	if err != nil {
		return err
	}
	s.stream, s.row, s.data = stream, 0, 0
	if s.header != nil {
		return s.write(s.header)
	}
	return nil
}

func (s *XLSXSink) write(cells []string) error {
	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	values := make([]interface{}, len(cells))
	for i, c := range cells {
		values[i] = c
	}
	return s.stream.SetRow(cell, values)
}

// Close flushes the workbook to the writer. The file opened by
// CreateXLSX is closed even when writing fails.
func (s *XLSXSink) Close() (err error) {
	defer s.file.Close()
	if s.closer != nil {
		defer func() {
			if cerr := s.closer.Close(); err == nil {
				err = cerr
			}
		}()
	}
	if err := s.stream.Flush(); err != nil {
		return err
	}
	_, err = s.file.WriteTo(s.w)
	return err
}

// Discard releases the workbook without writing it.
func (s *XLSXSink) Discard() error {
	err := s.file.Close()
	if s.closer != nil {
		s.closer.Close()
	}
	return err
}
