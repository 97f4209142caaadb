package excel

import (
	"context"
	"maps"
	"slices"
	"strings"

	"golang.org/x/text/cases"

	"github.com/genelet/sheetcast/mapping"
	"github.com/genelet/sheetcast/sheet"
)

// layout pairs the columns of a sheet with the fields of a plan.
type layout struct {
	header []string
	// fields holds the plan position of each sheet column, -1 if unmapped.
	fields []int
	skip   []bool
	// positional is set when no header text matched and columns were
	// paired with fields by position.
	positional bool
}

// fold normalizes header text for matching.
func fold(s string) string {
	return cases.Fold().String(strings.TrimSpace(s))
}

// column returns the column name header text stands for.
func (c *config) column(text string) string {
	if name, ok := c.headerMap[text]; ok {
		return name
	}
	key := fold(text)
	for k, name := range c.headerMap {
		if fold(k) == key {
			return name
		}
	}
	return text
}

// heading returns the header text written for a column name.
func (c *config) heading(column string) string {
	for _, text := range slices.Sorted(maps.Keys(c.headerMap)) {
		if c.headerMap[text] == column {
			return text
		}
	}
	return column
}

// match lays header out against the plan columns. Text is compared case
// folded and trimmed; each field takes the first column naming it.
func (c *config) match(header, columns []string) *layout {
	byName := make(map[string]int, len(columns))
	for i, col := range columns {
		key := fold(col)
		if _, dup := byName[key]; !dup {
			byName[key] = i
		}
	}

	l := &layout{header: header, fields: make([]int, len(header)), skip: make([]bool, len(header))}
	taken := make(map[int]bool, len(columns))
	for i, text := range header {
		l.fields[i] = -1
		if c.ignored(text) {
			l.skip[i] = true
			continue
		}
		if j, ok := byName[fold(c.column(text))]; ok && !taken[j] {
			l.fields[i] = j
			taken[j] = true
		}
	}
	if len(taken) > 0 {
		return l
	}

	l.positional = true
	for i := range header {
		if !l.skip[i] && i < len(columns) {
			l.fields[i] = i
		}
	}
	return l
}

// row builds the converter input for one line of cells.
func (l *layout) row(number int, cells []string, fields []*mapping.Field) *mapping.Row {
	row := &mapping.Row{
		Number:  number,
		Values:  make(map[string]string, len(fields)),
		Columns: make(map[string]string, len(l.header)),
	}
	for i, text := range l.header {
		if l.skip[i] {
			continue
		}
		var cell string
		if i < len(cells) {
			cell = cells[i]
		}
		if text != "" {
			row.Columns[text] = cell
		}
		if j := l.fields[i]; j >= 0 {
			row.Values[fields[j].Name] = cell
		}
	}
	return row
}

// header returns the configured header names or reads the header row.
func (c *config) header(src sheet.Source) ([]string, error) {
	if c.headers != nil {
		return c.headers, nil
	}
	return src.Header()
}

// scan calls fn with every non-blank data row up to the limit. number
// counts data rows from 1, blank ones included.
func (c *config) scan(ctx context.Context, src sheet.Source, fn func(number int, cells []string) error) error {
	number, count := 0, 0
	for src.Next() {
		if err := ctx.Err(); err != nil {
			return err
		}
		number++
		cells := src.Row()
		if blank(cells) {
			continue
		}
		if err := fn(number, cells); err != nil {
			return err
		}
		count++
		if c.limit > 0 && count >= c.limit {
			return nil
		}
	}
	return src.Err()
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
