package excel

import (
	"context"
	"fmt"
	"io"
	"reflect"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/genelet/sheetcast/mapping"
	"github.com/genelet/sheetcast/sheet"
)

// Writer renders records of type T, a struct or a pointer to one, as
// sheet rows. The conversion plan is built once, in NewWriter.
type Writer[T any] struct {
	cfg    *config
	plan   *mapping.WritePlan
	header []string
	// index holds the plan position of each output column, -1 if none.
	index []int
}

// NewWriter builds the write plan of T.
func NewWriter[T any](opts ...Option) (*Writer[T], error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	t := reflect.TypeFor[T]()
	o, err := cfg.mappingOptions(t)
	if err != nil {
		return nil, err
	}
	plan, err := mapping.NewWritePlan(t, o)
	if err != nil {
		return nil, err
	}

	w := &Writer[T]{cfg: cfg, plan: plan}
	if cfg.headers != nil {
		l := cfg.match(cfg.headers, plan.Header())
		w.header, w.index = cfg.headers, l.fields
		return w, nil
	}
	for i, column := range plan.Header() {
		text := cfg.heading(column)
		if cfg.ignored(text) {
			continue
		}
		w.header = append(w.header, text)
		w.index = append(w.index, i)
	}
	if len(w.header) == 0 {
		return nil, fmt.Errorf("%w: every column of %s is ignored", mapping.ErrNoTargetedField, plan.Type())
	}
	return w, nil
}

// Header returns the header row text, or the configured header names of
// a headerless sheet.
func (w *Writer[T]) Header() []string {
	return w.header
}

// Write appends a header row, unless the sheet is headerless, and one row
// per record. The sink is left open.
func (w *Writer[T]) Write(ctx context.Context, sink sheet.Sink, records []T) error {
	if w.cfg.headers == nil {
		if err := sink.WriteHeader(w.header); err != nil {
			return err
		}
	}
	if w.cfg.limit > 0 && len(records) > w.cfg.limit {
		records = records[:w.cfg.limit]
	}

	if w.cfg.parallel > 1 {
		return w.writeParallel(ctx, sink, records)
	}
	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			return err
		}
		cells, err := w.row(rec, i+1)
		if err != nil {
			return err
		}
		if err := sink.AppendRow(cells); err != nil {
			return err
		}
	}
	w.cfg.logger.WithFields(logrus.Fields{"type": w.plan.Type().String(), "rows": len(records)}).Debug("rows written")
	return nil
}

func (w *Writer[T]) writeParallel(ctx context.Context, sink sheet.Sink, records []T) error {
	rows := make([][]string, len(records))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(w.cfg.parallel)
	for i, rec := range records {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			cells, err := w.row(rec, i+1)
			if err != nil {
				return err
			}
			rows[i] = cells
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	for _, cells := range rows {
		if err := sink.AppendRow(cells); err != nil {
			return err
		}
	}
	w.cfg.logger.WithFields(logrus.Fields{
		"type":     w.plan.Type().String(),
		"rows":     len(rows),
		"parallel": w.cfg.parallel,
	}).Debug("rows written")
	return nil
}

// WriteTo writes the records to out as an xlsx workbook, starting a new
// sheet every WithMaxRowsPerSheet rows.
func (w *Writer[T]) WriteTo(ctx context.Context, out io.Writer, records []T) error {
	sink, err := sheet.NewXLSXSink(out, w.cfg.maxRows)
	if err != nil {
		return err
	}
	if err := w.Write(ctx, sink, records); err != nil {
		sink.Discard()
		return err
	}
	return sink.Close()
}

func (w *Writer[T]) row(rec T, number int) ([]string, error) {
	cells, err := w.plan.Cells(rec, number)
	if err != nil {
		return nil, err
	}
	out := make([]string, len(w.index))
	for i, j := range w.index {
		if j >= 0 {
			out[i] = cells[j]
		}
	}
	return out, nil
}

// WriteRows writes generic rows under header; each row supplies its cells
// by header text. Ignore patterns and the row limit apply.
func WriteRows(sink sheet.Sink, header []string, rows []map[string]string, opts ...Option) error {
	cfg, err := newConfig(opts...)
	if err != nil {
		return err
	}
	var kept []string
	for _, text := range header {
		if !cfg.ignored(text) {
			kept = append(kept, text)
		}
	}
	if err := sink.WriteHeader(kept); err != nil {
		return err
	}
	if cfg.limit > 0 && len(rows) > cfg.limit {
		rows = rows[:cfg.limit]
	}
	for _, row := range rows {
		cells := make([]string, len(kept))
		for i, text := range kept {
			cells[i] = row[text]
		}
		if err := sink.AppendRow(cells); err != nil {
			return err
		}
	}
	return nil
}
