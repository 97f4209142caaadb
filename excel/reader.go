package excel

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/genelet/sheetcast/mapping"
	"github.com/genelet/sheetcast/sheet"
)

// Reader converts the rows of a sheet into records of type T, a struct or
// a pointer to one. The conversion plan is built once, in NewReader.
type Reader[T any] struct {
	src  sheet.Source
	cfg  *config
	plan *mapping.ReadPlan
	ptr  bool
}

// NewReader builds the read plan of T. Configuration problems, such as a
// type without mapped fields or a field without a handler, are reported
// here rather than on the first row.
func NewReader[T any](src sheet.Source, opts ...Option) (*Reader[T], error) {
	if src == nil {
		return nil, fmt.Errorf("%w: nil source", ErrInvalidOption)
	}
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, err
	}

	t := reflect.TypeFor[T]()
	o, err := cfg.mappingOptions(t)
	if err != nil {
		return nil, err
	}
	plan, err := mapping.NewReadPlan(t, o)
	if err != nil {
		return nil, err
	}
	return &Reader[T]{src: src, cfg: cfg, plan: plan, ptr: t.Kind() == reflect.Pointer}, nil
}

// Header returns the column names the records map to.
func (r *Reader[T]) Header() []string {
	return r.plan.Header()
}

// Read converts the remaining rows of the source. Blank rows are skipped.
// The first failing row aborts the read with a *mapping.ConversionError.
func (r *Reader[T]) Read(ctx context.Context) ([]T, error) {
	header, err := r.cfg.header(r.src)
	if errors.Is(err, sheet.ErrNoHeader) {
		r.cfg.logger.Debug("empty sheet")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	l := r.cfg.match(header, r.plan.Header())
	log := r.cfg.logger.WithField("type", r.plan.Type().String())
	if l.positional {
		log.Debug("no header matched, mapping columns by position")
	}

	if r.cfg.parallel > 1 {
		return r.readParallel(ctx, l)
	}

	var out []T
	err = r.cfg.scan(ctx, r.src, func(number int, cells []string) error {
		rec, err := r.record(l.row(number, cells, r.plan.Fields()))
		if err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.WithField("rows", len(out)).Debug("rows read")
	return out, nil
}

func (r *Reader[T]) readParallel(ctx context.Context, l *layout) ([]T, error) {
	var rows []*mapping.Row
	err := r.cfg.scan(ctx, r.src, func(number int, cells []string) error {
		rows = append(rows, l.row(number, cells, r.plan.Fields()))
		return nil
	})
	if err != nil {
		return nil, err
	}

	out := make([]T, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.parallel)
	for i, row := range rows {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rec, err := r.record(row)
			if err != nil {
				return err
			}
			out[i] = rec
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	r.cfg.logger.WithFields(logrus.Fields{
		"type":     r.plan.Type().String(),
		"rows":     len(out),
		"parallel": r.cfg.parallel,
	}).Debug("rows read")
	return out, nil
}

func (r *Reader[T]) record(row *mapping.Row) (T, error) {
	var zero T
	rv, err := r.plan.Record(row)
	if err != nil {
		return zero, err
	}
	if r.ptr {
		return rv.Addr().Interface().(T), nil
	}
	return rv.Interface().(T), nil
}

// ReadRows reads the sheet as generic rows keyed by header text. Header
// maps and ignore patterns apply; blank rows are skipped.
func ReadRows(src sheet.Source, opts ...Option) ([]map[string]string, error) {
	_, rows, err := ReadTable(src, opts...)
	return rows, err
}

// ReadTable is ReadRows that also returns the row keys in column order.
func ReadTable(src sheet.Source, opts ...Option) ([]string, []map[string]string, error) {
	cfg, err := newConfig(opts...)
	if err != nil {
		return nil, nil, err
	}
	header, err := cfg.header(src)
	if errors.Is(err, sheet.ErrNoHeader) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	keys := make([]string, len(header))
	var kept []string
	for i, text := range header {
		if name := cfg.column(text); name != "" && !cfg.ignored(text) {
			keys[i] = name
			kept = append(kept, name)
		}
	}

	var out []map[string]string
	err = cfg.scan(context.Background(), src, func(_ int, cells []string) error {
		m := make(map[string]string, len(keys))
		for i, key := range keys {
			if key == "" {
				continue
			}
			if i < len(cells) {
				m[key] = cells[i]
			} else {
				m[key] = ""
			}
		}
		out = append(out, m)
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return kept, out, nil
}
