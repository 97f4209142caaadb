package mapping

import (
	"fmt"
	"reflect"

	"github.com/sirupsen/logrus"
	"github.com/zclconf/go-cty/cty/function"

	"github.com/genelet/sheetcast/handler"
	"github.com/genelet/sheetcast/internal/lang"
)

// Options configures plan building.
type Options struct {
	// Registry resolves type handlers; nil means handler.Default().
	Registry *handler.Registry
	// Converters are the handlers named by converter tags.
	Converters map[string]handler.Handler
	// Default, when not nil, overrides every other default value.
	Default *string
	// Functions are added to the built-in expression functions.
	Functions map[string]function.Function
	// Creator builds records on the read path; nil means NewCreator.
	Creator Creator
	// BaseDir resolves relative paths in expression functions.
	BaseDir string
	Logger  logrus.FieldLogger
}

func (o Options) logger() logrus.FieldLogger {
	if o.Logger != nil {
		return o.Logger
	}
	return logrus.StandardLogger()
}

func (o Options) analyzerOptions() []AnalyzerOption {
	opts := []AnalyzerOption{WithConverters(o.Converters), WithLogger(o.logger())}
	if o.Default != nil {
		opts = append(opts, WithDefaultValue(*o.Default))
	}
	return opts
}

func (o Options) functions() map[string]function.Function {
	dir := o.BaseDir
	if dir == "" {
		dir = "."
	}
	funcs := lang.CoreFunctions(dir)
	for name, fn := range o.Functions {
		funcs[name] = fn
	}
	return funcs
}

// selectFor applies the Model policy of t to SelectFields.
func selectFor(t reflect.Type) ([]*Field, error) {
	model := ModelOf(t)
	return SelectFields(t, !model.ExcludeEmbedded, model.ExplicitOnly)
}

// WritePlan turns records into rows of cell text.
type WritePlan struct {
	typ        reflect.Type
	fields     []*Field
	strategies []WriteStrategy
}

// NewWritePlan selects, analyzes and resolves every field of t.
func NewWritePlan(t reflect.Type, o Options) (*WritePlan, error) {
	fields, err := selectFor(t)
	if err != nil {
		return nil, err
	}
	analyses, err := NewWriteAnalyzer(o.Registry, o.analyzerOptions()...).Analyze(fields)
	if err != nil {
		return nil, err
	}

	env := &Env{Functions: o.functions(), Scope: ScopeFields(t), Mapped: fields}
	strategies := make([]WriteStrategy, len(analyses))
	for i, a := range analyses {
		if strategies[i], err = ResolveWrite(a, env); err != nil {
			return nil, err
		}
	}

	o.logger().WithFields(logrus.Fields{"type": indirect(t).String(), "columns": len(fields)}).Debug("write plan built")
	return &WritePlan{typ: indirect(t), fields: fields, strategies: strategies}, nil
}

// Type returns the record struct type.
func (p *WritePlan) Type() reflect.Type {
	return p.typ
}

// Fields returns the mapped fields in column order.
func (p *WritePlan) Fields() []*Field {
	return p.fields
}

// Header returns the column names.
func (p *WritePlan) Header() []string {
	return header(p.fields)
}

// Analyses returns the field analyses in column order.
func (p *WritePlan) Analyses() []*Analysis {
	out := make([]*Analysis, len(p.strategies))
	for i, s := range p.strategies {
		out[i] = s.Analysis()
	}
	return out
}

// Cells renders one record. Empty cells take the field default, once,
// after conversion. row numbers the record in error messages.
func (p *WritePlan) Cells(record any, row int) ([]string, error) {
	rv, ok := deref(reflect.ValueOf(record))
	if !ok {
		return nil, fmt.Errorf("row %d: nil record", row)
	}
	if rv.Type() != p.typ {
		return nil, fmt.Errorf("row %d: %w: %s is not %s", row, ErrValueType, rv.Type(), p.typ)
	}
	rv = addressable(rv)

	cells := make([]string, len(p.strategies))
	for i, s := range p.strategies {
		a := s.Analysis()
		cell, err := p.cell(s, rv)
		if err != nil {
			return nil, &ConversionError{Field: a.field.Name, Column: a.field.Column, Row: row, Err: err}
		}
		if cell == "" && a.defaults.IsSet() {
			cell = a.defaults.Value
		}
		cells[i] = cell
	}
	return cells, nil
}

func (p *WritePlan) cell(s WriteStrategy, rv reflect.Value) (string, error) {
	v, err := s.Value(rv)
	if err != nil {
		return "", err
	}
	a := s.Analysis()
	if a.flags.Has(FlagExpression) {
		return v.(string), nil
	}
	return a.format(v)
}

// ReadPlan turns rows of cell text into records.
type ReadPlan struct {
	typ        reflect.Type
	fields     []*Field
	strategies []ReadStrategy
	creator    Creator
}

// NewReadPlan selects, analyzes and resolves every field of t, and binds
// the creator.
func NewReadPlan(t reflect.Type, o Options) (*ReadPlan, error) {
	fields, err := selectFor(t)
	if err != nil {
		return nil, err
	}
	analyses, err := NewReadAnalyzer(o.Registry, o.analyzerOptions()...).Analyze(fields)
	if err != nil {
		return nil, err
	}

	env := &Env{Functions: o.functions(), Scope: ScopeFields(t), Mapped: fields}
	strategies := make([]ReadStrategy, len(analyses))
	for i, a := range analyses {
		if strategies[i], err = ResolveRead(a, env); err != nil {
			return nil, err
		}
	}

	creator := o.Creator
	if creator == nil {
		creator = NewCreator(t)
	}
	if b, ok := creator.(Binder); ok {
		if err := b.Bind(fields); err != nil {
			return nil, err
		}
	}

	o.logger().WithFields(logrus.Fields{"type": indirect(t).String(), "columns": len(fields)}).Debug("read plan built")
	return &ReadPlan{typ: indirect(t), fields: fields, strategies: strategies, creator: creator}, nil
}

// Type returns the record struct type.
func (p *ReadPlan) Type() reflect.Type {
	return p.typ
}

// Fields returns the mapped fields in column order.
func (p *ReadPlan) Fields() []*Field {
	return p.fields
}

// Header returns the column names.
func (p *ReadPlan) Header() []string {
	return header(p.fields)
}

// Analyses returns the field analyses in column order.
func (p *ReadPlan) Analyses() []*Analysis {
	out := make([]*Analysis, len(p.strategies))
	for i, s := range p.strategies {
		out[i] = s.Analysis()
	}
	return out
}

// Record converts a row and builds the record, returned as an addressable
// struct value.
func (p *ReadPlan) Record(row *Row) (reflect.Value, error) {
	values := make(map[string]any, len(p.strategies))
	present := make([]bool, len(p.strategies))
	for i, s := range p.strategies {
		f := s.Analysis().field
		v, ok, err := s.Convert(row)
		if err != nil {
			return reflect.Value{}, &ConversionError{Field: f.Name, Column: f.Column, Row: row.Number, Err: err}
		}
		if ok {
			values[f.Name] = v
			present[i] = true
		}
	}

	rv, err := p.creator.Create(values)
	if err != nil {
		return reflect.Value{}, fmt.Errorf("row %d: %w", row.Number, err)
	}

	for i, s := range p.strategies {
		f := s.Analysis().field
		if !present[i] || p.creator.Consumes(f.Name) {
			continue
		}
		if err := s.Assign(rv, values[f.Name]); err != nil {
			return reflect.Value{}, &ConversionError{Field: f.Name, Column: f.Column, Row: row.Number, Err: err}
		}
	}
	return rv, nil
}

func header(fields []*Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Column
	}
	return out
}
