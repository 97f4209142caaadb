package mapping

import (
	"fmt"
	"reflect"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/genelet/sheetcast/handler"
)

// Direction is the conversion direction of an analysis.
type Direction int

const (
	Write Direction = iota
	Read
)

func (d Direction) String() string {
	if d == Read {
		return "read"
	}
	return "write"
}

// Analyzer computes one Analysis per field.
type Analyzer struct {
	direction  Direction
	registry   *handler.Registry
	converters map[string]handler.Handler
	option     *string
	logger     logrus.FieldLogger
}

// AnalyzerOption configures an Analyzer.
type AnalyzerOption func(*Analyzer)

// WithDefaultValue sets a default that overrides every tag default.
func WithDefaultValue(s string) AnalyzerOption {
	return func(a *Analyzer) {
		a.option = &s
	}
}

// WithConverters names the handlers usable in converter tags.
func WithConverters(converters map[string]handler.Handler) AnalyzerOption {
	return func(a *Analyzer) {
		a.converters = converters
	}
}

// WithLogger sets the logger for resolution details.
func WithLogger(logger logrus.FieldLogger) AnalyzerOption {
	return func(a *Analyzer) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// NewWriteAnalyzer returns an analyzer for the write path. A nil registry
// means handler.Default().
func NewWriteAnalyzer(registry *handler.Registry, opts ...AnalyzerOption) *Analyzer {
	return newAnalyzer(Write, registry, opts)
}

// NewReadAnalyzer returns an analyzer for the read path.
func NewReadAnalyzer(registry *handler.Registry, opts ...AnalyzerOption) *Analyzer {
	return newAnalyzer(Read, registry, opts)
}

func newAnalyzer(dir Direction, registry *handler.Registry, opts []AnalyzerOption) *Analyzer {
	if registry == nil {
		registry = handler.Default()
	}
	a := &Analyzer{
		direction: dir,
		registry:  registry,
		logger:    logrus.StandardLogger(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Direction returns the path the analyzer serves.
func (a *Analyzer) Direction() Direction {
	return a.direction
}

// Analyze returns one Analysis per field, in order. All fields must come
// from the same record type.
func (a *Analyzer) Analyze(fields []*Field) ([]*Analysis, error) {
	if len(fields) == 0 {
		return nil, ErrNoFields
	}
	model := ModelOf(fields[0].Root)

	analyses := make([]*Analysis, 0, len(fields))
	for _, f := range fields {
		an, err := a.analyze(f, model)
		if err != nil {
			return nil, err
		}
		analyses = append(analyses, an)
	}
	return analyses, nil
}

func (a *Analyzer) analyze(f *Field, model Model) (*Analysis, error) {
	log := a.logger.WithFields(logrus.Fields{"type": f.Root.String(), "field": f.Name, "direction": a.direction.String()})

	b := newAnalysisBuilder(f, a.direction).defaults(a.defaultValue(f, model))

	expr := f.Tags.Write
	if a.direction == Read {
		expr = f.Tags.Read
	}
	if expr != "" {
		b.flags(FlagExpression).expression(expr)
	}

	if f.Tags.Accessor || model.Accessors {
		if a.hasAccessor(f) {
			b.flags(FlagAccessor)
		} else {
			log.Debug("accessor method not found, using field access")
		}
	}

	ctx := handler.Context{Field: f.Name, Format: f.Tags.Format}
	if f.Tags.TZ != "" {
		loc, err := time.LoadLocation(f.Tags.TZ)
		if err != nil {
			return nil, newFieldError(f, err)
		}
		ctx.Location = loc
	}

	// The result type of a write expression is only known once it runs.
	if a.direction == Write && expr != "" {
		ctx.Target = indirect(f.Type)
		return b.target(ctx.Target, false).context(ctx).build(), nil
	}

	h, valueType, elements, err := a.lookup(f)
	switch {
	case err == nil:
		b.handler(h)
	case expr != "":
		log.WithError(err).Debug("expression field has no type handler")
		valueType, elements = indirect(f.Type), false
	default:
		return nil, newFieldError(f, err)
	}
	ctx.Target = valueType

	an := b.target(valueType, elements).context(ctx).build()
	log.WithField("flags", an.Flags().String()).Debug("field analyzed")
	return an, nil
}

// defaultValue applies option > column > model precedence.
func (a *Analyzer) defaultValue(f *Field, model Model) DefaultValue {
	switch {
	case a.option != nil:
		return DefaultValue{Value: *a.option, Source: SourceOption}
	case f.Tags.HasDefault && f.Tags.Default != "":
		return DefaultValue{Value: f.Tags.Default, Source: SourceColumn}
	case model.HasDefault && model.Default != "":
		return DefaultValue{Value: model.Default, Source: SourceModel}
	default:
		return DefaultValue{}
	}
}

func (a *Analyzer) hasAccessor(f *Field) bool {
	if a.direction == Read {
		return f.HasSetter()
	}
	return f.HasGetter()
}

// lookup finds the handler of the field type, or of its element type for
// slices and arrays without a handler of their own.
func (a *Analyzer) lookup(f *Field) (handler.Handler, reflect.Type, bool, error) {
	typ := indirect(f.Type)
	var elem reflect.Type
	if typ.Kind() == reflect.Slice || typ.Kind() == reflect.Array {
		elem = indirect(typ.Elem())
	}

	if name := f.Tags.Converter; name != "" {
		h, ok := a.converters[name]
		if !ok || h == nil {
			return nil, nil, false, fmt.Errorf("%w: unknown converter %q", ErrNoHandler, name)
		}
		switch h.Type() {
		case typ:
			return h, typ, false, nil
		case elem:
			return h, elem, true, nil
		}
		return nil, nil, false, fmt.Errorf("%w: converter %q owns %s, field is %s", handler.ErrTypeMismatch, name, h.Type(), f.Type)
	}

	if h, ok := a.registry.Get(typ); ok {
		return h, typ, false, nil
	}
	if elem != nil {
		if h, ok := a.registry.Get(elem); ok {
			return h, elem, true, nil
		}
	}
	return nil, nil, false, fmt.Errorf("%w for %s", ErrNoHandler, f.Type)
}

func indirect(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	return t
}
