package mapping

import (
	"reflect"
	"strings"

	"github.com/genelet/sheetcast/handler"
)

// Flags is the capability bitmask of a field.
type Flags uint8

const (
	// FlagExpression marks a field converted by an expression instead of
	// its type handler.
	FlagExpression Flags = 1 << iota
	// FlagAccessor marks a field accessed through GetX/SetX instead of
	// directly.
	FlagAccessor
)

// Has reports whether every bit of x is set.
func (f Flags) Has(x Flags) bool {
	return f&x == x
}

func (f Flags) String() string {
	var parts []string
	if f.Has(FlagExpression) {
		parts = append(parts, "expression")
	} else {
		parts = append(parts, "handler")
	}
	if f.Has(FlagAccessor) {
		parts = append(parts, "accessor")
	} else {
		parts = append(parts, "field")
	}
	return strings.Join(parts, "|")
}

// Source tells where a default value came from.
type Source int

const (
	SourceNone Source = iota
	SourceModel
	SourceColumn
	SourceOption
)

var sourceNames = [...]string{"none", "model", "column", "option"}

func (s Source) String() string {
	if s < 0 || int(s) >= len(sourceNames) {
		return "unknown"
	}
	return sourceNames[s]
}

// DefaultValue is the text substituted for an empty cell.
type DefaultValue struct {
	Value  string
	Source Source
}

// IsSet reports whether a default applies.
func (d DefaultValue) IsSet() bool {
	return d.Source != SourceNone
}

// Analysis is the immutable conversion plan of one field in one
// direction.
type Analysis struct {
	field      *Field
	direction  Direction
	flags      Flags
	defaults   DefaultValue
	handler    handler.Handler
	context    handler.Context
	valueType  reflect.Type
	elements   bool
	expression string
}

func (a *Analysis) Field() *Field            { return a.field }
func (a *Analysis) Direction() Direction     { return a.direction }
func (a *Analysis) Flags() Flags             { return a.flags }
func (a *Analysis) Default() DefaultValue    { return a.defaults }
func (a *Analysis) Context() handler.Context { return a.context }

// Handler returns the resolved type handler. Expression fields may have
// none.
func (a *Analysis) Handler() (handler.Handler, bool) {
	return a.handler, a.handler != nil
}

// Expression returns the expression text of expression fields.
func (a *Analysis) Expression() string {
	return a.expression
}

// ValueType is the type the handler converts: the field type without
// pointers, or the element type of slice fields.
func (a *Analysis) ValueType() reflect.Type {
	return a.valueType
}

// Elements reports whether the cell holds the separated elements of a
// slice field.
func (a *Analysis) Elements() bool {
	return a.elements
}

// analysisBuilder collects the facets of an Analysis before freezing it.
type analysisBuilder struct {
	a Analysis
}

func newAnalysisBuilder(f *Field, dir Direction) *analysisBuilder {
	return &analysisBuilder{a: Analysis{field: f, direction: dir}}
}

func (b *analysisBuilder) flags(bits Flags) *analysisBuilder {
	b.a.flags |= bits
	return b
}

func (b *analysisBuilder) defaults(d DefaultValue) *analysisBuilder {
	b.a.defaults = d
	return b
}

func (b *analysisBuilder) expression(src string) *analysisBuilder {
	b.a.expression = src
	return b
}

func (b *analysisBuilder) target(valueType reflect.Type, elements bool) *analysisBuilder {
	b.a.valueType = valueType
	b.a.elements = elements
	return b
}

func (b *analysisBuilder) handler(h handler.Handler) *analysisBuilder {
	b.a.handler = h
	return b
}

func (b *analysisBuilder) context(ctx handler.Context) *analysisBuilder {
	b.a.context = ctx
	return b
}

func (b *analysisBuilder) build() *Analysis {
	a := b.a
	return &a
}
