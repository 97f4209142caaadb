package mapping

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/zclconf/go-cty/cty"

	"github.com/genelet/sheetcast/utils"
)

// Row is one data row handed to the read strategies.
type Row struct {
	// Number is the 1-based data row, not counting the header.
	Number int
	// Values holds the cell text of every mapped field, keyed by Go name.
	Values map[string]string
	// Columns holds the cell text of every column, keyed by header text.
	Columns map[string]string
}

// ReadStrategy converts one column of a row and stores the result.
type ReadStrategy interface {
	Analysis() *Analysis
	// Convert returns a value of the field type. ok is false when the
	// cell is empty and no default applies; the field is then left alone.
	Convert(row *Row) (v any, ok bool, err error)
	// Assign stores v in the field of rv, an addressable struct value.
	Assign(rv reflect.Value, v any) error
}

// handlerConversion parses the cell with the type handler.
type handlerConversion struct {
	a *Analysis
}

func (c handlerConversion) Analysis() *Analysis {
	return c.a
}

func (c handlerConversion) Convert(row *Row) (any, bool, error) {
	cell := row.Values[c.a.field.Name]
	if strings.TrimSpace(cell) == "" {
		if !c.a.defaults.IsSet() {
			return nil, false, nil
		}
		cell = c.a.defaults.Value
	}
	v, err := c.a.parse(cell)
	if err != nil {
		return nil, false, err
	}
	return v.Interface(), true, nil
}

// expressionConversion derives the value from an expression over the
// row: mapped fields by Go name, row by header text and value, the
// field's own cell.
type expressionConversion struct {
	a      *Analysis
	expr   *utils.Expression
	fields []string
	row    bool
}

func newExpressionConversion(a *Analysis, env *Env) (expressionConversion, error) {
	expr, err := utils.CompileExpression(a.expression, env.Functions)
	if err != nil {
		return expressionConversion{}, newFieldError(a.field, err)
	}

	mapped := make(map[string]bool, len(env.Mapped))
	for _, f := range env.Mapped {
		mapped[f.Name] = true
	}
	c := expressionConversion{a: a, expr: expr}
	for _, name := range expr.RootNames() {
		switch {
		case name == utils.ScopeValue:
		case name == utils.ScopeRow:
			c.row = true
		case mapped[name]:
			c.fields = append(c.fields, name)
		default:
			return expressionConversion{}, newFieldError(a.field, fmt.Errorf("expression %q refers to unknown field %q", a.expression, name))
		}
	}
	return c, nil
}

func (c expressionConversion) Analysis() *Analysis {
	return c.a
}

func (c expressionConversion) Convert(row *Row) (any, bool, error) {
	vars := make(map[string]cty.Value, len(c.fields)+2)
	vars[utils.ScopeValue] = cty.StringVal(row.Values[c.a.field.Name])
	for _, name := range c.fields {
		vars[name] = cty.StringVal(row.Values[name])
	}
	if c.row {
		columns := make(map[string]cty.Value, len(row.Columns))
		for k, v := range row.Columns {
			columns[k] = cty.StringVal(v)
		}
		vars[utils.ScopeRow] = cty.ObjectVal(columns)
	}

	cv, err := c.expr.Evaluate(vars)
	if err != nil {
		return nil, false, err
	}
	if cv.IsNull() || (cv.Type() == cty.String && cv.IsKnown() && strings.TrimSpace(cv.AsString()) == "") {
		if !c.a.defaults.IsSet() {
			return nil, false, nil
		}
		cv = cty.StringVal(c.a.defaults.Value)
	}

	v, err := c.coerce(cv)
	if err != nil {
		return nil, false, err
	}
	return v.Interface(), true, nil
}

// coerce turns an expression result into the field type. Text goes
// through the handler when there is one; other results are converted by
// go-cty, falling back to their text and the handler.
func (c expressionConversion) coerce(cv cty.Value) (reflect.Value, error) {
	if c.a.handler != nil && cv.Type() == cty.String && cv.IsKnown() {
		return c.a.parse(cv.AsString())
	}
	native, err := utils.ConvertCtyToFieldType(cv, indirect(c.a.field.Type))
	if err == nil {
		return fit(native, c.a.field.Type)
	}
	if c.a.handler == nil {
		return reflect.Value{}, err
	}
	s, serr := utils.CtyToString(cv)
	if serr != nil {
		return reflect.Value{}, serr
	}
	return c.a.parse(s)
}

// fieldAssignment stores the value directly.
type fieldAssignment struct {
	f *Field
}

func (s fieldAssignment) Assign(rv reflect.Value, v any) error {
	val, err := fit(v, s.f.Type)
	if err != nil {
		return err
	}
	return s.f.Set(rv, val)
}

// setterAssignment stores the value through SetX.
type setterAssignment struct {
	f *Field
}

func (s setterAssignment) Assign(rv reflect.Value, v any) error {
	val, err := fit(v, s.f.Type)
	if err != nil {
		return err
	}
	return s.f.Put(rv, val)
}

type fieldHandlerReader struct {
	handlerConversion
	fieldAssignment
}

type setterHandlerReader struct {
	handlerConversion
	setterAssignment
}

type fieldExpressionReader struct {
	expressionConversion
	fieldAssignment
}

type setterExpressionReader struct {
	expressionConversion
	setterAssignment
}

func newFieldHandlerReader(a *Analysis, _ *Env) (ReadStrategy, error) {
	return &fieldHandlerReader{handlerConversion{a}, fieldAssignment{a.field}}, nil
}

func newSetterHandlerReader(a *Analysis, _ *Env) (ReadStrategy, error) {
	return &setterHandlerReader{handlerConversion{a}, setterAssignment{a.field}}, nil
}

func newFieldExpressionReader(a *Analysis, env *Env) (ReadStrategy, error) {
	c, err := newExpressionConversion(a, env)
	if err != nil {
		return nil, err
	}
	return &fieldExpressionReader{c, fieldAssignment{a.field}}, nil
}

func newSetterExpressionReader(a *Analysis, env *Env) (ReadStrategy, error) {
	c, err := newExpressionConversion(a, env)
	if err != nil {
		return nil, err
	}
	return &setterExpressionReader{c, setterAssignment{a.field}}, nil
}
