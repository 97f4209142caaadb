package mapping

import (
	"fmt"
	"reflect"

	"github.com/zclconf/go-cty/cty"

	"github.com/genelet/sheetcast/utils"
)

// WriteStrategy reads one column's value out of a record.
type WriteStrategy interface {
	Analysis() *Analysis
	// Value returns the raw field value for handler strategies and the
	// rendered cell text for expression strategies. rv is an addressable
	// struct value of the record type.
	Value(rv reflect.Value) (any, error)
}

// fieldHandlerWriter reads the field directly; the plan stringifies it.
type fieldHandlerWriter struct {
	a *Analysis
}

func newFieldHandlerWriter(a *Analysis, _ *Env) (WriteStrategy, error) {
	return &fieldHandlerWriter{a: a}, nil
}

func (w *fieldHandlerWriter) Analysis() *Analysis {
	return w.a
}

func (w *fieldHandlerWriter) Value(rv reflect.Value) (any, error) {
	return w.a.field.Value(rv).Interface(), nil
}

// accessorHandlerWriter reads the field through its getter.
type accessorHandlerWriter struct {
	a *Analysis
}

func newAccessorHandlerWriter(a *Analysis, _ *Env) (WriteStrategy, error) {
	return &accessorHandlerWriter{a: a}, nil
}

func (w *accessorHandlerWriter) Analysis() *Analysis {
	return w.a
}

func (w *accessorHandlerWriter) Value(rv reflect.Value) (any, error) {
	v, err := w.a.field.Get(rv)
	if err != nil {
		return nil, err
	}
	return v.Interface(), nil
}

// expressionWriter evaluates an expression over the values of the
// record's fields, passed by name. The record itself is never exposed.
type expressionWriter struct {
	a     *Analysis
	expr  *utils.Expression
	scope []*Field
	self  func(reflect.Value) (reflect.Value, error)
}

func newFieldExpressionWriter(a *Analysis, env *Env) (WriteStrategy, error) {
	return newExpressionWriter(a, env, func(rv reflect.Value) (reflect.Value, error) {
		return a.field.Value(rv), nil
	})
}

func newAccessorExpressionWriter(a *Analysis, env *Env) (WriteStrategy, error) {
	return newExpressionWriter(a, env, a.field.Get)
}

func newExpressionWriter(a *Analysis, env *Env, self func(reflect.Value) (reflect.Value, error)) (WriteStrategy, error) {
	expr, err := utils.CompileExpression(a.expression, env.Functions)
	if err != nil {
		return nil, newFieldError(a.field, err)
	}

	byName := make(map[string]*Field, len(env.Scope))
	for _, f := range env.Scope {
		byName[f.Name] = f
	}
	var scope []*Field
	for _, name := range expr.RootNames() {
		if name == utils.ScopeValue {
			continue
		}
		f, ok := byName[name]
		if !ok {
			return nil, newFieldError(a.field, fmt.Errorf("expression %q refers to unknown field %q", a.expression, name))
		}
		scope = append(scope, f)
	}

	return &expressionWriter{a: a, expr: expr, scope: scope, self: self}, nil
}

func (w *expressionWriter) Analysis() *Analysis {
	return w.a
}

func (w *expressionWriter) Value(rv reflect.Value) (any, error) {
	vars := make(map[string]cty.Value, len(w.scope)+1)

	own, err := w.self(rv)
	if err != nil {
		return nil, err
	}
	if vars[utils.ScopeValue], err = utils.NativeToCty(own.Interface()); err != nil {
		return nil, err
	}

	for _, f := range w.scope {
		v := own
		if f.Name != w.a.field.Name {
			if v, err = f.Get(rv); err != nil {
				return nil, err
			}
		}
		cv, err := utils.NativeToCty(v.Interface())
		if err != nil {
			return nil, fmt.Errorf("variable %s: %w", f.Name, err)
		}
		vars[f.Name] = cv
	}

	return w.expr.EvaluateString(vars)
}
