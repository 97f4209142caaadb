package mapping

import (
	"fmt"
	"reflect"
)

// Creator builds a record from the converted values of a row, keyed by Go
// field name. Fields it does not consume are assigned afterwards by their
// read strategies.
type Creator interface {
	// Create returns an addressable struct value of the record type.
	Create(values map[string]any) (reflect.Value, error)
	// Consumes reports whether the field is set by Create itself.
	Consumes(field string) bool
}

// Binder is implemented by creators that validate themselves against the
// selected fields when a read plan is built.
type Binder interface {
	Bind(fields []*Field) error
}

type structCreator struct {
	t reflect.Type
}

// NewCreator returns the default creator: a zero record whose fields are
// all assigned by the read strategies.
func NewCreator(t reflect.Type) Creator {
	return structCreator{t: indirect(t)}
}

func (c structCreator) Create(map[string]any) (reflect.Value, error) {
	return reflect.New(c.t).Elem(), nil
}

func (structCreator) Consumes(string) bool {
	return false
}

// FuncCreator builds records with a constructor or factory func whose
// parameters are bound to fields by name.
//
//	func NewOrder(id int64, name string) *Order
//	c, err := NewFuncCreator(reflect.TypeFor[Order](), NewOrder, "ID", "Name")
type FuncCreator struct {
	t      reflect.Type
	fn     reflect.Value
	params []string
	bound  map[string]bool
}

// NewFuncCreator validates fn against record type t. fn must take one
// parameter per name in params and return T, *T, (T, error) or (*T, error).
func NewFuncCreator(t reflect.Type, fn any, params ...string) (*FuncCreator, error) {
	if t == nil {
		return nil, fmt.Errorf("%w: nil record type", ErrCreator)
	}
	t = indirect(t)
	fv := reflect.ValueOf(fn)
	if fv.Kind() != reflect.Func || fv.IsNil() {
		return nil, fmt.Errorf("%w: %T is not a func", ErrCreator, fn)
	}
	ft := fv.Type()
	if ft.IsVariadic() {
		return nil, fmt.Errorf("%w: %s is variadic", ErrCreator, ft)
	}
	if ft.NumIn() != len(params) {
		return nil, fmt.Errorf("%w: %s takes %d parameters, %d names given", ErrCreator, ft, ft.NumIn(), len(params))
	}
	switch ft.NumOut() {
	case 1:
	case 2:
		if ft.Out(1) != errorType {
			return nil, fmt.Errorf("%w: second result of %s is not error", ErrCreator, ft)
		}
	default:
		return nil, fmt.Errorf("%w: %s must return the record", ErrCreator, ft)
	}
	if out := ft.Out(0); out != t && out != reflect.PointerTo(t) {
		return nil, fmt.Errorf("%w: %s does not return %s", ErrCreator, ft, t)
	}

	bound := make(map[string]bool, len(params))
	for _, name := range params {
		if bound[name] {
			return nil, fmt.Errorf("%w: field %q bound twice", ErrCreator, name)
		}
		bound[name] = true
	}
	return &FuncCreator{t: t, fn: fv, params: params, bound: bound}, nil
}

// Bind checks that every parameter names a selected field whose type the
// parameter accepts.
func (c *FuncCreator) Bind(fields []*Field) error {
	byName := make(map[string]*Field, len(fields))
	for _, f := range fields {
		byName[f.Name] = f
	}
	ft := c.fn.Type()
	for i, name := range c.params {
		f, ok := byName[name]
		if !ok {
			return fmt.Errorf("%w: parameter %d names unknown field %q", ErrCreator, i, name)
		}
		if !f.Type.AssignableTo(ft.In(i)) {
			return fmt.Errorf("%w: parameter %d is %s, field %s is %s", ErrCreator, i, ft.In(i), name, f.Type)
		}
	}
	return nil
}

func (c *FuncCreator) Consumes(field string) bool {
	return c.bound[field]
}

// Create calls the func. Fields without a value pass the zero value.
func (c *FuncCreator) Create(values map[string]any) (reflect.Value, error) {
	ft := c.fn.Type()
	args := make([]reflect.Value, len(c.params))
	for i, name := range c.params {
		arg, err := fit(values[name], ft.In(i))
		if err != nil {
			return reflect.Value{}, fmt.Errorf("parameter %s: %w", name, err)
		}
		args[i] = arg
	}

	out := c.fn.Call(args)
	if len(out) == 2 && !out[1].IsNil() {
		return reflect.Value{}, out[1].Interface().(error)
	}
	result := out[0]
	if result.Kind() == reflect.Pointer {
		if result.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: %s returned nil", ErrCreator, ft)
		}
		return result.Elem(), nil
	}
	return addressable(result), nil
}
