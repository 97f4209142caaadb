// Package handler implements the type handler registry: a set of
// bidirectional string codecs keyed by the Go type each one owns.
//
// A Handler converts a value of its owned type to the text of a
// spreadsheet cell and back. Handlers are looked up by reflect.Type in a
// Registry, either strictly (exact type only) or leniently (exact type,
// then the pointer element and the registered interfaces the type
// implements, then the predeclared type of the same kind).
//
//	reg := handler.Default()
//	h, ok := reg.Get(reflect.TypeFor[decimal.Decimal]())
//	s, err := h.Write(decimal.RequireFromString("12.340"), handler.Context{})
//	// s == "12.34"
package handler

import (
	"errors"
	"fmt"
	"reflect"
	"time"
)

var (
	// ErrTypeMismatch is returned when a handler is registered under a type
	// other than the one it owns.
	ErrTypeMismatch = errors.New("handler type mismatch")

	// ErrNilHandler is returned when a nil handler or a nil type is registered.
	ErrNilHandler = errors.New("nil handler or type")

	// ErrValueType is returned when a handler receives a value it does not own.
	ErrValueType = errors.New("value does not match handler type")
)

// Context carries the per-field settings consulted by a handler at
// conversion time, so one handler instance serves every field of its type.
type Context struct {
	// Field is the Go name of the field being converted, for error messages.
	Field string
	// Target is the concrete type being read; interface handlers use it
	// to allocate the result.
	Target reflect.Type
	// Format is the layout from the field's format tag.
	Format string
	// Location is the time zone from the field's tz tag.
	Location *time.Location
}

// Handler is a bidirectional string codec for exactly one Go type.
type Handler interface {
	// Type returns the type the handler owns. It never changes.
	Type() reflect.Type
	// Write renders v as cell text.
	Write(v any, ctx Context) (string, error)
	// Read parses cell text into a value of the owned type.
	Read(s string, ctx Context) (any, error)
}

// Func adapts a pair of typed functions into a Handler owning T.
type Func[T any] struct {
	WriteFunc func(T, Context) (string, error)
	ReadFunc  func(string, Context) (T, error)
}

// NewFunc returns a Handler for T built from w and r.
func NewFunc[T any](w func(T, Context) (string, error), r func(string, Context) (T, error)) *Func[T] {
	return &Func[T]{WriteFunc: w, ReadFunc: r}
}

func (f *Func[T]) Type() reflect.Type {
	return reflect.TypeFor[T]()
}

func (f *Func[T]) Write(v any, ctx Context) (string, error) {
	if f.WriteFunc == nil {
		return "", fmt.Errorf("handler for %s cannot write", f.Type())
	}
	t, err := coerce[T](v)
	if err != nil {
		return "", err
	}
	return f.WriteFunc(t, ctx)
}

func (f *Func[T]) Read(s string, ctx Context) (any, error) {
	if f.ReadFunc == nil {
		return nil, fmt.Errorf("handler for %s cannot read", f.Type())
	}
	return f.ReadFunc(s, ctx)
}

// coerce converts v into T. Named types sharing T's kind (type Code int)
// are converted so the handler of the predeclared type can serve them.
func coerce[T any](v any) (T, error) {
	var zero T
	if t, ok := v.(T); ok {
		return t, nil
	}
	rv := reflect.ValueOf(v)
	target := reflect.TypeFor[T]()
	if !rv.IsValid() || rv.Kind() != target.Kind() || !rv.Type().ConvertibleTo(target) {
		return zero, fmt.Errorf("%w: %T is not %s", ErrValueType, v, target)
	}
	return rv.Convert(target).Interface().(T), nil
}
