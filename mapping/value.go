package mapping

import (
	"fmt"
	"reflect"
	"strings"
)

// format renders a raw field value with the field's handler. Nil pointers
// and nil slices render as the empty string.
func (a *Analysis) format(v any) (string, error) {
	rv, ok := deref(reflect.ValueOf(v))
	if !ok {
		return "", nil
	}
	if !a.elements {
		return a.handler.Write(rv.Interface(), a.context)
	}

	parts := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		elem, ok := deref(rv.Index(i))
		if !ok {
			parts = append(parts, "")
			continue
		}
		s, err := a.handler.Write(elem.Interface(), a.context)
		if err != nil {
			return "", fmt.Errorf("element %d: %w", i, err)
		}
		parts = append(parts, s)
	}
	return strings.Join(parts, a.field.Tags.Sep), nil
}

// parse converts cell text into a value of the field type.
func (a *Analysis) parse(s string) (reflect.Value, error) {
	if !a.elements {
		v, err := a.handler.Read(s, a.context)
		if err != nil {
			return reflect.Value{}, err
		}
		return fit(v, a.field.Type)
	}

	container := indirect(a.field.Type)
	var parts []string
	for _, part := range strings.Split(s, a.field.Tags.Sep) {
		if part = strings.TrimSpace(part); part != "" {
			parts = append(parts, part)
		}
	}

	var out reflect.Value
	if container.Kind() == reflect.Array {
		if len(parts) > container.Len() {
			return reflect.Value{}, fmt.Errorf("%d elements do not fit %s", len(parts), container)
		}
		out = reflect.New(container).Elem()
	} else {
		out = reflect.MakeSlice(container, len(parts), len(parts))
	}
	for i, part := range parts {
		v, err := a.handler.Read(part, a.context)
		if err != nil {
			return reflect.Value{}, fmt.Errorf("element %d: %w", i, err)
		}
		elem, err := fit(v, container.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		out.Index(i).Set(elem)
	}
	return fit(out.Interface(), a.field.Type)
}

// fit converts v into a value of type t. Pointers are allocated, and
// named types sharing the kind of v are converted.
func fit(v any, t reflect.Type) (reflect.Value, error) {
	rv := reflect.ValueOf(v)
	if !rv.IsValid() {
		return reflect.Zero(t), nil
	}
	if rv.Type().AssignableTo(t) {
		out := reflect.New(t).Elem()
		out.Set(rv)
		return out, nil
	}
	if t.Kind() == reflect.Pointer {
		inner, err := fit(v, t.Elem())
		if err != nil {
			return reflect.Value{}, err
		}
		ptr := reflect.New(t.Elem())
		ptr.Elem().Set(inner)
		return ptr, nil
	}
	if rv.Kind() == reflect.Pointer && !rv.IsNil() {
		return fit(rv.Elem().Interface(), t)
	}
	if rv.Kind() == t.Kind() && rv.Type().ConvertibleTo(t) {
		return rv.Convert(t), nil
	}
	return reflect.Value{}, fmt.Errorf("%w: %s into %s", ErrValueType, rv.Type(), t)
}

// deref follows pointers and interfaces; ok is false for nil.
func deref(rv reflect.Value) (reflect.Value, bool) {
	for rv.IsValid() && (rv.Kind() == reflect.Pointer || rv.Kind() == reflect.Interface) {
		if rv.IsNil() {
			return rv, false
		}
		rv = rv.Elem()
	}
	if !rv.IsValid() {
		return rv, false
	}
	if (rv.Kind() == reflect.Slice || rv.Kind() == reflect.Map) && rv.IsNil() {
		return rv, false
	}
	return rv, true
}
