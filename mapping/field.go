package mapping

import (
	"fmt"
	"reflect"
)

var errorType = reflect.TypeFor[error]()

// Field describes one mapped struct field. It is immutable once selected.
type Field struct {
	// Root is the record type the field was selected from.
	Root reflect.Type
	// Owner is the struct type that declares the field; it differs from
	// Root for fields promoted from embedded structs.
	Owner reflect.Type
	Name  string
	// Column is the header text, from the excel tag or the Go name.
	Column string
	Type   reflect.Type
	// Index is the path for reflect.Value.FieldByIndex from Root.
	Index []int
	Tags  Tags

	getter *reflect.Method
	setter *reflect.Method
}

// ID is the field identity: declaring type plus name.
func (f *Field) ID() string {
	return f.Owner.String() + "." + f.Name
}

// HasGetter reports whether *Root has a method GetName() returning the
// field type.
func (f *Field) HasGetter() bool {
	return f.getter != nil
}

// HasSetter reports whether *Root has a method SetName(v) accepting the
// field type.
func (f *Field) HasSetter() bool {
	return f.setter != nil
}

func (f *Field) String() string {
	return f.ID()
}

// Value reads the field directly. A nil embedded pointer on the path
// yields the zero value.
func (f *Field) Value(rv reflect.Value) reflect.Value {
	v, err := rv.FieldByIndexErr(f.Index)
	if err != nil {
		return reflect.Zero(f.Type)
	}
	return v
}

// Set stores v directly, allocating nil embedded pointers on the way.
func (f *Field) Set(rv reflect.Value, v reflect.Value) error {
	parent, _, err := f.parent(rv, true)
	if err != nil {
		return err
	}
	fv := parent.Field(f.Index[len(f.Index)-1])
	if !fv.CanSet() {
		return fmt.Errorf("field %s is not settable", f.ID())
	}
	fv.Set(v)
	return nil
}

// Get calls the getter. rv must be addressable. A nil embedded pointer on
// the path yields the zero value, as with Value.
func (f *Field) Get(rv reflect.Value) (reflect.Value, error) {
	if f.getter == nil {
		return f.Value(rv), nil
	}
	if _, ok, _ := f.parent(rv, false); !ok {
		return reflect.Zero(f.Type), nil
	}
	out := f.getter.Func.Call([]reflect.Value{rv.Addr()})
	if len(out) == 2 && !out[1].IsNil() {
		return reflect.Value{}, out[1].Interface().(error)
	}
	return out[0], nil
}

// Put calls the setter. rv must be addressable. Nil embedded pointers on
// the path are allocated first.
func (f *Field) Put(rv reflect.Value, v reflect.Value) error {
	if f.setter == nil {
		return f.Set(rv, v)
	}
	if _, _, err := f.parent(rv, true); err != nil {
		return err
	}
	out := f.setter.Func.Call([]reflect.Value{rv.Addr(), v})
	if len(out) == 1 && !out[0].IsNil() {
		return out[0].Interface().(error)
	}
	return nil
}

// parent walks the embedded structs on the path and returns the struct
// declaring the field. With alloc, nil embedded pointers are allocated;
// without it, ok is false at the first nil one.
func (f *Field) parent(rv reflect.Value, alloc bool) (reflect.Value, bool, error) {
	for _, x := range f.Index[:len(f.Index)-1] {
		rv = rv.Field(x)
		if rv.Kind() != reflect.Pointer {
			continue
		}
		if rv.IsNil() {
			if !alloc {
				return rv, false, nil
			}
			if !rv.CanSet() {
				return rv, false, fmt.Errorf("cannot allocate embedded %s of %s", rv.Type(), f.ID())
			}
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		rv = rv.Elem()
	}
	return rv, true, nil
}

// bindAccessors looks up GetName and SetName on *Root. Methods with the
// wrong shape are ignored.
func (f *Field) bindAccessors() {
	ptr := reflect.PointerTo(f.Root)
	if m, ok := ptr.MethodByName("Get" + f.Name); ok && isGetter(m.Type, f.Type) {
		f.getter = &m
	}
	if m, ok := ptr.MethodByName("Set" + f.Name); ok && isSetter(m.Type, f.Type) {
		f.setter = &m
	}
}

// isGetter matches func(*T) V and func(*T) (V, error).
func isGetter(mt, typ reflect.Type) bool {
	if mt.NumIn() != 1 || mt.NumOut() < 1 || mt.NumOut() > 2 {
		return false
	}
	if mt.NumOut() == 2 && mt.Out(1) != errorType {
		return false
	}
	return mt.Out(0) == typ
}

// isSetter matches func(*T, V) and func(*T, V) error.
func isSetter(mt, typ reflect.Type) bool {
	if mt.NumIn() != 2 || mt.NumOut() > 1 {
		return false
	}
	if mt.NumOut() == 1 && mt.Out(0) != errorType {
		return false
	}
	return mt.In(1) == typ
}

// addressable returns an addressable copy of rv when rv is not.
func addressable(rv reflect.Value) reflect.Value {
	if rv.CanAddr() {
		return rv
	}
	ptr := reflect.New(rv.Type())
	ptr.Elem().Set(rv)
	return ptr.Elem()
}
