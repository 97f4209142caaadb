package utils

import (
	"fmt"
	"math/big"
	"reflect"

	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/gocty"
)

var errorType = reflect.TypeFor[error]()

// NativeFunction wraps a plain Go func so expressions can call it.
//
// Arguments are converted to the func's parameter types; interface
// parameters receive the native form of the value (see CtyToNative). The
// func must return exactly one value, optionally followed or preceded by
// an error, which aborts the evaluation when non-nil.
//
//	fn, err := NativeFunction(strings.Repeat)
//	// repeat("ab", 2) == "abab"
func NativeFunction(fn any) (function.Function, error) {
	f := reflect.ValueOf(fn)
	if f.Kind() != reflect.Func || f.IsNil() {
		return function.Function{}, fmt.Errorf("native function must be a func, got %T", fn)
	}
	ft := f.Type()
	if ft.IsVariadic() {
		return function.Function{}, fmt.Errorf("native function %s must not be variadic", ft)
	}

	k := -1
	values := 0
	for i := 0; i < ft.NumOut(); i++ {
		if ft.Out(i) == errorType {
			if k >= 0 {
				return function.Function{}, fmt.Errorf("native function %s returns more than one error", ft)
			}
			k = i
			continue
		}
		values++
	}
	if values != 1 {
		return function.Function{}, fmt.Errorf("native function %s must return exactly one value", ft)
	}

	params := make([]function.Parameter, ft.NumIn())
	for i := range params {
		params[i] = function.Parameter{
			Name:      fmt.Sprintf("arg%d", i),
			Type:      cty.DynamicPseudoType,
			AllowNull: true,
		}
	}

	return function.New(&function.Spec{
		Params: params,
		Type:   function.StaticReturnType(cty.DynamicPseudoType),
		Impl: func(args []cty.Value, _ cty.Type) (cty.Value, error) {
			in := make([]reflect.Value, len(args))
			for i, arg := range args {
				v, err := argument(arg, ft.In(i))
				if err != nil {
					return cty.NilVal, function.NewArgError(i, err)
				}
				in[i] = v
			}

			outputs := f.Call(in)
			if k >= 0 && !outputs[k].IsNil() {
				return cty.NilVal, outputs[k].Interface().(error)
			}
			for i, output := range outputs {
				if i == k {
					continue
				}
				return NativeToCty(output.Interface())
			}
			return cty.NullVal(cty.DynamicPseudoType), nil
		},
	}), nil
}

func argument(arg cty.Value, typ reflect.Type) (reflect.Value, error) {
	if typ.Kind() == reflect.Interface {
		native, err := CtyToNative(arg)
		if err != nil {
			return reflect.Value{}, err
		}
		if native == nil {
			return reflect.Zero(typ), nil
		}
		return reflect.ValueOf(native), nil
	}
	v, err := ConvertCtyToFieldType(arg, typ)
	if err != nil {
		return reflect.Value{}, err
	}
	return reflect.ValueOf(v), nil
}

// CtyNumberToNative converts a cty number into the smallest fitting Go
// number type: int, int64 or float64.
func CtyNumberToNative(val cty.Value) (any, error) {
	v := val.AsBigFloat()
	if v.IsInt() {
		if _, accuracy := v.Int64(); accuracy == big.Exact {
			var x int64
			err := gocty.FromCtyValue(val, &x)
			if x > 0x7FFFFFFF || x < -0x80000000 {
				return x, err
			}
			return int(x), err
		}
	}
	var x float64
	err := gocty.FromCtyValue(val, &x)
	return x, err
}

// CtyToNative converts a cty.Value to a Go native type.
//
// Conversion rules:
//   - cty.String → string
//   - cty.Number → int, int64 or float64
//   - cty.Bool → bool
//   - cty.Object/Map → map[string]any
//   - cty.List/Tuple/Set → []any
//   - null → nil
//
// This is the inverse of NativeToCty for generic values.
func CtyToNative(val cty.Value) (any, error) {
	if val.IsNull() {
		return nil, nil
	}

	ty := val.Type()
	switch ty {
	case cty.String:
		return val.AsString(), nil
	case cty.Number:
		return CtyNumberToNative(val)
	case cty.Bool:
		return val.True(), nil
	default:
	}

	switch {
	case ty.IsObjectType(), ty.IsMapType():
		u := make(map[string]any)
		for k, v := range val.AsValueMap() {
			x, err := CtyToNative(v)
			if err != nil {
				return nil, err
			}
			u[k] = x
		}
		return u, nil
	case ty.IsListType(), ty.IsTupleType(), ty.IsSetType():
		var u []any
		for _, v := range val.AsValueSlice() {
			x, err := CtyToNative(v)
			if err != nil {
				return nil, err
			}
			u = append(u, x)
		}
		return u, nil
	default:
	}

	return nil, fmt.Errorf("value of type %s has no native form", ty.FriendlyName())
}
