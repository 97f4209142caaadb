package utils

import (
	"encoding"
	"fmt"
	"math/big"
	"reflect"
	"time"

	"github.com/shopspring/decimal"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/convert"
	"github.com/zclconf/go-cty/cty/gocty"
	ctyjson "github.com/zclconf/go-cty/cty/json"
)

var (
	bigIntType   = reflect.TypeFor[big.Int]()
	bigFloatType = reflect.TypeFor[big.Float]()
	stringerType = reflect.TypeFor[fmt.Stringer]()
)

// NativeToCty converts a Go value into a cty.Value for expression scopes.
//
// Handles conversion of:
//   - nil and nil pointers → null
//   - decimal.Decimal, big.Int, big.Float → cty.Number (exact)
//   - time.Time → RFC 3339 string, the form formatdate expects
//   - encoding.TextMarshaler → its text, also on the pointer receiver
//   - fmt.Stringer on the pointer receiver (url.URL) → its text
//   - map[string]any → cty.Object, []any → cty.Tuple
//   - other primitives, slices and maps via gocty
//
// Values gocty cannot describe fall back to their fmt.Stringer or %v text.
func NativeToCty(item any) (cty.Value, error) {
	if item == nil {
		return cty.NullVal(cty.DynamicPseudoType), nil
	}

	rv := reflect.ValueOf(item)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return cty.NullVal(cty.DynamicPseudoType), nil
		}
		if rv.Type() == reflect.PointerTo(bigIntType) || rv.Type() == reflect.PointerTo(bigFloatType) {
			break
		}
		rv = rv.Elem()
	}
	item = rv.Interface()

	switch t := item.(type) {
	case cty.Value:
		return t, nil
	case decimal.Decimal:
		return cty.ParseNumberVal(t.String())
	case *big.Int:
		return cty.NumberVal(new(big.Float).SetInt(t)), nil
	case big.Int:
		return cty.NumberVal(new(big.Float).SetInt(&t)), nil
	case *big.Float:
		return cty.NumberVal(t), nil
	case big.Float:
		return cty.NumberVal(&t), nil
	case time.Time:
		if t.IsZero() {
			return cty.NullVal(cty.String), nil
		}
		return cty.StringVal(t.Format(time.RFC3339)), nil
	case encoding.TextMarshaler:
		b, err := t.MarshalText()
		if err != nil {
			return cty.NilVal, err
		}
		return cty.StringVal(string(b)), nil
	case map[string]any:
		hash := make(map[string]cty.Value)
		for k, v := range t {
			ct, err := NativeToCty(v)
			if err != nil {
				return cty.NilVal, err
			}
			hash[k] = ct
		}
		return cty.ObjectVal(hash), nil
	case []any:
		var arr []cty.Value
		for _, v := range t {
			ct, err := NativeToCty(v)
			if err != nil {
				return cty.NilVal, err
			}
			arr = append(arr, ct)
		}
		if len(arr) == 0 {
			return cty.EmptyTupleVal, nil
		}
		return cty.TupleVal(arr), nil
	case map[string]string:
		if len(t) == 0 {
			return cty.MapValEmpty(cty.String), nil
		}
		hash := make(map[string]cty.Value, len(t))
		for k, v := range t {
			hash[k] = cty.StringVal(v)
		}
		return cty.ObjectVal(hash), nil
	default:
	}

	if v, ok, err := pointerText(rv); ok {
		return v, err
	}
	if rv.Kind() == reflect.Struct {
		return stringVal(item), nil
	}
	typ, err := gocty.ImpliedType(item)
	if err != nil {
		return stringVal(item), nil
	}
	return gocty.ToCtyValue(item, typ)
}

// pointerText renders values whose TextMarshaler or Stringer is declared
// on the pointer receiver, such as url.URL.
func pointerText(rv reflect.Value) (cty.Value, bool, error) {
	ptr := reflect.New(rv.Type())
	ptr.Elem().Set(rv)
	switch t := ptr.Interface().(type) {
	case encoding.TextMarshaler:
		b, err := t.MarshalText()
		if err != nil {
			return cty.NilVal, true, err
		}
		return cty.StringVal(string(b)), true, nil
	case fmt.Stringer:
		if rv.Type().Implements(stringerType) {
			break
		}
		return cty.StringVal(t.String()), true, nil
	}
	return cty.NilVal, false, nil
}

func stringVal(item any) cty.Value {
	if s, ok := item.(fmt.Stringer); ok {
		return cty.StringVal(s.String())
	}
	return cty.StringVal(fmt.Sprint(item))
}

// CtyToString renders an evaluated expression result as cell text.
// Null becomes the empty string, primitives use cty's own string
// conversion and collections are rendered as JSON.
func CtyToString(val cty.Value) (string, error) {
	if !val.IsWhollyKnown() {
		return "", fmt.Errorf("expression result is unknown")
	}
	if val.IsNull() {
		return "", nil
	}
	ty := val.Type()
	if ty.IsPrimitiveType() {
		str, err := convert.Convert(val, cty.String)
		if err != nil {
			return "", err
		}
		return str.AsString(), nil
	}
	b, err := ctyjson.Marshal(val, ty)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// ConvertCtyToFieldType converts a cty.Value to a specific Go type using reflection.
// This function performs type-safe conversion from an evaluated expression
// to any Go type, handling all numeric type variants correctly.
//
// The function handles type coercion for common mismatches:
//   - any primitive → string (numbers and bools are formatted)
//   - string → number or bool when the text parses
//   - cty.Object → map[string]T
//   - cty.Tuple → []T
//
// Examples:
//   - ctyVal=5, targetType=uint16 → uint16(5)
//   - ctyVal=3.14, targetType=float32 → float32(3.14)
//   - ctyVal="42", targetType=int → 42
func ConvertCtyToFieldType(ctyVal cty.Value, targetType reflect.Type) (any, error) {
	if ctyVal.IsNull() {
		return reflect.Zero(targetType).Interface(), nil
	}

	if ctyVal.Type().IsPrimitiveType() {
		want, primitive := cty.String, true
		switch targetType.Kind() {
		case reflect.String:
		case reflect.Bool:
			want = cty.Bool
		case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
			reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
			reflect.Float32, reflect.Float64:
			want = cty.Number
		default:
			primitive = false
		}
		if primitive && !ctyVal.Type().Equals(want) {
			convertedVal, err := convert.Convert(ctyVal, want)
			if err != nil {
				return nil, fmt.Errorf("failed to convert %s to %v: %w", ctyVal.Type().FriendlyName(), targetType, err)
			}
			ctyVal = convertedVal
		}
	}

	// If target is a map and value is an object, convert object to map
	if targetType.Kind() == reflect.Map && ctyVal.Type().IsObjectType() {
		elemType := cty.DynamicPseudoType
		if targetType.Elem().Kind() == reflect.String {
			elemType = cty.String
		}
		if convertedVal, err := convert.Convert(ctyVal, cty.Map(elemType)); err == nil {
			ctyVal = convertedVal
		}
	}

	// If target is a slice and value is a tuple, convert tuple to list
	if targetType.Kind() == reflect.Slice && ctyVal.Type().IsTupleType() {
		elemType := cty.DynamicPseudoType
		if targetType.Elem().Kind() == reflect.String {
			elemType = cty.String
		}
		if convertedVal, err := convert.Convert(ctyVal, cty.List(elemType)); err == nil {
			ctyVal = convertedVal
		}
	}

	targetPtr := reflect.New(targetType).Interface()
	if err := gocty.FromCtyValue(ctyVal, targetPtr); err != nil {
		return nil, fmt.Errorf("failed to convert cty.Value to %v: %w", targetType, err)
	}
	return reflect.ValueOf(targetPtr).Elem().Interface(), nil
}
