package handler

import (
	"encoding"
	"fmt"
	"maps"
	"math/big"
	"net/url"
	"path/filepath"
	"reflect"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/mitchellh/go-homedir"
	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

// Path is a file system path column. Reading expands a leading ~ and
// cleans the result.
type Path string

func uuidHandler() *Func[uuid.UUID] {
	return NewFunc(
		func(u uuid.UUID, _ Context) (string, error) {
			if u == uuid.Nil {
				return "", nil
			}
			return u.String(), nil
		},
		func(s string, _ Context) (uuid.UUID, error) {
			return uuid.Parse(strings.TrimSpace(s))
		},
	)
}

func urlHandler() *Func[url.URL] {
	return NewFunc(
		func(u url.URL, _ Context) (string, error) {
			return u.String(), nil
		},
		func(s string, _ Context) (url.URL, error) {
			u, err := url.Parse(strings.TrimSpace(s))
			if err != nil {
				return url.URL{}, err
			}
			return *u, nil
		},
	)
}

func bigIntHandler() *Func[big.Int] {
	return NewFunc(
		func(n big.Int, _ Context) (string, error) {
			return n.String(), nil
		},
		func(s string, _ Context) (big.Int, error) {
			var n big.Int
			if _, ok := n.SetString(strings.TrimSpace(s), 10); !ok {
				return big.Int{}, fmt.Errorf("invalid integer %q", s)
			}
			return n, nil
		},
	)
}

// decimalHandler writes the shortest exact form: trailing zeros of the
// fraction are dropped, so 12.340 becomes "12.34".
func decimalHandler() *Func[decimal.Decimal] {
	return NewFunc(
		func(d decimal.Decimal, _ Context) (string, error) {
			return d.String(), nil
		},
		func(s string, _ Context) (decimal.Decimal, error) {
			return decimal.NewFromString(strings.TrimSpace(s))
		},
	)
}

func languageHandler() *Func[language.Tag] {
	return NewFunc(
		func(t language.Tag, _ Context) (string, error) {
			if t == language.Und {
				return "", nil
			}
			return t.String(), nil
		},
		func(s string, _ Context) (language.Tag, error) {
			return language.Parse(strings.TrimSpace(s))
		},
	)
}

func pathHandler() *Func[Path] {
	return NewFunc(
		func(p Path, _ Context) (string, error) {
			return string(p), nil
		},
		func(s string, _ Context) (Path, error) {
			expanded, err := homedir.Expand(strings.TrimSpace(s))
			if err != nil {
				return "", err
			}
			return Path(filepath.Clean(expanded)), nil
		},
	)
}

var (
	textMarshalerType   = reflect.TypeFor[encoding.TextMarshaler]()
	textUnmarshalerType = reflect.TypeFor[encoding.TextUnmarshaler]()
)

// textHandler serves every type implementing encoding.TextMarshaler and,
// for reading, encoding.TextUnmarshaler on its pointer. It is keyed by the
// interface, so a lenient registry reaches it only when no exact handler
// exists.
type textHandler struct{}

func (textHandler) Type() reflect.Type {
	return textMarshalerType
}

func (textHandler) Write(v any, _ Context) (string, error) {
	m, ok := v.(encoding.TextMarshaler)
	if !ok {
		rv := reflect.ValueOf(v)
		if !rv.IsValid() {
			return "", nil
		}
		ptr := reflect.New(rv.Type())
		ptr.Elem().Set(rv)
		if m, ok = ptr.Interface().(encoding.TextMarshaler); !ok {
			return "", fmt.Errorf("%w: %T is not a TextMarshaler", ErrValueType, v)
		}
	}
	b, err := m.MarshalText()
	return string(b), err
}

func (textHandler) Read(s string, ctx Context) (any, error) {
	if ctx.Target == nil || !reflect.PointerTo(ctx.Target).Implements(textUnmarshalerType) {
		return nil, fmt.Errorf("field %s: %v cannot unmarshal text", ctx.Field, ctx.Target)
	}
	ptr := reflect.New(ctx.Target)
	if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(s)); err != nil {
		return nil, err
	}
	return ptr.Elem().Interface(), nil
}

// Enum maps the constants of one enum-like type to their declared names.
type Enum[T comparable] struct {
	names  map[T]string
	values map[string]T
	// sorted lists the names for the case-insensitive fallback.
	sorted []string
}

// NewEnum builds a by-name handler for T. Register it to override the
// generic handler for T only.
func NewEnum[T comparable](names map[T]string) *Enum[T] {
	e := &Enum[T]{names: make(map[T]string, len(names)), values: make(map[string]T, len(names))}
	for v, name := range names {
		e.names[v] = name
		e.values[name] = v
	}
	e.sorted = slices.Sorted(maps.Keys(e.values))
	return e
}

func (e *Enum[T]) Type() reflect.Type {
	return reflect.TypeFor[T]()
}

func (e *Enum[T]) Write(v any, _ Context) (string, error) {
	t, err := coerce[T](v)
	if err != nil {
		return "", err
	}
	name, ok := e.names[t]
	if !ok {
		return "", fmt.Errorf("no name for %v in %s", v, e.Type())
	}
	return name, nil
}

// Read matches the declared name exactly, then case-insensitively. Names
// differing only by case resolve to the first in sorted order.
func (e *Enum[T]) Read(s string, _ Context) (any, error) {
	s = strings.TrimSpace(s)
	if v, ok := e.values[s]; ok {
		return v, nil
	}
	for _, name := range e.sorted {
		if strings.EqualFold(name, s) {
			return e.values[name], nil
		}
	}
	return nil, fmt.Errorf("unknown %s constant %q", e.Type(), s)
}
