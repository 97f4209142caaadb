package handler

import (
	"encoding"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type level int

const (
	levelLow level = iota
	levelHigh
)

func (l level) MarshalText() ([]byte, error) {
	return []byte(fmt.Sprintf("L%d", int(l))), nil
}

func (l *level) UnmarshalText(b []byte) error {
	_, err := fmt.Sscanf(string(b), "L%d", (*int)(l))
	return err
}

type code string

func TestRegistryAddTypeMismatch(t *testing.T) {
	r := NewRegistry()
	_, err := r.Add(reflect.TypeFor[int](), NewFunc(writeString, readString))
	require.ErrorIs(t, err, ErrTypeMismatch)
	_, ok := r.Get(reflect.TypeFor[int]())
	assert.False(t, ok, "a rejected handler must not be stored")

	_, err = r.Add(nil, NewFunc(writeString, readString))
	assert.ErrorIs(t, err, ErrNilHandler)
}

func TestRegistryAddReportsNewType(t *testing.T) {
	r := NewRegistry()
	h1 := NewFunc(writeString, readString)
	h2 := NewFunc(func(s string, _ Context) (string, error) { return strings.ToUpper(s), nil }, readString)

	isNew, err := r.Add(reflect.TypeFor[string](), h1)
	require.NoError(t, err)
	assert.True(t, isNew)

	isNew, err = r.Add(reflect.TypeFor[string](), h2)
	require.NoError(t, err)
	assert.False(t, isNew)

	got, ok := r.Get(reflect.TypeFor[string]())
	require.True(t, ok)
	assert.Same(t, h2, got, "last registration wins")
}

func TestRegistryStrictExactOnly(t *testing.T) {
	r := NewRegistry()
	require.NoError(t, r.AddAll(Default()))

	_, ok := r.Get(reflect.TypeFor[string]())
	assert.True(t, ok)
	_, ok = r.Get(reflect.TypeFor[code]())
	assert.False(t, ok, "strict registry must not fall back to the kind")
	_, ok = r.Get(reflect.TypeFor[*string]())
	assert.False(t, ok)
}

func TestRegistryLenientFallback(t *testing.T) {
	r := Default()

	tests := []struct {
		name string
		typ  reflect.Type
		want reflect.Type
	}{
		{"pointer element", reflect.TypeFor[*int64](), reflect.TypeFor[int64]()},
		{"named string", reflect.TypeFor[code](), reflect.TypeFor[string]()},
		{"pointer to named string", reflect.TypeFor[*code](), reflect.TypeFor[string]()},
		{"interface before kind", reflect.TypeFor[level](), reflect.TypeFor[encoding.TextMarshaler]()},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, ok := r.Get(tt.typ)
			require.True(t, ok)
			assert.Equal(t, tt.want, h.Type())
		})
	}

	_, ok := r.Get(reflect.TypeFor[struct{ A int }]())
	assert.False(t, ok)
}

func TestRegistryExactBeatsLenient(t *testing.T) {
	r := Default()
	enum := NewEnum(map[level]string{levelLow: "low", levelHigh: "high"})
	require.NoError(t, r.Register(enum))

	h, ok := r.Get(reflect.TypeFor[level]())
	require.True(t, ok)
	assert.Same(t, enum, h)

	s, err := h.Write(levelHigh, Context{})
	require.NoError(t, err)
	assert.Equal(t, "high", s)
}

func TestRegistryAddAllValidates(t *testing.T) {
	src := NewRegistry()
	// bypass Add to plant an inconsistent entry
	src.handlers[reflect.TypeFor[int]()] = NewFunc(writeString, readString)
	src.order = append(src.order, reflect.TypeFor[int]())

	dst := NewRegistry()
	assert.ErrorIs(t, dst.AddAll(src), ErrTypeMismatch)
}

func TestRegistryCloneIsIndependent(t *testing.T) {
	r := Default()
	c := r.Clone()
	require.NoError(t, c.Register(NewEnum(map[level]string{levelLow: "low"})))

	h, ok := r.Get(reflect.TypeFor[level]())
	require.True(t, ok)
	assert.Equal(t, textMarshalerType, h.Type())
	assert.True(t, c.Lenient())
}
