package handler

import (
	"math/big"
	"net"
	"net/url"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"
)

func mustGet(t *testing.T, typ reflect.Type) Handler {
	t.Helper()
	h, ok := Default().Get(typ)
	require.True(t, ok, "no handler for %s", typ)
	return h
}

func TestBuiltinWrite(t *testing.T) {
	u := uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8")
	link, _ := url.Parse("https://example.com/a?b=c")

	tests := []struct {
		name  string
		value any
		ctx   Context
		want  string
	}{
		{"bool", true, Context{}, "true"},
		{"int", 42, Context{}, "42"},
		{"int8", int8(-7), Context{}, "-7"},
		{"uint16", uint16(65535), Context{}, "65535"},
		{"float32", float32(1.5), Context{}, "1.5"},
		{"float64", 3.25, Context{}, "3.25"},
		{"string", "hello", Context{}, "hello"},
		{"decimal strips zeros", decimal.RequireFromString("12.340"), Context{}, "12.34"},
		{"decimal integral", decimal.RequireFromString("20.00"), Context{}, "20"},
		{"big int", *big.NewInt(1 << 40), Context{}, "1099511627776"},
		{"uuid", u, Context{}, "6ba7b810-9dad-11d1-80b4-00c04fd430c8"},
		{"url", *link, Context{}, "https://example.com/a?b=c"},
		{"language", language.MustParse("pt-BR"), Context{}, "pt-BR"},
		{"duration", 90 * time.Second, Context{}, "1m30s"},
		{"ip", net.ParseIP("10.0.0.1"), Context{}, "10.0.0.1"},
		{"time default layout", time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC), Context{}, "2024-03-01 08:30:00"},
		{"time format tag", time.Date(2024, 3, 1, 8, 30, 0, 0, time.UTC), Context{Format: "02/01/2006"}, "01/03/2024"},
		{"path", Path("/tmp/x"), Context{}, "/tmp/x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := mustGet(t, reflect.TypeOf(tt.value))
			got, err := h.Write(tt.value, tt.ctx)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuiltinRead(t *testing.T) {
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)

	tests := []struct {
		name string
		typ  reflect.Type
		in   string
		ctx  Context
		want any
	}{
		{"bool yes", reflect.TypeFor[bool](), "yes", Context{}, true},
		{"int", reflect.TypeFor[int](), " 42 ", Context{}, 42},
		{"int from float text", reflect.TypeFor[int64](), "12.0", Context{}, int64(12)},
		{"uint8", reflect.TypeFor[uint8](), "255", Context{}, uint8(255)},
		{"float64", reflect.TypeFor[float64](), "2.5", Context{}, 2.5},
		{"decimal", reflect.TypeFor[decimal.Decimal](), "12.34", Context{}, decimal.RequireFromString("12.34")},
		{"duration", reflect.TypeFor[time.Duration](), "2h", Context{}, 2 * time.Hour},
		{"time in zone", reflect.TypeFor[time.Time](), "2024-03-01", Context{Format: "2006-01-02", Location: tokyo},
			time.Date(2024, 3, 1, 0, 0, 0, 0, tokyo)},
		{"time excel serial", reflect.TypeFor[time.Time](), "45352", Context{}, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"language", reflect.TypeFor[language.Tag](), "en-GB", Context{}, language.MustParse("en-GB")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := mustGet(t, tt.typ)
			got, err := h.Read(tt.in, tt.ctx)
			require.NoError(t, err)
			if want, ok := tt.want.(decimal.Decimal); ok {
				assert.True(t, want.Equal(got.(decimal.Decimal)))
				return
			}
			if want, ok := tt.want.(time.Time); ok {
				assert.True(t, want.Equal(got.(time.Time)), "got %v", got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestBuiltinReadErrors(t *testing.T) {
	for _, tc := range []struct {
		typ reflect.Type
		in  string
	}{
		{reflect.TypeFor[int](), "abc"},
		{reflect.TypeFor[int8](), "300"},
		{reflect.TypeFor[decimal.Decimal](), "1,2"},
		{reflect.TypeFor[net.IP](), "not-an-ip"},
		{reflect.TypeFor[uuid.UUID](), "xyz"},
	} {
		_, err := mustGet(t, tc.typ).Read(tc.in, Context{})
		assert.Error(t, err, "%s %q", tc.typ, tc.in)
	}
}

func TestTextHandler(t *testing.T) {
	h := mustGet(t, reflect.TypeFor[level]())

	s, err := h.Write(levelHigh, Context{})
	require.NoError(t, err)
	assert.Equal(t, "L1", s)

	v, err := h.Read("L1", Context{Target: reflect.TypeFor[level]()})
	require.NoError(t, err)
	assert.Equal(t, levelHigh, v)

	_, err = h.Read("L1", Context{Target: reflect.TypeFor[int]()})
	assert.Error(t, err)
}

func TestNamedKindCoercion(t *testing.T) {
	h := mustGet(t, reflect.TypeFor[code]())
	s, err := h.Write(code("A-1"), Context{})
	require.NoError(t, err)
	assert.Equal(t, "A-1", s)

	_, err = mustGet(t, reflect.TypeFor[int]()).Write("x", Context{})
	assert.ErrorIs(t, err, ErrValueType)
}

func TestEnumRead(t *testing.T) {
	e := NewEnum(map[level]string{levelLow: "Low", levelHigh: "High"})
	v, err := e.Read("high", Context{})
	require.NoError(t, err)
	assert.Equal(t, levelHigh, v)

	_, err = e.Read("medium", Context{})
	assert.Error(t, err)
}

func TestEnumReadCaseCollision(t *testing.T) {
	e := NewEnum(map[level]string{levelLow: "LOW", levelHigh: "low"})

	v, err := e.Read("low", Context{})
	require.NoError(t, err)
	assert.Equal(t, levelHigh, v, "exact match first")

	for i := 0; i < 20; i++ {
		v, err = e.Read("Low", Context{})
		require.NoError(t, err)
		assert.Equal(t, levelLow, v)
	}
}
