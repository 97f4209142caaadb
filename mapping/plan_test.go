package mapping

import (
	"errors"
	"net/url"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/genelet/sheetcast/handler"
)

type product struct {
	ID    int64           `excel:"ID"`
	Name  *string         `excel:"Name" default:"unknown"`
	Price decimal.Decimal `excel:"Price"`
}

type grade string

type everything struct {
	Count   int             `excel:"Count"`
	Ratio   float64         `excel:"Ratio"`
	OK      bool            `excel:"OK"`
	Label   string          `excel:"Label"`
	At      time.Time       `excel:"At"`
	Amount  decimal.Decimal `excel:"Amount"`
	Maybe   *int            `excel:"Maybe"`
	Key     uuid.UUID       `excel:"Key"`
	Tags    []string        `excel:"Tags"`
	Grade   grade           `excel:"Grade"`
	Numbers []int           `excel:"Numbers" sep:"|"`
}

type line struct {
	Qty   int             `excel:"Qty"`
	Unit  decimal.Decimal `excel:"Unit Price"`
	Total decimal.Decimal `excel:"Total" read:"Qty * Unit"`
	Label string          `excel:"Label" read:"upper(row[\"Code\"])"`
	Echo  string          `excel:"Echo" read:"value == \"\" ? null : \"<${value}>\"" default:"none"`
}

type stamped struct {
	When time.Time `excel:"When" format:"2006-01-02" tz:"Asia/Tokyo"`
}

type badVariable struct {
	Total string `excel:"Total" write:"Missing * 2"`
}

type badFunction struct {
	Total string `excel:"Total" read:"nosuch(value)"`
}

func rowOf(number int, plan *ReadPlan, cells ...string) *Row {
	row := &Row{Number: number, Values: map[string]string{}, Columns: map[string]string{}}
	for i, f := range plan.Fields() {
		if i < len(cells) {
			row.Values[f.Name] = cells[i]
			row.Columns[f.Column] = cells[i]
		}
	}
	return row
}

func TestProductScenario(t *testing.T) {
	typ := reflect.TypeFor[product]()
	wp, err := NewWritePlan(typ, Options{})
	require.NoError(t, err)
	assert.Equal(t, []string{"ID", "Name", "Price"}, wp.Header())

	cells, err := wp.Cells(product{ID: 1, Price: decimal.RequireFromString("12.340")}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "unknown", "12.34"}, cells)

	rp, err := NewReadPlan(typ, Options{})
	require.NoError(t, err)
	rv, err := rp.Record(rowOf(1, rp, cells...))
	require.NoError(t, err)
	got := rv.Interface().(product)
	assert.Equal(t, int64(1), got.ID)
	require.NotNil(t, got.Name)
	assert.Equal(t, "unknown", *got.Name)
	assert.True(t, decimal.RequireFromString("12.34").Equal(got.Price))
}

func TestWriteExpression(t *testing.T) {
	wp, err := NewWritePlan(reflect.TypeFor[priced](), Options{})
	require.NoError(t, err)

	cells, err := wp.Cells(&priced{Price: decimal.NewFromInt(10), Tags: []string{"a", "b"}}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"10", "20", "a;b"}, cells)
}

func TestDefaultPrecedenceOnBothPaths(t *testing.T) {
	typ := reflect.TypeFor[priority]()

	wp, err := NewWritePlan(typ, Options{})
	require.NoError(t, err)
	cells, err := wp.Cells(priority{}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"column", "model"}, cells)

	opt := "opt"
	wp, err = NewWritePlan(typ, Options{Default: &opt})
	require.NoError(t, err)
	cells, err = wp.Cells(priority{}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"opt", "opt"}, cells)

	rp, err := NewReadPlan(typ, Options{})
	require.NoError(t, err)
	rv, err := rp.Record(rowOf(1, rp, "", " "))
	require.NoError(t, err)
	assert.Equal(t, priority{Code: "column", Note: "model"}, rv.Interface())
}

func TestRoundTrip(t *testing.T) {
	three := 3
	records := []everything{
		{
			Count:   42,
			Ratio:   0.25,
			OK:      true,
			Label:   "first",
			At:      time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
			Amount:  decimal.RequireFromString("99.95"),
			Maybe:   &three,
			Key:     uuid.MustParse("6ba7b810-9dad-11d1-80b4-00c04fd430c8"),
			Tags:    []string{"x", "y"},
			Grade:   "A",
			Numbers: []int{1, 2, 3},
		},
		{Count: -1, Label: "second", Amount: decimal.RequireFromString("1")},
	}

	typ := reflect.TypeFor[everything]()
	wp, err := NewWritePlan(typ, Options{})
	require.NoError(t, err)
	rp, err := NewReadPlan(typ, Options{})
	require.NoError(t, err)

	for i, record := range records {
		cells, err := wp.Cells(record, i+1)
		require.NoError(t, err)
		rv, err := rp.Record(rowOf(i+1, rp, cells...))
		require.NoError(t, err)
		assert.Equal(t, record, rv.Interface(), "record %d via %q", i, cells)
	}
}

func TestReadExpression(t *testing.T) {
	rp, err := NewReadPlan(reflect.TypeFor[line](), Options{})
	require.NoError(t, err)

	row := rowOf(1, rp, "3", "2.5", "", "", "hi")
	row.Columns["Code"] = "x1"
	rv, err := rp.Record(row)
	require.NoError(t, err)
	got := rv.Interface().(line)
	assert.Equal(t, 3, got.Qty)
	assert.True(t, decimal.RequireFromString("7.5").Equal(got.Total), got.Total.String())
	assert.Equal(t, "X1", got.Label)
	assert.Equal(t, "<hi>", got.Echo)

	row = rowOf(2, rp, "1", "1", "", "", "")
	row.Columns["Code"] = ""
	rv, err = rp.Record(row)
	require.NoError(t, err)
	assert.Equal(t, "none", rv.Interface().(line).Echo, "null result takes the default")
}

func TestFormatAndZone(t *testing.T) {
	typ := reflect.TypeFor[stamped]()
	wp, err := NewWritePlan(typ, Options{})
	require.NoError(t, err)
	cells, err := wp.Cells(stamped{When: time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"2024-03-02"}, cells)

	rp, err := NewReadPlan(typ, Options{})
	require.NoError(t, err)
	rv, err := rp.Record(rowOf(1, rp, "2024-03-02"))
	require.NoError(t, err)
	tokyo, err := time.LoadLocation("Asia/Tokyo")
	require.NoError(t, err)
	assert.True(t, time.Date(2024, 3, 2, 0, 0, 0, 0, tokyo).Equal(rv.Interface().(stamped).When))
}

func TestAccessorStrategies(t *testing.T) {
	typ := reflect.TypeFor[account]()
	rp, err := NewReadPlan(typ, Options{})
	require.NoError(t, err)
	rv, err := rp.Record(rowOf(1, rp, "42", "bob"))
	require.NoError(t, err)
	got := rv.Interface().(account)
	assert.Equal(t, account{Balance: 42, Owner: "BOB"}, got)

	wp, err := NewWritePlan(typ, Options{})
	require.NoError(t, err)
	cells, err := wp.Cells(got, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"42", "Mr BOB"}, cells)
}

func TestConverterPlan(t *testing.T) {
	o := Options{Converters: map[string]handler.Handler{"yesno": yesNo()}}
	wp, err := NewWritePlan(reflect.TypeFor[converted](), o)
	require.NoError(t, err)
	cells, err := wp.Cells(converted{Active: true}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"Y"}, cells)
}

func TestPlanErrors(t *testing.T) {
	_, err := NewWritePlan(reflect.TypeFor[hidden](), Options{})
	assert.True(t, errors.Is(err, ErrNoTargetedField))
	_, err = NewReadPlan(reflect.TypeFor[hidden](), Options{})
	assert.True(t, errors.Is(err, ErrNoTargetedField))

	_, err = NewWritePlan(reflect.TypeFor[badVariable](), Options{})
	var fe *FieldError
	require.True(t, errors.As(err, &fe))
	assert.Equal(t, "Total", fe.Field)

	_, err = NewReadPlan(reflect.TypeFor[badFunction](), Options{})
	assert.True(t, errors.As(err, &fe))
}

func TestConversionErrors(t *testing.T) {
	rp, err := NewReadPlan(reflect.TypeFor[everything](), Options{})
	require.NoError(t, err)

	_, err = rp.Record(rowOf(7, rp, "many"))
	var ce *ConversionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, 7, ce.Row)
	assert.Equal(t, "Count", ce.Field)
	assert.Equal(t, "Count", ce.Column)

	wp, err := NewWritePlan(reflect.TypeFor[everything](), Options{})
	require.NoError(t, err)
	_, err = wp.Cells(product{}, 3)
	assert.True(t, errors.Is(err, ErrValueType))
	_, err = wp.Cells((*everything)(nil), 3)
	assert.Error(t, err)
}

func TestEmbeddedAccessorsThroughPlans(t *testing.T) {
	wp, err := NewWritePlan(reflect.TypeFor[signed](), Options{})
	require.NoError(t, err)
	cells, err := wp.Cells(signed{ID: 1}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "", ""}, cells)

	cells, err = wp.Cells(signed{ID: 2, Signer: &Signer{By: "bob"}}, 2)
	require.NoError(t, err)
	assert.Equal(t, []string{"2", "bob", "bob"}, cells)

	typ := reflect.TypeFor[audited]()
	awp, err := NewWritePlan(typ, Options{})
	require.NoError(t, err)
	cells, err = awp.Cells(audited{Note: "n"}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"n", ""}, cells)

	rp, err := NewReadPlan(typ, Options{})
	require.NoError(t, err)
	rv, err := rp.Record(rowOf(1, rp, "n", "alice"))
	require.NoError(t, err)
	got := rv.Interface().(audited)
	require.NotNil(t, got.Signer)
	assert.Equal(t, "alice", got.By)
}

type linked struct {
	Site url.URL `excel:"Site"`
	Copy string  `excel:"Copy" write:"Site"`
}

func TestWriteExpressionSeesHandlerText(t *testing.T) {
	wp, err := NewWritePlan(reflect.TypeFor[linked](), Options{})
	require.NoError(t, err)
	site, err := url.Parse("https://example.com/a")
	require.NoError(t, err)

	cells, err := wp.Cells(linked{Site: *site}, 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"https://example.com/a", "https://example.com/a"}, cells)
}
