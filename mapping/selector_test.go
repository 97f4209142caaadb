package mapping

import (
	"errors"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type base struct {
	ID      int
	Created string
}

type Audit struct {
	Created string
	By      string
}

type derived struct {
	base
	*Audit
	Name    string
	Created string
	Skip    string `excel:"-"`
	secret  string
}

type tagged struct {
	A string `excel:"Alpha"`
	B string
	C string `excel:",accessor"`
}

type hidden struct {
	A string `excel:"-"`
	b int
}

func names(fields []*Field) []string {
	out := make([]string, len(fields))
	for i, f := range fields {
		out[i] = f.Name
	}
	return out
}

func TestSelectFields(t *testing.T) {
	tests := []struct {
		name            string
		typ             reflect.Type
		includeEmbedded bool
		explicitOnly    bool
		want            []string
	}{
		{"embedded_breadth_first", reflect.TypeFor[derived](), true, false, []string{"Name", "Created", "ID", "By"}},
		{"own_fields_only", reflect.TypeFor[derived](), false, false, []string{"Name", "Created"}},
		{"pointer_type", reflect.TypeFor[*derived](), false, false, []string{"Name", "Created"}},
		{"explicit_only", reflect.TypeFor[tagged](), true, true, []string{"A", "C"}},
		{"all_tagged_or_not", reflect.TypeFor[tagged](), true, false, []string{"A", "B", "C"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fields, err := SelectFields(tt.typ, tt.includeEmbedded, tt.explicitOnly)
			require.NoError(t, err)
			assert.Equal(t, tt.want, names(fields))
		})
	}
}

func TestSelectFieldsMetadata(t *testing.T) {
	fields, err := SelectFields(reflect.TypeFor[derived](), true, false)
	require.NoError(t, err)

	id := fields[2]
	assert.Equal(t, []int{0, 0}, id.Index)
	assert.Equal(t, reflect.TypeFor[base](), id.Owner)
	assert.Equal(t, reflect.TypeFor[derived](), id.Root)
	assert.Equal(t, "mapping.base.ID", id.ID())

	by := fields[3]
	assert.Equal(t, []int{1, 1}, by.Index)

	tf, err := SelectFields(reflect.TypeFor[tagged](), true, false)
	require.NoError(t, err)
	assert.Equal(t, "Alpha", tf[0].Column)
	assert.Equal(t, "B", tf[1].Column)
	assert.True(t, tf[2].Tags.Accessor)
}

func TestSelectFieldsErrors(t *testing.T) {
	_, err := SelectFields(reflect.TypeFor[hidden](), true, false)
	assert.True(t, errors.Is(err, ErrNoTargetedField))

	_, err = SelectFields(reflect.TypeFor[int](), true, false)
	assert.True(t, errors.Is(err, ErrNotStruct))

	_, err = SelectFields(reflect.TypeFor[base](), true, true)
	assert.True(t, errors.Is(err, ErrNoTargetedField), "explicit only without tags")
}

func TestFieldAccessEmbeddedPointer(t *testing.T) {
	fields, err := SelectFields(reflect.TypeFor[derived](), true, false)
	require.NoError(t, err)
	by := fields[3]

	var d derived
	rv := reflect.ValueOf(&d).Elem()
	assert.Equal(t, "", by.Value(rv).Interface(), "nil embedded pointer reads as zero")

	require.NoError(t, by.Set(rv, reflect.ValueOf("alice")))
	require.NotNil(t, d.Audit)
	assert.Equal(t, "alice", d.By)
}

func TestScopeFields(t *testing.T) {
	scope := ScopeFields(reflect.TypeFor[derived]())
	assert.Equal(t, []string{"Name", "Created", "Skip", "ID", "By"}, names(scope))
	assert.Nil(t, ScopeFields(reflect.TypeFor[string]()))
}

func TestParseTags(t *testing.T) {
	tags := parseTags(`excel:"Unit Price,accessor" default:"0" format:"2006-01-02" tz:"UTC" write:" Price * 2 " sep:";"`)
	assert.Equal(t, "Unit Price", tags.Column)
	assert.True(t, tags.Explicit)
	assert.True(t, tags.Accessor)
	assert.True(t, tags.HasDefault)
	assert.Equal(t, "0", tags.Default)
	assert.Equal(t, "2006-01-02", tags.Format)
	assert.Equal(t, "UTC", tags.TZ)
	assert.Equal(t, "Price * 2", tags.Write)
	assert.Equal(t, ";", tags.Sep)

	assert.True(t, parseTags(`excel:"-"`).Ignore)
	assert.False(t, parseTags(`excel:"-,"`).Ignore, "a column literally named -")
	assert.Equal(t, DefaultSeparator, parseTags(``).Sep)
	assert.False(t, parseTags(``).Explicit)
}

type Signer struct {
	By string
}

func (s *Signer) GetBy() string {
	return s.By
}

func (s *Signer) SetBy(by string) {
	s.By = by
}

type signed struct {
	ID int
	*Signer
	Label string `write:"By"`
}

type audited struct {
	*Signer
	Note string
}

func (audited) ExcelModel() Model {
	return Model{Accessors: true}
}

func TestAccessorsEmbeddedPointer(t *testing.T) {
	fields, err := SelectFields(reflect.TypeFor[signed](), true, false)
	require.NoError(t, err)
	require.Equal(t, []string{"ID", "Label", "By"}, names(fields))
	by := fields[2]
	require.True(t, by.HasGetter())
	require.True(t, by.HasSetter())

	var s signed
	rv := reflect.ValueOf(&s).Elem()
	v, err := by.Get(rv)
	require.NoError(t, err)
	assert.Equal(t, "", v.Interface(), "nil embedded pointer reads as zero")
	assert.Nil(t, s.Signer)

	require.NoError(t, by.Put(rv, reflect.ValueOf("alice")))
	require.NotNil(t, s.Signer)
	assert.Equal(t, "alice", s.By)

	v, err = by.Get(rv)
	require.NoError(t, err)
	assert.Equal(t, "alice", v.Interface())
}
