package lang

import (
	"path/filepath"
	"testing"

	"github.com/google/uuid"
	homedir "github.com/mitchellh/go-homedir"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/zclconf/go-cty/cty"
	"golang.org/x/crypto/bcrypt"
)

func TestCoreFunctions(t *testing.T) {
	funcs := CoreFunctions(".")
	for _, name := range []string{"upper", "format", "uuid", "cidrhost", "bcrypt", "title", "globmatch", "yamlencode", "abspath"} {
		_, ok := funcs[name]
		assert.True(t, ok, name)
	}

	// each call hands out an independent map
	delete(funcs, "upper")
	_, ok := CoreFunctions(".")["upper"]
	assert.True(t, ok)
}

func TestStringFunctions(t *testing.T) {
	tests := []struct {
		name string
		call func() (cty.Value, error)
		want cty.Value
	}{
		{
			name: "title",
			call: func() (cty.Value, error) { return TitleFunc.Call([]cty.Value{cty.StringVal("hello wORLD")}) },
			want: cty.StringVal("Hello WORLD"),
		},
		{
			name: "cidrhost",
			call: func() (cty.Value, error) {
				return CidrHostFunc.Call([]cty.Value{cty.StringVal("10.0.0.0/24"), cty.NumberIntVal(5)})
			},
			want: cty.StringVal("10.0.0.5"),
		},
		{
			name: "cidrsubnet",
			call: func() (cty.Value, error) {
				return CidrSubnetFunc.Call([]cty.Value{cty.StringVal("10.0.0.0/16"), cty.NumberIntVal(8), cty.NumberIntVal(3)})
			},
			want: cty.StringVal("10.0.3.0/24"),
		},
		{
			name: "globmatch",
			call: func() (cty.Value, error) {
				return GlobMatchFunc.Call([]cty.Value{cty.StringVal("tmp_*"), cty.StringVal("tmp_notes")})
			},
			want: cty.True,
		},
		{
			name: "uuidv5",
			call: func() (cty.Value, error) {
				return UUIDV5Func.Call([]cty.Value{cty.StringVal("dns"), cty.StringVal("example.com")})
			},
			want: cty.StringVal(uuid.NewSHA1(uuid.NameSpaceDNS, []byte("example.com")).String()),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := tt.call()
			require.NoError(t, err)
			assert.True(t, tt.want.RawEquals(got), "got %#v", got)
		})
	}
}

func TestUUID(t *testing.T) {
	got, err := UUIDFunc.Call(nil)
	require.NoError(t, err)
	_, err = uuid.Parse(got.AsString())
	assert.NoError(t, err)

	_, err = UUIDV5Func.Call([]cty.Value{cty.StringVal("bogus"), cty.StringVal("x")})
	assert.Error(t, err)
}

func TestBcrypt(t *testing.T) {
	got, err := BcryptFunc.Call([]cty.Value{cty.StringVal("secret"), cty.NumberIntVal(bcrypt.MinCost)})
	require.NoError(t, err)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(got.AsString()), []byte("secret")))

	_, err = BcryptFunc.Call([]cty.Value{cty.StringVal("a"), cty.NumberIntVal(4), cty.NumberIntVal(4)})
	assert.Error(t, err)
}

func TestPaths(t *testing.T) {
	home, err := homedir.Dir()
	require.NoError(t, err)
	got, err := PathExpandFunc.Call([]cty.Value{cty.StringVal("~/data.xlsx")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, "data.xlsx"), got.AsString())

	base := t.TempDir()
	got, err = makeAbsPathFunc(base).Call([]cty.Value{cty.StringVal("in/book.xlsx")})
	require.NoError(t, err)
	assert.Equal(t, filepath.ToSlash(filepath.Join(base, "in", "book.xlsx")), got.AsString())
}

func TestCidrErrors(t *testing.T) {
	_, err := CidrHostFunc.Call([]cty.Value{cty.StringVal("not a cidr"), cty.NumberIntVal(1)})
	assert.Error(t, err)
	_, err = CidrHostFunc.Call([]cty.Value{cty.StringVal("10.0.0.0/30"), cty.NumberIntVal(10)})
	assert.Error(t, err)
}
