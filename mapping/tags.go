package mapping

import (
	"reflect"
	"strings"
)

// Struct tag keys.
const (
	tagExcel     = "excel"
	tagDefault   = "default"
	tagFormat    = "format"
	tagTZ        = "tz"
	tagWrite     = "write"
	tagRead      = "read"
	tagConverter = "converter"
	tagSep       = "sep"

	tagIgnore      = "-"
	optionAccessor = "accessor"

	// DefaultSeparator joins the elements of slice fields in one cell.
	DefaultSeparator = ","
)

// Tags holds the parsed struct tags of one field.
type Tags struct {
	// Column is the header name; empty means the Go field name.
	Column string
	// Explicit reports whether the field carries an excel tag at all.
	Explicit bool
	Ignore   bool
	Accessor bool

	Default    string
	HasDefault bool

	Format    string
	TZ        string
	Write     string
	Read      string
	Converter string
	Sep       string
}

// parseTags reads every tag the mapper understands.
//
//	excel:"Unit Price,accessor" default:"0" format:"2006-01-02" tz:"Asia/Tokyo"
func parseTags(tag reflect.StructTag) Tags {
	var t Tags
	if excel, ok := tag.Lookup(tagExcel); ok {
		t.Explicit = true
		name, opts, found := strings.Cut(excel, ",")
		if name == tagIgnore && !found {
			t.Ignore = true
			return t
		}
		t.Column = strings.TrimSpace(name)
		for _, opt := range strings.Split(opts, ",") {
			switch strings.TrimSpace(opt) {
			case optionAccessor:
				t.Accessor = true
			case tagIgnore:
				t.Ignore = true
			}
		}
	}
	t.Default, t.HasDefault = tag.Lookup(tagDefault)
	t.Format = tag.Get(tagFormat)
	t.TZ = tag.Get(tagTZ)
	t.Write = strings.TrimSpace(tag.Get(tagWrite))
	t.Read = strings.TrimSpace(tag.Get(tagRead))
	t.Converter = tag.Get(tagConverter)
	t.Sep = DefaultSeparator
	if sep, ok := tag.Lookup(tagSep); ok && sep != "" {
		t.Sep = sep
	}
	return t
}
