// Package convert moves generic sheet rows to and from JSON, YAML and HCL.
package convert

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"slices"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/hashicorp/hcl/v2/hclwrite"
	"github.com/zclconf/go-cty/cty"
	"gopkg.in/yaml.v3"

	"github.com/genelet/sheetcast/utils"
)

// ErrEmptyInput is returned when there is nothing to decode.
var ErrEmptyInput = errors.New("input is empty")

// Table is a sheet of generic rows: the header in column order and each
// row's cells keyed by header text.
type Table struct {
	Header []string            `json:"header" yaml:"header"`
	Rows   []map[string]string `json:"rows" yaml:"rows"`
}

// UnmarshalFunc is a function that unmarshals data into a target object.
type UnmarshalFunc func([]byte, any) error

// MarshalFunc is a function that marshals an object into bytes.
type MarshalFunc func(any) ([]byte, error)

func encodeTable(header []string, rows []map[string]string, marshal MarshalFunc) ([]byte, error) {
	if rows == nil {
		rows = []map[string]string{}
	}
	result, err := marshal(Table{Header: header, Rows: rows})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal output: %w", err)
	}
	return result, nil
}

// decodeTable accepts either a Table document or a bare list of row
// objects, whose header is then the sorted union of their keys.
func decodeTable(raw []byte, unmarshal UnmarshalFunc) (*Table, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, ErrEmptyInput
	}

	var doc struct {
		Header []string         `json:"header" yaml:"header"`
		Rows   []map[string]any `json:"rows" yaml:"rows"`
	}
	if err := unmarshal(raw, &doc); err != nil {
		var list []map[string]any
		if err2 := unmarshal(raw, &list); err2 != nil {
			return nil, fmt.Errorf("failed to unmarshal input: %w", err)
		}
		doc.Rows = list
	}

	t := &Table{Header: doc.Header, Rows: make([]map[string]string, len(doc.Rows))}
	for i, row := range doc.Rows {
		cells := make(map[string]string, len(row))
		for k, v := range row {
			cells[k] = cellText(v)
		}
		t.Rows[i] = cells
	}
	if len(t.Header) == 0 {
		t.Header = keys(t.Rows)
	}
	return t, nil
}

func cellText(v any) string {
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		return x
	case json.Number:
		return x.String()
	default:
		return fmt.Sprint(x)
	}
}

func keys(rows []map[string]string) []string {
	seen := map[string]bool{}
	var out []string
	for _, row := range rows {
		for k := range row {
			if !seen[k] {
				seen[k] = true
				out = append(out, k)
			}
		}
	}
	slices.Sort(out)
	return out
}

func jsonUnmarshal(data []byte, v any) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	return dec.Decode(v)
}

func jsonMarshal(v any) ([]byte, error) {
	return json.MarshalIndent(v, "", "  ")
}

// RowsToJSON encodes rows as {"header": [...], "rows": [...]}.
func RowsToJSON(header []string, rows []map[string]string) ([]byte, error) {
	return encodeTable(header, rows, jsonMarshal)
}

// JSONToRows decodes a JSON table or a JSON array of row objects. Numbers
// and booleans become their literal text.
func JSONToRows(raw []byte) ([]string, []map[string]string, error) {
	t, err := decodeTable(raw, jsonUnmarshal)
	if err != nil {
		return nil, nil, err
	}
	return t.Header, t.Rows, nil
}

// RowsToYAML encodes rows as a YAML table.
func RowsToYAML(header []string, rows []map[string]string) ([]byte, error) {
	return encodeTable(header, rows, yaml.Marshal)
}

// YAMLToRows decodes a YAML table or a YAML sequence of row mappings.
func YAMLToRows(raw []byte) ([]string, []map[string]string, error) {
	t, err := decodeTable(raw, yaml.Unmarshal)
	if err != nil {
		return nil, nil, err
	}
	return t.Header, t.Rows, nil
}

// RowsToHCL encodes rows as two HCL attributes:
//
//	header = ["ID", "Unit Price"]
//	rows = [
//	  { ID = "1", "Unit Price" = "4.5" },
//	]
func RowsToHCL(header []string, rows []map[string]string) ([]byte, error) {
	names := make([]cty.Value, len(header))
	for i, h := range header {
		names[i] = cty.StringVal(h)
	}
	objects := make([]cty.Value, len(rows))
	for i, row := range rows {
		attrs := make(map[string]cty.Value, len(row))
		for k, v := range row {
			attrs[k] = cty.StringVal(v)
		}
		objects[i] = cty.ObjectVal(attrs)
	}

	f := hclwrite.NewEmptyFile()
	body := f.Body()
	body.SetAttributeValue("header", cty.TupleVal(names))
	body.SetAttributeValue("rows", cty.TupleVal(objects))
	return f.Bytes(), nil
}

// HCLToRows decodes the output of RowsToHCL. The input must be plain data:
// no variables or function calls.
func HCLToRows(raw []byte) ([]string, []map[string]string, error) {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil, nil, ErrEmptyInput
	}
	file, diags := hclsyntax.ParseConfig(raw, "rows.hcl", hcl.Pos{Line: 1, Column: 1})
	if diags.HasErrors() {
		return nil, nil, diags
	}
	attrs, diags := file.Body.JustAttributes()
	if diags.HasErrors() {
		return nil, nil, diags
	}

	var header []string
	if attr, ok := attrs["header"]; ok {
		v, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, nil, diags
		}
		if !v.CanIterateElements() {
			return nil, nil, fmt.Errorf("header is %s, not a list", v.Type().FriendlyName())
		}
		for it := v.ElementIterator(); it.Next(); {
			_, name := it.Element()
			text, err := utils.CtyToString(name)
			if err != nil {
				return nil, nil, fmt.Errorf("header: %w", err)
			}
			header = append(header, text)
		}
	}

	var rows []map[string]string
	if attr, ok := attrs["rows"]; ok {
		v, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, nil, diags
		}
		if !v.CanIterateElements() {
			return nil, nil, fmt.Errorf("rows is %s, not a list", v.Type().FriendlyName())
		}
		for it := v.ElementIterator(); it.Next(); {
			_, obj := it.Element()
			if !obj.Type().IsObjectType() && !obj.Type().IsMapType() {
				return nil, nil, fmt.Errorf("row %d is %s, not an object", len(rows)+1, obj.Type().FriendlyName())
			}
			row := make(map[string]string)
			for cells := obj.ElementIterator(); cells.Next(); {
				k, cell := cells.Element()
				text, err := utils.CtyToString(cell)
				if err != nil {
					return nil, nil, fmt.Errorf("row %d: %w", len(rows)+1, err)
				}
				row[k.AsString()] = text
			}
			rows = append(rows, row)
		}
	}
	if len(header) == 0 {
		header = keys(rows)
	}
	return header, rows, nil
}
