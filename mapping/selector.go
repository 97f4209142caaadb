package mapping

import (
	"fmt"
	"reflect"
	"sync"
)

type selection struct {
	t               reflect.Type
	includeEmbedded bool
	explicitOnly    bool
}

// selected caches field lists; Fields never change after selection.
var (
	selected sync.Map // map[selection][]*Field
	scoped   sync.Map // map[selection][]*Field
)

// SelectFields returns the fields of struct type t that map to columns,
// in a stable order shared by the write and read paths.
//
// The fields declared by t come first in declaration order. With
// includeEmbedded, the fields of untagged embedded structs follow level by
// level, breadth first; a field shadowed by a shallower one of the same
// name is skipped. Fields tagged excel:"-" and unexported fields are never
// selected. With explicitOnly, only fields carrying an excel tag are.
func SelectFields(t reflect.Type, includeEmbedded, explicitOnly bool) ([]*Field, error) {
	if t == nil {
		return nil, ErrNotStruct
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s", ErrNotStruct, t)
	}

	key := selection{t: t, includeEmbedded: includeEmbedded, explicitOnly: explicitOnly}
	if v, ok := selected.Load(key); ok {
		return v.([]*Field), nil
	}

	fields := selectFields(t, includeEmbedded, explicitOnly, false)
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoTargetedField, t)
	}
	v, _ := selected.LoadOrStore(key, fields)
	return v.([]*Field), nil
}

type level struct {
	owner reflect.Type
	index []int
}

// ScopeFields returns every exported field of struct type t, promoted
// fields included and ignore tags disregarded. Write expressions see these
// fields as variables.
func ScopeFields(t reflect.Type) []*Field {
	t = indirect(t)
	if t.Kind() != reflect.Struct {
		return nil
	}
	key := selection{t: t, includeEmbedded: true, explicitOnly: false}
	if v, ok := scoped.Load(key); ok {
		return v.([]*Field)
	}
	v, _ := scoped.LoadOrStore(key, selectFields(t, true, false, true))
	return v.([]*Field)
}

func selectFields(root reflect.Type, includeEmbedded, explicitOnly, all bool) []*Field {
	var fields []*Field
	seen := make(map[string]bool)

	queue := []level{{owner: root}}
	for len(queue) > 0 {
		var next []level
		names := make(map[string]bool)

		for _, current := range queue {
			for i := 0; i < current.owner.NumField(); i++ {
				sf := current.owner.Field(i)
				index := append(append([]int(nil), current.index...), i)
				tags := parseTags(sf.Tag)

				if all {
					tags.Ignore = false
				}
				if sf.Anonymous && tags.Column == "" && !tags.Ignore {
					if typ := embeddedStruct(sf); typ != nil {
						if includeEmbedded {
							next = append(next, level{owner: typ, index: index})
						}
						continue
					}
				}

				if seen[sf.Name] || names[sf.Name] {
					continue
				}
				names[sf.Name] = true

				if !sf.IsExported() || tags.Ignore {
					continue
				}
				if explicitOnly && !tags.Explicit {
					continue
				}

				column := tags.Column
				if column == "" {
					column = sf.Name
				}
				f := &Field{
					Root:   root,
					Owner:  current.owner,
					Name:   sf.Name,
					Column: column,
					Type:   sf.Type,
					Index:  index,
					Tags:   tags,
				}
				f.bindAccessors()
				fields = append(fields, f)
			}
		}

		for name := range names {
			seen[name] = true
		}
		queue = next
	}
	return fields
}

// embeddedStruct returns the struct type behind an embedded field, or nil.
// Unexported embedded pointers are skipped since they cannot be allocated.
func embeddedStruct(sf reflect.StructField) reflect.Type {
	typ := sf.Type
	if typ.Kind() == reflect.Pointer {
		if !sf.IsExported() {
			return nil
		}
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return nil
	}
	return typ
}
