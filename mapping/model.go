package mapping

import "reflect"

// Model is the record-level policy of a type.
type Model struct {
	// Default replaces empty cells of every field without a column default.
	Default    string
	HasDefault bool
	// ExplicitOnly maps only fields carrying an excel tag.
	ExplicitOnly bool
	// ExcludeEmbedded skips the fields of embedded structs.
	ExcludeEmbedded bool
	// Accessors makes every field prefer its GetX/SetX methods.
	Accessors bool
}

// Modeler is implemented by record types that declare a Model.
//
//	func (Order) ExcelModel() mapping.Model {
//		return mapping.Model{Default: "n/a", HasDefault: true}
//	}
type Modeler interface {
	ExcelModel() Model
}

var modelerType = reflect.TypeFor[Modeler]()

// ModelOf returns the Model declared by t, or the zero Model.
func ModelOf(t reflect.Type) Model {
	if t == nil {
		return Model{}
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if !reflect.PointerTo(t).Implements(modelerType) {
		return Model{}
	}
	return reflect.New(t).Interface().(Modeler).ExcelModel()
}
