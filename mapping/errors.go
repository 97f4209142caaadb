package mapping

import (
	"errors"
	"fmt"
	"reflect"
)

var (
	// ErrNoTargetedField is returned when a record type has no field to map.
	ErrNoTargetedField = errors.New("no targeted field")

	// ErrNotStruct is returned when a record type is not a struct.
	ErrNotStruct = errors.New("record type is not a struct")

	// ErrNoFields is returned when the analyzer is handed no fields.
	ErrNoFields = errors.New("no fields to analyze")

	// ErrNoHandler is returned when a field has neither a type handler nor
	// an expression.
	ErrNoHandler = errors.New("no type handler")

	// ErrNoResolver is returned when no strategy is registered for a
	// capability bitmask.
	ErrNoResolver = errors.New("no resolver for flags")

	// ErrCreator is returned when a model creator cannot be bound to the
	// record type.
	ErrCreator = errors.New("invalid model creator")

	// ErrValueType is returned when a converted value cannot be stored in
	// its field.
	ErrValueType = errors.New("value does not fit field")
)

// FieldError is a configuration error attributed to one field.
type FieldError struct {
	Type  reflect.Type
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("field %s.%s: %v", e.Type, e.Field, e.Err)
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

func newFieldError(f *Field, err error) *FieldError {
	return &FieldError{Type: f.Root, Field: f.Name, Err: err}
}

// ConversionError is a failure converting one cell. Row is the 1-based
// data row, not counting the header.
type ConversionError struct {
	Field  string
	Column string
	Row    int
	Err    error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("row %d, column %q (field %s): %v", e.Row, e.Column, e.Field, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}
