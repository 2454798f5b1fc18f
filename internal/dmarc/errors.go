package dmarc

import (
	"errors"
	"fmt"
)

var (
	// ErrMalformedXML is matched by every MalformedXMLError
	ErrMalformedXML = errors.New("malformed xml")
	// ErrFieldCoercion is matched by every FieldCoercionError
	ErrFieldCoercion = errors.New("field coercion failed")
)

// MalformedXMLError is returned when the input can not be tokenized as XML.
// Offset is the byte offset at which the lexical scan stopped.
type MalformedXMLError struct {
	Offset int64
	Err    error
}

func (e *MalformedXMLError) Error() string {
	return fmt.Sprintf("malformed xml at offset %d: %v", e.Offset, e.Err)
}

func (e *MalformedXMLError) Unwrap() error {
	return e.Err
}

func (e *MalformedXMLError) Is(target error) bool {
	return target == ErrMalformedXML
}

// FieldCoercionError is returned when the text of a typed field can not be
// converted to the type of the field.
type FieldCoercionError struct {
	Field string
	Text  string
	Err   error
}

func (e *FieldCoercionError) Error() string {
	return fmt.Sprintf("could not convert %q for field %s: %v", e.Text, e.Field, e.Err)
}

func (e *FieldCoercionError) Unwrap() error {
	return e.Err
}

func (e *FieldCoercionError) Is(target error) bool {
	return target == ErrFieldCoercion
}
