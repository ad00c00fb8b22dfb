package wire

import (
	"errors"
	"fmt"
)

// Sentinel errors for the codec. Check with errors.Is.
var (
	// ErrValueOutOfRange indicates a value passed to a typed write or
	// coerced during encoding is not an integer or does not fit the target
	// type.
	ErrValueOutOfRange = errors.New("protodyn: value out of range")

	// ErrInvalidLong indicates a string, number or integer input cannot
	// represent a 64-bit integer.
	ErrInvalidLong = errors.New("protodyn: invalid 64-bit integer value")

	// ErrMalformedVarint indicates a varint ran past ten bytes with the
	// continuation bit still set.
	ErrMalformedVarint = errors.New("protodyn: malformed varint")

	// ErrUnexpectedEOF indicates the input ended before a primitive could
	// be read in full.
	ErrUnexpectedEOF = errors.New("protodyn: unexpected end of input")

	// ErrMalformedMapEntry indicates a map entry sub-message contained a
	// field number other than 1 (key) or 2 (value).
	ErrMalformedMapEntry = errors.New("protodyn: malformed map entry")

	// ErrEmptyForkStack indicates Join was called without a matching Fork.
	ErrEmptyForkStack = errors.New("protodyn: join without fork")
)

// UnknownFieldError is returned when decoding meets a tag with no field
// descriptor and the options demand failure.
type UnknownFieldError struct {
	TypeName    string
	FieldNumber FieldNumber
	WireType    WireType
}

// Error implements the error interface.
func (e *UnknownFieldError) Error() string {
	return fmt.Sprintf("protodyn: unknown field %d (wire type %d) in message %s",
		e.FieldNumber, e.WireType, e.TypeName)
}

// FieldError locates an encode or decode failure by its dotted proto
// field path, e.g. "user.address.zip_code".
type FieldError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *FieldError) Error() string {
	if e.Path == "" {
		return e.Err.Error()
	}
	return fmt.Sprintf("field %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *FieldError) Unwrap() error {
	return e.Err
}

// fieldErr prefixes err with a field name. As an error unwinds out of
// nested decodes the path grows from the inside out, so prefixing keeps it
// in declaration order.
func fieldErr(name string, err error) error {
	if err == nil {
		return nil
	}
	if fe, ok := err.(*FieldError); ok {
		return &FieldError{Path: name + "." + fe.Path, Err: fe.Err}
	}
	return &FieldError{Path: name, Err: err}
}
