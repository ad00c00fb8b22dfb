package wire

import (
	"golang.org/x/text/encoding/unicode"
)

// TextEncoder converts native strings to the bytes written for proto3
// string fields. The wire format demands UTF-8; the seam exists so callers
// with non-UTF-8 string backings can normalize through the same path.
type TextEncoder interface {
	Encode(s string) ([]byte, error)
}

// NewUTF8Encoder returns the default text encoder.
func NewUTF8Encoder() TextEncoder {
	return utf8TextEncoder{}
}

type utf8TextEncoder struct{}

// Encode runs the string through the UTF-8 transform. The encoder is built
// per call because a transformer carries state and is not safe to share.
func (utf8TextEncoder) Encode(s string) ([]byte, error) {
	out, err := unicode.UTF8.NewEncoder().String(s)
	if err != nil {
		return nil, err
	}
	return []byte(out), nil
}
