package wire

import (
	"fmt"
	"strconv"

	"github.com/anirudhraja/protodyn/schema"
)

// Map entries ride the wire as a two-field sub-message: 1 = key, 2 = value.
// Any other field number is a malformed entry. Missing halves decode to the
// zero value of their type.

// readMapEntry decodes a single length-delimited map entry.
func (c *MessageCodec) readMapEntry(r *Reader, f *schema.FieldInfo, opts Options) (interface{}, interface{}, error) {
	length, err := r.length()
	if err != nil {
		return nil, nil, err
	}
	end := r.Pos() + length

	var key, value interface{}
	for r.Pos() < end {
		fieldNo, wireType, err := r.Tag()
		if err != nil {
			return nil, nil, err
		}
		switch fieldNo {
		case 1:
			if err := checkWireType(f.Key, wireType); err != nil {
				return nil, nil, err
			}
			key, err = readMapKey(r, f.Key, f.KeyLong)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to decode map key: %w", err)
			}
		case 2:
			value, err = c.readMapValue(r, f.Value, wireType, opts)
			if err != nil {
				return nil, nil, fmt.Errorf("failed to decode map value: %w", err)
			}
		default:
			return nil, nil, fmt.Errorf("%w: unexpected field %d", ErrMalformedMapEntry, fieldNo)
		}
	}

	if key == nil {
		key = zeroMapKey(f.Key, f.KeyLong)
	}
	if value == nil {
		value = zeroMapValue(f.Value)
	}
	return key, value, nil
}

// readMapKey decodes the key half and coerces it into a comparable form:
// bool keys become "true"/"false", the rest stay strings or numbers.
func readMapKey(r *Reader, t schema.ScalarType, long schema.LongType) (interface{}, error) {
	v, err := readScalarValue(r, t, long)
	if err != nil {
		return nil, err
	}
	if b, ok := v.(bool); ok {
		return strconv.FormatBool(b), nil
	}
	return v, nil
}

// readMapValue decodes the value half: scalar, enum or nested message.
func (c *MessageCodec) readMapValue(r *Reader, v *schema.FieldInfo, wireType WireType, opts Options) (interface{}, error) {
	switch v.Kind {
	case schema.KindScalar, schema.KindEnum:
		scalar := scalarOf(v)
		if err := checkWireType(scalar, wireType); err != nil {
			return nil, err
		}
		return readScalarValue(r, scalar, v.Long)
	case schema.KindMessage:
		if wireType != WireBytes {
			return nil, fmt.Errorf("protodyn: map message value must be length-delimited, got wire type %d", wireType)
		}
		length, err := r.length()
		if err != nil {
			return nil, err
		}
		info := v.Message()
		if info == nil {
			return nil, fmt.Errorf("protodyn: unresolved message type for map value")
		}
		m := NewMessage(info)
		if err := NewMessageCodec(info).Read(r, m, opts, length); err != nil {
			return nil, err
		}
		return m, nil
	default:
		return nil, fmt.Errorf("protodyn: unsupported map value kind %q", v.Kind)
	}
}

// zeroMapKey returns the default key for an entry whose key half was absent.
func zeroMapKey(t schema.ScalarType, long schema.LongType) interface{} {
	switch t {
	case schema.TypeBool:
		return "false"
	case schema.TypeString:
		return ""
	default:
		return zeroScalar(t, long)
	}
}

// zeroMapValue returns the default value for an entry whose value half was
// absent: scalar zero, enum 0, or an empty nested message.
func zeroMapValue(v *schema.FieldInfo) interface{} {
	switch v.Kind {
	case schema.KindEnum:
		return int32(0)
	case schema.KindMessage:
		if info := v.Message(); info != nil {
			return NewMessage(info)
		}
		return nil
	default:
		return zeroScalar(v.Scalar, v.Long)
	}
}

// zeroScalar returns the proto3 default for a scalar type, with 64-bit
// integers surfaced per the LongType.
func zeroScalar(t schema.ScalarType, long schema.LongType) interface{} {
	switch t {
	case schema.TypeBool:
		return false
	case schema.TypeString:
		return ""
	case schema.TypeBytes:
		return []byte{}
	case schema.TypeFloat:
		return float32(0)
	case schema.TypeDouble:
		return float64(0)
	case schema.TypeInt32, schema.TypeSint32, schema.TypeSfixed32:
		return int32(0)
	case schema.TypeUint32, schema.TypeFixed32:
		return uint32(0)
	default:
		return Long{}.Surface(long, t.IsSigned())
	}
}
