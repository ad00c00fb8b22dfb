package wire

import (
	"fmt"

	"github.com/anirudhraja/protodyn/schema"
)

// MessageCodec reads and writes one message type through its descriptors.
// It caches only the immutable field index, so a codec may be shared across
// goroutines as long as each decode uses its own cursor and target.
type MessageCodec struct {
	info *schema.MessageInfo
}

// NewMessageCodec creates a codec for the given message type.
func NewMessageCodec(info *schema.MessageInfo) *MessageCodec {
	return &MessageCodec{info: info}
}

// Info returns the descriptor the codec was built from.
func (c *MessageCodec) Info() *schema.MessageInfo {
	return c.info
}

// Unmarshal decodes a complete byte stream into a fresh message.
func (c *MessageCodec) Unmarshal(data []byte, opts Options) (*Message, error) {
	msg := NewMessage(c.info)
	if err := c.Read(opts.reader(data), msg, opts, -1); err != nil {
		return nil, fmt.Errorf("failed to decode message %s: %w", c.info.TypeName, err)
	}
	return msg, nil
}

// Read decodes from the cursor into target, mutating it in place. With
// length < 0 it consumes to the reader's end; otherwise it stops at
// pos+length. Decoding into an already-populated target merges per proto3:
// scalars overwrite, repeated fields append, nested messages merge
// recursively, map entries overwrite by key.
func (c *MessageCodec) Read(r *Reader, target *Message, opts Options, length int) error {
	end := r.Len()
	if length >= 0 {
		end = r.Pos() + length
	}

	for r.Pos() < end {
		fieldNo, wireType, err := r.Tag()
		if err != nil {
			return err
		}

		field := c.info.FieldByNumber(int32(fieldNo))
		if field == nil {
			if err := c.readUnknown(r, target, fieldNo, wireType, opts); err != nil {
				return err
			}
			continue
		}

		if err := c.readField(r, target, field, wireType, opts); err != nil {
			return fieldErr(field.Name, err)
		}
	}
	return nil
}

// readUnknown skips an unrecognized value and applies the unknown-field
// policy. Recording never fails.
func (c *MessageCodec) readUnknown(r *Reader, target *Message, fieldNo FieldNumber, wireType WireType, opts Options) error {
	raw, err := r.Skip(wireType)
	if err != nil {
		return err
	}
	if opts.UnknownFieldFunc != nil {
		opts.UnknownFieldFunc(c.info.TypeName, target, fieldNo, wireType, raw)
		return nil
	}
	switch opts.UnknownFields {
	case UnknownThrow:
		return &UnknownFieldError{TypeName: c.info.TypeName, FieldNumber: fieldNo, WireType: wireType}
	case UnknownSkip:
		return nil
	default:
		// Skip shares the input buffer; the store outlives the decode.
		stored := make([]byte, len(raw))
		copy(stored, raw)
		target.Unknown = append(target.Unknown, UnknownField{
			Number:   fieldNo,
			WireType: wireType,
			Raw:      stored,
		})
		return nil
	}
}

// readField decodes one occurrence of a known field into the target,
// honoring oneof routing, repetition, packing and nested-message merging.
func (c *MessageCodec) readField(r *Reader, target *Message, f *schema.FieldInfo, wireType WireType, opts Options) error {
	if f.Kind == schema.KindMap {
		key, value, err := c.readMapEntry(r, f, opts)
		if err != nil {
			return err
		}
		m, ok := target.Fields[f.LocalName].(map[interface{}]interface{})
		if !ok {
			m = make(map[interface{}]interface{})
			target.Fields[f.LocalName] = m
		}
		m[key] = value
		return nil
	}

	// Resolve the destination slot. Oneof members write through the group
	// record; selecting a member discards any sibling payload.
	var cur interface{}
	var store func(interface{})
	if f.Oneof != "" {
		group, _ := target.Fields[f.Oneof].(*Oneof)
		if group == nil || group.Kind != f.LocalName {
			group = &Oneof{Kind: f.LocalName}
			target.Fields[f.Oneof] = group
		}
		cur = group.Value
		store = func(v interface{}) { group.Value = v }
	} else {
		cur = target.Fields[f.LocalName]
		store = func(v interface{}) { target.Fields[f.LocalName] = v }
	}

	switch f.Kind {
	case schema.KindScalar, schema.KindEnum:
		scalar := scalarOf(f)
		if f.Repeat != schema.RepeatNone {
			slice, _ := cur.([]interface{})
			if wireType == WireBytes && schema.IsPackedType(scalar) {
				// Packed: one length prefix, values back to back.
				sub, err := r.length()
				if err != nil {
					return err
				}
				subEnd := r.Pos() + sub
				for r.Pos() < subEnd {
					v, err := readScalarValue(r, scalar, f.Long)
					if err != nil {
						return err
					}
					slice = append(slice, v)
				}
				store(slice)
				return nil
			}
			if err := checkWireType(scalar, wireType); err != nil {
				return err
			}
			v, err := readScalarValue(r, scalar, f.Long)
			if err != nil {
				return err
			}
			store(append(slice, v))
			return nil
		}
		if err := checkWireType(scalar, wireType); err != nil {
			return err
		}
		v, err := readScalarValue(r, scalar, f.Long)
		if err != nil {
			return err
		}
		store(v)
		return nil

	case schema.KindMessage:
		if wireType != WireBytes {
			return fmt.Errorf("protodyn: message field must be length-delimited, got wire type %d", wireType)
		}
		sub, err := r.length()
		if err != nil {
			return err
		}
		info := f.Message()
		if info == nil {
			return fmt.Errorf("protodyn: unresolved message type for field %s", f.Name)
		}
		nested := NewMessageCodec(info)
		if f.Repeat != schema.RepeatNone {
			m := NewMessage(info)
			if err := nested.Read(r, m, opts, sub); err != nil {
				return err
			}
			slice, _ := cur.([]interface{})
			store(append(slice, m))
			return nil
		}
		// Singular: merge into the existing nested message when present.
		m, ok := cur.(*Message)
		if !ok || m == nil {
			m = NewMessage(info)
		}
		if err := nested.Read(r, m, opts, sub); err != nil {
			return err
		}
		store(m)
		return nil

	default:
		return fmt.Errorf("protodyn: unsupported field kind %q", f.Kind)
	}
}

// scalarOf maps a field to the scalar type its values decode as. Enums ride
// the wire as int32.
func scalarOf(f *schema.FieldInfo) schema.ScalarType {
	if f.Kind == schema.KindEnum {
		return schema.TypeInt32
	}
	return f.Scalar
}

// scalarWireType returns the wire type a scalar uses outside packed form.
func scalarWireType(t schema.ScalarType) WireType {
	switch t {
	case schema.TypeString, schema.TypeBytes:
		return WireBytes
	case schema.TypeFloat, schema.TypeFixed32, schema.TypeSfixed32:
		return WireFixed32
	case schema.TypeDouble, schema.TypeFixed64, schema.TypeSfixed64:
		return WireFixed64
	default:
		return WireVarint
	}
}

func checkWireType(t schema.ScalarType, got WireType) error {
	if want := scalarWireType(t); got != want {
		return fmt.Errorf("protodyn: wire type %d for %s field, want %d", got, t, want)
	}
	return nil
}

// readScalarValue decodes one scalar and returns its host value; 64-bit
// integers pass through the LongType conversion before storage.
func readScalarValue(r *Reader, t schema.ScalarType, long schema.LongType) (interface{}, error) {
	switch t {
	case schema.TypeInt32:
		v, err := r.Int32()
		return v, err
	case schema.TypeUint32:
		v, err := r.Uint32()
		return v, err
	case schema.TypeSint32:
		v, err := r.Sint32()
		return v, err
	case schema.TypeBool:
		v, err := r.Bool()
		return v, err
	case schema.TypeFixed32:
		v, err := r.Fixed32()
		return v, err
	case schema.TypeSfixed32:
		v, err := r.Sfixed32()
		return v, err
	case schema.TypeFloat:
		v, err := r.Float()
		return v, err
	case schema.TypeDouble:
		v, err := r.Double()
		return v, err
	case schema.TypeString:
		v, err := r.String()
		return v, err
	case schema.TypeBytes:
		v, err := r.Bytes()
		return v, err
	case schema.TypeInt64:
		l, err := r.Int64()
		if err != nil {
			return nil, err
		}
		return l.Surface(long, true), nil
	case schema.TypeSint64:
		l, err := r.Sint64()
		if err != nil {
			return nil, err
		}
		return l.Surface(long, true), nil
	case schema.TypeSfixed64:
		l, err := r.Sfixed64()
		if err != nil {
			return nil, err
		}
		return l.Surface(long, true), nil
	case schema.TypeUint64:
		l, err := r.Uint64()
		if err != nil {
			return nil, err
		}
		return l.Surface(long, false), nil
	case schema.TypeFixed64:
		l, err := r.Fixed64()
		if err != nil {
			return nil, err
		}
		return l.Surface(long, false), nil
	default:
		return nil, fmt.Errorf("protodyn: unsupported scalar type %q", t)
	}
}
