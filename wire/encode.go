package wire

import (
	"fmt"
	"sort"

	"github.com/anirudhraja/protodyn/schema"
)

// Marshal encodes a message to wire bytes through the options' writer.
func (c *MessageCodec) Marshal(msg *Message, opts Options) ([]byte, error) {
	w := opts.writer()
	if err := c.Write(w, msg, opts); err != nil {
		return nil, fmt.Errorf("failed to encode message %s: %w", c.info.TypeName, err)
	}
	return w.Finish()
}

// Write walks the field descriptors in field-number order and emits
// tag+value pairs for every populated field, then re-emits stored unknown
// fields in recorded order unless the options discard them.
func (c *MessageCodec) Write(w *Writer, msg *Message, opts Options) error {
	fields := make([]*schema.FieldInfo, len(c.info.Fields))
	copy(fields, c.info.Fields)
	sort.Slice(fields, func(i, j int) bool { return fields[i].Number < fields[j].Number })

	for _, f := range fields {
		value, ok := presentValue(msg, f)
		if !ok {
			continue
		}
		if err := c.writeField(w, f, value, opts); err != nil {
			return fieldErr(f.Name, err)
		}
	}

	if !opts.DiscardUnknownOnWrite {
		for _, u := range msg.Unknown {
			w.Tag(u.Number, u.WireType).Raw(u.Raw)
		}
	}
	return w.Err()
}

// presentValue resolves whether a field has a value to emit. Oneof members
// emit only when their group record selects them.
func presentValue(msg *Message, f *schema.FieldInfo) (interface{}, bool) {
	if f.Oneof != "" {
		group, ok := msg.Fields[f.Oneof].(*Oneof)
		if !ok || group == nil || group.Kind != f.LocalName {
			return nil, false
		}
		return group.Value, true
	}
	v, ok := msg.Fields[f.LocalName]
	if !ok || v == nil {
		return nil, false
	}
	return v, true
}

// writeField emits one field's tag+value pairs.
func (c *MessageCodec) writeField(w *Writer, f *schema.FieldInfo, value interface{}, opts Options) error {
	switch f.Kind {
	case schema.KindMap:
		return c.writeMapField(w, f, value, opts)

	case schema.KindMessage:
		info := f.Message()
		if info == nil {
			return fmt.Errorf("protodyn: unresolved message type for field %s", f.Name)
		}
		nested := NewMessageCodec(info)
		if f.Repeat != schema.RepeatNone {
			elems, err := sliceValues(value)
			if err != nil {
				return err
			}
			for _, e := range elems {
				if err := nested.writeEmbedded(w, f.Number, e, opts); err != nil {
					return err
				}
			}
			return nil
		}
		return nested.writeEmbedded(w, f.Number, value, opts)

	case schema.KindScalar, schema.KindEnum:
		scalar := scalarOf(f)
		if f.Repeat != schema.RepeatNone {
			elems, err := sliceValues(value)
			if err != nil {
				return err
			}
			if len(elems) == 0 {
				return nil
			}
			if f.Repeat == schema.RepeatPacked && schema.IsPackedType(scalar) {
				w.Tag(FieldNumber(f.Number), WireBytes).Fork()
				for _, e := range elems {
					if err := c.writeScalar(w, f, scalar, e); err != nil {
						return err
					}
				}
				w.Join()
				return w.Err()
			}
			for _, e := range elems {
				w.Tag(FieldNumber(f.Number), scalarWireType(scalar))
				if err := c.writeScalar(w, f, scalar, e); err != nil {
					return err
				}
			}
			return w.Err()
		}
		w.Tag(FieldNumber(f.Number), scalarWireType(scalar))
		if err := c.writeScalar(w, f, scalar, value); err != nil {
			return err
		}
		return w.Err()

	default:
		return fmt.Errorf("protodyn: unsupported field kind %q", f.Kind)
	}
}

// writeEmbedded emits a nested message as a length-prefixed sub-region via
// fork/join.
func (c *MessageCodec) writeEmbedded(w *Writer, no int32, value interface{}, opts Options) error {
	m, ok := value.(*Message)
	if !ok {
		return fmt.Errorf("protodyn: message field value must be *Message, got %T", value)
	}
	w.Tag(FieldNumber(no), WireBytes).Fork()
	if err := c.Write(w, m, opts); err != nil {
		return err
	}
	w.Join()
	return w.Err()
}

// writeScalar emits one scalar value, coercing dynamic inputs to the
// field's type. Enum fields also accept their symbolic value names.
func (c *MessageCodec) writeScalar(w *Writer, f *schema.FieldInfo, t schema.ScalarType, value interface{}) error {
	if f.Kind == schema.KindEnum {
		n, err := enumNumber(f.Enum, value)
		if err != nil {
			return err
		}
		w.Int32(n)
		return w.Err()
	}

	switch t {
	case schema.TypeInt32:
		v, err := coerceInt32(value)
		if err != nil {
			return err
		}
		w.Int32(v)
	case schema.TypeSint32:
		v, err := coerceInt32(value)
		if err != nil {
			return err
		}
		w.Sint32(v)
	case schema.TypeSfixed32:
		v, err := coerceInt32(value)
		if err != nil {
			return err
		}
		w.Sfixed32(v)
	case schema.TypeUint32:
		v, err := coerceUint32(value)
		if err != nil {
			return err
		}
		w.Uint32(v)
	case schema.TypeFixed32:
		v, err := coerceUint32(value)
		if err != nil {
			return err
		}
		w.Fixed32(v)
	case schema.TypeBool:
		v, ok := value.(bool)
		if !ok {
			return fmt.Errorf("protodyn: bool field value must be bool, got %T", value)
		}
		w.Bool(v)
	case schema.TypeString:
		v, ok := value.(string)
		if !ok {
			return fmt.Errorf("protodyn: string field value must be string, got %T", value)
		}
		w.String(v)
	case schema.TypeBytes:
		v, ok := value.([]byte)
		if !ok {
			return fmt.Errorf("protodyn: bytes field value must be []byte, got %T", value)
		}
		w.Bytes(v)
	case schema.TypeFloat:
		v, err := coerceFloat32(value)
		if err != nil {
			return err
		}
		w.Float(v)
	case schema.TypeDouble:
		v, err := coerceFloat64(value)
		if err != nil {
			return err
		}
		w.Double(v)
	case schema.TypeInt64:
		w.Int64(value)
	case schema.TypeSint64:
		w.Sint64(value)
	case schema.TypeSfixed64:
		w.Sfixed64(value)
	case schema.TypeUint64:
		w.Uint64(value)
	case schema.TypeFixed64:
		w.Fixed64(value)
	default:
		return fmt.Errorf("protodyn: unsupported scalar type %q", t)
	}
	return w.Err()
}

// enumNumber coerces an enum field value: a number, or a symbolic name
// resolved against the enum descriptor.
func enumNumber(e *schema.EnumInfo, value interface{}) (int32, error) {
	if name, ok := value.(string); ok {
		if e == nil {
			return 0, fmt.Errorf("protodyn: enum name %q given without enum descriptor", name)
		}
		n, ok := e.NumberByName(name)
		if !ok {
			return 0, fmt.Errorf("protodyn: unknown enum value name %q for %s", name, e.TypeName)
		}
		return n, nil
	}
	return coerceInt32(value)
}

// writeMapField emits one length-delimited entry per key. Keys are sorted
// by their display form so output is deterministic.
func (c *MessageCodec) writeMapField(w *Writer, f *schema.FieldInfo, value interface{}, opts Options) error {
	m, err := mapValues(value)
	if err != nil {
		return err
	}

	keys := make([]interface{}, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return fmt.Sprint(keys[i]) < fmt.Sprint(keys[j])
	})

	for _, k := range keys {
		w.Tag(FieldNumber(f.Number), WireBytes).Fork()
		w.Tag(1, scalarWireType(f.Key))
		if err := c.writeMapKey(w, f, k); err != nil {
			return err
		}
		if err := c.writeMapValue(w, f.Value, m[k], opts); err != nil {
			return err
		}
		w.Join()
		if err := w.Err(); err != nil {
			return err
		}
	}
	return nil
}

// writeMapKey emits the key half, undoing the comparable-form coercion for
// bool keys.
func (c *MessageCodec) writeMapKey(w *Writer, f *schema.FieldInfo, key interface{}) error {
	if f.Key == schema.TypeBool {
		switch k := key.(type) {
		case bool:
			w.Bool(k)
			return w.Err()
		case string:
			w.Bool(k == "true")
			return w.Err()
		default:
			return fmt.Errorf("protodyn: bool map key must be bool or string, got %T", key)
		}
	}
	keyField := &schema.FieldInfo{Kind: schema.KindScalar, Scalar: f.Key, Long: f.KeyLong}
	return c.writeScalar(w, keyField, f.Key, key)
}

// writeMapValue emits the value half: scalar, enum or nested message.
func (c *MessageCodec) writeMapValue(w *Writer, v *schema.FieldInfo, value interface{}, opts Options) error {
	switch v.Kind {
	case schema.KindScalar, schema.KindEnum:
		w.Tag(2, scalarWireType(scalarOf(v)))
		return c.writeScalar(w, v, scalarOf(v), value)
	case schema.KindMessage:
		info := v.Message()
		if info == nil {
			return fmt.Errorf("protodyn: unresolved message type for map value")
		}
		return NewMessageCodec(info).writeEmbedded(w, 2, value, opts)
	default:
		return fmt.Errorf("protodyn: unsupported map value kind %q", v.Kind)
	}
}
