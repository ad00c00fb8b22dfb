package wire

import (
	"github.com/anirudhraja/protodyn/schema"
)

// Message is a dynamically-typed message instance, the in-memory target the
// codec reads into and the source it writes from.
//
// Fields maps local field names to decoded values: scalars as their Go
// types (64-bit integers per the field's LongType), repeated fields as
// []interface{}, maps as map[interface{}]interface{}, nested messages as
// *Message, and oneof groups as *Oneof under the group name.
type Message struct {
	Info    *schema.MessageInfo
	Fields  map[string]interface{}
	Unknown []UnknownField
}

// Oneof is the tagged-union record for a oneof group: the local name of the
// member that is set, and its payload. At most one member is ever set;
// writing another member replaces the whole record.
type Oneof struct {
	Kind  string
	Value interface{}
}

// UnknownField holds one unrecognized tagged value in wire order. Raw is
// the value's bytes as read off the wire (for length-delimited values this
// includes the length prefix), so re-emitting Tag(Number, WireType)
// followed by Raw reproduces the original bytes.
type UnknownField struct {
	Number   FieldNumber
	WireType WireType
	Raw      []byte
}

// NewMessage creates an empty message for the given type. Repeated fields
// are preinitialized as empty sequences and map fields as empty mappings,
// so a fresh message is always a valid decode target.
func NewMessage(info *schema.MessageInfo) *Message {
	m := &Message{
		Info:   info,
		Fields: make(map[string]interface{}, len(info.Fields)),
	}
	for _, f := range info.Fields {
		if f.Kind == schema.KindMap {
			m.Fields[f.LocalName] = make(map[interface{}]interface{})
			continue
		}
		if f.Repeat != schema.RepeatNone {
			m.Fields[f.LocalName] = []interface{}{}
		}
	}
	return m
}

// Get returns the value stored under a local field name.
func (m *Message) Get(localName string) interface{} {
	return m.Fields[localName]
}

// Set stores a value under a local field name.
func (m *Message) Set(localName string, v interface{}) {
	m.Fields[localName] = v
}

// SetOneof selects a oneof member, discarding any previously set sibling.
func (m *Message) SetOneof(group, kind string, v interface{}) {
	m.Fields[group] = &Oneof{Kind: kind, Value: v}
}
