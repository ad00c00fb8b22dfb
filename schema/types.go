package schema

import "sync"

// ScalarType identifies a proto3 scalar kind.
type ScalarType string

const (
	TypeDouble   ScalarType = "double"
	TypeFloat    ScalarType = "float"
	TypeInt64    ScalarType = "int64"
	TypeUint64   ScalarType = "uint64"
	TypeInt32    ScalarType = "int32"
	TypeFixed64  ScalarType = "fixed64"
	TypeFixed32  ScalarType = "fixed32"
	TypeBool     ScalarType = "bool"
	TypeString   ScalarType = "string"
	TypeBytes    ScalarType = "bytes"
	TypeUint32   ScalarType = "uint32"
	TypeSfixed32 ScalarType = "sfixed32"
	TypeSfixed64 ScalarType = "sfixed64"
	TypeSint32   ScalarType = "sint32"
	TypeSint64   ScalarType = "sint64"
)

// IsLong reports whether the scalar is a 64-bit integer type whose surface
// representation is chosen by a LongType.
func (t ScalarType) IsLong() bool {
	switch t {
	case TypeInt64, TypeUint64, TypeFixed64, TypeSfixed64, TypeSint64:
		return true
	}
	return false
}

// IsSigned reports whether the scalar's value carries a sign.
func (t ScalarType) IsSigned() bool {
	switch t {
	case TypeInt32, TypeInt64, TypeSint32, TypeSint64, TypeSfixed32, TypeSfixed64,
		TypeDouble, TypeFloat:
		return true
	}
	return false
}

var packedEligible = map[ScalarType]struct{}{
	TypeDouble:   {},
	TypeFloat:    {},
	TypeInt64:    {},
	TypeUint64:   {},
	TypeInt32:    {},
	TypeFixed64:  {},
	TypeFixed32:  {},
	TypeBool:     {},
	TypeUint32:   {},
	TypeSfixed32: {},
	TypeSfixed64: {},
	TypeSint32:   {},
	TypeSint64:   {},
}

// IsPackedType checks and returns if the scalar type may use the packed
// repeated encoding. Strings and bytes never pack.
func IsPackedType(t ScalarType) bool {
	_, ok := packedEligible[t]
	return ok
}

// LongType controls how 64-bit integers are surfaced to callers.
type LongType int

const (
	// LongNative surfaces values as int64 / uint64.
	LongNative LongType = iota
	// LongString surfaces values as decimal strings.
	LongString
	// LongNumber surfaces values as float64. The caller asserts the values
	// fit the 53-bit mantissa; larger magnitudes are approximate.
	LongNumber
)

// FieldKind classifies what a field holds.
type FieldKind string

const (
	KindScalar  FieldKind = "scalar"
	KindEnum    FieldKind = "enum"
	KindMessage FieldKind = "message"
	KindMap     FieldKind = "map"
)

// Repeat describes field repetition and, for scalars, the wire form the
// encoder emits. Decoders accept packed and unpacked regardless.
type Repeat int

const (
	RepeatNone Repeat = iota
	RepeatPacked
	RepeatUnpacked
)

// FieldInfo describes a single message field as the codec consumes it.
//
// Number is the wire field number, unique within a message. Name is the
// .proto field name; LocalName is the in-memory attribute name (lowerCamel).
// Oneof, when non-empty, names the mutually-exclusive group the field
// belongs to.
type FieldInfo struct {
	Number    int32
	Name      string
	LocalName string
	Kind      FieldKind
	Repeat    Repeat
	Oneof     string

	// Scalar fields.
	Scalar ScalarType
	Long   LongType // meaningful only for 64-bit integer scalars

	// Enum fields. The wire representation is always int32.
	Enum *EnumInfo

	// Message fields. The thunk is lazy so cyclic schemas resolve; it must
	// be idempotent and safe for concurrent first call (see LazyMessage).
	Message func() *MessageInfo

	// Map fields. Key is restricted to integer, bool and string kinds per
	// proto3; KeyLong picks the surface form of 64-bit keys. Value reuses
	// FieldInfo with only Kind, Scalar, Long, Enum and Message meaningful.
	Key     ScalarType
	KeyLong LongType
	Value   *FieldInfo
}

// MessageInfo describes a message type: its name and field descriptors.
// The field-number index is built lazily on first use and is immutable
// afterwards, so a MessageInfo may be shared across goroutines.
type MessageInfo struct {
	TypeName string
	Fields   []*FieldInfo

	indexOnce sync.Once
	index     map[int32]*FieldInfo
}

// FieldByNumber returns the descriptor for a wire field number, or nil.
func (m *MessageInfo) FieldByNumber(no int32) *FieldInfo {
	m.indexOnce.Do(func() {
		m.index = make(map[int32]*FieldInfo, len(m.Fields))
		for _, f := range m.Fields {
			m.index[f.Number] = f
		}
	})
	return m.index[no]
}

// FieldByLocalName returns the descriptor with the given local name, or nil.
func (m *MessageInfo) FieldByLocalName(name string) *FieldInfo {
	for _, f := range m.Fields {
		if f.LocalName == name {
			return f
		}
	}
	return nil
}

// LazyMessage wraps a resolver so it runs at most once. Use it to build
// FieldInfo.Message thunks over cyclic schemas; the resolved descriptor is
// published atomically via sync.Once.
func LazyMessage(resolve func() *MessageInfo) func() *MessageInfo {
	var once sync.Once
	var info *MessageInfo
	return func() *MessageInfo {
		once.Do(func() { info = resolve() })
		return info
	}
}

// EnumInfo describes an enum type.
type EnumInfo struct {
	TypeName string
	Values   []EnumValue
}

// EnumValue is a single name/number pair.
type EnumValue struct {
	Name   string
	Number int32
}

// NameByNumber returns the symbolic name for a value, or "" if unknown.
func (e *EnumInfo) NameByNumber(no int32) string {
	for _, v := range e.Values {
		if v.Number == no {
			return v.Name
		}
	}
	return ""
}

// NumberByName returns the value for a symbolic name.
func (e *EnumInfo) NumberByName(name string) (int32, bool) {
	for _, v := range e.Values {
		if v.Name == name {
			return v.Number, true
		}
	}
	return 0, false
}
