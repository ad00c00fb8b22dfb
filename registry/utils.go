package registry

import (
	"fmt"
	"strconv"
	"strings"

	protoparserparser "github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/anirudhraja/protodyn/schema"
)

// build turns parsed files into descriptor tables. Pass 1 registers every
// message and enum name so forward and cyclic references resolve; pass 2
// builds the field descriptors.
func (r *Registry) build(files []*fileScope) error {
	for _, fs := range files {
		for _, body := range fs.proto.ProtoBody {
			switch b := body.(type) {
			case *protoparserparser.Message:
				r.registerShells(fs.pkg, b)
			case *protoparserparser.Enum:
				r.registerParsedEnum(qualify(fs.pkg, b.EnumName), b)
			}
		}
	}

	for _, fs := range files {
		for _, body := range fs.proto.ProtoBody {
			if b, ok := body.(*protoparserparser.Message); ok {
				if err := r.buildMessage(qualify(fs.pkg, b.MessageName), b); err != nil {
					return err
				}
			}
		}
	}

	r.log.Debug().
		Int("messages", len(r.messages)).
		Int("enums", len(r.enums)).
		Msg("schema registry built")
	return nil
}

// registerShells registers a message name and, recursively, its nested
// message and enum names.
func (r *Registry) registerShells(prefix string, msg *protoparserparser.Message) {
	full := qualify(prefix, msg.MessageName)
	if _, ok := r.messages[full]; !ok {
		r.messages[full] = &schema.MessageInfo{TypeName: full}
	}
	for _, body := range msg.MessageBody {
		switch b := body.(type) {
		case *protoparserparser.Message:
			r.registerShells(full, b)
		case *protoparserparser.Enum:
			r.registerParsedEnum(qualify(full, b.EnumName), b)
		}
	}
}

// registerParsedEnum builds an enum descriptor. Enums carry no cross
// references, so one pass suffices.
func (r *Registry) registerParsedEnum(full string, enum *protoparserparser.Enum) {
	info := &schema.EnumInfo{TypeName: full}
	for _, body := range enum.EnumBody {
		ef, ok := body.(*protoparserparser.EnumField)
		if !ok {
			continue
		}
		n, err := strconv.ParseInt(ef.Number, 10, 32)
		if err != nil {
			continue
		}
		info.Values = append(info.Values, schema.EnumValue{Name: ef.Ident, Number: int32(n)})
	}
	r.enums[full] = info
}

// buildMessage fills a message shell's field descriptors and recurses into
// nested messages.
func (r *Registry) buildMessage(full string, msg *protoparserparser.Message) error {
	info := r.messages[full]
	var fields []*schema.FieldInfo

	for _, body := range msg.MessageBody {
		switch b := body.(type) {
		case *protoparserparser.Field:
			f, err := r.buildField(full, b.Type, b.FieldName, b.FieldNumber, b.IsRepeated, b.FieldOptions, "")
			if err != nil {
				return err
			}
			fields = append(fields, f)
		case *protoparserparser.Oneof:
			for _, of := range b.OneofFields {
				f, err := r.buildField(full, of.Type, of.FieldName, of.FieldNumber, false, of.FieldOptions, toLowerCamel(b.OneofName))
				if err != nil {
					return err
				}
				fields = append(fields, f)
			}
		case *protoparserparser.MapField:
			f, err := r.buildMapField(full, b)
			if err != nil {
				return err
			}
			fields = append(fields, f)
		case *protoparserparser.Message:
			if err := r.buildMessage(qualify(full, b.MessageName), b); err != nil {
				return err
			}
		}
	}

	info.Fields = fields
	return nil
}

// buildField builds one field descriptor, resolving the type name against
// the enclosing scope.
func (r *Registry) buildField(scope, typeName, name, number string, repeated bool, opts []*protoparserparser.FieldOption, oneof string) (*schema.FieldInfo, error) {
	no, err := strconv.ParseInt(number, 10, 32)
	if err != nil || no <= 0 {
		return nil, fmt.Errorf("invalid field number %q for field %s in %s", number, name, scope)
	}

	f := &schema.FieldInfo{
		Number:    int32(no),
		Name:      name,
		LocalName: toLowerCamel(name),
		Oneof:     oneof,
	}

	if st, ok := scalarTypeOf(typeName); ok {
		f.Kind = schema.KindScalar
		f.Scalar = st
		f.Long = r.longTypeOf(opts)
	} else if full, ok := r.resolveEnum(typeName, scope); ok {
		f.Kind = schema.KindEnum
		f.Enum = r.enums[full]
	} else if full, ok := r.resolveMessage(typeName, scope); ok {
		f.Kind = schema.KindMessage
		shell := r.messages[full]
		f.Message = schema.LazyMessage(func() *schema.MessageInfo { return shell })
	} else {
		return nil, fmt.Errorf("unable to resolve type name %s referenced by %s.%s", typeName, scope, name)
	}

	if repeated {
		f.Repeat = schema.RepeatUnpacked
		if f.Kind == schema.KindEnum || (f.Kind == schema.KindScalar && schema.IsPackedType(f.Scalar)) {
			// proto3 packs eligible repeated fields unless opted out.
			f.Repeat = schema.RepeatPacked
		}
		switch packedOption(opts) {
		case "false":
			f.Repeat = schema.RepeatUnpacked
		case "true":
			f.Repeat = schema.RepeatPacked
		}
	}
	return f, nil
}

// buildMapField builds a map field descriptor. Keys are restricted to the
// integer, bool and string scalar kinds per proto3.
func (r *Registry) buildMapField(scope string, mf *protoparserparser.MapField) (*schema.FieldInfo, error) {
	no, err := strconv.ParseInt(mf.FieldNumber, 10, 32)
	if err != nil || no <= 0 {
		return nil, fmt.Errorf("invalid field number %q for map field %s in %s", mf.FieldNumber, mf.MapName, scope)
	}

	key, ok := scalarTypeOf(mf.KeyType)
	if !ok || !validMapKey(key) {
		return nil, fmt.Errorf("invalid map key type %s for field %s in %s", mf.KeyType, mf.MapName, scope)
	}

	f := &schema.FieldInfo{
		Number:    int32(no),
		Name:      mf.MapName,
		LocalName: toLowerCamel(mf.MapName),
		Kind:      schema.KindMap,
		Key:       key,
		KeyLong:   r.defaultLong,
	}

	value := &schema.FieldInfo{}
	if st, ok := scalarTypeOf(mf.Type); ok {
		value.Kind = schema.KindScalar
		value.Scalar = st
		value.Long = r.longTypeOf(mf.FieldOptions)
	} else if full, ok := r.resolveEnum(mf.Type, scope); ok {
		value.Kind = schema.KindEnum
		value.Enum = r.enums[full]
	} else if full, ok := r.resolveMessage(mf.Type, scope); ok {
		value.Kind = schema.KindMessage
		shell := r.messages[full]
		value.Message = schema.LazyMessage(func() *schema.MessageInfo { return shell })
	} else {
		return nil, fmt.Errorf("unable to resolve map value type %s for field %s in %s", mf.Type, mf.MapName, scope)
	}
	f.Value = value
	return f, nil
}

// resolveMessage resolves a type reference to a registered message name.
func (r *Registry) resolveMessage(typeName, scope string) (string, bool) {
	return resolveName(typeName, scope, func(n string) bool {
		_, ok := r.messages[n]
		return ok
	})
}

// resolveEnum resolves a type reference to a registered enum name.
func (r *Registry) resolveEnum(typeName, scope string) (string, bool) {
	return resolveName(typeName, scope, func(n string) bool {
		_, ok := r.enums[n]
		return ok
	})
}

// resolveName tries a reference from the innermost scope outwards, the way
// protoc resolves names. A leading dot means fully qualified.
func resolveName(typeName, scope string, exists func(string) bool) (string, bool) {
	if strings.HasPrefix(typeName, ".") {
		n := strings.TrimPrefix(typeName, ".")
		if exists(n) {
			return n, true
		}
		return "", false
	}

	parts := strings.Split(scope, ".")
	for len(parts) > 0 && parts[0] != "" {
		candidate := strings.Join(parts, ".") + "." + typeName
		if exists(candidate) {
			return candidate, true
		}
		parts = parts[:len(parts)-1]
	}
	if exists(typeName) {
		return typeName, true
	}
	return "", false
}

func qualify(prefix, name string) string {
	if prefix == "" {
		return name
	}
	return prefix + "." + name
}

var scalarNames = map[string]schema.ScalarType{
	"double":   schema.TypeDouble,
	"float":    schema.TypeFloat,
	"int64":    schema.TypeInt64,
	"uint64":   schema.TypeUint64,
	"int32":    schema.TypeInt32,
	"fixed64":  schema.TypeFixed64,
	"fixed32":  schema.TypeFixed32,
	"bool":     schema.TypeBool,
	"string":   schema.TypeString,
	"bytes":    schema.TypeBytes,
	"uint32":   schema.TypeUint32,
	"sfixed32": schema.TypeSfixed32,
	"sfixed64": schema.TypeSfixed64,
	"sint32":   schema.TypeSint32,
	"sint64":   schema.TypeSint64,
}

func scalarTypeOf(name string) (schema.ScalarType, bool) {
	st, ok := scalarNames[name]
	return st, ok
}

func validMapKey(t schema.ScalarType) bool {
	switch t {
	case schema.TypeDouble, schema.TypeFloat, schema.TypeBytes:
		return false
	}
	return true
}

// longTypeOf maps the jstype field option onto a LongType, falling back to
// the registry default.
func (r *Registry) longTypeOf(opts []*protoparserparser.FieldOption) schema.LongType {
	for _, o := range opts {
		if o.OptionName != "jstype" {
			continue
		}
		switch o.Constant {
		case "JS_STRING":
			return schema.LongString
		case "JS_NUMBER":
			return schema.LongNumber
		}
	}
	return r.defaultLong
}

// packedOption returns the packed field option's constant, or "".
func packedOption(opts []*protoparserparser.FieldOption) string {
	for _, o := range opts {
		if o.OptionName == "packed" {
			return o.Constant
		}
	}
	return ""
}

// toLowerCamel converts a snake_case field name to the lowerCamelCase
// local name. Underscores are dropped and the following letter upcased;
// the first letter is always lowercased.
func toLowerCamel(s string) string {
	if s == "" {
		return s
	}
	if !strings.ContainsRune(s, '_') {
		if 'A' <= s[0] && s[0] <= 'Z' {
			return string(s[0]+'a'-'A') + s[1:]
		}
		return s
	}

	var b strings.Builder
	b.Grow(len(s))
	upcase := false
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case c == '_':
			upcase = true
		case b.Len() == 0:
			if 'A' <= c && c <= 'Z' {
				c += 'a' - 'A'
			}
			b.WriteByte(c)
			upcase = false
		case upcase:
			if 'a' <= c && c <= 'z' {
				c -= 'a' - 'A'
			}
			b.WriteByte(c)
			upcase = false
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}
