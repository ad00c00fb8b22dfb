package registry

import (
	"bytes"
	"fmt"
	"os"
	"path"
	"strings"

	"github.com/rs/zerolog"
	protoparser "github.com/yoheimuta/go-protoparser/v4"
	protoparserparser "github.com/yoheimuta/go-protoparser/v4/parser"

	"github.com/anirudhraja/protodyn/schema"
)

// Registry stores the descriptors of known message and enum types. The
// codec looks these up when it needs to parse or marshal a message.
// Descriptor tables are immutable once loading finishes.
type Registry struct {
	// ProtoDirectories are the roots import paths resolve against.
	ProtoDirectories []string

	messages map[string]*schema.MessageInfo // fully qualified name -> message
	enums    map[string]*schema.EnumInfo    // fully qualified name -> enum

	defaultLong schema.LongType
	log         zerolog.Logger
}

// NewRegistry creates a registry resolving imports against the given
// directories.
func NewRegistry(protoDirs ...string) *Registry {
	return &Registry{
		ProtoDirectories: protoDirs,
		messages:         make(map[string]*schema.MessageInfo),
		enums:            make(map[string]*schema.EnumInfo),
		defaultLong:      schema.LongNative,
		log:              zerolog.Nop(),
	}
}

// SetLogger installs a logger for schema-loading diagnostics. The codec
// hot path never logs.
func (r *Registry) SetLogger(log zerolog.Logger) {
	r.log = log
}

// SetDefaultLongType picks the surface form for 64-bit integer fields that
// carry no jstype option.
func (r *Registry) SetDefaultLongType(t schema.LongType) {
	r.defaultLong = t
}

// LoadSchemaFromFile parses a .proto file, following its imports through
// the registry's proto directories, and registers every message and enum
// found.
func (r *Registry) LoadSchemaFromFile(protoFile string) error {
	files, err := r.collectProtoFiles(protoFile)
	if err != nil {
		return err
	}

	var parsed []*fileScope
	for _, f := range files {
		content, err := os.ReadFile(f)
		if err != nil {
			return fmt.Errorf("failed to read proto file %s: %w", f, err)
		}
		scope, err := r.parse(f, string(content))
		if err != nil {
			return err
		}
		parsed = append(parsed, scope)
	}

	return r.build(parsed)
}

// LoadSchemaFromString parses in-memory .proto source. Imports are not
// followed; the source must be self-contained.
func (r *Registry) LoadSchemaFromString(name, source string) error {
	scope, err := r.parse(name, source)
	if err != nil {
		return err
	}
	return r.build([]*fileScope{scope})
}

// Register adds a hand-built message descriptor, for callers that assemble
// schemas without .proto sources.
func (r *Registry) Register(info *schema.MessageInfo) {
	r.messages[info.TypeName] = info
}

// RegisterEnum adds a hand-built enum descriptor.
func (r *Registry) RegisterEnum(info *schema.EnumInfo) {
	r.enums[info.TypeName] = info
}

// fileScope is one parsed file with its package prefix.
type fileScope struct {
	name  string
	pkg   string
	proto *protoparserparser.Proto
}

// parse runs go-protoparser over one file's source.
func (r *Registry) parse(name, source string) (*fileScope, error) {
	proto, err := protoparser.Parse(bytes.NewBufferString(source))
	if err != nil {
		return nil, fmt.Errorf("failed to parse proto file %s: %w", name, err)
	}

	scope := &fileScope{name: name, proto: proto}
	for _, body := range proto.ProtoBody {
		if pkg, ok := body.(*protoparserparser.Package); ok {
			scope.pkg = pkg.Name
		}
	}

	r.log.Debug().Str("file", name).Str("package", scope.pkg).Msg("parsed proto file")
	return scope, nil
}

// collectProtoFiles resolves the root file and walks its import graph
// depth-first, skipping the google/protobuf well-known imports.
func (r *Registry) collectProtoFiles(protoFile string) ([]string, error) {
	visited := make(map[string]struct{})
	result := make([]string, 0)

	var dfs func(protoFile string) error
	dfs = func(protoFile string) error {
		if _, ok := visited[protoFile]; ok {
			return nil
		}
		visited[protoFile] = struct{}{}
		result = append(result, protoFile)

		content, err := os.ReadFile(protoFile)
		if err != nil {
			return fmt.Errorf("failed to read proto file: %w", err)
		}
		proto, err := protoparser.Parse(bytes.NewBuffer(content))
		if err != nil {
			return err
		}
		for _, body := range proto.ProtoBody {
			imp, ok := body.(*protoparserparser.Import)
			if !ok {
				continue
			}
			importPath := strings.Trim(imp.Location, `"`)
			if strings.Contains(importPath, "google/protobuf") {
				continue
			}
			fullImportPath, err := r.findIfProtoExists(importPath)
			if err != nil {
				return err
			}
			if err := dfs(fullImportPath); err != nil {
				return err
			}
		}
		return nil
	}

	protoPath, err := r.findIfProtoExists(protoFile)
	if err != nil {
		return nil, err
	}
	if err := dfs(protoPath); err != nil {
		return nil, err
	}
	return result, nil
}

// findIfProtoExists resolves a path against the proto directories.
func (r *Registry) findIfProtoExists(protoPath string) (string, error) {
	protoPath = strings.Trim(protoPath, `"`)
	if _, err := os.Stat(protoPath); err == nil {
		if !strings.HasSuffix(protoPath, ".proto") {
			return "", fmt.Errorf("%s is not a .proto file", protoPath)
		}
		return protoPath, nil
	}
	for _, dir := range r.ProtoDirectories {
		fullPath := path.Join(dir, protoPath)
		if _, err := os.Stat(fullPath); err == nil {
			if !strings.HasSuffix(fullPath, ".proto") {
				return "", fmt.Errorf("%s is not a .proto file", fullPath)
			}
			return fullPath, nil
		}
	}
	return "", fmt.Errorf("proto file not found: %s", protoPath)
}

// GetMessage retrieves a message descriptor by name. A bare name matches
// its package-qualified registration.
func (r *Registry) GetMessage(name string) (*schema.MessageInfo, error) {
	if msg, exists := r.messages[name]; exists {
		return msg, nil
	}
	for fullName, msg := range r.messages {
		if strings.HasSuffix(fullName, "."+name) {
			return msg, nil
		}
	}
	return nil, fmt.Errorf("message not found: %s", name)
}

// GetEnum retrieves an enum descriptor by name.
func (r *Registry) GetEnum(name string) (*schema.EnumInfo, error) {
	if enum, exists := r.enums[name]; exists {
		return enum, nil
	}
	for fullName, enum := range r.enums {
		if strings.HasSuffix(fullName, "."+name) {
			return enum, nil
		}
	}
	return nil, fmt.Errorf("enum not found: %s", name)
}

// ListMessages returns all registered message names.
func (r *Registry) ListMessages() []string {
	var names []string
	for name := range r.messages {
		names = append(names, name)
	}
	return names
}

// ListEnums returns all registered enum names.
func (r *Registry) ListEnums() []string {
	var names []string
	for name := range r.enums {
		names = append(names, name)
	}
	return names
}
