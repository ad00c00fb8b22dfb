package protodyn

import (
	"fmt"

	"github.com/rs/zerolog"

	"github.com/anirudhraja/protodyn/registry"
	"github.com/anirudhraja/protodyn/schema"
	"github.com/anirudhraja/protodyn/wire"
)

// ===== SCHEMA-AWARE API =====

// Protodyn provides schema-aware protobuf binary codec operations without
// generated code.
type Protodyn struct {
	registry *registry.Registry
	opts     wire.Options
}

// New creates a new Protodyn instance resolving .proto imports against the
// given directories.
func New(protoDirs ...string) *Protodyn {
	return &Protodyn{
		registry: registry.NewRegistry(protoDirs...),
	}
}

// SetLogger installs a logger for schema-loading diagnostics.
func (p *Protodyn) SetLogger(log zerolog.Logger) {
	p.registry.SetLogger(log)
}

// SetOptions replaces the codec options used by Unmarshal and Marshal.
func (p *Protodyn) SetOptions(opts wire.Options) {
	p.opts = opts
}

// LoadSchemaFromFile parses a .proto file and its imports and registers
// every message and enum found.
func (p *Protodyn) LoadSchemaFromFile(path string) error {
	return p.registry.LoadSchemaFromFile(path)
}

// LoadSchemaFromString parses self-contained .proto source.
func (p *Protodyn) LoadSchemaFromString(name, source string) error {
	return p.registry.LoadSchemaFromString(name, source)
}

// NewMessage creates an empty message of a registered type, with repeated
// and map fields preinitialized.
func (p *Protodyn) NewMessage(messageType string) (*wire.Message, error) {
	info, err := p.registry.GetMessage(messageType)
	if err != nil {
		return nil, fmt.Errorf("message type not found: %s", messageType)
	}
	return wire.NewMessage(info), nil
}

// Unmarshal decodes protobuf bytes into a fresh message of the given type.
func (p *Protodyn) Unmarshal(data []byte, messageType string) (*wire.Message, error) {
	info, err := p.registry.GetMessage(messageType)
	if err != nil {
		return nil, fmt.Errorf("message type not found: %s", messageType)
	}
	return wire.NewMessageCodec(info).Unmarshal(data, p.opts)
}

// UnmarshalInto decodes protobuf bytes into an existing message, merging
// per proto3 semantics.
func (p *Protodyn) UnmarshalInto(data []byte, msg *wire.Message) error {
	return wire.NewMessageCodec(msg.Info).Read(wire.NewReader(data), msg, p.opts, -1)
}

// Marshal encodes a message to protobuf bytes.
func (p *Protodyn) Marshal(msg *wire.Message) ([]byte, error) {
	return wire.NewMessageCodec(msg.Info).Marshal(msg, p.opts)
}

// ===== REGISTRY ACCESS =====

func (p *Protodyn) GetRegistry() *registry.Registry { return p.registry }
func (p *Protodyn) ListMessages() []string          { return p.registry.ListMessages() }
func (p *Protodyn) ListEnums() []string             { return p.registry.ListEnums() }

// GetMessageInfo returns the descriptor for a registered message type.
func (p *Protodyn) GetMessageInfo(messageType string) (*schema.MessageInfo, error) {
	return p.registry.GetMessage(messageType)
}
