package wire

// UnknownFieldMode decides what the decoder does with a tag that has no
// field descriptor.
type UnknownFieldMode int

const (
	// UnknownRecord skips the value and appends its raw tagged bytes to
	// the target's unknown-field store, so re-serialization is lossless.
	// This is the default.
	UnknownRecord UnknownFieldMode = iota
	// UnknownSkip discards the value.
	UnknownSkip
	// UnknownThrow fails the decode with an UnknownFieldError.
	UnknownThrow
)

// UnknownFieldFunc is a custom unknown-field recorder. The decoder skips
// the value, then invokes the func with the message type name, the decode
// target, the field number, the wire type, and the raw value bytes.
type UnknownFieldFunc func(typeName string, target *Message, fieldNumber FieldNumber, wireType WireType, raw []byte)

// Options configure a decode or encode pass. The zero value gives the
// defaults: record unknown fields on read, re-emit them on write, built-in
// reader/writer, UTF-8 text encoding.
type Options struct {
	// UnknownFields picks the unknown-field policy on read.
	UnknownFields UnknownFieldMode

	// UnknownFieldFunc, when set, replaces the mode: the value is skipped
	// and the func invoked.
	UnknownFieldFunc UnknownFieldFunc

	// DiscardUnknownOnWrite suppresses re-emission of stored unknown
	// fields when encoding.
	DiscardUnknownOnWrite bool

	// ReaderFactory yields the cursor used for decoding, allowing custom
	// byte backings. Nil means NewReader.
	ReaderFactory func(data []byte) *Reader

	// WriterFactory yields the emitter used for encoding. Nil means
	// NewWriter (or NewWriterWithEncoder when Text is set).
	WriterFactory func() *Writer

	// Text is the encoder for proto3 string fields. Nil means UTF-8.
	Text TextEncoder
}

// reader builds the decode cursor for data.
func (o Options) reader(data []byte) *Reader {
	if o.ReaderFactory != nil {
		return o.ReaderFactory(data)
	}
	return NewReader(data)
}

// writer builds the encode emitter.
func (o Options) writer() *Writer {
	if o.WriterFactory != nil {
		return o.WriterFactory()
	}
	if o.Text != nil {
		return NewWriterWithEncoder(o.Text)
	}
	return NewWriter()
}
