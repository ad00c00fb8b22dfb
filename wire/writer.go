package wire

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Writer is a growable byte emitter producing proto3 wire output. Completed
// byte chunks accumulate in order; small writes go through an in-progress
// buffer; Fork/Join bracket length-delimited sub-regions whose length is not
// known in advance.
//
// Methods return the writer for chaining. The first failure sticks: later
// writes become no-ops and Finish reports the error. A Writer is stateful
// and not safe for concurrent use; callers wanting per-operation instances
// can use the writer-factory option.
type Writer struct {
	chunks [][]byte
	buf    []byte
	stack  []writerFrame
	text   TextEncoder
	err    error
}

// writerFrame is a saved (chunks, buf) snapshot for an open fork.
type writerFrame struct {
	chunks [][]byte
	buf    []byte
}

// NewWriter creates a writer with the default UTF-8 text encoder.
func NewWriter() *Writer {
	return &Writer{text: NewUTF8Encoder()}
}

// NewWriterWithEncoder creates a writer with a custom text encoder.
func NewWriterWithEncoder(text TextEncoder) *Writer {
	return &Writer{text: text}
}

// Err returns the first error recorded by a write, if any.
func (w *Writer) Err() error {
	return w.err
}

// setError records the first error that occurs.
func (w *Writer) setError(err error) {
	if w.err == nil {
		w.err = err
	}
}

// flush moves the in-progress buffer into the chunk list.
func (w *Writer) flush() {
	if len(w.buf) > 0 {
		w.chunks = append(w.chunks, w.buf)
		w.buf = nil
	}
}

// concat flattens the chunk list plus the in-progress buffer into one slice.
func (w *Writer) concat() []byte {
	size := len(w.buf)
	for _, c := range w.chunks {
		size += len(c)
	}
	out := make([]byte, 0, size)
	for _, c := range w.chunks {
		out = append(out, c...)
	}
	return append(out, w.buf...)
}

// Tag emits a field tag as a uint32 varint.
func (w *Writer) Tag(fieldNumber FieldNumber, wireType WireType) *Writer {
	return w.Uint32(uint32(MakeTag(fieldNumber, wireType)))
}

// Raw appends the given bytes as a completed chunk without copying. The
// caller must not mutate the slice afterwards.
func (w *Writer) Raw(data []byte) *Writer {
	if w.err != nil {
		return w
	}
	w.flush()
	w.chunks = append(w.chunks, data)
	return w
}

// Uint32 writes an unsigned 32-bit varint.
func (w *Writer) Uint32(v uint32) *Writer {
	if w.err != nil {
		return w
	}
	w.buf = AppendVarint32(w.buf, v)
	return w
}

// Int32 writes a signed 32-bit varint. Negative values are sign-extended to
// 64 bits and emitted as ten bytes, per the proto3 int32 rule.
func (w *Writer) Int32(v int32) *Writer {
	if w.err != nil {
		return w
	}
	if v < 0 {
		w.buf = AppendVarint64(w.buf, uint32(v), ^uint32(0))
	} else {
		w.buf = AppendVarint32(w.buf, uint32(v))
	}
	return w
}

// Sint32 writes a zigzag-encoded 32-bit varint.
func (w *Writer) Sint32(v int32) *Writer {
	return w.Uint32(EncodeZigZag32(v))
}

// Bool writes a single 0 or 1 byte.
func (w *Writer) Bool(v bool) *Writer {
	if w.err != nil {
		return w
	}
	if v {
		w.buf = append(w.buf, 1)
	} else {
		w.buf = append(w.buf, 0)
	}
	return w
}

// Bytes writes a length prefix followed by the data.
func (w *Writer) Bytes(data []byte) *Writer {
	if w.err != nil {
		return w
	}
	w.Uint32(uint32(len(data)))
	w.buf = append(w.buf, data...)
	return w
}

// String encodes the string through the text encoder, then behaves as Bytes.
func (w *Writer) String(s string) *Writer {
	if w.err != nil {
		return w
	}
	data, err := w.text.Encode(s)
	if err != nil {
		w.setError(fmt.Errorf("protodyn: string encoding failed: %w", err))
		return w
	}
	return w.Bytes(data)
}

// Float writes 4 little-endian IEEE-754 bytes. Values that lose precision
// when narrowed from float64 upstream are accepted; only the bit pattern of
// the float32 given here is emitted.
func (w *Writer) Float(v float32) *Writer {
	return w.Fixed32(math.Float32bits(v))
}

// Double writes 8 little-endian IEEE-754 bytes.
func (w *Writer) Double(v float64) *Writer {
	bits := math.Float64bits(v)
	return w.fixed64(Long{Lo: uint32(bits), Hi: uint32(bits >> 32)})
}

// Fixed32 writes 4 little-endian bytes.
func (w *Writer) Fixed32(v uint32) *Writer {
	if w.err != nil {
		return w
	}
	w.buf = binary.LittleEndian.AppendUint32(w.buf, v)
	return w
}

// Sfixed32 writes 4 little-endian bytes of a signed value.
func (w *Writer) Sfixed32(v int32) *Writer {
	return w.Fixed32(uint32(v))
}

// fixed64 writes the halves as 8 little-endian bytes.
func (w *Writer) fixed64(l Long) *Writer {
	if w.err != nil {
		return w
	}
	w.buf = binary.LittleEndian.AppendUint32(w.buf, l.Lo)
	w.buf = binary.LittleEndian.AppendUint32(w.buf, l.Hi)
	return w
}

// Fixed64 writes an unsigned 64-bit value as 8 little-endian bytes. The
// value may be a Long, uint64, uint32, int (non-negative), float64 holding
// an integer, or decimal string.
func (w *Writer) Fixed64(v interface{}) *Writer {
	l, err := longValue(v, false)
	if err != nil {
		w.setError(err)
		return w
	}
	return w.fixed64(l)
}

// Sfixed64 writes a signed 64-bit value as 8 little-endian bytes.
func (w *Writer) Sfixed64(v interface{}) *Writer {
	l, err := longValue(v, true)
	if err != nil {
		w.setError(err)
		return w
	}
	return w.fixed64(l)
}

// Int64 writes a signed 64-bit varint.
func (w *Writer) Int64(v interface{}) *Writer {
	l, err := longValue(v, true)
	if err != nil {
		w.setError(err)
		return w
	}
	if w.err != nil {
		return w
	}
	w.buf = AppendVarint64(w.buf, l.Lo, l.Hi)
	return w
}

// Sint64 writes a zigzag-encoded signed 64-bit varint.
func (w *Writer) Sint64(v interface{}) *Writer {
	l, err := longValue(v, true)
	if err != nil {
		w.setError(err)
		return w
	}
	if w.err != nil {
		return w
	}
	z := l.ZigzagEncode()
	w.buf = AppendVarint64(w.buf, z.Lo, z.Hi)
	return w
}

// Uint64 writes an unsigned 64-bit varint.
func (w *Writer) Uint64(v interface{}) *Writer {
	l, err := longValue(v, false)
	if err != nil {
		w.setError(err)
		return w
	}
	if w.err != nil {
		return w
	}
	w.buf = AppendVarint64(w.buf, l.Lo, l.Hi)
	return w
}

// Fork saves the current output and starts a fresh one. The bytes written
// until the matching Join become a length-delimited sub-region.
func (w *Writer) Fork() *Writer {
	if w.err != nil {
		return w
	}
	w.stack = append(w.stack, writerFrame{chunks: w.chunks, buf: w.buf})
	w.chunks = nil
	w.buf = nil
	return w
}

// Join finishes the forked output, restores the previous state, and emits
// the sub-region as a length prefix followed by its bytes. Fork/Join pairs
// must nest strictly; Join without an open fork fails with ErrEmptyForkStack.
func (w *Writer) Join() *Writer {
	if w.err != nil {
		return w
	}
	if len(w.stack) == 0 {
		w.setError(ErrEmptyForkStack)
		return w
	}
	region := w.concat()
	frame := w.stack[len(w.stack)-1]
	w.stack = w.stack[:len(w.stack)-1]
	w.chunks = frame.chunks
	w.buf = frame.buf
	w.Uint32(uint32(len(region)))
	return w.Raw(region)
}

// Finish concatenates all chunks into a single byte sequence, resets the
// writer to a fresh state, and hands the bytes to the caller. A recorded
// write error surfaces here.
func (w *Writer) Finish() ([]byte, error) {
	if w.err != nil {
		err := w.err
		w.Reset()
		return nil, err
	}
	out := w.concat()
	w.Reset()
	return out, nil
}

// Reset returns the writer to a fresh state, discarding open forks and any
// recorded error.
func (w *Writer) Reset() {
	w.chunks = nil
	w.buf = nil
	w.stack = nil
	w.err = nil
}

// longValue coerces the accepted 64-bit input forms into halves.
func longValue(v interface{}, signed bool) (Long, error) {
	switch t := v.(type) {
	case Long:
		return t, nil
	case int64:
		if !signed && t < 0 {
			return Long{}, fmt.Errorf("%w: %d is negative", ErrValueOutOfRange, t)
		}
		return LongFromInt64(t), nil
	case int32:
		return longValue(int64(t), signed)
	case int:
		return longValue(int64(t), signed)
	case uint64:
		if signed && t > math.MaxInt64 {
			return Long{}, fmt.Errorf("%w: %d exceeds int64", ErrValueOutOfRange, t)
		}
		return LongFromUint64(t), nil
	case uint32:
		return LongFromUint64(uint64(t)), nil
	case float64:
		if signed {
			return SLongFromFloat(t)
		}
		return ULongFromFloat(t)
	case string:
		if signed {
			return ParseSLong(t)
		}
		return ParseULong(t)
	default:
		return Long{}, fmt.Errorf("%w: unsupported input %T", ErrInvalidLong, v)
	}
}
