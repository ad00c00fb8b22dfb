package wire

import (
	"fmt"
	"math"
	"strconv"

	"github.com/anirudhraja/protodyn/schema"
)

// Long holds a 64-bit integer as two 32-bit halves. The halves are what the
// varint codec consumes; signed users interpret them as two's complement.
// A Long is immutable once constructed.
type Long struct {
	Lo uint32
	Hi uint32
}

// LongFromUint64 splits an unsigned 64-bit value into halves.
func LongFromUint64(v uint64) Long {
	return Long{Lo: uint32(v), Hi: uint32(v >> 32)}
}

// LongFromInt64 splits a signed 64-bit value into two's-complement halves.
func LongFromInt64(v int64) Long {
	return LongFromUint64(uint64(v))
}

// ParseULong parses an unsigned decimal string.
func ParseULong(s string) (Long, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return Long{}, fmt.Errorf("%w: %q", ErrInvalidLong, s)
	}
	return LongFromUint64(v), nil
}

// ParseSLong parses a decimal string optionally prefixed by a minus sign.
func ParseSLong(s string) (Long, error) {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return Long{}, fmt.Errorf("%w: %q", ErrInvalidLong, s)
	}
	return LongFromInt64(v), nil
}

// ULongFromFloat converts a float64 holding an integral value in the
// unsigned 64-bit range.
func ULongFromFloat(f float64) (Long, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return Long{}, fmt.Errorf("%w: %v is not an integer", ErrInvalidLong, f)
	}
	if f < 0 || f >= 18446744073709551616 {
		return Long{}, fmt.Errorf("%w: %v outside uint64 range", ErrInvalidLong, f)
	}
	return LongFromUint64(uint64(f)), nil
}

// SLongFromFloat converts a float64 holding an integral value in the signed
// 64-bit range.
func SLongFromFloat(f float64) (Long, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) || f != math.Trunc(f) {
		return Long{}, fmt.Errorf("%w: %v is not an integer", ErrInvalidLong, f)
	}
	if f < -9223372036854775808 || f >= 9223372036854775808 {
		return Long{}, fmt.Errorf("%w: %v outside int64 range", ErrInvalidLong, f)
	}
	return LongFromInt64(int64(f)), nil
}

// Uint64 rejoins the halves as an unsigned value.
func (l Long) Uint64() uint64 {
	return uint64(l.Hi)<<32 | uint64(l.Lo)
}

// Int64 rejoins the halves under two's-complement interpretation.
func (l Long) Int64() int64 {
	return int64(l.Uint64())
}

// IsNegative reports the sign bit under signed interpretation.
func (l Long) IsNegative() bool {
	return l.Hi>>31 == 1
}

// String returns the unsigned decimal representation.
func (l Long) String() string {
	return strconv.FormatUint(l.Uint64(), 10)
}

// SignedString returns the decimal representation under two's-complement
// interpretation.
func (l Long) SignedString() string {
	return strconv.FormatInt(l.Int64(), 10)
}

// Float64 returns the unsigned value as a float64. Above 2^53 the result is
// approximate; that is the caller's bargain, not an error.
func (l Long) Float64() float64 {
	return float64(l.Uint64())
}

// SignedFloat64 returns the signed value as a float64, approximate above
// 2^53 in magnitude.
func (l Long) SignedFloat64() float64 {
	return float64(l.Int64())
}

// ZigzagEncode maps the signed value onto the unsigned zigzag domain,
// operating on the halves: sign = Hi >> 31 (arithmetic), then both halves
// shift left one with carry and xor the sign mask.
func (l Long) ZigzagEncode() Long {
	sign := uint32(int32(l.Hi) >> 31)
	return Long{
		Lo: (l.Lo << 1) ^ sign,
		Hi: (l.Hi<<1 | l.Lo>>31) ^ sign,
	}
}

// ZigzagDecode is the inverse of ZigzagEncode.
func (l Long) ZigzagDecode() Long {
	sign := uint32(0)
	if l.Lo&1 == 1 {
		sign = ^uint32(0)
	}
	return Long{
		Lo: (l.Lo>>1 | l.Hi<<31) ^ sign,
		Hi: (l.Hi >> 1) ^ sign,
	}
}

// Surface converts the value to the representation a LongType requests.
// Signedness comes from the scalar type the value was read as.
func (l Long) Surface(t schema.LongType, signed bool) interface{} {
	switch t {
	case schema.LongString:
		if signed {
			return l.SignedString()
		}
		return l.String()
	case schema.LongNumber:
		if signed {
			return l.SignedFloat64()
		}
		return l.Float64()
	default:
		if signed {
			return l.Int64()
		}
		return l.Uint64()
	}
}
