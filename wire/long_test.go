package wire

import (
	"errors"
	"testing"

	"google.golang.org/protobuf/encoding/protowire"

	"github.com/anirudhraja/protodyn/schema"
)

func TestLongSignedStringRoundTrip(t *testing.T) {
	boundaries := []int64{
		0, 1, -1,
		1 << 31, -(1 << 31),
		1 << 53, -(1 << 53),
		9223372036854775807, -9223372036854775808,
	}

	for _, v := range boundaries {
		l := LongFromInt64(v)
		s := l.SignedString()
		back, err := ParseSLong(s)
		if err != nil {
			t.Fatalf("ParseSLong(%q): %v", s, err)
		}
		if back != l {
			t.Errorf("ParseSLong(SignedString(%d)) = %+v, want %+v", v, back, l)
		}
		if got := back.Int64(); got != v {
			t.Errorf("Int64 round trip: got %d, want %d", got, v)
		}
	}
}

func TestLongUnsignedStringRoundTrip(t *testing.T) {
	boundaries := []uint64{0, 1, 1 << 31, 1 << 53, 1<<63 - 1, 1 << 63, ^uint64(0)}

	for _, v := range boundaries {
		l := LongFromUint64(v)
		back, err := ParseULong(l.String())
		if err != nil {
			t.Fatalf("ParseULong(%q): %v", l.String(), err)
		}
		if back.Uint64() != v {
			t.Errorf("string round trip: got %d, want %d", back.Uint64(), v)
		}
	}
}

func TestLongInvalidInputs(t *testing.T) {
	badStrings := []string{"", "abc", "1.5", "--2", "0x10", "18446744073709551616"}
	for _, s := range badStrings {
		if _, err := ParseULong(s); !errors.Is(err, ErrInvalidLong) {
			t.Errorf("ParseULong(%q): got %v, want ErrInvalidLong", s, err)
		}
	}
	if _, err := ParseSLong("9223372036854775808"); !errors.Is(err, ErrInvalidLong) {
		t.Errorf("ParseSLong out of range: got %v, want ErrInvalidLong", err)
	}
	if _, err := ParseULong("-1"); !errors.Is(err, ErrInvalidLong) {
		t.Errorf("ParseULong(-1): got %v, want ErrInvalidLong", err)
	}

	badFloats := []float64{1.5, -0.25}
	for _, f := range badFloats {
		if _, err := SLongFromFloat(f); !errors.Is(err, ErrInvalidLong) {
			t.Errorf("SLongFromFloat(%v): got %v, want ErrInvalidLong", f, err)
		}
	}
	if _, err := ULongFromFloat(-1); !errors.Is(err, ErrInvalidLong) {
		t.Errorf("ULongFromFloat(-1): got %v, want ErrInvalidLong", err)
	}
	if _, err := ULongFromFloat(18446744073709551616); !errors.Is(err, ErrInvalidLong) {
		t.Errorf("ULongFromFloat(2^64): got %v, want ErrInvalidLong", err)
	}
}

func TestLongFloatConversions(t *testing.T) {
	l, err := SLongFromFloat(-9007199254740992) // -2^53
	if err != nil {
		t.Fatalf("SLongFromFloat: %v", err)
	}
	if got := l.Int64(); got != -9007199254740992 {
		t.Errorf("Int64 = %d, want -2^53", got)
	}
	if got := l.SignedFloat64(); got != -9007199254740992 {
		t.Errorf("SignedFloat64 = %v, want -2^53", got)
	}
}

func TestLongZigzagMatchesReference(t *testing.T) {
	values := []int64{0, -1, 1, -2, 2, 1 << 31, -(1 << 31), 1<<63 - 1, -1 << 63}

	for _, v := range values {
		z := LongFromInt64(v).ZigzagEncode()
		if want := protowire.EncodeZigZag(v); z.Uint64() != want {
			t.Errorf("ZigzagEncode(%d) = %d, want %d", v, z.Uint64(), want)
		}
		if back := z.ZigzagDecode(); back.Int64() != v {
			t.Errorf("ZigzagDecode(ZigzagEncode(%d)) = %d", v, back.Int64())
		}
	}
}

func TestLongSurface(t *testing.T) {
	l := LongFromInt64(-5)

	if got := l.Surface(schema.LongString, true); got != "-5" {
		t.Errorf("LongString surface = %v, want -5", got)
	}
	if got := l.Surface(schema.LongNumber, true); got != float64(-5) {
		t.Errorf("LongNumber surface = %v, want -5", got)
	}
	if got := l.Surface(schema.LongNative, true); got != int64(-5) {
		t.Errorf("LongNative surface = %v, want int64(-5)", got)
	}

	u := LongFromUint64(1 << 63)
	if got := u.Surface(schema.LongString, false); got != "9223372036854775808" {
		t.Errorf("unsigned LongString surface = %v", got)
	}
	if got := u.Surface(schema.LongNative, false); got != uint64(1)<<63 {
		t.Errorf("unsigned LongNative surface = %v", got)
	}
}
