package wire

import (
	"fmt"
	"math"
)

// Coercion helpers for dynamic field values. Encoding accepts the exact Go
// type plus wider numeric forms when the value fits; anything else fails
// with ErrValueOutOfRange (bad magnitude) or a plain type error.

func coerceInt32(v interface{}) (int32, error) {
	switch t := v.(type) {
	case int32:
		return t, nil
	case int:
		if t < math.MinInt32 || t > math.MaxInt32 {
			return 0, fmt.Errorf("%w: %d does not fit int32", ErrValueOutOfRange, t)
		}
		return int32(t), nil
	case int64:
		if t < math.MinInt32 || t > math.MaxInt32 {
			return 0, fmt.Errorf("%w: %d does not fit int32", ErrValueOutOfRange, t)
		}
		return int32(t), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrValueOutOfRange, t)
		}
		if t < math.MinInt32 || t > math.MaxInt32 {
			return 0, fmt.Errorf("%w: %v does not fit int32", ErrValueOutOfRange, t)
		}
		return int32(t), nil
	default:
		return 0, fmt.Errorf("protodyn: expected 32-bit integer, got %T", v)
	}
}

func coerceUint32(v interface{}) (uint32, error) {
	switch t := v.(type) {
	case uint32:
		return t, nil
	case int:
		if t < 0 || int64(t) > math.MaxUint32 {
			return 0, fmt.Errorf("%w: %d does not fit uint32", ErrValueOutOfRange, t)
		}
		return uint32(t), nil
	case int64:
		if t < 0 || t > math.MaxUint32 {
			return 0, fmt.Errorf("%w: %d does not fit uint32", ErrValueOutOfRange, t)
		}
		return uint32(t), nil
	case uint64:
		if t > math.MaxUint32 {
			return 0, fmt.Errorf("%w: %d does not fit uint32", ErrValueOutOfRange, t)
		}
		return uint32(t), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("%w: %v is not an integer", ErrValueOutOfRange, t)
		}
		if t < 0 || t > math.MaxUint32 {
			return 0, fmt.Errorf("%w: %v does not fit uint32", ErrValueOutOfRange, t)
		}
		return uint32(t), nil
	default:
		return 0, fmt.Errorf("protodyn: expected unsigned 32-bit integer, got %T", v)
	}
}

func coerceFloat32(v interface{}) (float32, error) {
	switch t := v.(type) {
	case float32:
		return t, nil
	case float64:
		// Narrowing may lose precision; only the value is carried through.
		return float32(t), nil
	case int:
		return float32(t), nil
	case int32:
		return float32(t), nil
	default:
		return 0, fmt.Errorf("protodyn: expected float, got %T", v)
	}
}

func coerceFloat64(v interface{}) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	default:
		return 0, fmt.Errorf("protodyn: expected double, got %T", v)
	}
}

// sliceValues normalizes a repeated-field value to []interface{}. Decoded
// messages always hold []interface{}; hand-built ones may use typed slices.
func sliceValues(v interface{}) ([]interface{}, error) {
	switch t := v.(type) {
	case []interface{}:
		return t, nil
	case []int32:
		return box(t), nil
	case []int64:
		return box(t), nil
	case []uint32:
		return box(t), nil
	case []uint64:
		return box(t), nil
	case []bool:
		return box(t), nil
	case []string:
		return box(t), nil
	case [][]byte:
		return box(t), nil
	case []float32:
		return box(t), nil
	case []float64:
		return box(t), nil
	case []*Message:
		return box(t), nil
	default:
		return nil, fmt.Errorf("protodyn: repeated field value must be a slice, got %T", v)
	}
}

func box[E any](in []E) []interface{} {
	out := make([]interface{}, len(in))
	for i, e := range in {
		out[i] = e
	}
	return out
}

// mapValues normalizes a map-field value to map[interface{}]interface{}.
func mapValues(v interface{}) (map[interface{}]interface{}, error) {
	switch t := v.(type) {
	case map[interface{}]interface{}:
		return t, nil
	case map[string]interface{}:
		out := make(map[interface{}]interface{}, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out, nil
	case map[string]string:
		out := make(map[interface{}]interface{}, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out, nil
	case map[string]int32:
		out := make(map[interface{}]interface{}, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out, nil
	case map[string]int64:
		out := make(map[interface{}]interface{}, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out, nil
	case map[int32]string:
		out := make(map[interface{}]interface{}, len(t))
		for k, val := range t {
			out[k] = val
		}
		return out, nil
	default:
		return nil, fmt.Errorf("protodyn: map field value must be a map, got %T", v)
	}
}
