package conv

import (
	"cmp"
	"fmt"
	"math"
)

// Float32s converts a vector-shaped value to []float32.
func Float32s(v any) ([]float32, error) {
	switch x := v.(type) {
	case []float32:
		return x, nil
	case []float64:
		out := make([]float32, len(x))
		for i, f := range x {
			out[i] = float32(f)
		}
		return out, nil
	case []int:
		out := make([]float32, len(x))
		for i, f := range x {
			out[i] = float32(f)
		}
		return out, nil
	case []any:
		out := make([]float32, len(x))
		for i, e := range x {
			f, ok := Float64(e)
			if !ok {
				return nil, fmt.Errorf("vector component %d: unsupported type %T", i, e)
			}
			out[i] = float32(f)
		}
		return out, nil
	case nil:
		return nil, fmt.Errorf("vector is null")
	default:
		return nil, fmt.Errorf("unsupported vector type %T", v)
	}
}

// Float64 converts any numeric value to float64.
func Float64(v any) (float64, bool) {
	switch x := v.(type) {
	case float64:
		return x, true
	case float32:
		return float64(x), true
	case int:
		return float64(x), true
	case int8:
		return float64(x), true
	case int16:
		return float64(x), true
	case int32:
		return float64(x), true
	case int64:
		return float64(x), true
	case uint:
		return float64(x), true
	case uint8:
		return float64(x), true
	case uint16:
		return float64(x), true
	case uint32:
		return float64(x), true
	case uint64:
		return float64(x), true
	case interface{ Float64() (float64, error) }:
		f, err := x.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

// Int64 converts an integral numeric value to int64.
func Int64(v any) (int64, bool) {
	switch x := v.(type) {
	case int:
		return int64(x), true
	case int8:
		return int64(x), true
	case int16:
		return int64(x), true
	case int32:
		return int64(x), true
	case int64:
		return x, true
	case uint8:
		return int64(x), true
	case uint16:
		return int64(x), true
	case uint32:
		return int64(x), true
	case uint:
		if uint64(x) > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	case uint64:
		if x > math.MaxInt64 {
			return 0, false
		}
		return int64(x), true
	default:
		return 0, false
	}
}

// Compare orders two scalar values of compatible kinds.
//
// Numbers compare numerically across widths, strings lexically and booleans
// with false first. ok is false for incomparable kinds.
func Compare(a, b any) (c int, ok bool) {
	if a == nil || b == nil {
		switch {
		case a == nil && b == nil:
			return 0, true
		case a == nil:
			return -1, true
		default:
			return 1, true
		}
	}

	if ai, aok := Int64(a); aok {
		if bi, bok := Int64(b); bok {
			return cmp.Compare(ai, bi), true
		}
	}
	if af, aok := Float64(a); aok {
		if bf, bok := Float64(b); bok {
			return cmp.Compare(af, bf), true
		}
		return 0, false
	}

	switch x := a.(type) {
	case string:
		if y, ok := b.(string); ok {
			return cmp.Compare(x, y), true
		}
	case bool:
		if y, ok := b.(bool); ok {
			switch {
			case x == y:
				return 0, true
			case !x:
				return -1, true
			default:
				return 1, true
			}
		}
	case fmt.Stringer:
		if y, ok := b.(fmt.Stringer); ok {
			return cmp.Compare(x.String(), y.String()), true
		}
	}
	return 0, false
}

// Equal reports whether Compare considers a and b equal.
func Equal(a, b any) bool {
	c, ok := Compare(a, b)
	return ok && c == 0
}
