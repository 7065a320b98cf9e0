package metadata

import "math"

// FromAny converts a Go value into a typed Value.
//
// Unrecognized types become KindOther and are stored as their fmt text.
func FromAny(v any) Value {
	switch x := v.(type) {
	case nil:
		return Null()
	case Value:
		return x
	case bool:
		return Bool(x)
	case string:
		return String(x)
	case float64:
		return Float(x)
	case float32:
		return Float(float64(x))
	case int:
		return Int(int64(x))
	case int8:
		return Int(int64(x))
	case int16:
		return Int(int64(x))
	case int32:
		return Int(int64(x))
	case int64:
		return Int(x)
	case uint:
		return fromUint64(uint64(x))
	case uint8:
		return Int(int64(x))
	case uint16:
		return Int(int64(x))
	case uint32:
		return Int(int64(x))
	case uint64:
		return fromUint64(x)
	case error:
		return String(x.Error())
	default:
		return Other(v)
	}
}

// DocumentFromAny converts a map[string]any document to a typed Document.
func DocumentFromAny(m map[string]any) Document {
	if m == nil {
		return nil
	}
	d := make(Document, len(m))
	for k, v := range m {
		d[k] = FromAny(v)
	}
	return d
}

func fromUint64(x uint64) Value {
	if x > math.MaxInt64 {
		return Float(float64(x))
	}
	return Int(int64(x))
}
