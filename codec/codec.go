// Package codec centralizes the text encoding of composite column values.
//
// Elastic key lists (`key_desc`, `key_vals`) and non-indexed metadata
// (`attributes_blob`) are stored as compact JSON text. Changing the codec of a
// table that already holds rows changes the stored `key_desc`, so rows written
// by one codec are not addressable by another unless both emit identical text.
package codec

import "fmt"

// Codec encodes/decodes values.
//
// Marshal must produce compact output (no insignificant whitespace), sorted
// object keys and no HTML escaping. Unmarshal must decode JSON numbers as
// json.Number-compatible values so integers survive a round trip.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// MustMarshal is a helper for tests.
func MustMarshal(c Codec, v any) []byte {
	if c == nil {
		c = Default
	}
	b, err := c.Marshal(v)
	if err != nil {
		panic(fmt.Errorf("codec %s marshal failed: %w", c.Name(), err))
	}
	return b
}
