// Package json adapts original_source/include/protocol/Json.hpp's
// dynamic value tree (JsonObject/JsonArray/JsonString/...) to Go,
// where encoding/json already represents exactly that shape as
// map[string]any / []any / string / float64 / bool / nil — reusing it
// is the idiomatic choice rather than hand-rolling the original's
// class hierarchy. No JSON library appears in any retrieved reference
// repository, so this package is built directly on the standard
// library rather than a third-party dependency.
package json

import (
	"encoding/json"

	"github.com/momentics/corortime/buffer"
)

// Value is a decoded JSON document: map[string]any for an object,
// []any for an array, string, float64, bool, or nil for the scalars —
// the same dynamic shape original_source's JsonBase hierarchy modeled
// with virtual dispatch.
type Value = any

// Decode parses a single JSON value from data.
func Decode(data []byte) (Value, error) {
	var v Value
	if err := json.Unmarshal(data, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// Encode renders v to its compact wire form.
func Encode(v Value) ([]byte, error) {
	return json.Marshal(v)
}

// WriteTo appends v's encoded form to buf, ready for Stream.WriteFrom.
func WriteTo(buf *buffer.Buffer, v Value) error {
	data, err := Encode(v)
	if err != nil {
		return err
	}
	buf.Append(data)
	return nil
}

// ReadFrom decodes exactly one JSON value from buf's entire readable
// region, consuming it on success. Unlike http.TryParse this does not
// support partial reads: callers frame JSON messages with something
// else (a length prefix, a newline) and hand ReadFrom the isolated
// payload.
func ReadFrom(buf *buffer.Buffer) (Value, error) {
	v, err := Decode(buf.Peek())
	if err != nil {
		return nil, err
	}
	buf.Retrieve(buf.Readable())
	return v, nil
}
