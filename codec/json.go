package codec

import "encoding/json"

// JSON is the standard-library JSON codec.
//
// Record payloads are typed record.Document trees, which implement their
// own natural-JSON marshalling; this codec only drives encoding/decoding
// of the enclosing envelopes and metadata files.
type JSON struct{}

// Marshal encodes the value to JSON.
func (JSON) Marshal(v any) ([]byte, error) { return json.Marshal(v) }

// Unmarshal decodes the JSON data into v.
func (JSON) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json").
func (JSON) Name() string { return "json" }

// JSONIndent is a JSON codec producing indented output, used for exports
// meant to be read by humans.
type JSONIndent struct{}

// Marshal encodes the value to indented JSON.
func (JSONIndent) Marshal(v any) ([]byte, error) { return json.MarshalIndent(v, "", "  ") }

// Unmarshal decodes the JSON data into v.
func (JSONIndent) Unmarshal(data []byte, v any) error { return json.Unmarshal(data, v) }

// Name returns the unique name of the codec ("json-indent").
func (JSONIndent) Name() string { return "json-indent" }
