package record

import (
	"bytes"
	"encoding/json"
	"math"
	"sort"
	"strconv"
	"strings"
)

// Kind identifies the concrete type stored in a Value.
type Kind uint8

const (
	// KindInvalid represents the zero Value.
	KindInvalid Kind = iota
	// KindNull represents a JSON null.
	KindNull
	// KindBool represents a boolean value.
	KindBool
	// KindInt represents an integer value.
	KindInt
	// KindFloat represents a float value.
	KindFloat
	// KindString represents a string value.
	KindString
	// KindArray represents an ordered sequence of values.
	KindArray
	// KindObject represents an ordered mapping from field name to value.
	KindObject
)

func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindInt:
		return "int"
	case KindFloat:
		return "float"
	case KindString:
		return "string"
	case KindArray:
		return "array"
	case KindObject:
		return "object"
	default:
		return "invalid"
	}
}

// Value is a small typed value forming the nodes of a record payload.
//
// The representation is designed to make filtering and sorting fast and
// predictable: no reflection and no fmt-based stringification. Values
// marshal to and from natural JSON, so persisted record files read as
// plain JSON documents.
type Value struct {
	kind Kind
	i    int64
	f    float64
	s    string
	b    bool
	a    []Value
	o    Document
}

// Document is a record payload: a mapping from field name to Value.
type Document map[string]Value

// Null returns a null Value.
func Null() Value { return Value{kind: KindNull} }

// Bool returns a boolean Value.
func Bool(v bool) Value { return Value{kind: KindBool, b: v} }

// Int returns an integer Value.
func Int(v int64) Value { return Value{kind: KindInt, i: v} }

// Float returns a float Value.
func Float(v float64) Value { return Value{kind: KindFloat, f: v} }

// String returns a string Value.
func String(v string) Value { return Value{kind: KindString, s: v} }

// Array returns an array Value.
func Array(v []Value) Value { return Value{kind: KindArray, a: v} }

// Object returns an object Value wrapping the given document.
func Object(d Document) Value { return Value{kind: KindObject, o: d} }

// Kind returns the concrete kind of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value is a JSON null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// AsBool returns the boolean value if Kind is KindBool.
func (v Value) AsBool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

// AsInt64 returns the int64 value if Kind is KindInt.
func (v Value) AsInt64() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

// AsFloat64 returns the numeric value as float64 if Kind is KindInt or KindFloat.
func (v Value) AsFloat64() (float64, bool) {
	switch v.kind {
	case KindInt:
		return float64(v.i), true
	case KindFloat:
		return v.f, true
	default:
		return 0, false
	}
}

// AsString returns the string value if Kind is KindString.
func (v Value) AsString() (string, bool) {
	if v.kind != KindString {
		return "", false
	}
	return v.s, true
}

// AsArray returns the array value if Kind is KindArray.
func (v Value) AsArray() ([]Value, bool) {
	if v.kind != KindArray {
		return nil, false
	}
	return v.a, true
}

// AsObject returns the nested document if Kind is KindObject.
func (v Value) AsObject() (Document, bool) {
	if v.kind != KindObject {
		return nil, false
	}
	return v.o, true
}

// IsNumber reports whether the value is an int or a float.
func (v Value) IsNumber() bool {
	return v.kind == KindInt || v.kind == KindFloat
}

// Clone creates a deep copy of the value, including nested arrays and objects.
func (v Value) Clone() Value {
	switch v.kind {
	case KindArray:
		if len(v.a) == 0 {
			return v
		}
		a := make([]Value, len(v.a))
		for i := range v.a {
			a[i] = v.a[i].Clone()
		}
		return Value{kind: KindArray, a: a}
	case KindObject:
		return Object(v.o.Clone())
	default:
		// Scalar values copy by value semantics.
		return v
	}
}

// Clone creates a deep copy of the document.
//
// This is the safe default to prevent external mutation after an insert:
// the storage layer never shares payload memory with the caller.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	clone := make(Document, len(d))
	for k, v := range d {
		clone[k] = v.Clone()
	}
	return clone
}

// Key returns a stable string representation for use as a map key.
//
// It is intended for group-by partitioning and posting-list keys and must
// remain stable across versions.
func (v Value) Key() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindBool:
		if v.b {
			return "b:1"
		}
		return "b:0"
	case KindInt:
		return "i:" + strconv.FormatInt(v.i, 10)
	case KindFloat:
		return "f:" + strconv.FormatUint(math.Float64bits(v.f), 16)
	case KindString:
		return "s:" + v.s
	case KindArray:
		parts := make([]string, len(v.a))
		for i := range v.a {
			parts[i] = v.a[i].Key()
		}
		return "a:" + strings.Join(parts, "\x1f")
	case KindObject:
		keys := make([]string, 0, len(v.o))
		for k := range v.o {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, len(keys))
		for i, k := range keys {
			parts[i] = k + "\x1e" + v.o[k].Key()
		}
		return "o:" + strings.Join(parts, "\x1f")
	default:
		return "invalid"
	}
}

// MarshalJSON encodes the value as natural JSON.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.ToAny())
}

// UnmarshalJSON decodes natural JSON into the value.
//
// Numbers are decoded via json.Number so that integral values stay KindInt.
func (v *Value) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}
