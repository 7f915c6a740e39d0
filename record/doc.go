// Package record defines the typed data model for NaturalDB records.
//
// Payloads are schemaless JSON-like documents. Instead of passing
// map[string]any through the engine, every node is a tagged Value
// (null | bool | int | float | string | array | object) so that
// field-path lookups, comparisons and sorting have well-defined
// behavior at every node, without reflection.
package record
