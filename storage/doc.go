// Package storage persists the NaturalDB entity tree as directories and
// JSON files under explicit lock discipline.
//
// Layout:
//
//	<base>/<user>/metadata.json
//	<base>/<user>/<database>/metadata.json
//	<base>/<user>/<database>/<table>/metadata.json
//	<base>/<user>/<database>/<table>/<record_id>.json
//
// Every path segment is a sanitized identifier (see package ident), so
// user-supplied names can never resolve outside their parent directory.
// All file replacement is atomic (temp file + rename): a crash mid-write
// leaves the previous version intact, never a partial file.
//
// Locking is coarse by design: one reader/writer lock per database guards
// its metadata and table creation/deletion, one lock per table guards all
// records in that table. This serializes writes within a table, which is
// the accepted trade-off for a single-node store.
package storage
