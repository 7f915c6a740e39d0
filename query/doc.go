// Package query implements the in-memory query pipeline: filtering,
// projection, sorting, grouping with aggregation, and joins over record
// sequences, plus a chainable builder that composes them lazily.
//
// All operations are pure: they take a record sequence already loaded
// from storage and return new slices or documents, never mutating their
// inputs and never touching the filesystem.
package query
