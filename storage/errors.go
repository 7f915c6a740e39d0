package storage

import "errors"

// Sentinel errors returned by the storage engine. The root naturaldb
// package re-exports these under its public error contract.
var (
	// ErrNotFound is returned when a user, database, table or record
	// does not exist.
	ErrNotFound = errors.New("not found")

	// ErrAlreadyExists is returned when creating a resource whose
	// sanitized path already exists.
	ErrAlreadyExists = errors.New("already exists")

	// ErrSerialization is returned when a payload cannot be encoded or a
	// persisted file cannot be decoded.
	ErrSerialization = errors.New("serialization failure")
)
