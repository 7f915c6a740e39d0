package blobstore

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when a blob does not exist.
//
// Implementations must return an error satisfying
// errors.Is(err, ErrNotFound).
var ErrNotFound = errors.New("blob not found")

// Store is write-once storage for archive blobs. Blobs are immutable:
// a Create followed by a Close either publishes the complete blob under
// its name or nothing.
type Store interface {
	// Open opens an existing blob for sequential reading.
	Open(ctx context.Context, name string) (Blob, error)
	// Create starts writing a new blob. The blob becomes visible when
	// the returned writer is closed without error.
	Create(ctx context.Context, name string) (WritableBlob, error)
	// Delete removes a blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, name string) error
	// List returns the names of blobs starting with prefix, sorted.
	List(ctx context.Context, prefix string) ([]string, error)
}

// Blob is a read-only handle to a stored blob.
type Blob interface {
	io.Reader
	io.Closer
	// Size returns the size of the blob in bytes.
	Size() int64
}

// WritableBlob is a handle for writing a new blob.
type WritableBlob interface {
	io.Writer
	io.Closer
}
