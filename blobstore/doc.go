// Package blobstore abstracts archive blob storage behind a small
// write-once interface, with local filesystem and in-memory backends
// here and MinIO/S3 backends in subpackages.
package blobstore
