// Package s3 provides a blobstore.Store backed by Amazon S3, streaming
// uploads through the SDK's multipart upload manager.
package s3
