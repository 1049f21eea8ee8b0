// Package store defines the object store capabilities the azure filesystem
// depends on.
//
// The filesystem only ever needs two things from a store: the properties of a
// single blob and a ranged download of its bytes. Concrete implementations
// live in the subpackages: azurestore talks to Azure Blob Storage (or the
// Azurite emulator), miniostore to S3-compatible endpoints and memstore keeps
// everything in memory for tests.
package store

import (
	"context"
	"fmt"
	"time"
)

// Properties describes a single blob as reported by the store.
type Properties struct {
	// Size is the content length in bytes.
	Size int64

	// Metadata holds the user-defined key/value pairs attached to the blob.
	Metadata map[string]string

	ContentType  string
	ETag         string
	LastModified time.Time
}

// Blob is a client bound to one object in one container.
type Blob interface {
	// URL returns the fully qualified URL of the blob. It is used verbatim in
	// error messages.
	URL() string

	// GetProperties fetches the blob's size and metadata.
	GetProperties(ctx context.Context) (Properties, error)

	// DownloadRange fetches count bytes starting at offset into dest and
	// returns the length of the range the store delivered. The store's
	// reported length is authoritative and may be smaller than count.
	DownloadRange(ctx context.Context, offset, count int64, dest []byte) (int64, error)
}

// Service is a client bound to a storage account.
type Service interface {
	// URL returns the account endpoint.
	URL() string

	// NewBlob returns a client for the named blob. No request is made.
	NewBlob(container, name string) Blob
}

// ResponseError is the store-neutral form of a failed request. Implementations
// translate their SDK errors into it so callers can inspect the status code.
type ResponseError struct {
	StatusCode int
	ErrorCode  string
	Err        error
}

// Error returns the underlying store message.
func (e *ResponseError) Error() string {
	if e.Err != nil {
		return e.Err.Error()
	}
	return fmt.Sprintf("store request failed with status %d (%s)", e.StatusCode, e.ErrorCode)
}

// Unwrap returns the SDK error.
func (e *ResponseError) Unwrap() error {
	return e.Err
}
