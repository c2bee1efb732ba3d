// Package blob provides opaque byte storage for uploaded CSV originals.
//
// The rest of the system treats blobs as content behind an opaque file
// identifier: the ingestion pipeline only needs Open to stream bytes back
// out, and the upload handler only needs Put. Two backends are provided:
// local disk for development and single-node deployments, and S3 for
// production object storage.
package blob

import (
	"context"
	"errors"
	"io"
)

// ErrNotFound is returned when no blob exists for the given id.
var ErrNotFound = errors.New("blob not found")

// Store is an opaque content store keyed by generated file identifiers.
type Store interface {
	// Put streams r into the store under a new generated id. The original
	// name is recorded as metadata only; it never affects the id.
	Put(ctx context.Context, name string, r io.Reader) (id string, size int64, err error)

	// Open returns a fresh byte stream for the blob. Each call opens a
	// new single-pass stream; the caller must Close it.
	Open(ctx context.Context, id string) (io.ReadCloser, error)

	// Delete removes the blob. Deleting a missing blob is not an error.
	Delete(ctx context.Context, id string) error
}
