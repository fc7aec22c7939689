// Package fs defines the contracts between the transfer core and the
// remote services it copies between.
package fs

import (
	"context"
	"io"
)

// MimeTypeDefault is used for objects whose source doesn't supply a
// content type.
const MimeTypeDefault = "application/octet-stream"

// Object is a single unit of source data addressed by a /-delimited key.
//
// A key with a trailing / is a directory placeholder and carries no
// payload.
type Object interface {
	// Key returns the /-delimited name of the object within its bucket
	Key() string
	// Size returns the length of the object's content in bytes
	Size() int64
	// ContentType returns the content type hint, or "" if unknown
	ContentType() string
	// Open returns a reader for the object's content
	Open(ctx context.Context) (io.ReadCloser, error)
}

// Source is a flat namespace of keyed objects, eg a GCS bucket.
type Source interface {
	// ListObjects enumerates every object in the source eagerly
	ListObjects(ctx context.Context) ([]Object, error)
}

// Destination is a hierarchical store of folders and files, eg Google
// Drive.
//
// Folders and files are addressed by opaque IDs.  An empty parent ID
// means "not scoped to a parent" - used when resolving the root folder.
//
// A Destination is not assumed safe for concurrent use; callers wanting
// parallelism construct one handle per goroutine from shared
// credentials.
type Destination interface {
	// FindLeaf looks for a folder called leaf under the folder pathID
	FindLeaf(ctx context.Context, pathID, leaf string) (foundID string, found bool, err error)
	// CreateDir makes a folder called leaf under the folder pathID
	CreateDir(ctx context.Context, pathID, leaf string) (newID string, err error)
	// FindFile looks for a non-folder entry called leaf under the folder pathID
	FindFile(ctx context.Context, pathID, leaf string) (foundID string, found bool, err error)
	// Put uploads the contents of in as a file called leaf under the
	// folder pathID with the given content type
	Put(ctx context.Context, in io.Reader, leaf, pathID, contentType string) (newID string, err error)
}
