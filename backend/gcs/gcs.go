// Package gcs interfaces with Google Cloud Storage as the source of a
// transfer.
package gcs

import (
	"context"
	"io"

	"cloud.google.com/go/storage"
	"github.com/pkg/errors"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/kousiktn/gcs2gdrive/fs"
)

// Fs reads one GCS bucket.
type Fs struct {
	client *storage.Client
	bucket string
}

// New creates a Fs for the named bucket from the given client options.
func New(ctx context.Context, bucket string, opts ...option.ClientOption) (*Fs, error) {
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't create GCS client")
	}
	return &Fs{
		client: client,
		bucket: bucket,
	}, nil
}

// String returns a description of the Fs
func (f *Fs) String() string {
	return "gcs://" + f.bucket
}

// ListObjects enumerates the whole bucket into memory.
//
// Keys with a trailing / (directory placeholders) are returned too -
// the transfer layer decides what to do with them.
func (f *Fs) ListObjects(ctx context.Context) ([]fs.Object, error) {
	bkt := f.client.Bucket(f.bucket)
	it := bkt.Objects(ctx, nil)
	var objects []fs.Object
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, errors.Wrapf(err, "couldn't list bucket %q", f.bucket)
		}
		objects = append(objects, &Object{
			handle:      bkt.Object(attrs.Name),
			key:         attrs.Name,
			size:        attrs.Size,
			contentType: attrs.ContentType,
		})
	}
	return objects, nil
}

// Object describes one GCS object.
type Object struct {
	handle      *storage.ObjectHandle
	key         string
	size        int64
	contentType string
}

// Key returns the /-delimited name of the object within its bucket
func (o *Object) Key() string {
	return o.key
}

// Size returns the length of the object's content in bytes
func (o *Object) Size() int64 {
	return o.size
}

// ContentType returns the content type hint, or "" if unknown
func (o *Object) ContentType() string {
	return o.contentType
}

// Open returns a reader for the object's content
func (o *Object) Open(ctx context.Context) (io.ReadCloser, error) {
	r, err := o.handle.NewReader(ctx)
	if err != nil {
		return nil, errors.Wrapf(err, "couldn't open object %q", o.key)
	}
	return r, nil
}

// String returns a description of the Object
func (o *Object) String() string {
	return o.key
}

// check interfaces
var (
	_ fs.Source = (*Fs)(nil)
	_ fs.Object = (*Object)(nil)
)
