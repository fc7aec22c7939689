// Package drive interfaces with Google Drive as the destination of a
// transfer.
package drive

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pkg/errors"
	drive "google.golang.org/api/drive/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/kousiktn/gcs2gdrive/fs"
)

const (
	folderMimeType = "application/vnd.google-apps.folder"
	partialFields  = "id,name,mimeType"
	listChunk      = 1000
)

// Fs wraps one Drive service handle.
//
// A handle keeps per-request state in its HTTP pipeline so it should
// not be shared between workers - make one Fs per goroutine from the
// same token source instead.
type Fs struct {
	svc *drive.Service
}

// New creates a Fs from the given client options.
func New(ctx context.Context, opts ...option.ClientOption) (*Fs, error) {
	svc, err := drive.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't create Drive client")
	}
	return &Fs{svc: svc}, nil
}

// escapeQuery escapes a name for embedding in a Drive search query.
//
// The backslash must be escaped first, then the single quote used as
// the query string delimiter.  An unescaped name doesn't crash the
// query - it silently matches the wrong thing.
func escapeQuery(s string) string {
	s = strings.Replace(s, `\`, `\\`, -1)
	s = strings.Replace(s, `'`, `\'`, -1)
	return s
}

// searchQuery assembles the query string for an exact name match under
// dirID.  An empty dirID leaves the search unscoped - used when
// resolving the root folder by name alone.
func searchQuery(dirID, name string, directoriesOnly, filesOnly bool) string {
	query := []string{"trashed=false"}
	if dirID != "" {
		query = append(query, fmt.Sprintf("'%s' in parents", dirID))
	}
	if name != "" {
		query = append(query, fmt.Sprintf("name='%s'", escapeQuery(name)))
	}
	if directoriesOnly {
		query = append(query, fmt.Sprintf("mimeType='%s'", folderMimeType))
	}
	if filesOnly {
		query = append(query, fmt.Sprintf("mimeType!='%s'", folderMimeType))
	}
	return strings.Join(query, " and ")
}

// listFn is called for each File found by list.
//
// Should return true to finish processing.
type listFn func(*drive.File) bool

// list calls fn on entries matching name under dirID.
//
// Search params: https://developers.google.com/drive/search-parameters
func (f *Fs) list(ctx context.Context, dirID, name string, directoriesOnly, filesOnly bool, fn listFn) (found bool, err error) {
	list := f.svc.Files.List().
		Q(searchQuery(dirID, name, directoriesOnly, filesOnly)).
		PageSize(listChunk).
		Fields(googleapi.Field(fmt.Sprintf("files(%s),nextPageToken", partialFields))).
		Context(ctx)
	for {
		files, err := list.Do()
		if err != nil {
			return false, errors.Wrap(err, "couldn't list directory")
		}
		for _, item := range files.Files {
			if fn(item) {
				return true, nil
			}
		}
		if files.NextPageToken == "" {
			break
		}
		list.PageToken(files.NextPageToken)
	}
	return false, nil
}

// FindLeaf finds a folder of name leaf in the folder with ID pathID.
//
// If there is more than one match the first result wins - duplicate
// same-named folders are a pre-existing condition which isn't repaired
// here.
func (f *Fs) FindLeaf(ctx context.Context, pathID, leaf string) (pathIDOut string, found bool, err error) {
	found, err = f.list(ctx, pathID, leaf, true, false, func(item *drive.File) bool {
		pathIDOut = item.Id
		return true
	})
	return pathIDOut, found, err
}

// CreateDir makes a folder with pathID as parent and name leaf.
//
// An empty pathID makes a folder with no parent, ie at the Drive root.
func (f *Fs) CreateDir(ctx context.Context, pathID, leaf string) (newID string, err error) {
	createInfo := &drive.File{
		Name:     leaf,
		MimeType: folderMimeType,
	}
	if pathID != "" {
		createInfo.Parents = []string{pathID}
	}
	info, err := f.svc.Files.Create(createInfo).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", errors.Wrapf(err, "couldn't create directory %q", leaf)
	}
	return info.Id, nil
}

// FindFile finds a non-folder entry of name leaf in the folder with ID
// pathID.
func (f *Fs) FindFile(ctx context.Context, pathID, leaf string) (foundID string, found bool, err error) {
	found, err = f.list(ctx, pathID, leaf, false, true, func(item *drive.File) bool {
		foundID = item.Id
		return true
	})
	return foundID, found, err
}

// Put uploads the contents of in as a file called leaf in the folder
// with ID pathID.
func (f *Fs) Put(ctx context.Context, in io.Reader, leaf, pathID, contentType string) (newID string, err error) {
	createInfo := &drive.File{
		Name:    leaf,
		Parents: []string{pathID},
	}
	info, err := f.svc.Files.Create(createInfo).
		Media(in, googleapi.ContentType(contentType)).
		Fields("id").
		Context(ctx).
		Do()
	if err != nil {
		return "", errors.Wrapf(err, "couldn't upload file %q", leaf)
	}
	return info.Id, nil
}

// check interfaces
var _ fs.Destination = (*Fs)(nil)
