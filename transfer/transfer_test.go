package transfer

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kousiktn/gcs2gdrive/fs"
)

// testObject is an in-memory fs.Object
type testObject struct {
	key         string
	data        []byte
	contentType string
	failOpen    bool
}

func (o *testObject) Key() string         { return o.key }
func (o *testObject) Size() int64         { return int64(len(o.data)) }
func (o *testObject) ContentType() string { return o.contentType }
func (o *testObject) String() string      { return o.key }

func (o *testObject) Open(ctx context.Context) (io.ReadCloser, error) {
	if o.failOpen {
		return nil, errors.New("read: connection reset")
	}
	return io.NopCloser(bytes.NewReader(o.data)), nil
}

// testSource is an in-memory fs.Source
type testSource struct {
	objs []fs.Object
}

func (s *testSource) ListObjects(ctx context.Context) ([]fs.Object, error) {
	return s.objs, nil
}

func (s *testSource) String() string { return "testSource" }

type folderEnt struct {
	name   string
	parent string
}

type fileEnt struct {
	name        string
	parent      string
	contentType string
	data        []byte
}

// fakeDrive is the shared remote state behind every destination handle
// in a test run.  It counts remote calls so tests can assert on them.
type fakeDrive struct {
	mu         sync.Mutex
	nextID     int
	folders    map[string]folderEnt
	files      map[string]fileEnt
	creates    map[string]int // "parentID/name" -> CreateDir calls
	calls      int            // all destination calls
	failPut    string         // leaf name whose upload fails
	newHandles int
}

func newFakeDrive() *fakeDrive {
	return &fakeDrive{
		folders: make(map[string]folderEnt),
		files:   make(map[string]fileEnt),
		creates: make(map[string]int),
	}
}

// handle is one fs.Destination view onto the shared fakeDrive
type handle struct {
	d *fakeDrive
}

func (d *fakeDrive) newDestination(ctx context.Context) (fs.Destination, error) {
	d.mu.Lock()
	d.newHandles++
	d.mu.Unlock()
	return &handle{d: d}, nil
}

func (h *handle) FindLeaf(ctx context.Context, pathID, leaf string) (string, bool, error) {
	h.d.mu.Lock()
	defer h.d.mu.Unlock()
	h.d.calls++
	for id, f := range h.d.folders {
		if f.name == leaf && (pathID == "" || f.parent == pathID) {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (h *handle) CreateDir(ctx context.Context, pathID, leaf string) (string, error) {
	h.d.mu.Lock()
	defer h.d.mu.Unlock()
	h.d.calls++
	h.d.creates[pathID+"/"+leaf]++
	h.d.nextID++
	id := fmt.Sprintf("folder-%d", h.d.nextID)
	h.d.folders[id] = folderEnt{name: leaf, parent: pathID}
	return id, nil
}

func (h *handle) FindFile(ctx context.Context, pathID, leaf string) (string, bool, error) {
	h.d.mu.Lock()
	defer h.d.mu.Unlock()
	h.d.calls++
	for id, f := range h.d.files {
		if f.name == leaf && f.parent == pathID {
			return id, true, nil
		}
	}
	return "", false, nil
}

func (h *handle) Put(ctx context.Context, in io.Reader, leaf, pathID, contentType string) (string, error) {
	data, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	h.d.mu.Lock()
	defer h.d.mu.Unlock()
	h.d.calls++
	if leaf == h.d.failPut {
		return "", errors.New("upload: 500 backend error")
	}
	h.d.nextID++
	id := fmt.Sprintf("file-%d", h.d.nextID)
	h.d.files[id] = fileEnt{name: leaf, parent: pathID, contentType: contentType, data: data}
	return id, nil
}

// folderID walks the fake folder tree by name from the true root
func (d *fakeDrive) folderID(t *testing.T, names ...string) string {
	d.mu.Lock()
	defer d.mu.Unlock()
	parent := ""
	for _, name := range names {
		found := ""
		for id, f := range d.folders {
			if f.name == name && f.parent == parent {
				found = id
				break
			}
		}
		require.NotEmpty(t, found, "folder %q not found under %q", name, parent)
		parent = found
	}
	return parent
}

// file returns the file of the given name under parentID, if any
func (d *fakeDrive) file(name, parentID string) (fileEnt, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, f := range d.files {
		if f.name == name && f.parent == parentID {
			return f, true
		}
	}
	return fileEnt{}, false
}

func TestRunEmptySource(t *testing.T) {
	ctx := context.Background()
	d := newFakeDrive()
	stats, err := Run(ctx, &testSource{}, Options{
		RootFolder:     "backup",
		NewDestination: d.newDestination,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.Done())
	// Nothing beyond handle acquisition touches the destination
	assert.Equal(t, 0, d.calls)
}

func TestRunMissingRootFolder(t *testing.T) {
	ctx := context.Background()
	d := newFakeDrive()
	_, err := Run(ctx, &testSource{}, Options{
		NewDestination: d.newDestination,
	})
	require.Error(t, err)
}

func TestRunPathMapping(t *testing.T) {
	ctx := context.Background()
	d := newFakeDrive()
	src := &testSource{objs: []fs.Object{
		&testObject{key: "a/b/c.txt", data: []byte("hello"), contentType: "text/plain"},
	}}
	stats, err := Run(ctx, src, Options{
		RootFolder:     "backup",
		NewDestination: d.newDestination,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.GetTransfers())

	bID := d.folderID(t, "backup", "a", "b")
	f, ok := d.file("c.txt", bID)
	require.True(t, ok)
	assert.Equal(t, []byte("hello"), f.data)
	assert.Equal(t, "text/plain", f.contentType)
}

func TestRunContentTypeFallback(t *testing.T) {
	ctx := context.Background()
	d := newFakeDrive()
	src := &testSource{objs: []fs.Object{
		&testObject{key: "blob.bin", data: []byte{1, 2, 3}},
	}}
	_, err := Run(ctx, src, Options{
		RootFolder:     "backup",
		NewDestination: d.newDestination,
	})
	require.NoError(t, err)

	rootID := d.folderID(t, "backup")
	f, ok := d.file("blob.bin", rootID)
	require.True(t, ok)
	assert.Equal(t, fs.MimeTypeDefault, f.contentType)
}

func TestRunPlaceholderSkip(t *testing.T) {
	ctx := context.Background()
	d := newFakeDrive()
	src := &testSource{objs: []fs.Object{
		&testObject{key: "somedir/"},
	}}
	stats, err := Run(ctx, src, Options{
		RootFolder:     "backup",
		NewDestination: d.newDestination,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.GetSkips())
	assert.Equal(t, int64(0), stats.GetTransfers())
	// Only root resolution touched the destination: one find, one create
	assert.Equal(t, 2, d.calls)
	assert.Empty(t, d.files)
}

func TestRunIdempotent(t *testing.T) {
	ctx := context.Background()
	d := newFakeDrive()
	src := &testSource{objs: []fs.Object{
		&testObject{key: "a/one.txt", data: []byte("one")},
		&testObject{key: "a/two.txt", data: []byte("two")},
		&testObject{key: "b/three.txt", data: []byte("three")},
	}}
	opt := Options{RootFolder: "backup", NewDestination: d.newDestination}

	stats, err := Run(ctx, src, opt)
	require.NoError(t, err)
	assert.Equal(t, int64(3), stats.GetTransfers())

	d.mu.Lock()
	nFolders, nFiles := len(d.folders), len(d.files)
	d.mu.Unlock()

	// Second run finds everything in place and copies nothing
	stats, err = Run(ctx, src, opt)
	require.NoError(t, err)
	assert.Equal(t, int64(0), stats.GetTransfers())
	assert.Equal(t, int64(3), stats.GetSkips())

	d.mu.Lock()
	assert.Equal(t, nFolders, len(d.folders))
	assert.Equal(t, nFiles, len(d.files))
	d.mu.Unlock()
}

func TestRunFailureIsolation(t *testing.T) {
	ctx := context.Background()
	d := newFakeDrive()
	d.failPut = "poison.txt"
	var objs []fs.Object
	for i := 0; i < 9; i++ {
		objs = append(objs, &testObject{key: fmt.Sprintf("dir/ok%d.txt", i), data: []byte("x")})
	}
	objs = append(objs, &testObject{key: "dir/poison.txt", data: []byte("x")})
	stats, err := Run(ctx, &testSource{objs: objs}, Options{
		RootFolder:     "backup",
		Transfers:      4,
		NewDestination: d.newDestination,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(9), stats.GetTransfers())
	assert.Equal(t, int64(1), stats.GetErrors())
	assert.Equal(t, int64(10), stats.Done())
	require.Error(t, stats.GetLastError())
}

func TestRunOpenFailureIsolation(t *testing.T) {
	ctx := context.Background()
	d := newFakeDrive()
	stats, err := Run(ctx, &testSource{objs: []fs.Object{
		&testObject{key: "ok.txt", data: []byte("x")},
		&testObject{key: "bad.txt", failOpen: true},
	}}, Options{
		RootFolder:     "backup",
		NewDestination: d.newDestination,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.GetTransfers())
	assert.Equal(t, int64(1), stats.GetErrors())
}

func TestRunSharedPrefixDedup(t *testing.T) {
	ctx := context.Background()
	d := newFakeDrive()
	var objs []fs.Object
	for i := 0; i < 40; i++ {
		objs = append(objs, &testObject{
			key:  fmt.Sprintf("common/nested/file%d.txt", i),
			data: []byte("x"),
		})
	}
	stats, err := Run(ctx, &testSource{objs: objs}, Options{
		RootFolder:     "backup",
		Transfers:      8,
		NewDestination: d.newDestination,
	})
	require.NoError(t, err)
	assert.Equal(t, int64(40), stats.GetTransfers())

	// However the workers interleave, each prefix is created once
	rootID := d.folderID(t, "backup")
	assert.Equal(t, 1, d.creates[rootID+"/common"])
	commonID := d.folderID(t, "backup", "common")
	assert.Equal(t, 1, d.creates[commonID+"/nested"])
}

func TestRunExistingRootReused(t *testing.T) {
	ctx := context.Background()
	d := newFakeDrive()
	d.folders["folder-root"] = folderEnt{name: "backup"}
	src := &testSource{objs: []fs.Object{
		&testObject{key: "one.txt", data: []byte("x")},
	}}
	_, err := Run(ctx, src, Options{
		RootFolder:     "backup",
		NewDestination: d.newDestination,
	})
	require.NoError(t, err)
	assert.Equal(t, 0, d.creates["/backup"])
	_, ok := d.file("one.txt", "folder-root")
	assert.True(t, ok)
}

func TestRunOneHandlePerWorker(t *testing.T) {
	ctx := context.Background()
	d := newFakeDrive()
	src := &testSource{objs: []fs.Object{
		&testObject{key: "one.txt", data: []byte("x")},
	}}
	_, err := Run(ctx, src, Options{
		RootFolder:     "backup",
		Transfers:      3,
		NewDestination: d.newDestination,
	})
	require.NoError(t, err)
	// One setup handle plus one per worker
	assert.Equal(t, 4, d.newHandles)
}
