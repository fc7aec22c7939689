// Package dircache provides a cache for caching directory paths to
// remote folder IDs
package dircache

// _methods are called with the lock held

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"
)

// DirCacher describes an interface for doing the low level directory
// work - finding and making folders one segment at a time.
type DirCacher interface {
	FindLeaf(ctx context.Context, pathID, leaf string) (pathIDOut string, found bool, err error)
	CreateDir(ctx context.Context, pathID, leaf string) (newID string, err error)
}

// DirCache caches paths to folder IDs.
//
// Entries are write once - a path already present is authoritative and
// is never re-verified remotely.  The remote resolve-or-create for a
// missing segment happens while the lock is held, which serializes
// folder creation globally.  Folder creation is rare compared to file
// transfer so this trades throughput for at most one remote create per
// distinct path prefix per run.
type DirCache struct {
	mu     sync.RWMutex
	cache  map[string]string
	fs     DirCacher // Interface to find and make folders
	rootID string    // ID of the root folder
}

// New makes a DirCache rooted at the folder with ID rootID, using fs
// for the remote work.
//
// The cache is safe for concurrent use.
func New(rootID string, fs DirCacher) *DirCache {
	dc := &DirCache{
		cache:  make(map[string]string),
		fs:     fs,
		rootID: rootID,
	}
	dc._put("", rootID)
	return dc
}

// RootID returns the ID of the root folder
func (dc *DirCache) RootID() string {
	return dc.rootID
}

// _get an ID given a path - call with the lock held
func (dc *DirCache) _get(path string) (id string, ok bool) {
	id, ok = dc.cache[path]
	return id, ok
}

// Get an ID given a path
func (dc *DirCache) Get(path string) (id string, ok bool) {
	dc.mu.RLock()
	id, ok = dc._get(path)
	dc.mu.RUnlock()
	return id, ok
}

// _put a path, id into the cache - call with the lock held
func (dc *DirCache) _put(path, id string) {
	dc.cache[path] = id
}

// Put a path, id into the cache
func (dc *DirCache) Put(path, id string) {
	dc.mu.Lock()
	dc._put(path, id)
	dc.mu.Unlock()
}

// Flush the cache of all data
func (dc *DirCache) Flush() {
	dc.mu.Lock()
	dc.cache = make(map[string]string)
	dc._put("", dc.rootID)
	dc.mu.Unlock()
}

// SplitPath splits a path into directory, leaf.
//
// Path shouldn't start or end with a /
//
// If there are no slashes then directory will be "" and leaf = path
func SplitPath(path string) (directory, leaf string) {
	lastSlash := strings.LastIndex(path, "/")
	if lastSlash >= 0 {
		directory = path[:lastSlash]
		leaf = path[lastSlash+1:]
	} else {
		directory = ""
		leaf = path
	}
	return directory, leaf
}

// FindDir finds the folder for the path passed in, creating any
// missing segments, and returns its ID.
//
// Path shouldn't start or end with a /
//
// Algorithm:
//
//	Look in the cache for the path under the read lock, if found
//	return the ID without touching the remote.
//	Otherwise take the write lock, check again (another goroutine may
//	have just finished the same path), strip the last segment off and
//	recurse to get the parent ID, then find or create the leaf in the
//	parent and cache the result before releasing the lock.
//
// For two concurrent callers resolving the same path exactly one
// issues the remote create for any given prefix - the other sees the
// cache hit.
func (dc *DirCache) FindDir(ctx context.Context, path string) (pathID string, err error) {
	path = strings.Trim(path, "/")
	dc.mu.RLock()
	pathID, ok := dc._get(path)
	dc.mu.RUnlock()
	if ok {
		return pathID, nil
	}
	dc.mu.Lock()
	defer dc.mu.Unlock()
	return dc._findDir(ctx, path)
}

// Unlocked findDir - must hold the write lock
func (dc *DirCache) _findDir(ctx context.Context, path string) (pathID string, err error) {
	if path == "" {
		return dc.rootID, nil
	}

	// Double check inside the lock
	pathID, ok := dc._get(path)
	if ok {
		return pathID, nil
	}

	// Split the path into directory, leaf
	directory, leaf := SplitPath(path)

	// Recurse and find pathID for the parent directory
	parentPathID, err := dc._findDir(ctx, directory)
	if err != nil {
		return "", err
	}

	// Find the leaf in parentPathID
	pathID, found, err := dc.fs.FindLeaf(ctx, parentPathID, leaf)
	if err != nil {
		return "", err
	}

	// If not found create it
	if !found {
		pathID, err = dc.fs.CreateDir(ctx, parentPathID, leaf)
		if err != nil {
			return "", errors.Wrapf(err, "failed to make directory %q", path)
		}
	}

	// Store the leaf folder in the cache
	dc._put(path, pathID)

	return pathID, nil
}

// FindPath finds the leaf and folder ID for a file path, creating any
// missing folders on the way.
func (dc *DirCache) FindPath(ctx context.Context, path string) (leaf, directoryID string, err error) {
	directory, leaf := SplitPath(strings.Trim(path, "/"))
	directoryID, err = dc.FindDir(ctx, directory)
	if err != nil {
		return "", "", errors.Wrapf(err, "couldn't find or make directory %q", directory)
	}
	return leaf, directoryID, nil
}
