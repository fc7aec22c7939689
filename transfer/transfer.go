// Package transfer copies every object in a source bucket into a
// folder tree at the destination, skipping what is already there.
package transfer

import (
	"context"
	"strings"
	"sync"

	"github.com/pkg/errors"

	"github.com/kousiktn/gcs2gdrive/accounting"
	"github.com/kousiktn/gcs2gdrive/fs"
	"github.com/kousiktn/gcs2gdrive/lib/dircache"
)

// DefaultTransfers is the number of parallel transfers used when
// Options.Transfers is unset.
const DefaultTransfers = 10

// Options configures a Run.
type Options struct {
	// RootFolder is the name of the destination folder everything is
	// copied under.  It is resolved or created once, by name, with no
	// parent.
	RootFolder string
	// Transfers is the width of the worker pool (default 10)
	Transfers int
	// NewDestination makes a destination handle.  It is called once
	// for setup and once per worker - destination handles aren't
	// assumed safe for concurrent use even when built from the same
	// credentials.
	NewDestination func(ctx context.Context) (fs.Destination, error)
	// Stats receives the progress of the run.  If nil a fresh Stats
	// is made.  Passing it in lets the caller print progress while
	// the run is still going.
	Stats *accounting.Stats
}

// Run copies all of src into opt.RootFolder at the destination.
//
// All objects are listed eagerly and submitted up front, then drained
// by a fixed pool of workers.  Individual object failures are counted
// and logged but never abort the run or their siblings; only setup
// failures (credentials, listing, root resolution, handle creation)
// return an error.
//
// Note that remote calls carry no deadline - a hung call blocks its
// worker slot until the context is done.
func Run(ctx context.Context, src fs.Source, opt Options) (*accounting.Stats, error) {
	transfers := opt.Transfers
	if transfers <= 0 {
		transfers = DefaultTransfers
	}
	if opt.RootFolder == "" {
		return nil, errors.New("destination folder name is required")
	}
	stats := opt.Stats
	if stats == nil {
		stats = accounting.NewStats(0)
	}

	// Setup handle, used for the root folder and all folder creation
	dst, err := opt.NewDestination(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't connect to destination")
	}

	objs, err := src.ListObjects(ctx)
	if err != nil {
		return nil, errors.Wrap(err, "couldn't list source")
	}
	stats.SetTotal(int64(len(objs)))
	if len(objs) == 0 {
		fs.Infof(src, "source is empty - nothing to do")
		return stats, nil
	}

	rootID, err := findOrCreateRoot(ctx, dst, opt.RootFolder)
	if err != nil {
		return nil, err
	}
	fs.Infof(nil, "destination folder %q has ID %q", opt.RootFolder, rootID)

	// One folder cache shared by every worker for the whole run
	dc := dircache.New(rootID, dst)

	// Each worker gets its own destination handle.  Build them before
	// dispatch so a handle failure is fatal rather than a partial run.
	handles := make([]fs.Destination, transfers)
	for i := range handles {
		handles[i], err = opt.NewDestination(ctx)
		if err != nil {
			return nil, errors.Wrap(err, "couldn't connect to destination")
		}
	}

	in := make(chan fs.Object, len(objs))
	for _, o := range objs {
		in <- o
	}
	close(in)

	var wg sync.WaitGroup
	wg.Add(transfers)
	for i := 0; i < transfers; i++ {
		go func(dst fs.Destination) {
			defer wg.Done()
			for o := range in {
				transferObject(ctx, dst, dc, stats, o)
			}
		}(handles[i])
	}
	wg.Wait()

	return stats, nil
}

// findOrCreateRoot resolves the destination root folder by name with
// no parent scoping, creating it if it doesn't exist.
func findOrCreateRoot(ctx context.Context, dst fs.Destination, name string) (string, error) {
	rootID, found, err := dst.FindLeaf(ctx, "", name)
	if err != nil {
		return "", errors.Wrapf(err, "couldn't find destination folder %q", name)
	}
	if found {
		return rootID, nil
	}
	rootID, err = dst.CreateDir(ctx, "", name)
	if err != nil {
		return "", errors.Wrapf(err, "couldn't create destination folder %q", name)
	}
	return rootID, nil
}

// transferObject copies one object, recording the outcome in stats.
//
// Errors stop here - they are logged with the object's key and counted,
// keeping the rest of the batch running.
func transferObject(ctx context.Context, dst fs.Destination, dc *dircache.DirCache, stats *accounting.Stats, o fs.Object) {
	key := o.Key()

	// A key with a trailing / is a directory placeholder with no
	// payload - nothing to do for it.
	if strings.HasSuffix(key, "/") {
		fs.Debugf(o, "directory placeholder - skipping")
		stats.Skip()
		return
	}

	stats.Transferring(key)
	skipped, err := copyObject(ctx, dst, dc, o)
	switch {
	case err != nil:
		stats.Error(err)
		stats.DoneTransferring(key, false)
		fs.Errorf(o, "failed to transfer: %v", err)
	case skipped:
		stats.Skip()
		stats.DoneTransferring(key, false)
		fs.Debugf(o, "already exists at destination - skipping")
	default:
		stats.Bytes(o.Size())
		stats.DoneTransferring(key, true)
		fs.Infof(o, "transferred")
	}
}

// copyObject does the remote work for one object: resolve the parent
// folder chain, check for an existing file of the same name, and
// stream the content across on a miss.
//
// The existence check is by name only, not content, and isn't atomic
// with the create - a re-run converges but two workers given the same
// key could both upload.
func copyObject(ctx context.Context, dst fs.Destination, dc *dircache.DirCache, o fs.Object) (skipped bool, err error) {
	leaf, dirID, err := dc.FindPath(ctx, o.Key())
	if err != nil {
		return false, err
	}

	_, found, err := dst.FindFile(ctx, dirID, leaf)
	if err != nil {
		return false, errors.Wrap(err, "couldn't check for existing file")
	}
	if found {
		return true, nil
	}

	in, err := o.Open(ctx)
	if err != nil {
		return false, errors.Wrap(err, "couldn't open source object")
	}
	defer func() {
		closeErr := in.Close()
		if err == nil && closeErr != nil {
			err = errors.Wrap(closeErr, "couldn't close source object")
		}
	}()

	contentType := o.ContentType()
	if contentType == "" {
		contentType = fs.MimeTypeDefault
	}

	_, err = dst.Put(ctx, in, leaf, dirID, contentType)
	if err != nil {
		return false, err
	}
	return false, nil
}
