package indexer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"photo-library/internal/database"
	"photo-library/internal/filesystem"
	"photo-library/internal/logging"
	"photo-library/internal/media"
	"photo-library/internal/mediatypes"
	"photo-library/internal/metrics"
)

var (
	// ErrFormat marks a file whose image header could not be decoded.
	ErrFormat = errors.New("unsupported or corrupt image")
	// ErrStore marks a failed store read or write.
	ErrStore = errors.New("store error")
	// ErrScanInProgress is returned when a scan is requested while another
	// one runs on the same Indexer.
	ErrScanInProgress = errors.New("scan already in progress")
)

// Outcome is the result of reconciling one file.
type Outcome int

const (
	OutcomeUnchanged Outcome = iota
	OutcomeAdded
	OutcomeUpdated
	OutcomeSkipped
)

func (o Outcome) String() string {
	switch o {
	case OutcomeUnchanged:
		return "unchanged"
	case OutcomeAdded:
		return "added"
	case OutcomeUpdated:
		return "updated"
	case OutcomeSkipped:
		return "skipped"
	default:
		return fmt.Sprintf("outcome(%d)", int(o))
	}
}

// ScanResult tallies one scan.
type ScanResult struct {
	GalleriesCreated  int
	PicturesAdded     int
	PicturesUpdated   int
	PicturesUnchanged int
	PicturesSkipped   int
	// Errors counts files and directories that failed with an I/O or store
	// error. Skipped files are not errors.
	Errors int
}

// Add accumulates other into r.
func (r *ScanResult) Add(other ScanResult) {
	r.GalleriesCreated += other.GalleriesCreated
	r.PicturesAdded += other.PicturesAdded
	r.PicturesUpdated += other.PicturesUpdated
	r.PicturesUnchanged += other.PicturesUnchanged
	r.PicturesSkipped += other.PicturesSkipped
	r.Errors += other.Errors
}

func (r *ScanResult) count(outcome Outcome) {
	switch outcome {
	case OutcomeAdded:
		r.PicturesAdded++
	case OutcomeUpdated:
		r.PicturesUpdated++
	case OutcomeUnchanged:
		r.PicturesUnchanged++
	case OutcomeSkipped:
		r.PicturesSkipped++
	}
}

// Indexer reconciles directories on disk with the pictures and galleries in
// the store.
type Indexer struct {
	store database.Store
	fs    filesystem.FS

	indexMu       sync.Mutex
	isIndexing    bool
	lastIndexTime time.Time

	// newExternalID mints the stable derivative name of a new picture.
	newExternalID func(format string) string
}

// New creates an Indexer over store and fsys.
func New(store database.Store, fsys filesystem.FS) *Indexer {
	return &Indexer{
		store:         store,
		fs:            fsys,
		newExternalID: newExternalID,
	}
}

// newExternalID returns a random UUID without dashes, suffixed with the
// picture format.
func newExternalID(format string) string {
	return strings.ReplaceAll(uuid.NewString(), "-", "") + "." + format
}

// IsIndexing returns whether a scan is currently in progress.
func (idx *Indexer) IsIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.isIndexing
}

// LastIndexTime returns the completion time of the last scan.
func (idx *Indexer) LastIndexTime() time.Time {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()
	return idx.lastIndexTime
}

// tryStartIndexing attempts to start a scan, returns false if one is running.
func (idx *Indexer) tryStartIndexing() bool {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	if idx.isIndexing {
		return false
	}
	idx.isIndexing = true
	return true
}

// finishIndexing marks the scan as complete.
func (idx *Indexer) finishIndexing() {
	idx.indexMu.Lock()
	defer idx.indexMu.Unlock()

	idx.isIndexing = false
	idx.lastIndexTime = time.Now()
}

// begin wraps a scan with the running guard and run metrics.
func (idx *Indexer) begin(mode string) (func(ScanResult), error) {
	if !idx.tryStartIndexing() {
		return nil, ErrScanInProgress
	}

	start := time.Now()
	metrics.IndexerIsRunning.Set(1)
	metrics.IndexerRunsTotal.WithLabelValues(mode).Inc()

	return func(result ScanResult) {
		idx.finishIndexing()
		metrics.IndexerIsRunning.Set(0)
		metrics.IndexerLastRunTimestamp.Set(float64(time.Now().Unix()))
		metrics.IndexerLastRunDuration.Set(time.Since(start).Seconds())

		logging.Info("Scan (%s) complete in %v: %d galleries created, %d added, %d updated, %d unchanged, %d skipped, %d errors",
			mode, time.Since(start), result.GalleriesCreated, result.PicturesAdded, result.PicturesUpdated,
			result.PicturesUnchanged, result.PicturesSkipped, result.Errors)
	}, nil
}

// ReconcileFile brings the store record of the picture at path in line with
// the file on disk:
//
//   - a stored size equal to the on-disk size means unchanged, without hashing
//   - otherwise the file is hashed; an unknown path or a different hash
//     re-reads the image header and upserts the record, keeping the id and
//     external id of an existing record
//   - an equal hash with a different size only refreshes the stored size
//
// Undecodable files return OutcomeSkipped with an error wrapping ErrFormat.
func (idx *Indexer) ReconcileFile(ctx context.Context, path string, galleryID int64) (Outcome, error) {
	existing, err := idx.store.PictureByPath(ctx, path)
	if err != nil {
		return OutcomeUnchanged, fmt.Errorf("%w: lookup %s: %w", ErrStore, path, err)
	}

	size, err := idx.fs.FileSize(path)
	if err != nil {
		return OutcomeUnchanged, err
	}

	if existing != nil && existing.FileSize == size {
		return OutcomeUnchanged, nil
	}

	hash, err := ContentHash(idx.fs, path)
	if err != nil {
		return OutcomeUnchanged, err
	}

	if existing != nil && existing.Hash == hash {
		existing.FileSize = size
		if err := idx.store.UpdatePicture(ctx, existing); err != nil {
			return OutcomeUnchanged, fmt.Errorf("%w: update size of %s: %w", ErrStore, path, err)
		}
		logging.Debug("Refreshed stored size of %s (content unchanged)", path)
		return OutcomeUnchanged, nil
	}

	width, height, err := media.ReadDimensions(idx.fs, path)
	if err != nil {
		if errors.Is(err, media.ErrFormat) {
			return OutcomeSkipped, fmt.Errorf("%w: %s: %w", ErrFormat, path, err)
		}
		return OutcomeUnchanged, err
	}

	pic := &database.Picture{
		Name:      mediatypes.Stem(path),
		Width:     width,
		Height:    height,
		GalleryID: galleryID,
		Format:    mediatypes.Format(path),
		Path:      path,
		Hash:      hash,
		FileSize:  size,
	}

	if existing != nil {
		pic.ID = existing.ID
		pic.ExternalID = existing.ExternalID
		if err := idx.store.UpdatePicture(ctx, pic); err != nil {
			return OutcomeUnchanged, fmt.Errorf("%w: update %s: %w", ErrStore, path, err)
		}
		logging.Info("~ picture %s", path)
		return OutcomeUpdated, nil
	}

	pic.ExternalID = idx.newExternalID(pic.Format)
	status, err := idx.store.InsertPicture(ctx, pic)
	if err != nil {
		return OutcomeUnchanged, fmt.Errorf("%w: insert %s: %w", ErrStore, path, err)
	}
	if status == database.InsertAlreadyExists {
		return OutcomeUnchanged, nil
	}

	logging.Info("+ picture %s", path)
	return OutcomeAdded, nil
}

// reconcileAll applies ReconcileFile to every file, logging and counting
// failures without stopping.
func (idx *Indexer) reconcileAll(ctx context.Context, files []string, gallery *database.Gallery, result *ScanResult) error {
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return err
		}

		outcome, err := idx.ReconcileFile(ctx, file, gallery.ID)
		switch {
		case err == nil:
			result.count(outcome)
			metrics.IndexerFilesProcessed.WithLabelValues(outcome.String()).Inc()
		case errors.Is(err, ErrFormat):
			logging.Warn("! skipping %s in gallery %s: %v", file, gallery.Name, err)
			result.count(OutcomeSkipped)
			metrics.IndexerFilesProcessed.WithLabelValues(OutcomeSkipped.String()).Inc()
			metrics.IndexerErrors.WithLabelValues("format").Inc()
		default:
			logging.Error("Failed to reconcile %s in gallery %s (%d): %v", file, gallery.Name, gallery.ID, err)
			result.Errors++
			metrics.IndexerFilesProcessed.WithLabelValues("failed").Inc()
			metrics.IndexerErrors.WithLabelValues(errorKind(err)).Inc()
		}
	}
	return nil
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, ErrFormat):
		return "format"
	case errors.Is(err, ErrStore):
		return "store"
	default:
		return "io"
	}
}

// Scan reconciles the pictures directly inside dir into its gallery, which
// is created with the given parent when missing. Subdirectories are ignored.
func (idx *Indexer) Scan(ctx context.Context, dir string, parent *int64) (ScanResult, error) {
	finish, err := idx.begin("flat")
	if err != nil {
		return ScanResult{}, err
	}

	var result ScanResult
	defer func() { finish(result) }()

	dir = filepath.Clean(dir)
	logging.Info("Scanning %s", dir)

	resolver := NewResolver(idx.store, dir)
	gallery, made, err := resolver.lookupOrEnsure(ctx, dir, parent)
	if err != nil {
		result.Errors++
		metrics.IndexerErrors.WithLabelValues("store").Inc()
		return result, err
	}
	if made {
		result.GalleriesCreated++
	}

	listing, err := idx.fs.ListDirectory(dir)
	if err != nil {
		result.Errors++
		metrics.IndexerErrors.WithLabelValues("io").Inc()
		return result, err
	}

	err = idx.reconcileAll(ctx, listing.Files, gallery, &result)
	return result, err
}

// ScanRecursively walks root depth-first. Every directory holding at least
// one picture gets a gallery linked into the chain of its ancestors up to
// root; directories without pictures get none unless a descendant needs
// them. Files are reconciled before subdirectories are entered. A directory
// that cannot be listed is skipped with its subtree; only a failure to list
// root itself is returned.
func (idx *Indexer) ScanRecursively(ctx context.Context, root string) (ScanResult, error) {
	finish, err := idx.begin("recursive")
	if err != nil {
		return ScanResult{}, err
	}

	var result ScanResult
	defer func() { finish(result) }()

	root = filepath.Clean(root)
	logging.Info("Scanning %s recursively", root)

	resolver := NewResolver(idx.store, root)

	listing, err := idx.fs.ListDirectory(root)
	if err != nil {
		result.Errors++
		metrics.IndexerErrors.WithLabelValues("io").Inc()
		return result, err
	}

	err = idx.walk(ctx, resolver, root, listing, nil, &result)
	return result, err
}

func (idx *Indexer) walk(ctx context.Context, resolver *Resolver, dir string, listing filesystem.Listing, ancestors []string, result *ScanResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	if len(listing.Files) > 0 {
		gallery, created, err := resolver.ensureChain(ctx, ancestors, dir)
		result.GalleriesCreated += created
		if err != nil {
			logging.Error("Failed to resolve gallery for %s: %v", dir, err)
			result.Errors++
			metrics.IndexerErrors.WithLabelValues("store").Inc()
		} else if err := idx.reconcileAll(ctx, listing.Files, gallery, result); err != nil {
			return err
		}
	}

	if len(listing.Dirs) == 0 {
		return nil
	}

	childAncestors := make([]string, 0, len(ancestors)+1)
	childAncestors = append(childAncestors, ancestors...)
	childAncestors = append(childAncestors, dir)

	for _, sub := range listing.Dirs {
		if err := ctx.Err(); err != nil {
			return err
		}

		logging.Debug("Checking dir %s", sub)
		subListing, err := idx.fs.ListDirectory(sub)
		if err != nil {
			logging.Error("Skipping unreadable directory %s: %v", sub, err)
			result.Errors++
			metrics.IndexerErrors.WithLabelValues("io").Inc()
			continue
		}

		if err := idx.walk(ctx, resolver, sub, subListing, childAncestors, result); err != nil {
			return err
		}
	}
	return nil
}
