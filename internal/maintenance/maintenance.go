package maintenance

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"photo-library/internal/database"
	"photo-library/internal/filesystem"
	"photo-library/internal/indexer"
	"photo-library/internal/logging"
	"photo-library/internal/media"
	"photo-library/internal/metrics"
)

var (
	// ErrLocked is returned when another process holds the maintenance lock.
	ErrLocked = errors.New("maintenance already running")

	// ErrRootMissing is returned for a configured root that does not exist.
	ErrRootMissing = errors.New("scan root does not exist")
)

// compacter is implemented by stores that can reclaim space after deletions.
type compacter interface {
	Vacuum(ctx context.Context) error
}

// ScanRoot is one configured library directory.
type ScanRoot struct {
	Path      string
	Recursive bool
}

// Options selects the phases of a maintenance pass.
type Options struct {
	Roots []ScanRoot
	// SkipScan skips both scanning and the sweep.
	SkipScan   bool
	SkipThumbs bool
}

// Report summarizes one maintenance pass.
type Report struct {
	Scan       indexer.ScanResult
	Sweep      indexer.SweepResult
	Warm       media.WarmResult
	RootErrors int
	Duration   time.Duration
}

// Runner performs a full maintenance pass: scan every root, sweep vanished
// records, then warm thumbnails. Only one pass may run per lock file.
type Runner struct {
	Store    database.GalleryStore
	FS       filesystem.FS
	Indexer  *indexer.Indexer
	Sweeper  *indexer.Sweeper
	Warmer   *media.Warmer
	LockPath string
}

// Run executes one pass. A failing root is logged and counted and the pass
// moves on; the sweep and warmer errors are joined into the returned error.
// Cancelling ctx stops the pass between phases and returns ctx.Err().
func (r *Runner) Run(ctx context.Context, opts Options) (Report, error) {
	start := time.Now()

	lock := flock.New(r.LockPath)
	locked, err := lock.TryLock()
	if err != nil {
		metrics.MaintenanceRunsTotal.WithLabelValues("error").Inc()
		return Report{}, fmt.Errorf("failed to acquire maintenance lock %s: %w", r.LockPath, err)
	}
	if !locked {
		metrics.MaintenanceRunsTotal.WithLabelValues("locked").Inc()
		return Report{}, ErrLocked
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			logging.Warn("Failed to release maintenance lock %s: %v", r.LockPath, err)
		}
	}()

	var report Report
	var errs []error

	if opts.SkipScan {
		logging.Info("Maintenance: scan and sweep skipped")
	} else {
		for _, root := range opts.Roots {
			if ctx.Err() != nil {
				break
			}
			result, err := r.scanRoot(ctx, root)
			report.Scan.Add(result)
			if err != nil {
				report.RootErrors++
				logging.Error("Maintenance: scan of %s failed: %v", root.Path, err)
			}
		}

		if ctx.Err() == nil {
			report.Sweep, err = r.Sweeper.Sweep(ctx)
			if err != nil && ctx.Err() == nil {
				logging.Error("Maintenance: sweep failed: %v", err)
				errs = append(errs, err)
			}
			if report.Sweep.GalleriesDeleted+report.Sweep.PicturesDeleted > 0 {
				r.compact(ctx)
			}
		}
	}

	if opts.SkipThumbs {
		logging.Info("Maintenance: thumbnail warming skipped")
	} else if ctx.Err() == nil {
		report.Warm, err = r.Warmer.Run(ctx)
		if err != nil && ctx.Err() == nil {
			logging.Error("Maintenance: thumbnail warming failed: %v", err)
			errs = append(errs, err)
		}
	}

	report.Duration = time.Since(start)

	if err := ctx.Err(); err != nil {
		metrics.MaintenanceRunsTotal.WithLabelValues("error").Inc()
		logging.Warn("Maintenance interrupted after %v", report.Duration)
		return report, err
	}

	if err := errors.Join(errs...); err != nil {
		metrics.MaintenanceRunsTotal.WithLabelValues("error").Inc()
		return report, err
	}

	metrics.MaintenanceRunsTotal.WithLabelValues("success").Inc()
	logging.Info("Maintenance completed in %v: %d galleries created, %d added, %d updated, %d removed pictures, %d thumbnails generated",
		report.Duration,
		report.Scan.GalleriesCreated,
		report.Scan.PicturesAdded,
		report.Scan.PicturesUpdated,
		report.Sweep.PicturesDeleted,
		report.Warm.Generated,
	)

	return report, nil
}

// compact vacuums the store when it supports it. Failures are logged and
// ignored.
func (r *Runner) compact(ctx context.Context) {
	c, ok := r.Store.(compacter)
	if !ok {
		return
	}
	if err := c.Vacuum(ctx); err != nil {
		logging.Warn("Maintenance: database vacuum failed: %v", err)
		return
	}
	logging.Debug("Maintenance: database vacuumed after sweep")
}

func (r *Runner) scanRoot(ctx context.Context, root ScanRoot) (indexer.ScanResult, error) {
	path := filepath.Clean(root.Path)

	exists, err := r.FS.Exists(path)
	if err != nil {
		return indexer.ScanResult{}, err
	}
	if !exists {
		return indexer.ScanResult{}, fmt.Errorf("%w: %s", ErrRootMissing, path)
	}

	if root.Recursive {
		return r.Indexer.ScanRecursively(ctx, path)
	}

	parent, err := r.parentGallery(ctx, path)
	if err != nil {
		return indexer.ScanResult{}, err
	}
	return r.Indexer.Scan(ctx, path, parent)
}

// parentGallery links a flat root under the gallery of its parent directory
// when one is already known, e.g. when the parent is itself a scan root.
func (r *Runner) parentGallery(ctx context.Context, path string) (*int64, error) {
	dir := filepath.Dir(path)
	if dir == path {
		return nil, nil
	}

	gallery, err := r.Store.GalleryByDirectory(ctx, dir)
	if err != nil {
		return nil, fmt.Errorf("failed to look up parent gallery of %s: %w", path, err)
	}
	if gallery == nil {
		return nil, nil
	}
	return &gallery.ID, nil
}
