package indexer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"photo-library/internal/database"
	"photo-library/internal/filesystem"
	"photo-library/internal/logging"
	"photo-library/internal/metrics"
)

// SweepResult tallies one sweep.
type SweepResult struct {
	GalleriesDeleted int
	PicturesDeleted  int
	// Undetermined counts records kept because the existence of their
	// directory or file could not be established.
	Undetermined int
	Errors       int
}

// Sweeper deletes galleries and pictures whose directory or file has
// disappeared from disk. It must not run concurrently with a scan against
// the same store.
type Sweeper struct {
	store database.Store
	fs    filesystem.FS
}

// NewSweeper creates a Sweeper.
func NewSweeper(store database.Store, fsys filesystem.FS) *Sweeper {
	return &Sweeper{store: store, fs: fsys}
}

// Sweep makes one pass over all galleries, deleting directory-backed ones
// whose directory is gone (their pictures and child galleries go with them),
// then one pass over the remaining pictures, deleting those whose file is
// gone. A record is only deleted when its path is known not to exist.
func (s *Sweeper) Sweep(ctx context.Context) (SweepResult, error) {
	start := time.Now()
	metrics.SweeperRunsTotal.Inc()
	defer func() {
		metrics.SweeperLastRunDuration.Set(time.Since(start).Seconds())
	}()

	var result SweepResult

	galleries, err := s.store.AllGalleries(ctx)
	if err != nil {
		return result, fmt.Errorf("%w: list galleries: %w", ErrStore, err)
	}

	for _, g := range galleries {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if g.Directory == nil {
			continue
		}

		gone, ok := s.vanished(*g.Directory, &result)
		if !ok || !gone {
			continue
		}

		err := s.store.DeleteGallery(ctx, g.ID)
		switch {
		case err == nil:
			logging.Info("- gallery [%s] %s", g.Name, *g.Directory)
			result.GalleriesDeleted++
			metrics.SweeperDeletedTotal.WithLabelValues("gallery").Inc()
		case errors.Is(err, database.ErrNotFound):
			// already removed with a deleted ancestor
		default:
			logging.Error("Failed to delete gallery %d (%s): %v", g.ID, *g.Directory, err)
			result.Errors++
		}
	}

	pictures, err := s.store.AllPictures(ctx)
	if err != nil {
		return result, fmt.Errorf("%w: list pictures: %w", ErrStore, err)
	}

	for _, p := range pictures {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		gone, ok := s.vanished(p.Path, &result)
		if !ok || !gone {
			continue
		}

		err := s.store.DeletePicture(ctx, p.ID)
		switch {
		case err == nil:
			logging.Info("- picture %s (gallery %d)", p.Path, p.GalleryID)
			result.PicturesDeleted++
			metrics.SweeperDeletedTotal.WithLabelValues("picture").Inc()
		case errors.Is(err, database.ErrNotFound):
		default:
			logging.Error("Failed to delete picture %d (%s): %v", p.ID, p.Path, err)
			result.Errors++
		}
	}

	logging.Info("Sweep complete in %v: %d galleries and %d pictures removed, %d undetermined, %d errors",
		time.Since(start), result.GalleriesDeleted, result.PicturesDeleted, result.Undetermined, result.Errors)

	return result, nil
}

// vanished reports whether path is known to be gone. ok is false when
// existence could not be determined.
func (s *Sweeper) vanished(path string, result *SweepResult) (gone, ok bool) {
	exists, err := s.fs.Exists(path)
	if err != nil {
		logging.Warn("Keeping record for %s, existence unknown: %v", path, err)
		result.Undetermined++
		return false, false
	}
	return !exists, true
}
