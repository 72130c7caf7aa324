package media

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"photo-library/internal/database"
	"photo-library/internal/logging"
	"photo-library/internal/metrics"
)

// WarmResult counts the outcomes of one warmer pass.
type WarmResult struct {
	Galleries int
	Pictures  int
	Generated int
	Fresh     int
	Failed    int
	Panicked  int
}

// Warmer brings every picture's thumbnail up to date. Each picture is an
// independent task; one task failing or panicking never affects another.
type Warmer struct {
	store   database.Store
	cache   *ThumbnailCache
	workers int
	gate    Gate

	// generate is the per-picture task, replaceable in tests.
	generate func(ctx context.Context, pic *database.Picture) (bool, error)
}

// Gate holds back warmer tasks, typically while memory is under pressure.
// WaitIfPaused returns false when the task should not run at all.
type Gate interface {
	WaitIfPaused() bool
}

// NewWarmer returns a warmer running at most workers tasks at once.
func NewWarmer(store database.Store, cache *ThumbnailCache, workers int) *Warmer {
	if workers < 1 {
		workers = 1
	}
	return &Warmer{
		store:    store,
		cache:    cache,
		workers:  workers,
		generate: cache.GenerateIfNeeded,
	}
}

// SetGate makes every task wait on gate before generating.
func (w *Warmer) SetGate(gate Gate) {
	w.gate = gate
}

// Run walks galleries in store order and schedules one task per picture.
// Errors of individual tasks are logged and counted, not returned; Run only
// fails when the store cannot be enumerated.
func (w *Warmer) Run(ctx context.Context) (WarmResult, error) {
	start := time.Now()
	logging.Info("Thumbnail warmer started (%d workers)", w.workers)

	galleries, err := w.store.AllGalleries(ctx)
	if err != nil {
		return WarmResult{}, fmt.Errorf("%w: list galleries: %w", ErrStore, err)
	}
	logging.Info("Thumbnail warmer found %d galleries", len(galleries))

	var generated, fresh, failed, panicked atomic.Int64
	result := WarmResult{Galleries: len(galleries)}

	var g errgroup.Group
	g.SetLimit(w.workers)

	for _, gallery := range galleries {
		if ctx.Err() != nil {
			break
		}

		pictures, err := w.store.PicturesByGallery(ctx, gallery.ID)
		if err != nil {
			logging.Error("Thumbnail warmer: failed to list pictures of gallery %d (%s): %v", gallery.ID, gallery.Name, err)
			continue
		}
		logging.Debug("Thumbnail warmer: gallery %s has %d pictures", gallery.Name, len(pictures))
		result.Pictures += len(pictures)

		for i := range pictures {
			pic := pictures[i]
			g.Go(func() error {
				switch w.runTask(ctx, &pic) {
				case taskGenerated:
					generated.Add(1)
				case taskFresh:
					fresh.Add(1)
				case taskFailed:
					failed.Add(1)
				case taskPanicked:
					panicked.Add(1)
				}
				return nil
			})
		}
	}

	_ = g.Wait()

	result.Generated = int(generated.Load())
	result.Fresh = int(fresh.Load())
	result.Failed = int(failed.Load())
	result.Panicked = int(panicked.Load())

	logging.Info("Thumbnail warmer completed in %v: %d generated, %d fresh, %d failed, %d panicked",
		time.Since(start), result.Generated, result.Fresh, result.Failed, result.Panicked)

	return result, ctx.Err()
}

type taskOutcome string

const (
	taskSkipped   taskOutcome = "skipped"
	taskGenerated taskOutcome = "generated"
	taskFresh     taskOutcome = "fresh"
	taskFailed    taskOutcome = "failed"
	taskPanicked  taskOutcome = "panicked"
)

// runTask generates one thumbnail, converting a panic into an outcome.
func (w *Warmer) runTask(ctx context.Context, pic *database.Picture) (outcome taskOutcome) {
	if ctx.Err() != nil {
		return taskSkipped
	}
	if w.gate != nil && !w.gate.WaitIfPaused() {
		return taskSkipped
	}

	defer func() {
		if r := recover(); r != nil {
			logging.Error("Thumbnail task for picture %d (%s) panicked: %v\n%s", pic.ID, pic.Path, r, debug.Stack())
			outcome = taskPanicked
		}
		if outcome != taskSkipped {
			metrics.ThumbnailWarmerTasks.WithLabelValues(string(outcome)).Inc()
		}
	}()

	made, err := w.generate(ctx, pic)
	switch {
	case err != nil:
		logging.Error("Thumbnail task for picture %d (%s) failed: %v", pic.ID, pic.Path, err)
		return taskFailed
	case made:
		logging.Debug("Thumbnail generated for %s", pic.Path)
		return taskGenerated
	default:
		return taskFresh
	}
}
