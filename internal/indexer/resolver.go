package indexer

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"photo-library/internal/database"
	"photo-library/internal/logging"
	"photo-library/internal/metrics"
)

// Resolver maps directories to galleries, creating missing galleries and
// their parent links on demand. All operations are idempotent.
type Resolver struct {
	store database.GalleryStore
	root  string
}

// NewResolver returns a resolver for directories below root. Galleries for
// root itself are top-level.
func NewResolver(store database.GalleryStore, root string) *Resolver {
	return &Resolver{store: store, root: filepath.Clean(root)}
}

// Root returns the scan root the resolver stops at.
func (r *Resolver) Root() string {
	return r.root
}

// Resolve returns the gallery whose directory is dir, creating it and any
// missing ancestors up to the first persisted one or the scan root.
func (r *Resolver) Resolve(ctx context.Context, dir string) (*database.Gallery, error) {
	g, _, err := r.resolve(ctx, filepath.Clean(dir))
	return g, err
}

func (r *Resolver) resolve(ctx context.Context, dir string) (*database.Gallery, int, error) {
	g, err := r.store.GalleryByDirectory(ctx, dir)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: gallery for %s: %w", ErrStore, dir, err)
	}
	if g != nil {
		return g, 0, nil
	}

	var parent *int64
	created := 0
	if r.below(dir) {
		pg, n, err := r.resolve(ctx, filepath.Dir(dir))
		if err != nil {
			return nil, n, err
		}
		parent = &pg.ID
		created += n
	}

	g, made, err := r.ensure(ctx, dir, parent)
	if made {
		created++
	}
	return g, created, err
}

// below reports whether dir lies strictly inside the scan root.
func (r *Resolver) below(dir string) bool {
	if dir == r.root {
		return false
	}
	rel, err := filepath.Rel(r.root, dir)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}

// EnsureChain makes sure every directory in ancestors (ordered root to
// leaf) and dir itself has a gallery, each parented to the previous one.
// Existing galleries are reused and left untouched.
func (r *Resolver) EnsureChain(ctx context.Context, ancestors []string, dir string) (*database.Gallery, error) {
	g, _, err := r.ensureChain(ctx, ancestors, dir)
	return g, err
}

func (r *Resolver) ensureChain(ctx context.Context, ancestors []string, dir string) (*database.Gallery, int, error) {
	var parent *int64
	created := 0

	for _, ancestor := range ancestors {
		g, made, err := r.lookupOrEnsure(ctx, ancestor, parent)
		if err != nil {
			return nil, created, err
		}
		if made {
			created++
		}
		id := g.ID
		parent = &id
	}

	g, made, err := r.lookupOrEnsure(ctx, dir, parent)
	if made {
		created++
	}
	return g, created, err
}

func (r *Resolver) lookupOrEnsure(ctx context.Context, dir string, parent *int64) (*database.Gallery, bool, error) {
	g, err := r.store.GalleryByDirectory(ctx, dir)
	if err != nil {
		return nil, false, fmt.Errorf("%w: gallery for %s: %w", ErrStore, dir, err)
	}
	if g != nil {
		return g, false, nil
	}
	return r.ensure(ctx, dir, parent)
}

// ensure gets or creates the gallery for dir with the given parent. It
// reports whether a new gallery was written.
func (r *Resolver) ensure(ctx context.Context, dir string, parent *int64) (*database.Gallery, bool, error) {
	directory := dir
	g := &database.Gallery{
		Name:      filepath.Base(dir),
		Directory: &directory,
		Parent:    parent,
	}

	status, err := r.store.InsertGallery(ctx, g)
	if err != nil {
		return nil, false, fmt.Errorf("%w: create gallery for %s: %w", ErrStore, dir, err)
	}
	if status == database.InsertAlreadyExists {
		existing, err := r.store.GalleryByID(ctx, g.ID)
		if err != nil {
			return nil, false, fmt.Errorf("%w: load gallery for %s: %w", ErrStore, dir, err)
		}
		return existing, false, nil
	}

	logging.Info("+ gallery [%s] %s", g.Name, dir)
	metrics.IndexerGalleriesCreated.Inc()
	return g, true, nil
}
