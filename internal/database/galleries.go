package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const galleryColumns = "id, name, directory, parent"

type rowScanner interface {
	Scan(dest ...any) error
}

func scanGallery(row rowScanner) (*Gallery, error) {
	var g Gallery
	var directory sql.NullString
	var parent sql.NullInt64

	if err := row.Scan(&g.ID, &g.Name, &directory, &parent); err != nil {
		return nil, err
	}
	if directory.Valid {
		g.Directory = &directory.String
	}
	if parent.Valid {
		g.Parent = &parent.Int64
	}
	return &g, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullInt64(i *int64) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *i, Valid: true}
}

// InsertGallery inserts g unless it collides with an existing gallery on
// directory, or on name for directory-less galleries. g.ID is set to the id
// of the created or the colliding row.
func (d *Database) InsertGallery(ctx context.Context, g *Gallery) (InsertStatus, error) {
	done := observeQuery("insert_gallery")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := writeContext(ctx)
	defer cancel()

	result, err := d.exec(ctx,
		"INSERT INTO galleries (name, directory, parent) VALUES (?, ?, ?) ON CONFLICT DO NOTHING",
		g.Name, nullString(g.Directory), nullInt64(g.Parent),
	)
	if err != nil {
		done(err)
		return InsertCreated, fmt.Errorf("failed to insert gallery %q: %w", g.Name, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		done(err)
		return InsertCreated, err
	}

	if rows > 0 {
		g.ID, err = result.LastInsertId()
		done(err)
		return InsertCreated, err
	}

	var existing *Gallery
	if g.Directory != nil {
		existing, err = scanGallery(d.db.QueryRowContext(ctx,
			"SELECT "+galleryColumns+" FROM galleries WHERE directory = ?", *g.Directory))
	} else {
		existing, err = scanGallery(d.db.QueryRowContext(ctx,
			"SELECT "+galleryColumns+" FROM galleries WHERE name = ? AND directory IS NULL", g.Name))
	}
	done(err)
	if err != nil {
		return InsertAlreadyExists, fmt.Errorf("failed to load existing gallery %q: %w", g.Name, err)
	}

	g.ID = existing.ID
	return InsertAlreadyExists, nil
}

// GalleryByID returns the gallery with the given id or ErrNotFound.
func (d *Database) GalleryByID(ctx context.Context, id int64) (*Gallery, error) {
	done := observeQuery("gallery_by_id")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := readContext(ctx)
	defer cancel()

	g, err := scanGallery(d.db.QueryRowContext(ctx,
		"SELECT "+galleryColumns+" FROM galleries WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		done(nil)
		return nil, fmt.Errorf("gallery %d: %w", id, ErrNotFound)
	}
	done(err)
	return g, err
}

// GalleryByDirectory returns the gallery backed by dir, or nil.
func (d *Database) GalleryByDirectory(ctx context.Context, dir string) (*Gallery, error) {
	return d.queryGallery(ctx, "gallery_by_directory",
		"SELECT "+galleryColumns+" FROM galleries WHERE directory = ?", dir)
}

// GalleryByNameAndDirectory returns the gallery matching name and directory,
// where a nil dir matches directory-less galleries. Returns nil if none.
func (d *Database) GalleryByNameAndDirectory(ctx context.Context, name string, dir *string) (*Gallery, error) {
	if dir == nil {
		return d.queryGallery(ctx, "gallery_by_name_and_directory",
			"SELECT "+galleryColumns+" FROM galleries WHERE name = ? AND directory IS NULL", name)
	}
	return d.queryGallery(ctx, "gallery_by_name_and_directory",
		"SELECT "+galleryColumns+" FROM galleries WHERE name = ? AND directory = ?", name, *dir)
}

func (d *Database) queryGallery(ctx context.Context, op, query string, args ...any) (*Gallery, error) {
	done := observeQuery(op)

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := readContext(ctx)
	defer cancel()

	g, err := scanGallery(d.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		done(nil)
		return nil, nil
	}
	done(err)
	return g, err
}

// GalleriesByName returns every gallery with the given name.
func (d *Database) GalleriesByName(ctx context.Context, name string) ([]Gallery, error) {
	return d.queryGalleries(ctx, "galleries_by_name",
		"SELECT "+galleryColumns+" FROM galleries WHERE name = ? ORDER BY id", name)
}

// GalleriesByParent returns the direct children of a gallery.
func (d *Database) GalleriesByParent(ctx context.Context, parentID int64) ([]Gallery, error) {
	return d.queryGalleries(ctx, "galleries_by_parent",
		"SELECT "+galleryColumns+" FROM galleries WHERE parent = ? ORDER BY id", parentID)
}

// TopLevelGalleries returns the roots of the gallery forest.
func (d *Database) TopLevelGalleries(ctx context.Context) ([]Gallery, error) {
	return d.queryGalleries(ctx, "top_level_galleries",
		"SELECT "+galleryColumns+" FROM galleries WHERE parent IS NULL ORDER BY id")
}

// AllGalleries returns every gallery in id order.
func (d *Database) AllGalleries(ctx context.Context) ([]Gallery, error) {
	return d.queryGalleries(ctx, "all_galleries",
		"SELECT "+galleryColumns+" FROM galleries ORDER BY id")
}

func (d *Database) queryGalleries(ctx context.Context, op, query string, args ...any) ([]Gallery, error) {
	done := observeQuery(op)

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := readContext(ctx)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		done(err)
		return nil, err
	}
	defer rows.Close()

	var galleries []Gallery
	for rows.Next() {
		g, err := scanGallery(rows)
		if err != nil {
			done(err)
			return nil, err
		}
		galleries = append(galleries, *g)
	}

	err = rows.Err()
	done(err)
	return galleries, err
}

// UpdateGallery rewrites name, directory and parent of an existing gallery.
func (d *Database) UpdateGallery(ctx context.Context, g *Gallery) error {
	done := observeQuery("update_gallery")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := writeContext(ctx)
	defer cancel()

	result, err := d.exec(ctx,
		"UPDATE galleries SET name = ?, directory = ?, parent = ? WHERE id = ?",
		g.Name, nullString(g.Directory), nullInt64(g.Parent), g.ID,
	)
	err = requireAffected(result, err, "gallery", g.ID)
	done(err)
	return err
}

// DeleteGallery deletes a gallery. Its pictures and child galleries are
// removed by the foreign key cascade.
func (d *Database) DeleteGallery(ctx context.Context, id int64) error {
	done := observeQuery("delete_gallery")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := writeContext(ctx)
	defer cancel()

	result, err := d.exec(ctx, "DELETE FROM galleries WHERE id = ?", id)
	err = requireAffected(result, err, "gallery", id)
	done(err)
	return err
}

// requireAffected turns a statement that touched no rows into ErrNotFound.
func requireAffected(result sql.Result, err error, entity string, id int64) error {
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return fmt.Errorf("%s %d: %w", entity, id, ErrNotFound)
	}
	return nil
}
