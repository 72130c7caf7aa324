package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

const pictureColumns = "id, name, width, height, gallery_id, format, path, sha1, filesize, external_id"

func scanPicture(row rowScanner) (*Picture, error) {
	var p Picture
	if err := row.Scan(&p.ID, &p.Name, &p.Width, &p.Height, &p.GalleryID,
		&p.Format, &p.Path, &p.Hash, &p.FileSize, &p.ExternalID); err != nil {
		return nil, err
	}
	return &p, nil
}

// InsertPicture inserts p unless a picture with the same path exists. p.ID
// is set to the id of the created or the existing row.
func (d *Database) InsertPicture(ctx context.Context, p *Picture) (InsertStatus, error) {
	done := observeQuery("insert_picture")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := writeContext(ctx)
	defer cancel()

	result, err := d.exec(ctx, `
		INSERT INTO pictures (name, width, height, gallery_id, format, path, sha1, filesize, external_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO NOTHING
	`, p.Name, p.Width, p.Height, p.GalleryID, p.Format, p.Path, p.Hash, p.FileSize, p.ExternalID)
	if err != nil {
		done(err)
		return InsertCreated, fmt.Errorf("failed to insert picture %s: %w", p.Path, err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		done(err)
		return InsertCreated, err
	}

	if rows > 0 {
		p.ID, err = result.LastInsertId()
		done(err)
		return InsertCreated, err
	}

	err = d.db.QueryRowContext(ctx, "SELECT id FROM pictures WHERE path = ?", p.Path).Scan(&p.ID)
	done(err)
	if err != nil {
		return InsertAlreadyExists, fmt.Errorf("failed to load existing picture %s: %w", p.Path, err)
	}
	return InsertAlreadyExists, nil
}

// PictureByID returns the picture with the given id or ErrNotFound.
func (d *Database) PictureByID(ctx context.Context, id int64) (*Picture, error) {
	p, err := d.queryPicture(ctx, "picture_by_id",
		"SELECT "+pictureColumns+" FROM pictures WHERE id = ?", id)
	if err == nil && p == nil {
		return nil, fmt.Errorf("picture %d: %w", id, ErrNotFound)
	}
	return p, err
}

// PictureByPath returns the picture stored for path, or nil.
func (d *Database) PictureByPath(ctx context.Context, path string) (*Picture, error) {
	return d.queryPicture(ctx, "picture_by_path",
		"SELECT "+pictureColumns+" FROM pictures WHERE path = ?", path)
}

func (d *Database) queryPicture(ctx context.Context, op, query string, args ...any) (*Picture, error) {
	done := observeQuery(op)

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := readContext(ctx)
	defer cancel()

	p, err := scanPicture(d.db.QueryRowContext(ctx, query, args...))
	if errors.Is(err, sql.ErrNoRows) {
		done(nil)
		return nil, nil
	}
	done(err)
	return p, err
}

// PicturesByGallery returns the pictures directly owned by a gallery.
func (d *Database) PicturesByGallery(ctx context.Context, galleryID int64) ([]Picture, error) {
	return d.queryPictures(ctx, "pictures_by_gallery",
		"SELECT "+pictureColumns+" FROM pictures WHERE gallery_id = ? ORDER BY id", galleryID)
}

// AllPictures returns every picture in id order.
func (d *Database) AllPictures(ctx context.Context) ([]Picture, error) {
	return d.queryPictures(ctx, "all_pictures",
		"SELECT "+pictureColumns+" FROM pictures ORDER BY id")
}

func (d *Database) queryPictures(ctx context.Context, op, query string, args ...any) ([]Picture, error) {
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

	var pictures []Picture
	for rows.Next() {
		p, err := scanPicture(rows)
		if err != nil {
			done(err)
			return nil, err
		}
		pictures = append(pictures, *p)
	}

	err = rows.Err()
	done(err)
	return pictures, err
}

// CoverPicture returns the picture that represents a gallery: its own first
// picture, else the first one found walking its descendants depth-first.
// Returns nil when the whole subtree is empty.
func (d *Database) CoverPicture(ctx context.Context, galleryID int64) (*Picture, error) {
	done := observeQuery("cover_picture")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := readContext(ctx)
	defer cancel()

	p, err := d.coverPicture(ctx, galleryID, map[int64]bool{})
	done(err)
	return p, err
}

func (d *Database) coverPicture(ctx context.Context, galleryID int64, visited map[int64]bool) (*Picture, error) {
	if visited[galleryID] {
		return nil, nil
	}
	visited[galleryID] = true

	p, err := scanPicture(d.db.QueryRowContext(ctx,
		"SELECT "+pictureColumns+" FROM pictures WHERE gallery_id = ? ORDER BY id LIMIT 1", galleryID))
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	children, err := d.childGalleryIDs(ctx, galleryID)
	if err != nil {
		return nil, err
	}
	for _, child := range children {
		p, err := d.coverPicture(ctx, child, visited)
		if err != nil || p != nil {
			return p, err
		}
	}
	return nil, nil
}

func (d *Database) childGalleryIDs(ctx context.Context, parentID int64) ([]int64, error) {
	rows, err := d.db.QueryContext(ctx, "SELECT id FROM galleries WHERE parent = ? ORDER BY id", parentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// UpdatePicture rewrites every column of an existing picture except its id
// and external id.
func (d *Database) UpdatePicture(ctx context.Context, p *Picture) error {
	done := observeQuery("update_picture")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := writeContext(ctx)
	defer cancel()

	result, err := d.exec(ctx, `
		UPDATE pictures
		SET name = ?, width = ?, height = ?, gallery_id = ?, format = ?, path = ?, sha1 = ?, filesize = ?
		WHERE id = ?
	`, p.Name, p.Width, p.Height, p.GalleryID, p.Format, p.Path, p.Hash, p.FileSize, p.ID)
	err = requireAffected(result, err, "picture", p.ID)
	done(err)
	return err
}

// DeletePicture deletes a picture. Its thumbnail row is left in place.
func (d *Database) DeletePicture(ctx context.Context, id int64) error {
	done := observeQuery("delete_picture")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := writeContext(ctx)
	defer cancel()

	result, err := d.exec(ctx, "DELETE FROM pictures WHERE id = ?", id)
	err = requireAffected(result, err, "picture", id)
	done(err)
	return err
}
