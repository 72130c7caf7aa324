package database

import (
	"context"
	"database/sql"
	"errors"
)

// ThumbnailByPicture returns the thumbnail row of a picture, or nil if the
// picture has never had a thumbnail generated.
func (d *Database) ThumbnailByPicture(ctx context.Context, pictureID int64) (*Thumbnail, error) {
	done := observeQuery("thumbnail_by_picture")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := readContext(ctx)
	defer cancel()

	var t Thumbnail
	err := d.db.QueryRowContext(ctx,
		"SELECT picture_id, picture_hash FROM thumbnails WHERE picture_id = ?", pictureID,
	).Scan(&t.PictureID, &t.PictureHash)
	if errors.Is(err, sql.ErrNoRows) {
		done(nil)
		return nil, nil
	}
	done(err)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// UpsertThumbnail records the hash a picture's thumbnail was generated from.
func (d *Database) UpsertThumbnail(ctx context.Context, t *Thumbnail) error {
	done := observeQuery("upsert_thumbnail")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := writeContext(ctx)
	defer cancel()

	_, err := d.exec(ctx, `
		INSERT INTO thumbnails (picture_id, picture_hash) VALUES (?, ?)
		ON CONFLICT(picture_id) DO UPDATE SET picture_hash = excluded.picture_hash
	`, t.PictureID, t.PictureHash)
	done(err)
	return err
}

// AllThumbnails returns every thumbnail row, including rows whose picture
// has been deleted.
func (d *Database) AllThumbnails(ctx context.Context) ([]Thumbnail, error) {
	done := observeQuery("all_thumbnails")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := readContext(ctx)
	defer cancel()

	rows, err := d.db.QueryContext(ctx, "SELECT picture_id, picture_hash FROM thumbnails ORDER BY picture_id")
	if err != nil {
		done(err)
		return nil, err
	}
	defer rows.Close()

	var thumbnails []Thumbnail
	for rows.Next() {
		var t Thumbnail
		if err := rows.Scan(&t.PictureID, &t.PictureHash); err != nil {
			done(err)
			return nil, err
		}
		thumbnails = append(thumbnails, t)
	}

	err = rows.Err()
	done(err)
	return thumbnails, err
}

// DeleteThumbnail removes the thumbnail row of a picture.
func (d *Database) DeleteThumbnail(ctx context.Context, pictureID int64) error {
	done := observeQuery("delete_thumbnail")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := writeContext(ctx)
	defer cancel()

	result, err := d.exec(ctx, "DELETE FROM thumbnails WHERE picture_id = ?", pictureID)
	err = requireAffected(result, err, "thumbnail", pictureID)
	done(err)
	return err
}
