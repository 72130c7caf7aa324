package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// InsertTag inserts a tag unless one with the same name exists. t.ID is set
// to the id of the created or the existing row.
func (d *Database) InsertTag(ctx context.Context, t *Tag) (InsertStatus, error) {
	done := observeQuery("insert_tag")

	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		err := errors.New("tag name cannot be empty")
		done(err)
		return InsertCreated, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := writeContext(ctx)
	defer cancel()

	result, err := d.exec(ctx,
		"INSERT INTO tags (tag_type, name) VALUES (?, ?) ON CONFLICT(name) DO NOTHING",
		t.TagType, t.Name,
	)
	if err != nil {
		done(err)
		return InsertCreated, fmt.Errorf("failed to create tag: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		done(err)
		return InsertCreated, err
	}
	if rows > 0 {
		t.ID, err = result.LastInsertId()
		done(err)
		return InsertCreated, err
	}

	err = d.db.QueryRowContext(ctx, "SELECT id, tag_type FROM tags WHERE name = ?", t.Name).Scan(&t.ID, &t.TagType)
	done(err)
	if err != nil {
		return InsertAlreadyExists, fmt.Errorf("failed to load existing tag %q: %w", t.Name, err)
	}
	return InsertAlreadyExists, nil
}

// TagByName returns the tag with the given name, or nil.
func (d *Database) TagByName(ctx context.Context, name string) (*Tag, error) {
	done := observeQuery("tag_by_name")

	d.mu.RLock()
	defer d.mu.RUnlock()

	ctx, cancel := readContext(ctx)
	defer cancel()

	var t Tag
	err := d.db.QueryRowContext(ctx,
		"SELECT id, tag_type, name FROM tags WHERE name = ?", strings.TrimSpace(name),
	).Scan(&t.ID, &t.TagType, &t.Name)
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

// AllTags returns every tag ordered by name.
func (d *Database) AllTags(ctx context.Context) ([]Tag, error) {
	return d.queryTags(ctx, "all_tags", "SELECT id, tag_type, name FROM tags ORDER BY name")
}

// PictureTags returns the tags attached to a picture ordered by name.
func (d *Database) PictureTags(ctx context.Context, pictureID int64) ([]Tag, error) {
	return d.queryTags(ctx, "picture_tags", `
		SELECT t.id, t.tag_type, t.name
		FROM tags t
		JOIN picture_tags pt ON pt.tag_id = t.id
		WHERE pt.picture_id = ?
		ORDER BY t.name
	`, pictureID)
}

func (d *Database) queryTags(ctx context.Context, op, query string, args ...any) ([]Tag, error) {
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

	var tags []Tag
	for rows.Next() {
		var t Tag
		if err := rows.Scan(&t.ID, &t.TagType, &t.Name); err != nil {
			done(err)
			return nil, err
		}
		tags = append(tags, t)
	}

	err = rows.Err()
	done(err)
	return tags, err
}

// TagPicture attaches a tag to a picture. Attaching twice reports
// InsertAlreadyExists.
func (d *Database) TagPicture(ctx context.Context, tagID, pictureID int64) (InsertStatus, error) {
	done := observeQuery("tag_picture")

	d.mu.Lock()
	defer d.mu.Unlock()

	ctx, cancel := writeContext(ctx)
	defer cancel()

	result, err := d.exec(ctx,
		"INSERT OR IGNORE INTO picture_tags (tag_id, picture_id) VALUES (?, ?)",
		tagID, pictureID,
	)
	if err != nil {
		done(err)
		return InsertCreated, fmt.Errorf("failed to tag picture %d: %w", pictureID, err)
	}

	rows, err := result.RowsAffected()
	done(err)
	if err != nil {
		return InsertCreated, err
	}
	if rows == 0 {
		return InsertAlreadyExists, nil
	}
	return InsertCreated, nil
}
