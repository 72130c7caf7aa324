package database

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThumbnailFreshness(t *testing.T) {
	p := &Picture{ID: 1, Hash: "aaa"}

	assert.True(t, (&Thumbnail{PictureID: 1, PictureHash: "aaa"}).Fresh(p))
	assert.False(t, (&Thumbnail{PictureID: 1, PictureHash: "bbb"}).Fresh(p))
	assert.False(t, (&Thumbnail{PictureID: 2, PictureHash: "aaa"}).Fresh(p))

	var missing *Thumbnail
	assert.False(t, missing.Fresh(p))
}

func TestUpsertThumbnail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	got, err := db.ThumbnailByPicture(ctx, 7)
	require.NoError(t, err)
	assert.Nil(t, got)

	require.NoError(t, db.UpsertThumbnail(ctx, &Thumbnail{PictureID: 7, PictureHash: "old"}))
	require.NoError(t, db.UpsertThumbnail(ctx, &Thumbnail{PictureID: 7, PictureHash: "new"}))

	got, err = db.ThumbnailByPicture(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, &Thumbnail{PictureID: 7, PictureHash: "new"}, got)

	all, err := db.AllThumbnails(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)
}

func TestDeleteThumbnail(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.UpsertThumbnail(ctx, &Thumbnail{PictureID: 3, PictureHash: "h"}))
	require.NoError(t, db.DeleteThumbnail(ctx, 3))

	got, err := db.ThumbnailByPicture(ctx, 3)
	require.NoError(t, err)
	assert.Nil(t, got)

	assert.True(t, errors.Is(db.DeleteThumbnail(ctx, 3), ErrNotFound))
}
