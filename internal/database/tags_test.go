package database

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertTag(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	first := &Tag{Name: " beach "}
	status, err := db.InsertTag(ctx, first)
	require.NoError(t, err)
	assert.Equal(t, InsertCreated, status)
	assert.Equal(t, "beach", first.Name)

	again := &Tag{Name: "beach"}
	status, err = db.InsertTag(ctx, again)
	require.NoError(t, err)
	assert.Equal(t, InsertAlreadyExists, status)
	assert.Equal(t, first.ID, again.ID)

	_, err = db.InsertTag(ctx, &Tag{Name: "   "})
	assert.Error(t, err)
}

func TestTagLookups(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	for _, name := range []string{"Tag2", "Tag1"} {
		_, err := db.InsertTag(ctx, &Tag{Name: name})
		require.NoError(t, err)
	}

	all, err := db.AllTags(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "Tag1", all[0].Name)
	assert.Equal(t, "Tag2", all[1].Name)

	got, err := db.TagByName(ctx, "Tag2")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Tag2", got.Name)

	got, err = db.TagByName(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestTagPicture(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	g := mustInsertGallery(t, db, "Trip", strPtr("/lib/Trip"), nil)
	p := mustInsertPicture(t, db, g.ID, "/lib/Trip/a.jpg")

	beach := &Tag{Name: "beach"}
	_, err := db.InsertTag(ctx, beach)
	require.NoError(t, err)
	sunset := &Tag{Name: "sunset", TagType: 1}
	_, err = db.InsertTag(ctx, sunset)
	require.NoError(t, err)

	status, err := db.TagPicture(ctx, sunset.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, InsertCreated, status)

	status, err = db.TagPicture(ctx, beach.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, InsertCreated, status)

	status, err = db.TagPicture(ctx, beach.ID, p.ID)
	require.NoError(t, err)
	assert.Equal(t, InsertAlreadyExists, status)

	tags, err := db.PictureTags(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, []Tag{*beach, *sunset}, tags)

	// Tag links go away with the picture.
	require.NoError(t, db.DeletePicture(ctx, p.ID))
	tags, err = db.PictureTags(ctx, p.ID)
	require.NoError(t, err)
	assert.Empty(t, tags)
}
