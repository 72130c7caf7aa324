package database

import (
	"context"
	"errors"
)

// ErrNotFound is returned by the *ByID lookups and by updates of rows that
// do not exist. Lookups by key return (nil, nil) instead.
var ErrNotFound = errors.New("record not found")

// Store is the persistence contract of the synchronization engine. All
// mutations are single-row.
//
// Deleting a gallery cascades to its pictures and to its child galleries.
// Thumbnail rows are not cascaded and survive the deletion of their picture.
type Store interface {
	GalleryStore
	PictureStore
	ThumbnailStore
	TagStore
}

// GalleryStore persists galleries.
type GalleryStore interface {
	// InsertGallery writes g unless a gallery with the same directory, or a
	// directory-less gallery with the same name, exists. On return g.ID holds
	// the id of the created or existing row.
	InsertGallery(ctx context.Context, g *Gallery) (InsertStatus, error)
	GalleryByID(ctx context.Context, id int64) (*Gallery, error)
	GalleryByDirectory(ctx context.Context, dir string) (*Gallery, error)
	GalleryByNameAndDirectory(ctx context.Context, name string, dir *string) (*Gallery, error)
	GalleriesByName(ctx context.Context, name string) ([]Gallery, error)
	GalleriesByParent(ctx context.Context, parentID int64) ([]Gallery, error)
	TopLevelGalleries(ctx context.Context) ([]Gallery, error)
	AllGalleries(ctx context.Context) ([]Gallery, error)
	UpdateGallery(ctx context.Context, g *Gallery) error
	DeleteGallery(ctx context.Context, id int64) error
}

// PictureStore persists pictures.
type PictureStore interface {
	// InsertPicture writes p unless a picture with the same path exists. On
	// return p.ID holds the id of the created or existing row.
	InsertPicture(ctx context.Context, p *Picture) (InsertStatus, error)
	PictureByID(ctx context.Context, id int64) (*Picture, error)
	PictureByPath(ctx context.Context, path string) (*Picture, error)
	PicturesByGallery(ctx context.Context, galleryID int64) ([]Picture, error)
	// CoverPicture returns the first picture of a gallery, falling back to
	// the first picture found depth-first among its descendants.
	CoverPicture(ctx context.Context, galleryID int64) (*Picture, error)
	AllPictures(ctx context.Context) ([]Picture, error)
	// UpdatePicture rewrites every column except ID and ExternalID.
	UpdatePicture(ctx context.Context, p *Picture) error
	DeletePicture(ctx context.Context, id int64) error
}

// ThumbnailStore persists thumbnail validity tokens.
type ThumbnailStore interface {
	ThumbnailByPicture(ctx context.Context, pictureID int64) (*Thumbnail, error)
	UpsertThumbnail(ctx context.Context, t *Thumbnail) error
	AllThumbnails(ctx context.Context) ([]Thumbnail, error)
	DeleteThumbnail(ctx context.Context, pictureID int64) error
}

// TagStore persists tags and their attachment to pictures.
type TagStore interface {
	InsertTag(ctx context.Context, t *Tag) (InsertStatus, error)
	TagByName(ctx context.Context, name string) (*Tag, error)
	AllTags(ctx context.Context) ([]Tag, error)
	TagPicture(ctx context.Context, tagID, pictureID int64) (InsertStatus, error)
	PictureTags(ctx context.Context, pictureID int64) ([]Tag, error)
}

var _ Store = (*Database)(nil)
