package database

// InsertStatus reports the outcome of an idempotent insert.
type InsertStatus int

const (
	// InsertCreated means a new row was written.
	InsertCreated InsertStatus = iota
	// InsertAlreadyExists means a row with the same unique key was already
	// present and nothing was written.
	InsertAlreadyExists
)

func (s InsertStatus) String() string {
	switch s {
	case InsertCreated:
		return "created"
	case InsertAlreadyExists:
		return "already_exists"
	default:
		return "unknown"
	}
}

// Gallery is a node of the gallery forest. Directory is nil for galleries
// that are not backed by a directory on disk; Parent is nil for roots.
type Gallery struct {
	ID        int64   `json:"id"`
	Name      string  `json:"name"`
	Directory *string `json:"directory,omitempty"`
	Parent    *int64  `json:"parent,omitempty"`
}

// Picture is one indexed image file. Path is unique across the store.
type Picture struct {
	ID         int64  `json:"id"`
	Name       string `json:"name"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	GalleryID  int64  `json:"galleryId"`
	Format     string `json:"format"`
	Path       string `json:"path"`
	Hash       string `json:"hash"`
	FileSize   int64  `json:"fileSize"`
	ExternalID string `json:"externalId"`
}

// Thumbnail records which content hash the cached derivative of a picture
// was generated from.
type Thumbnail struct {
	PictureID   int64  `json:"pictureId"`
	PictureHash string `json:"pictureHash"`
}

// Fresh reports whether the thumbnail was generated from the picture's
// current content.
func (t *Thumbnail) Fresh(p *Picture) bool {
	return t != nil && p != nil && t.PictureID == p.ID && t.PictureHash == p.Hash
}

// Tag is a free-form label that can be attached to pictures.
type Tag struct {
	ID      int64  `json:"id"`
	TagType int    `json:"tagType"`
	Name    string `json:"name"`
}

// PictureTag links a tag to a picture.
type PictureTag struct {
	TagID     int64 `json:"tagId"`
	PictureID int64 `json:"pictureId"`
}
