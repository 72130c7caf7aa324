// Package media decodes library pictures and maintains their thumbnail
// cache.
//
// ThumbnailCache writes 100x100-bounded PNG derivatives to
// <cache>/thumbs/<picture id>.png and records, per picture, the content hash
// each derivative was built from. A thumbnail is fresh while that hash
// matches the picture's current hash. Warmer regenerates stale thumbnails
// for the whole library on a bounded pool of independent tasks.
//
// Supported decoders: PNG, JPEG, GIF, BMP, TIFF and WebP.
package media
