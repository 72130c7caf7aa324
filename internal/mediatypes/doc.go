// Package mediatypes defines which files the photo library treats as pictures.
//
// It is a dependency-free foundation imported by the filesystem walker, the
// indexer and the thumbnail cache without creating import cycles.
//
// # Supported Formats
//
// A file qualifies as a picture when its extension, compared
// case-insensitively, is one of png, jpg, jpeg, gif, bmp, ico, tiff or webp:
//
//	if mediatypes.IsSupportedImage(path) {
//	    // index it
//	}
//
// Format and Stem derive the stored picture format and display name:
//
//	mediatypes.Format("/lib/Trip/A.JPG") // "jpg"
//	mediatypes.Stem("/lib/Trip/A.JPG")   // "A"
package mediatypes
