package mediatypes

import (
	"path/filepath"
	"strings"
)

// ImageExtensions maps lower-case file extensions (with leading dot) to whether
// the library indexes them as pictures.
var ImageExtensions = map[string]bool{
	".png":  true,
	".jpg":  true,
	".jpeg": true,
	".gif":  true,
	".bmp":  true,
	".ico":  true,
	".tiff": true,
	".webp": true,
}

// Extension returns the lower-cased extension of path including the dot.
func Extension(path string) string {
	return strings.ToLower(filepath.Ext(path))
}

// IsSupportedImage reports whether path has a supported picture extension.
// The comparison is case-insensitive.
func IsSupportedImage(path string) bool {
	return ImageExtensions[Extension(path)]
}

// Format returns the picture format stored for path: the lower-cased
// extension without the leading dot.
func Format(path string) string {
	return strings.TrimPrefix(Extension(path), ".")
}

// Stem returns the file name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
