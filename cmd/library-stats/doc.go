// Command library-stats prints the gallery tree of a photo library database
// with per-gallery picture counts and sizes, followed by library totals and
// thumbnail freshness.
//
// Usage:
//
//	library-stats [--db /path/to/library.db] [--depth N] [--covers]
//
// The database defaults to library.db in DATABASE_DIR, else CACHE_DIR, else
// the user cache directory. The tool never creates a database.
package main
