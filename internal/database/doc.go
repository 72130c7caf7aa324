// Package database is the SQLite implementation of the library store.
//
// It persists:
//   - Galleries, a forest keyed by directory with parent links
//   - Pictures, unique by path, owned by a gallery
//   - Thumbnails, the content hash each cached derivative was built from
//   - Tags and their attachment to pictures
//
// The database runs in WAL mode with foreign keys enabled. Deleting a
// gallery cascades to its pictures and child galleries. Writes run on a
// context detached from the caller's cancellation so an interrupt never
// aborts a single-row write halfway, and are retried while SQLite reports
// the database as busy.
package database
