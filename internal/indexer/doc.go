/*
Package indexer keeps the store's galleries and pictures consistent with a
photo library on disk.

# Scanning

Indexer.ScanRecursively walks a root depth-first. Every directory holding at
least one supported picture becomes a gallery, linked to galleries for each
ancestor directory up to the root. Indexer.Scan does the same for a single
directory without descending.

Each file goes through ReconcileFile. A file whose stored size matches its
size on disk is treated as unchanged and never hashed; a rewrite that keeps
the exact byte size is therefore not noticed. Otherwise the file is hashed
with SHA-1 and the record is inserted or updated when the hash is new.

# Sweeping

Sweeper.Sweep removes galleries whose directory and pictures whose file no
longer exist. Records whose existence cannot be determined are kept.

# Failures

A file that cannot be decoded is skipped. An I/O or store error aborts only
the file or directory subtree it happened in. Errors wrap ErrFormat,
ErrStore or filesystem.ErrIO.
*/
package indexer
