/*
Package filesystem is the library's view of the disk: directory listings
restricted to supported images, content reads, existence checks and atomic
writes for the thumbnail cache.

Every operation goes through a small retry layer that retries NFS stale file
handle errors (ESTALE) with capped exponential backoff. Other errors are
returned immediately, wrapped in ErrIO by the OS implementation.

# Listing

	fsys := filesystem.NewOS()
	listing, err := fsys.ListDirectory("/photos/2019")
	// listing.Files: sorted paths of supported images directly in the dir
	// listing.Dirs:  sorted paths of immediate subdirectories

Hidden entries are listed unless OS.SkipHidden is set. Symbolic links are
never followed.

# Metrics

Operation durations and retry counts are reported through an Observer. The
metrics package installs one at startup with SetObserver; when none is set
recording is skipped. Paths are labeled by volume ("library", "cache",
"database") via SetDefaultVolumeResolver.
*/
package filesystem
