package filesystem

import (
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"

	"photo-library/internal/logging"
	"photo-library/internal/mediatypes"
)

// Listing is one directory level split into qualifying picture files and
// subdirectories. Paths are joined onto the listed directory and sorted.
type Listing struct {
	Files []string
	Dirs  []string
}

// Empty reports whether the listing holds neither pictures nor subdirectories.
func (l Listing) Empty() bool {
	return len(l.Files) == 0 && len(l.Dirs) == 0
}

// ListDirectory lists the immediate entries of dir. Regular files with a
// supported picture extension and directories are kept; everything else,
// including symlinks, is ignored. When the directory opens but reading some
// entries fails, the entries that were read are returned and the rest skipped.
func (o *OS) ListDirectory(dir string) (Listing, error) {
	entries, err := ReadDirWithRetry(dir, o.Retry)
	if err != nil && len(entries) == 0 {
		return Listing{}, fmt.Errorf("%w: list %s: %w", ErrIO, dir, err)
	}
	if err != nil {
		logging.Warn("Partial listing of %s: %v", dir, err)
	}

	var listing Listing
	for _, entry := range entries {
		name := entry.Name()
		if o.SkipHidden && strings.HasPrefix(name, ".") {
			continue
		}

		full := filepath.Join(dir, name)
		mode := entry.Type()

		switch {
		case mode.IsDir():
			listing.Dirs = append(listing.Dirs, full)
		case mode&fs.ModeSymlink != 0:
			logging.Debug("Skipping symlink %s", full)
		case mode.IsRegular():
			if mediatypes.IsSupportedImage(name) {
				listing.Files = append(listing.Files, full)
			}
		}
	}

	sort.Strings(listing.Files)
	sort.Strings(listing.Dirs)
	return listing, nil
}
