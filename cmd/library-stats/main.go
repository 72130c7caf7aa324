package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"photo-library/internal/database"
	"photo-library/internal/startup"
)

type options struct {
	dbPath   string
	maxDepth int
	covers   bool
}

// summary holds library totals gathered while printing the tree.
type summary struct {
	Galleries      int
	Pictures       int
	Bytes          int64
	ThumbsFresh    int
	ThumbsStale    int
	ThumbsMissing  int
	Tags           int
	EmptyGalleries int
	DeepestGallery int
}

func main() {
	if err := newRootCmd(os.Stdout).Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(out io.Writer) *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:           "library-stats",
		Short:         "Print the gallery tree and totals of a photo library database",
		Version:       startup.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return run(cmd.Context(), out, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.dbPath, "db", defaultDatabasePath(), "library database file")
	flags.IntVar(&opts.maxDepth, "depth", 0, "maximum tree depth to print (0 prints all)")
	flags.BoolVar(&opts.covers, "covers", false, "print each gallery's cover picture")

	return cmd
}

func defaultDatabasePath() string {
	dir := os.Getenv("DATABASE_DIR")
	if dir == "" {
		dir = os.Getenv("CACHE_DIR")
	}
	if dir == "" {
		dir = startup.DefaultCacheDir()
	}
	return filepath.Join(dir, "library.db")
}

func run(ctx context.Context, out io.Writer, opts *options) error {
	if _, err := os.Stat(opts.dbPath); err != nil {
		return fmt.Errorf("library database %s: %w", opts.dbPath, err)
	}

	db, err := database.New(ctx, opts.dbPath)
	if err != nil {
		return err
	}
	defer db.Close()

	s, err := printLibrary(ctx, out, db, opts)
	if err != nil {
		return err
	}
	printSummary(out, s)
	return nil
}

// printLibrary writes the gallery tree, top-level galleries first, and
// returns the totals it saw.
func printLibrary(ctx context.Context, out io.Writer, store database.Store, opts *options) (summary, error) {
	var s summary

	top, err := store.TopLevelGalleries(ctx)
	if err != nil {
		return s, fmt.Errorf("list top-level galleries: %w", err)
	}
	for i := range top {
		if err := printGallery(ctx, out, store, opts, &top[i], 0, &s); err != nil {
			return s, err
		}
	}

	tags, err := store.AllTags(ctx)
	if err != nil {
		return s, fmt.Errorf("list tags: %w", err)
	}
	s.Tags = len(tags)

	return s, nil
}

func printGallery(ctx context.Context, out io.Writer, store database.Store, opts *options, g *database.Gallery, depth int, s *summary) error {
	s.Galleries++
	if depth+1 > s.DeepestGallery {
		s.DeepestGallery = depth + 1
	}

	pictures, err := store.PicturesByGallery(ctx, g.ID)
	if err != nil {
		return fmt.Errorf("list pictures of gallery %d: %w", g.ID, err)
	}
	if len(pictures) == 0 {
		s.EmptyGalleries++
	}

	var bytes int64
	for i := range pictures {
		pic := &pictures[i]
		s.Pictures++
		bytes += pic.FileSize

		thumb, err := store.ThumbnailByPicture(ctx, pic.ID)
		if err != nil {
			return fmt.Errorf("load thumbnail of picture %d: %w", pic.ID, err)
		}
		switch {
		case thumb == nil:
			s.ThumbsMissing++
		case thumb.Fresh(pic):
			s.ThumbsFresh++
		default:
			s.ThumbsStale++
		}
	}
	s.Bytes += bytes

	if opts.maxDepth == 0 || depth < opts.maxDepth {
		line := fmt.Sprintf("%s%s  %d pictures, %s", strings.Repeat("  ", depth), g.Name, len(pictures), humanize.Bytes(uint64(bytes)))
		if opts.covers {
			cover, err := store.CoverPicture(ctx, g.ID)
			if err != nil {
				return fmt.Errorf("find cover of gallery %d: %w", g.ID, err)
			}
			if cover != nil {
				line += ", cover " + cover.Name
			} else {
				line += ", no cover"
			}
		}
		fmt.Fprintln(out, line)
	}

	children, err := store.GalleriesByParent(ctx, g.ID)
	if err != nil {
		return fmt.Errorf("list children of gallery %d: %w", g.ID, err)
	}
	for i := range children {
		if err := printGallery(ctx, out, store, opts, &children[i], depth+1, s); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(out io.Writer, s summary) {
	fmt.Fprintln(out)
	fmt.Fprintf(out, "Galleries:  %s (%s empty, %d levels deep)\n",
		humanize.Comma(int64(s.Galleries)), humanize.Comma(int64(s.EmptyGalleries)), s.DeepestGallery)
	fmt.Fprintf(out, "Pictures:   %s (%s)\n", humanize.Comma(int64(s.Pictures)), humanize.Bytes(uint64(s.Bytes)))
	fmt.Fprintf(out, "Thumbnails: %s fresh, %s stale, %s missing\n",
		humanize.Comma(int64(s.ThumbsFresh)), humanize.Comma(int64(s.ThumbsStale)), humanize.Comma(int64(s.ThumbsMissing)))
	fmt.Fprintf(out, "Tags:       %s\n", humanize.Comma(int64(s.Tags)))
}
