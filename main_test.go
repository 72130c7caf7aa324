package main

import (
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-library/internal/database"
	"photo-library/internal/filesystem"
	"photo-library/internal/indexer"
	"photo-library/internal/maintenance"
	"photo-library/internal/media"
	"photo-library/internal/startup"
)

func newTestRunner(t *testing.T) (*maintenance.Runner, *database.Database, string) {
	t.Helper()

	root := t.TempDir()
	lib := filepath.Join(root, "lib")
	require.NoError(t, os.MkdirAll(filepath.Join(lib, "Trip"), 0o755))

	f, err := os.Create(filepath.Join(lib, "Trip", "a.png"))
	require.NoError(t, err)
	require.NoError(t, png.Encode(f, image.NewGray(image.Rect(0, 0, 20, 10))))
	require.NoError(t, f.Close())

	db, err := database.New(context.Background(), filepath.Join(root, "library.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	fsys := filesystem.NewOS()
	cache := media.NewThumbnailCache(db, fsys, root)

	return &maintenance.Runner{
		Store:    db,
		FS:       fsys,
		Indexer:  indexer.New(db, fsys),
		Sweeper:  indexer.NewSweeper(db, fsys),
		Warmer:   media.NewWarmer(db, cache, 1),
		LockPath: filepath.Join(root, "maintenance.lock"),
	}, db, lib
}

func TestRootCmd_Flags(t *testing.T) {
	cmd := newRootCmd()
	require.NoError(t, cmd.ParseFlags([]string{
		"--config", "/etc/scanner.yaml",
		"--cache", "/tmp/cache",
		"--skip-scan",
		"--skip-thumbs",
		"--once",
		"--interval", "30m",
	}))

	get := func(name string) string { return cmd.Flags().Lookup(name).Value.String() }
	assert.Equal(t, "/etc/scanner.yaml", get("config"))
	assert.Equal(t, "/tmp/cache", get("cache"))
	assert.Equal(t, "true", get("skip-scan"))
	assert.Equal(t, "true", get("skip-thumbs"))
	assert.Equal(t, "true", get("once"))
	assert.Equal(t, "30m0s", get("interval"))
}

func TestRootCmd_RejectsArguments(t *testing.T) {
	cmd := newRootCmd()
	cmd.SetArgs([]string{"extra"})
	cmd.SetOut(new(nopWriter))
	cmd.SetErr(new(nopWriter))
	assert.Error(t, cmd.Execute())
}

type nopWriter struct{}

func (*nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func TestLoop_OnceRunsSinglePass(t *testing.T) {
	runner, db, lib := newTestRunner(t)

	var passes atomic.Int32
	err := loop(context.Background(), runner, maintenance.Options{
		Roots: []maintenance.ScanRoot{{Path: lib, Recursive: true}},
	}, 0, func() { passes.Add(1) })
	require.NoError(t, err)
	assert.Equal(t, int32(1), passes.Load())

	pic, err := db.PictureByPath(context.Background(), filepath.Join(lib, "Trip", "a.png"))
	require.NoError(t, err)
	assert.NotNil(t, pic)
}

func TestLoop_OnceReportsLocked(t *testing.T) {
	runner, _, lib := newTestRunner(t)

	held := flock.New(runner.LockPath)
	locked, err := held.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = held.Unlock() }()

	err = loop(context.Background(), runner, maintenance.Options{
		Roots: []maintenance.ScanRoot{{Path: lib, Recursive: true}},
	}, 0, nil)
	assert.ErrorIs(t, err, maintenance.ErrLocked)
}

func TestLoop_IntervalStopsOnCancel(t *testing.T) {
	runner, _, lib := newTestRunner(t)

	ctx, cancel := context.WithCancel(context.Background())
	var passes atomic.Int32

	done := make(chan error, 1)
	go func() {
		done <- loop(ctx, runner, maintenance.Options{
			Roots: []maintenance.ScanRoot{{Path: lib, Recursive: true}},
		}, 10*time.Millisecond, func() { passes.Add(1) })
	}()

	require.Eventually(t, func() bool { return passes.Load() >= 2 }, 5*time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("loop did not stop after cancel")
	}
}

func TestVolumeResolver(t *testing.T) {
	config := &startup.Config{
		CacheDir:    "/var/cache/photo-library",
		DatabaseDir: "/var/lib/photo-library",
		ScanDirs: []startup.ScanDir{
			{Path: "/photos", Recursive: true},
			{Path: "/mnt/inbox"},
		},
	}

	vr := volumeResolver(config)
	assert.Equal(t, "library", vr.Resolve("/photos/2020/a.jpg"))
	assert.Equal(t, "library", vr.Resolve("/mnt/inbox/b.jpg"))
	assert.Equal(t, "cache", vr.Resolve("/var/cache/photo-library/thumbs/1.png"))
	assert.Equal(t, "database", vr.Resolve("/var/lib/photo-library/library.db"))
	assert.Equal(t, "unknown", vr.Resolve("/tmp/x"))
}
