package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"photo-library/internal/database"
	"photo-library/internal/filesystem"
	"photo-library/internal/handlers"
	"photo-library/internal/indexer"
	"photo-library/internal/logging"
	"photo-library/internal/maintenance"
	"photo-library/internal/media"
	"photo-library/internal/memory"
	"photo-library/internal/metrics"
	"photo-library/internal/middleware"
	"photo-library/internal/startup"
	"photo-library/internal/workers"
)

// maxThumbnailWorkers caps the warmer pool on large hosts.
const maxThumbnailWorkers = 8

type options struct {
	configFile string
	cacheDir   string
	skipScan   bool
	skipThumbs bool
	once       bool
	interval   time.Duration
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "photo-library",
		Short: "Keep a photo library database and thumbnail cache in sync with disk",
		Long: `Scans the configured library directories into a SQLite database, removes
records whose files are gone and generates missing or stale thumbnails.`,
		Version:       startup.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, cancel := context.WithCancel(cmd.Context())
			defer cancel()
			go handleSignals(ctx, cancel)

			return run(ctx, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&opts.configFile, "config", "", "scanner config file (JSON, YAML or TOML)")
	flags.StringVar(&opts.cacheDir, "cache", "", "cache directory (default: CACHE_DIR or the user cache directory)")
	flags.BoolVar(&opts.skipScan, "skip-scan", false, "skip scanning and sweeping")
	flags.BoolVar(&opts.skipThumbs, "skip-thumbs", false, "skip thumbnail generation")
	flags.BoolVar(&opts.once, "once", false, "run a single pass and exit, ignoring --interval")
	flags.DurationVar(&opts.interval, "interval", 0, "repeat maintenance at this interval (0 runs once)")

	return cmd
}

func handleSignals(ctx context.Context, cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	select {
	case sig := <-sigChan:
		startup.LogShutdownInitiated(sig.String())
		cancel()
	case <-ctx.Done():
	}
}

func run(ctx context.Context, opts *options) error {
	memResult := memory.ConfigureFromEnv()

	if closer := logging.ConfigureFile(os.Getenv("LOG_FILE"), 50, 3); closer != nil {
		defer closer.Close()
	}

	config, err := startup.LoadConfig(startup.Options{
		ConfigFile: opts.configFile,
		CacheDir:   opts.cacheDir,
	})
	if err != nil {
		return fmt.Errorf("configuration error: %w", err)
	}
	startup.LogMemoryConfig(memResult)

	filesystem.SetObserver(metrics.NewFilesystemObserver())
	filesystem.SetDefaultVolumeResolver(volumeResolver(config))
	metrics.InitializeMetrics()
	metrics.SetAppInfo(startup.Version, startup.Commit, startup.GoVersion)

	dbStart := time.Now()
	db, err := database.New(ctx, config.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			logging.Warn("Failed to close database: %v", err)
		}
	}()
	startup.LogDatabaseInit(time.Since(dbStart))

	fsys := filesystem.NewOS()
	fsys.SkipHidden = config.SkipHidden
	idx := indexer.New(db, fsys)
	cache := media.NewThumbnailCache(db, fsys, config.CacheDir)

	numWorkers := workers.ForCPU(maxThumbnailWorkers)
	warmer := media.NewWarmer(db, cache, numWorkers)

	monitor := memory.NewMonitor(memory.DefaultConfig())
	monitor.Start()
	defer monitor.Stop()
	warmer.SetGate(monitor)

	runner := &maintenance.Runner{
		Store:    db,
		FS:       fsys,
		Indexer:  idx,
		Sweeper:  indexer.NewSweeper(db, fsys),
		Warmer:   warmer,
		LockPath: config.LockPath,
	}

	collector := metrics.NewCollector(db, time.Minute)
	collector.Start()
	defer collector.Stop()

	h := handlers.New(db, idx)
	startup.LogMetricsServer(config.MetricsPort, config.MetricsEnabled)
	if config.MetricsEnabled {
		srv := startMetricsServer(config.MetricsPort, h)
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				logging.Warn("Metrics server shutdown error: %v", err)
			}
		}()
	}

	interval := opts.interval
	if opts.once {
		interval = 0
	}

	roots := make([]maintenance.ScanRoot, 0, len(config.ScanDirs))
	for _, dir := range config.ScanDirs {
		roots = append(roots, maintenance.ScanRoot{Path: dir.Path, Recursive: dir.Recursive})
	}

	startup.LogMaintenanceInit(startup.MaintenanceConfig{
		Roots:      config.ScanDirs,
		Interval:   interval,
		Workers:    numWorkers,
		SkipScan:   opts.skipScan,
		SkipThumbs: opts.skipThumbs,
	})

	err = loop(ctx, runner, maintenance.Options{
		Roots:      roots,
		SkipScan:   opts.skipScan,
		SkipThumbs: opts.skipThumbs,
	}, interval, func() { h.SetReady(true) })

	startup.LogShutdownComplete()
	return err
}

// loop runs maintenance passes until ctx is cancelled. With a zero interval
// it runs one pass and returns that pass's error; otherwise failures are
// logged and the next pass is scheduled.
func loop(ctx context.Context, runner *maintenance.Runner, opts maintenance.Options, interval time.Duration, afterPass func()) error {
	for {
		_, err := runner.Run(ctx, opts)
		if ctx.Err() != nil {
			return nil
		}
		if afterPass != nil {
			afterPass()
		}

		if interval <= 0 {
			return err
		}

		switch {
		case errors.Is(err, maintenance.ErrLocked):
			logging.Warn("Another maintenance pass holds %s, retrying in %v", runner.LockPath, interval)
		case err != nil:
			logging.Error("Maintenance pass failed: %v", err)
		}

		timer := time.NewTimer(interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil
		case <-timer.C:
		}
	}
}

func volumeResolver(config *startup.Config) *filesystem.VolumeResolver {
	vr := filesystem.NewVolumeResolver(map[string]string{
		"cache":    config.CacheDir,
		"database": config.DatabaseDir,
	})
	for _, dir := range config.ScanDirs {
		vr.Add("library", dir.Path)
	}
	return vr
}

func startMetricsServer(port string, h *handlers.Handlers) *http.Server {
	srv := &http.Server{
		Addr:              ":" + port,
		Handler:           middleware.Logger(middleware.DefaultLoggingConfig())(h.Router()),
		ReadHeaderTimeout: 10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logging.Error("Metrics server error: %v", err)
		}
	}()

	return srv
}
