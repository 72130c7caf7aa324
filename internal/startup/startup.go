package startup

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"photo-library/internal/logging"
	"photo-library/internal/memory"
)

// Build-time variables (injected via -ldflags)
var (
	Version   = "dev"
	Commit    = "unknown"
	BuildTime = "unknown"
	GoVersion = runtime.Version()
)

// AppDir is the directory name used under the user cache and config roots.
const AppDir = "photo-library"

// BuildInfo contains version and build information
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
	OS        string `json:"os"`
	Arch      string `json:"arch"`
}

// GetBuildInfo returns the current build information
func GetBuildInfo() BuildInfo {
	return BuildInfo{
		Version:   Version,
		Commit:    Commit,
		BuildTime: BuildTime,
		GoVersion: GoVersion,
		OS:        runtime.GOOS,
		Arch:      runtime.GOARCH,
	}
}

// Options carries command-line overrides into LoadConfig.
type Options struct {
	// ConfigFile is an explicit scanner config path; it must exist when set.
	ConfigFile string
	// CacheDir overrides CACHE_DIR and the default cache location.
	CacheDir string
	// EnvFile is the dotenv file to load, ".env" when empty.
	EnvFile string
}

// ScanDir is one library root from the scanner config.
type ScanDir struct {
	Path      string `mapstructure:"path"`
	Recursive bool   `mapstructure:"recursive"`
}

// scannerFile mirrors the scanner config file layout.
type scannerFile struct {
	ScanDirs     []ScanDir `mapstructure:"scan_dirs"`
	DatabaseFile string    `mapstructure:"database_file"`
}

// Config holds all application configuration
type Config struct {
	CacheDir       string
	DatabaseDir    string
	MetricsPort    string
	MetricsEnabled bool
	SkipHidden     bool

	// ConfigFile is the scanner config that was read, empty when none was found.
	ConfigFile string
	ScanDirs   []ScanDir

	// Derived paths
	DatabasePath string
	ThumbnailDir string
	LockPath     string
}

// configSearchPaths lists the directories searched for scanner.{json,yaml,toml}
// when no explicit config file is given.
var configSearchPaths = func() []string {
	var dirs []string
	if home, err := os.UserHomeDir(); err == nil {
		dirs = append(dirs, filepath.Join(home, "."+AppDir))
	}
	return append(dirs, filepath.Join("/etc", AppDir))
}

// LoadConfig loads .env, the environment and the scanner config file, then
// prepares the cache and database directories.
func LoadConfig(opts Options) (*Config, error) {
	printBanner()
	logSystemInfo()

	section("CONFIGURATION")

	loadDotEnv(opts.EnvFile)

	cacheDir := opts.CacheDir
	if cacheDir == "" {
		cacheDir = getEnv("CACHE_DIR", DefaultCacheDir())
	}
	databaseDir := getEnv("DATABASE_DIR", cacheDir)
	metricsPort := getEnv("METRICS_PORT", "9090")
	metricsEnabled := getEnvBool("METRICS_ENABLED", true)
	skipHidden := getEnvBool("SKIP_HIDDEN", false)

	logging.Info("  CACHE_DIR:           %s", cacheDir)
	logging.Info("  DATABASE_DIR:        %s", databaseDir)
	logging.Info("  METRICS_PORT:        %s", metricsPort)
	logging.Info("  METRICS_ENABLED:     %v", metricsEnabled)
	logging.Info("  SKIP_HIDDEN:         %v", skipHidden)
	logging.Info("  LOG_LEVEL:           %s", logging.GetLevel())

	scanner, configFile, err := readScannerConfig(opts.ConfigFile)
	if err != nil {
		return nil, err
	}
	if configFile == "" {
		logging.Info("  Scanner config:      none found, no scan directories")
	} else {
		logging.Info("  Scanner config:      %s", configFile)
	}

	section("DIRECTORY SETUP")

	cacheDir, err = filepath.Abs(cacheDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve cache directory path: %w", err)
	}
	databaseDir, err = filepath.Abs(databaseDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve database directory path: %w", err)
	}

	scanDirs := make([]ScanDir, 0, len(scanner.ScanDirs))
	for _, dir := range scanner.ScanDirs {
		if dir.Path == "" {
			logging.Warn("  Ignoring scan directory with empty path")
			continue
		}
		abs, err := filepath.Abs(dir.Path)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve scan directory %q: %w", dir.Path, err)
		}
		scanDirs = append(scanDirs, ScanDir{Path: abs, Recursive: dir.Recursive})
		logging.Info("  Scan directory: %s (recursive: %v)", abs, dir.Recursive)
	}

	databasePath := filepath.Join(databaseDir, "library.db")
	if scanner.DatabaseFile != "" {
		databasePath, err = filepath.Abs(scanner.DatabaseFile)
		if err != nil {
			return nil, fmt.Errorf("failed to resolve database file path: %w", err)
		}
		databaseDir = filepath.Dir(databasePath)
	}

	config := &Config{
		CacheDir:       cacheDir,
		DatabaseDir:    databaseDir,
		MetricsPort:    metricsPort,
		MetricsEnabled: metricsEnabled,
		SkipHidden:     skipHidden,
		ConfigFile:     configFile,
		ScanDirs:       scanDirs,
		DatabasePath:   databasePath,
		ThumbnailDir:   filepath.Join(cacheDir, "thumbs"),
		LockPath:       filepath.Join(cacheDir, "maintenance.lock"),
	}

	if err := ensureDirectory(config.ThumbnailDir, "thumbnail"); err != nil {
		return nil, fmt.Errorf("cache directory error: %w", err)
	}
	if err := testWriteAccess(config.ThumbnailDir); err != nil {
		return nil, fmt.Errorf("thumbnail directory is not writable: %w", err)
	}
	logging.Info("  [OK] Cache directory: %s", cacheDir)

	if err := ensureDirectory(databaseDir, "database"); err != nil {
		return nil, fmt.Errorf("database directory error: %w", err)
	}
	if err := testWriteAccess(databaseDir); err != nil {
		return nil, fmt.Errorf("database directory is not writable (required for database): %w", err)
	}
	logging.Info("  [OK] Database file: %s", databasePath)

	return config, nil
}

// DefaultCacheDir returns the per-user cache directory for the library,
// falling back to the home directory and finally the working directory.
func DefaultCacheDir() string {
	if dir, err := os.UserCacheDir(); err == nil {
		return filepath.Join(dir, AppDir)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, "."+AppDir)
	}
	return "." + AppDir
}

// loadDotEnv loads a dotenv file. Variables already in the environment win.
func loadDotEnv(path string) {
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logging.Warn("  Failed to load %s: %v", path, err)
		}
		return
	}
	logging.Info("  Loaded environment from %s", path)
}

// readScannerConfig reads the scanner config. An explicit path must exist;
// a missing file in the search paths yields defaults and an empty path.
func readScannerConfig(explicit string) (scannerFile, string, error) {
	v := viper.New()
	v.SetDefault("database_file", "")

	if explicit != "" {
		v.SetConfigFile(explicit)
	} else {
		v.SetConfigName("scanner")
		for _, dir := range configSearchPaths() {
			v.AddConfigPath(dir)
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if explicit == "" && errors.As(err, &notFound) {
			return scannerFile{}, "", nil
		}
		return scannerFile{}, "", fmt.Errorf("failed to read scanner config: %w", err)
	}

	var sc scannerFile
	if err := v.Unmarshal(&sc); err != nil {
		return scannerFile{}, "", fmt.Errorf("failed to parse scanner config %s: %w", v.ConfigFileUsed(), err)
	}
	return sc, v.ConfigFileUsed(), nil
}

// LogDatabaseInit logs database initialization
func LogDatabaseInit(duration time.Duration) {
	section("DATABASE INITIALIZATION")
	logging.Info("  [OK] Database initialized in %v", duration)
}

// LogMemoryConfig logs the outcome of memory.ConfigureFromEnv.
func LogMemoryConfig(result memory.ConfigResult) {
	if !result.Configured {
		logging.Debug("  Memory limit: not configured")
		return
	}
	switch result.Source {
	case "MEMORY_LIMIT":
		logging.Info("  Memory limit: %s (%.0f%% of %s container limit)",
			humanize.IBytes(uint64(result.GoMemLimit)), result.Ratio*100, humanize.IBytes(uint64(result.ContainerLimit)))
	default:
		logging.Info("  Memory limit: %s (from %s)", humanize.IBytes(uint64(result.GoMemLimit)), result.Source)
	}
}

// MaintenanceConfig describes the maintenance schedule for the startup log.
type MaintenanceConfig struct {
	Roots      []ScanDir
	Interval   time.Duration
	Workers    int
	SkipScan   bool
	SkipThumbs bool
}

// LogMaintenanceInit logs the maintenance schedule.
func LogMaintenanceInit(config MaintenanceConfig) {
	section("MAINTENANCE")
	logging.Info("  Scan roots:      %d", len(config.Roots))
	if config.Interval > 0 {
		logging.Info("  Interval:        %v", config.Interval)
	} else {
		logging.Info("  Interval:        run once")
	}
	logging.Info("  Thumbnail workers: %d", config.Workers)
	if config.SkipScan {
		logging.Info("  Scan:            SKIPPED")
	}
	if config.SkipThumbs {
		logging.Info("  Thumbnails:      SKIPPED")
	}
}

// LogMetricsServer logs where the metrics endpoint listens.
func LogMetricsServer(port string, enabled bool) {
	if !enabled {
		logging.Info("  Metrics:         DISABLED")
		return
	}
	logging.Info("  Metrics:         http://0.0.0.0:%s/metrics", port)
	logging.Info("  Health:          http://0.0.0.0:%s/healthz", port)
}

// LogShutdownInitiated logs shutdown start
func LogShutdownInitiated(signal string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("SHUTDOWN INITIATED (received %s)", signal)
	logging.Info("------------------------------------------------------------")
}

// LogShutdownComplete logs shutdown completion
func LogShutdownComplete() {
	logging.Info("  [OK] Shutdown complete")
}

// LogFatal logs a fatal error and exits
func LogFatal(format string, args ...interface{}) {
	logging.Fatal(format, args...)
}

// Helper functions

func section(title string) {
	logging.Info("")
	logging.Info("------------------------------------------------------------")
	logging.Info("%s", title)
	logging.Info("------------------------------------------------------------")
}

func printBanner() {
	banner := `
------------------------------------------------------------
           __          __           ___ __
    ____  / /_  ____  / /_____     / (_) /_  _________ ________  __
   / __ \/ __ \/ __ \/ __/ __ \   / / / __ \/ ___/ __ '/ ___/ / / /
  / /_/ / / / / /_/ / /_/ /_/ /  / / / /_/ / /  / /_/ / /  / /_/ /
 / .___/_/ /_/\____/\__/\____/  /_/_/_.___/_/   \__,_/_/   \__, /
/_/                                                       /____/
------------------------------------------------------------`
	fmt.Println(banner)
	logging.Info("  Version:    %s", Version)
	logging.Info("  Commit:     %s", Commit)
	logging.Info("  Build Time: %s", BuildTime)
	logging.Info("  Started:    %s", time.Now().Format(time.RFC1123))
}

func logSystemInfo() {
	section("SYSTEM INFORMATION")
	logging.Info("  Go version:      %s", runtime.Version())
	logging.Info("  OS/Arch:         %s/%s", runtime.GOOS, runtime.GOARCH)
	logging.Info("  CPUs available:  %d", runtime.NumCPU())
	logging.Info("  GOMAXPROCS:      %d", runtime.GOMAXPROCS(0))

	if runtime.GOMAXPROCS(0) < runtime.NumCPU() {
		logging.Info("  (Container CPU limit detected)")
	}

	if logging.IsDebugEnabled() {
		if wd, err := os.Getwd(); err == nil {
			logging.Debug("  Working dir:     %s", wd)
		}
		if hostname, err := os.Hostname(); err == nil {
			logging.Debug("  Hostname:        %s", hostname)
		}
	}
}

func ensureDirectory(path, name string) error {
	logging.Debug("  Checking %s directory: %s", name, path)

	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		logging.Debug("    Directory does not exist, creating...")
		if err := os.MkdirAll(path, 0o755); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
		logging.Debug("    [OK] Created directory: %s", path)
		return nil
	}

	if err != nil {
		return fmt.Errorf("failed to stat directory: %w", err)
	}

	if !info.IsDir() {
		return fmt.Errorf("path exists but is not a directory")
	}

	logging.Debug("    [OK] Directory exists")
	return nil
}

func testWriteAccess(dir string) error {
	testFile := filepath.Join(dir, ".write-test")
	if err := os.WriteFile(testFile, []byte("test"), 0o644); err != nil {
		return err
	}
	if err := os.Remove(testFile); err != nil {
		logging.Warn("failed to remove write test file %s: %v", testFile, err)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		logging.Warn("Invalid boolean value for %s: %q, using default: %v", key, value, defaultValue)
		return defaultValue
	}
	return parsed
}
