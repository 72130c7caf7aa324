package startup

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"photo-library/internal/memory"
)

// isolate clears the variables LoadConfig reads and points the config search
// at an empty directory under the returned temp root.
func isolate(t *testing.T) string {
	t.Helper()
	root := t.TempDir()
	for _, key := range []string{"CACHE_DIR", "DATABASE_DIR", "METRICS_PORT", "METRICS_ENABLED", "SKIP_HIDDEN"} {
		t.Setenv(key, "")
	}

	prev := configSearchPaths
	configSearchPaths = func() []string { return []string{filepath.Join(root, "etc")} }
	t.Cleanup(func() { configSearchPaths = prev })
	return root
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestLoadConfig_ExplicitYAML(t *testing.T) {
	root := isolate(t)
	cfgPath := filepath.Join(root, "scanner.yaml")
	writeFile(t, cfgPath, `
scan_dirs:
  - path: `+filepath.Join(root, "photos")+`
    recursive: true
  - path: `+filepath.Join(root, "inbox")+`
  - path: ""
database_file: `+filepath.Join(root, "db", "lib.sqlite")+`
`)

	cfg, err := LoadConfig(Options{
		ConfigFile: cfgPath,
		CacheDir:   filepath.Join(root, "cache"),
		EnvFile:    filepath.Join(root, "missing.env"),
	})
	require.NoError(t, err)

	assert.Equal(t, cfgPath, cfg.ConfigFile)
	assert.Equal(t, []ScanDir{
		{Path: filepath.Join(root, "photos"), Recursive: true},
		{Path: filepath.Join(root, "inbox"), Recursive: false},
	}, cfg.ScanDirs)
	assert.Equal(t, filepath.Join(root, "db", "lib.sqlite"), cfg.DatabasePath)
	assert.Equal(t, filepath.Join(root, "db"), cfg.DatabaseDir)
	assert.Equal(t, filepath.Join(root, "cache", "thumbs"), cfg.ThumbnailDir)
	assert.Equal(t, filepath.Join(root, "cache", "maintenance.lock"), cfg.LockPath)
	assert.DirExists(t, cfg.ThumbnailDir)
	assert.DirExists(t, cfg.DatabaseDir)
	assert.Equal(t, "9090", cfg.MetricsPort)
	assert.True(t, cfg.MetricsEnabled)
}

func TestLoadConfig_NoConfigFile(t *testing.T) {
	root := isolate(t)

	cfg, err := LoadConfig(Options{CacheDir: filepath.Join(root, "cache"), EnvFile: filepath.Join(root, "none")})
	require.NoError(t, err)

	assert.Empty(t, cfg.ConfigFile)
	assert.Empty(t, cfg.ScanDirs)
	assert.Equal(t, filepath.Join(root, "cache", "library.db"), cfg.DatabasePath)
}

func TestLoadConfig_SearchPathJSON(t *testing.T) {
	root := isolate(t)
	found := filepath.Join(root, "etc", "scanner.json")
	writeFile(t, found, `{"scan_dirs": [{"path": "/srv/photos", "recursive": true}]}`)

	cfg, err := LoadConfig(Options{CacheDir: filepath.Join(root, "cache"), EnvFile: filepath.Join(root, "none")})
	require.NoError(t, err)

	assert.Equal(t, found, cfg.ConfigFile)
	require.Len(t, cfg.ScanDirs, 1)
	assert.Equal(t, ScanDir{Path: "/srv/photos", Recursive: true}, cfg.ScanDirs[0])
}

func TestLoadConfig_ExplicitMissingFile(t *testing.T) {
	root := isolate(t)

	_, err := LoadConfig(Options{
		ConfigFile: filepath.Join(root, "nope.yaml"),
		CacheDir:   filepath.Join(root, "cache"),
		EnvFile:    filepath.Join(root, "none"),
	})
	assert.Error(t, err)
}

func TestLoadConfig_MalformedFile(t *testing.T) {
	root := isolate(t)
	cfgPath := filepath.Join(root, "scanner.json")
	writeFile(t, cfgPath, `{"scan_dirs": [`)

	_, err := LoadConfig(Options{ConfigFile: cfgPath, CacheDir: filepath.Join(root, "cache"), EnvFile: filepath.Join(root, "none")})
	assert.Error(t, err)
}

func TestLoadConfig_Environment(t *testing.T) {
	root := isolate(t)
	t.Setenv("CACHE_DIR", filepath.Join(root, "env-cache"))
	t.Setenv("DATABASE_DIR", filepath.Join(root, "env-db"))
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("SKIP_HIDDEN", "true")

	cfg, err := LoadConfig(Options{EnvFile: filepath.Join(root, "none")})
	require.NoError(t, err)
	assert.True(t, cfg.SkipHidden)

	assert.Equal(t, filepath.Join(root, "env-cache"), cfg.CacheDir)
	assert.Equal(t, filepath.Join(root, "env-db", "library.db"), cfg.DatabasePath)
	assert.False(t, cfg.MetricsEnabled)

	cfg, err = LoadConfig(Options{CacheDir: filepath.Join(root, "flag-cache"), EnvFile: filepath.Join(root, "none")})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "flag-cache"), cfg.CacheDir)
}

func TestLoadConfig_DotEnv(t *testing.T) {
	root := isolate(t)
	require.NoError(t, os.Unsetenv("METRICS_PORT"))
	envFile := filepath.Join(root, "app.env")
	writeFile(t, envFile, "METRICS_PORT=9191\nMETRICS_ENABLED=false\n")
	t.Setenv("METRICS_ENABLED", "true")

	cfg, err := LoadConfig(Options{CacheDir: filepath.Join(root, "cache"), EnvFile: envFile})
	require.NoError(t, err)

	assert.Equal(t, "9191", cfg.MetricsPort)
	assert.True(t, cfg.MetricsEnabled, "existing environment wins over the dotenv file")
}

func TestLoadConfig_CacheDirIsAFile(t *testing.T) {
	root := isolate(t)
	blocker := filepath.Join(root, "cache")
	writeFile(t, blocker, "not a directory")

	_, err := LoadConfig(Options{CacheDir: blocker, EnvFile: filepath.Join(root, "none")})
	assert.Error(t, err)
}

func TestDefaultCacheDir(t *testing.T) {
	assert.Contains(t, filepath.Base(DefaultCacheDir()), AppDir)
}

func TestGetEnv(t *testing.T) {
	t.Setenv("PHOTO_LIBRARY_TEST_VALUE", "")
	assert.Equal(t, "fallback", getEnv("PHOTO_LIBRARY_TEST_VALUE", "fallback"))

	t.Setenv("PHOTO_LIBRARY_TEST_VALUE", "set")
	assert.Equal(t, "set", getEnv("PHOTO_LIBRARY_TEST_VALUE", "fallback"))
}

func TestGetEnvBool(t *testing.T) {
	tests := []struct {
		value    string
		fallback bool
		want     bool
	}{
		{"", true, true},
		{"", false, false},
		{"true", false, true},
		{"1", false, true},
		{"false", true, false},
		{"0", true, false},
		{"maybe", true, true},
		{"maybe", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.value, func(t *testing.T) {
			t.Setenv("PHOTO_LIBRARY_TEST_BOOL", tt.value)
			assert.Equal(t, tt.want, getEnvBool("PHOTO_LIBRARY_TEST_BOOL", tt.fallback))
		})
	}
}

func TestGetBuildInfo(t *testing.T) {
	info := GetBuildInfo()

	assert.NotEmpty(t, info.Version)
	assert.Equal(t, GoVersion, info.GoVersion)
	assert.NotEmpty(t, info.OS)
	assert.NotEmpty(t, info.Arch)
}

func TestLogHelpersDoNotPanic(t *testing.T) {
	assert.NotPanics(t, func() {
		LogMemoryConfig(memory.ConfigResult{})
		LogMemoryConfig(memory.ConfigResult{Configured: true, Source: "MEMORY_LIMIT", ContainerLimit: 1 << 30, GoMemLimit: 900 << 20, Ratio: 0.85})
		LogMemoryConfig(memory.ConfigResult{Configured: true, Source: "GOMEMLIMIT", GoMemLimit: 400 << 20})
		LogMaintenanceInit(MaintenanceConfig{Roots: []ScanDir{{Path: "/lib"}}, Workers: 2, SkipThumbs: true})
		LogMetricsServer("9090", true)
		LogMetricsServer("9090", false)
	})
}
