// Package startup handles configuration loading and startup/shutdown logging.
//
// # Configuration
//
// [LoadConfig] reads, in order of precedence:
//
//   - command-line overrides passed in [Options]
//   - environment variables
//   - a dotenv file (".env" by default); it never overrides the environment
//   - the scanner config file
//
// Environment variables:
//
//   - CACHE_DIR: cache root holding thumbs/ and the maintenance lock
//     (default: the user cache directory plus "photo-library")
//   - DATABASE_DIR: directory of library.db (default: CACHE_DIR)
//   - METRICS_PORT: Prometheus metrics server port (default: 9090)
//   - METRICS_ENABLED: enable the metrics server (default: true)
//   - LOG_LEVEL, LOG_FILE: see package logging
//
// The scanner config is JSON, YAML or TOML, read with viper:
//
//	scan_dirs:
//	  - path: /srv/photos
//	    recursive: true
//	database_file: /var/lib/photo-library/library.db
//
// Without --config the file is searched as scanner.* in ~/.photo-library and
// then /etc/photo-library. No file means no scan directories.
//
// # Build Information
//
// Version, Commit and BuildTime are injected via ldflags and exposed via
// [GetBuildInfo].
package startup
