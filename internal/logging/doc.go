// Package logging provides a simple leveled logging interface for the
// photo library.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, or
// forced to debug with DEBUG=true. Output goes through logrus and can be
// mirrored to a rotating file with ConfigureFile.
package logging
