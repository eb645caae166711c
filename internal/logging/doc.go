// Package logging provides a simple leveled logging interface for meilisync.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//
// The initial level comes from the DEBUG or LOG_LEVEL environment variables.
// It can be replaced at runtime with SetLevel, which the CLI does for the
// --debug flag and the log_level key of the configuration file.
package logging
