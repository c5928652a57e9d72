// Package cmd implements the command-line interface for the redikv server.
// It provides a hierarchical command structure with operations for running
// the server and interacting with it as a client.
//
// The package is organized into several subpackages:
//
//   - kv: Client commands for key-value operations (get, set, del, perf, ...)
//   - serve: Commands for starting and configuring the redikv server
//   - util: Shared utilities for command-line processing and configuration (internal use)
//
// See redikv -help for a list of all commands.
package cmd
