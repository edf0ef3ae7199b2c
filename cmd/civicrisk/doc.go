// Package main hosts the civicrisk CLI entrypoint and command graph.
//
// The Cobra command tree classifies complaints one at a time or in batches,
// queries and prunes the classification history, serves the HTTP API, and
// scaffolds configuration. Configuration, logging, and the shared analyzer
// are resolved lazily in commandContext so subcommands stay declarative.
package main
