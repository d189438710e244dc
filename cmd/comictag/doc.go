// Package main hosts the comictag CLI entrypoint and command graph.
//
// The Cobra command tree resolves configuration once, builds the catalog
// client (optionally behind the SQLite cache) and hands it to the
// identification engine and the batch coordinator. Subcommands stay thin:
// identification, merging and tagging live in the internal packages.
package main
