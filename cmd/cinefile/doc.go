// Package main hosts the cinefile CLI entrypoint and command graph.
//
// The Cobra command tree opens the local store, runs first-run seeding, and
// surfaces list management, imports, the aggregated cross-list view, ratings,
// catalog search, backups and optional cloud sync. Configuration resolution
// and logging setup live in the command context so subcommands only deal with
// presentation.
//
// Add functionality to the internal packages first, then expose it here.
package main
