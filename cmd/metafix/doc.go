// Package main hosts the metafix CLI.
//
// The root command takes one archive directory and runs the full repair
// pass over it: sidecar pairing, live photo derivation, orphan relocation,
// extension correction and metadata application. Subcommands cover
// configuration scaffolding, the run journal and a dependency check.
//
// Keep this package thin. Behaviour lives in internal/pipeline and the
// packages beneath it; commands here resolve configuration, set up logging
// and render results.
package main
