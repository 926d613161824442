// Package journal persists repair runs and their per-item outcomes in a
// SQLite database under the state directory.
//
// Every rename, move, derivation and metadata result is recorded against the
// run id, so `metafix runs show` can answer what happened to a given file
// after the console output is gone. The journal is an audit trail only; the
// pipeline never reads it back to make decisions.
package journal
