// Package pipeline runs one repair pass over a Takeout archive.
//
// Coordinator.Run takes the archive lock, scans the tree and then runs the
// stages in order: pairing, live photo derivation, orphan relocation and
// extension correction, all sequential because they rename files and
// re-key the pair set. Metadata application then fans out to a bounded
// worker pool over the now-frozen pairs. Per-item failures are logged,
// journaled and counted; they never stop the batch.
package pipeline
