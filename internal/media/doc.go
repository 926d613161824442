// Package media defines the file values the repair pipeline passes between
// stages and the directory scan that produces them.
//
// A File or Sidecar is an immutable snapshot of one path at scan time. Stages
// that rename files build fresh values through NewFile and NewSidecar rather
// than editing fields in place, so a stale value always points at where the
// file used to be.
//
// The package also owns the error markers shared by every stage; Wrap tags an
// error with a marker plus stage and operation context.
package media
