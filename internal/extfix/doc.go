// Package extfix renames media files whose extension disagrees with their
// content, and carries the paired sidecar along so the pair survives.
//
// Content is sniffed from magic bytes. A pair is only touched when the
// detected type is itself a recognized media type, and a rename never lands
// on an existing file: colliding names get an _N suffix.
package extfix
