// Package pairing rebuilds the association between media files and their
// JSON sidecars from filename evidence alone.
//
// Matching is driven by an ordered rule table. Images are resolved before
// videos, and within a kind a sidecar carrying an embedded media extension is
// tried before one that only carries the bare stem. Each sidecar is handed out
// at most once: the Pool of unassigned sidecars shrinks as rules claim entries.
//
// Videos that find no sidecar may still borrow one from a same-stem image in
// the same directory, the live photo case handled by DeriveLive.
package pairing
