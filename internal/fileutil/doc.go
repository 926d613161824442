// Package fileutil holds the small filesystem primitives the repair stages
// share: hookable renames, moves that survive a device boundary, atomic
// rewrites and verified copies.
package fileutil
