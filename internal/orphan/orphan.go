// Package orphan moves media and sidecars that found no counterpart into an
// inspection area, mirroring their location inside the archive.
package orphan

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"

	"metafix/internal/fileutil"
	"metafix/internal/logging"
	"metafix/internal/media"
)

// Role says which side of a pair an orphan would have been.
type Role string

const (
	RoleMedia   Role = "media"
	RoleSidecar Role = "sidecar"
)

// Orphan is one file to relocate.
type Orphan struct {
	Path string
	Role Role
}

// Move records a completed relocation.
type Move struct {
	Orphan
	To string
}

// MoveError pairs an orphan with the reason it stayed in place.
type MoveError struct {
	Orphan
	To  string
	Err error
}

// Result contains the outcome of Relocate.
type Result struct {
	Moved  []Move
	Errors []MoveError
}

// Destination is the directory orphans of root are mirrored under:
// <inspectionRoot>/<base name of root>.
func Destination(inspectionRoot, root string) string {
	return filepath.Join(inspectionRoot, filepath.Base(filepath.Clean(root)))
}

// FromMedia and FromSidecars build orphan lists in the order given.
func FromMedia(files []media.File) []Orphan {
	out := make([]Orphan, 0, len(files))
	for _, f := range files {
		out = append(out, Orphan{Path: f.Path, Role: RoleMedia})
	}
	return out
}

func FromSidecars(sidecars []media.Sidecar) []Orphan {
	out := make([]Orphan, 0, len(sidecars))
	for _, s := range sidecars {
		out = append(out, Orphan{Path: s.Path, Role: RoleSidecar})
	}
	return out
}

// Relocate moves every orphan under Destination(inspectionRoot, root),
// preserving its path relative to root. A failed move is logged and
// collected; the remaining orphans are still processed. Nothing is ever
// overwritten in the inspection area.
func Relocate(root, inspectionRoot string, orphans []Orphan, logger *slog.Logger) Result {
	logger = logging.NewComponentLogger(logger, "orphan")
	result := Result{}
	dest := Destination(inspectionRoot, root)

	for _, o := range orphans {
		target, err := mirrorPath(root, dest, o.Path)
		if err == nil {
			err = fileutil.MoveFile(o.Path, target)
		}
		if err != nil {
			result.Errors = append(result.Errors, MoveError{Orphan: o, To: target, Err: err})
			logging.WarnWithContext(logger, "unmatched file not moved", "orphan_move_failed",
				logging.String("path", o.Path),
				logging.String("role", string(o.Role)),
				logging.String("target", target),
				logging.Error(err),
				logging.String(logging.FieldErrorHint, "check permissions on paths.unmatched_dir and free space"),
				logging.String(logging.FieldImpact, "file stays in the archive without metadata"),
			)
			continue
		}
		result.Moved = append(result.Moved, Move{Orphan: o, To: target})
		logger.Info("unmatched file moved",
			logging.String("path", o.Path),
			logging.String("role", string(o.Role)),
			logging.String("target", target),
			logging.String(logging.FieldEventType, "orphan_moved"),
		)
	}
	return result
}

func mirrorPath(root, dest, path string) (string, error) {
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return "", media.Wrap(media.ErrIO, "orphan", "relative path", path, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", media.Wrap(media.ErrIO, "orphan", "relative path", fmt.Sprintf("%s is outside %s", path, root), nil)
	}
	return filepath.Join(dest, rel), nil
}
