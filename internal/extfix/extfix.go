package extfix

import (
	"errors"
	"log/slog"
	"path/filepath"

	"metafix/internal/fileutil"
	"metafix/internal/logging"
	"metafix/internal/media"
	"metafix/internal/pairing"
	"metafix/internal/sidecar"
)

// Status classifies what Correct did with one pair.
type Status string

const (
	StatusUnchanged     Status = "unchanged"
	StatusRenamed       Status = "renamed"
	StatusUndetected    Status = "undetected"
	StatusNotMedia      Status = "not_media"
	StatusMalformed     Status = "malformed_sidecar"
	StatusMediaFailed   Status = "media_rename_failed"
	StatusSidecarFailed Status = "sidecar_rename_failed"
	StatusTitleFailed   Status = "title_rewrite_failed"
)

// Outcome describes the correction of one pair. Pair holds the state after
// correction, which is the state now stored in the Pairs set.
type Outcome struct {
	Pair       pairing.Pair
	OldMedia   string
	OldSidecar string
	Detected   string
	Status     Status
	Err        error
}

// Corrector fixes extensions of matched pairs one at a time.
type Corrector struct {
	Detector Detector
	Logger   *slog.Logger
}

// NewCorrector returns a Corrector. A nil detector selects FiletypeDetector.
func NewCorrector(detector Detector, logger *slog.Logger) *Corrector {
	if detector == nil {
		detector = FiletypeDetector{}
	}
	return &Corrector{Detector: detector, Logger: logging.NewComponentLogger(logger, "extfix")}
}

// Correct walks pairs in scan order and renames every media file whose
// content disagrees with its extension, together with its sidecar. Pairs is
// re-keyed as renames land. Correct must not run concurrently with anything
// else touching the archive.
func (c *Corrector) Correct(pairs *pairing.Pairs) []Outcome {
	all := pairs.All()
	outcomes := make([]Outcome, 0, len(all))
	renamed := 0
	for _, pair := range all {
		out := c.correctOne(pairs, pair)
		if out.Status == StatusRenamed || out.Status == StatusSidecarFailed || out.Status == StatusTitleFailed {
			renamed++
		}
		outcomes = append(outcomes, out)
	}
	c.Logger.Info("extension check complete",
		logging.Int("pairs", len(all)),
		logging.Int("renamed", renamed),
		logging.String(logging.FieldEventType, "extfix_complete"),
	)
	return outcomes
}

func (c *Corrector) correctOne(pairs *pairing.Pairs, pair pairing.Pair) Outcome {
	out := Outcome{Pair: pair, OldMedia: pair.Media.Path, OldSidecar: pair.Sidecar.Path, Status: StatusUnchanged}
	logger := c.Logger.With(logging.String("media", pair.Media.Path))

	detected, err := c.Detector.Detect(pair.Media.Path)
	if err != nil {
		out.Status = StatusUndetected
		out.Err = err
		if !errors.Is(err, ErrUnrecognized) {
			out.Err = media.Wrap(media.ErrIO, "extfix", "detect", pair.Media.Path, err)
		}
		logging.WarnWithContext(logger, "content type not recognized; extension left as is", "extfix_undetected",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "inspect the file manually if it does not open"),
			logging.String(logging.FieldImpact, "name unchanged; metadata is still applied"),
		)
		return out
	}
	out.Detected = "." + detected.Extension
	if !Mismatch(pair.Media.Ext, out.Detected) {
		return out
	}
	target := TargetExt(out.Detected)
	if !media.IsMediaExt(target) {
		out.Status = StatusNotMedia
		logging.WarnWithContext(logger, "content is not a supported media type; extension left as is", "extfix_not_media",
			logging.String("detected", out.Detected),
			logging.String("mime", detected.MIME),
			logging.String(logging.FieldErrorHint, "the file may be mislabeled or damaged"),
		)
		return out
	}

	payload, err := sidecar.Load(pair.Sidecar.Path)
	if err != nil {
		out.Status = StatusMalformed
		out.Err = err
		logging.WarnWithContext(logger, "sidecar unreadable; pair left untouched", "extfix_sidecar_unreadable",
			logging.String("sidecar", pair.Sidecar.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "extension not corrected"),
		)
		return out
	}

	oldTitle := payload.Title()
	newName := FreeName(pair.Media.Dir, pair.Media.Stem, target)
	newMedia := media.NewFile(filepath.Join(pair.Media.Dir, newName))
	if err := fileutil.Rename(pair.Media.Path, newMedia.Path); err != nil {
		out.Status = StatusMediaFailed
		out.Err = media.Wrap(media.ErrIO, "extfix", "rename media", newMedia.Path, err)
		logging.ErrorWithContext(logger, "media rename failed; pair left untouched", "extfix_media_rename_failed",
			logging.String("target", newMedia.Path),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check permissions in the archive directory"),
		)
		return out
	}

	updated := pair
	updated.Media = newMedia
	out.Status = StatusRenamed

	sidecarTarget := media.SidecarPathFor(newMedia)
	if err := renameSidecar(pair.Sidecar.Path, sidecarTarget); err != nil {
		out.Status = StatusSidecarFailed
		out.Err = err
		logging.ErrorWithContext(logger, "sidecar rename failed; media keeps its new name", "extfix_sidecar_rename_failed",
			logging.String("new_media", newMedia.Path),
			logging.String("sidecar", pair.Sidecar.Path),
			logging.String("target", sidecarTarget),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "rename the sidecar by hand; its title still names the old file"),
			logging.String(logging.FieldImpact, "pair stays linked, sidecar name no longer follows the media"),
		)
	} else {
		updated.Sidecar = media.NewSidecar(sidecarTarget)
		if err := rewriteTitle(payload, sidecarTarget, newMedia.Name); err != nil {
			out.Status = StatusTitleFailed
			out.Err = err
			logging.WarnWithContext(logger, "sidecar title not rewritten", "extfix_title_failed",
				logging.String("sidecar", sidecarTarget),
				logging.Error(err),
				logging.String(logging.FieldImpact, "title field still names the old file"),
			)
		}
	}

	if err := pairs.Rekey(pair.Media.Path, updated); err != nil {
		logging.ErrorWithContext(logger, "pair not re-keyed after rename", "extfix_rekey_failed",
			logging.String("new_media", newMedia.Path),
			logging.Error(err),
		)
		if out.Err == nil {
			out.Err = err
		}
		return out
	}
	out.Pair, _ = pairs.Lookup(newMedia.Path)

	logger.Info("extension corrected",
		logging.String("new_media", newMedia.Path),
		logging.String("detected", out.Detected),
		logging.String("sidecar", out.Pair.Sidecar.Path),
		logging.String("old_title", oldTitle),
		logging.String(logging.FieldEventType, "extfix_renamed"),
	)
	return out
}

// renameSidecar moves a sidecar to target, refusing to replace an existing
// file.
func renameSidecar(from, to string) error {
	if from == to {
		return nil
	}
	if fileutil.Exists(to) {
		return media.Wrap(media.ErrIO, "extfix", "rename sidecar", to+" already exists", nil)
	}
	if err := fileutil.Rename(from, to); err != nil {
		return media.Wrap(media.ErrIO, "extfix", "rename sidecar", to, err)
	}
	return nil
}

func rewriteTitle(payload *sidecar.Payload, path, title string) error {
	if err := payload.SetTitle(title); err != nil {
		return media.Wrap(media.ErrMalformed, "extfix", "set title", path, err)
	}
	return payload.Save(path)
}
