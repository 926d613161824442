package pairing

import (
	"log/slog"

	"golang.org/x/text/unicode/norm"

	"metafix/internal/fileutil"
	"metafix/internal/logging"
	"metafix/internal/media"
	"metafix/internal/sidecar"
)

// DeriveLive gives unmatched videos the sidecar of a same-stem image in the
// same directory. The image's sidecar is copied to "<video name>.json" with
// the title set to the video's name, and the new pair is added to pairs. It
// returns the items that are still unmatched.
func DeriveLive(unmatched []Item, pairs *Pairs, logger *slog.Logger) []Item {
	logger = logging.NewComponentLogger(logger, "live-photo")

	donors := pairs.All()
	var remaining []Item
	for _, item := range unmatched {
		if item.Kind != media.KindVideo {
			remaining = append(remaining, item)
			continue
		}
		donor, ok := findDonor(item.File, donors)
		if !ok {
			remaining = append(remaining, item)
			continue
		}
		derived, err := deriveSidecar(item.File, donor)
		if err != nil {
			logging.WarnWithContext(logger, "live photo sidecar not derived; video stays unmatched", "live_photo_failed",
				logging.String("video", item.Path),
				logging.String("donor_sidecar", donor.Sidecar.Path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "video will be moved to the inspection area"),
			)
			remaining = append(remaining, item)
			continue
		}
		pair := Pair{Media: item.File, Sidecar: derived, Rule: RuleLivePhoto, Derived: true, Seq: item.Seq}
		if err := pairs.Add(pair); err != nil {
			logging.WarnWithContext(logger, "derived pair rejected", "live_photo_failed",
				logging.String("video", item.Path),
				logging.Error(err),
			)
			remaining = append(remaining, item)
			continue
		}
		logger.Info("live photo sidecar derived",
			logging.String("video", item.Path),
			logging.String("image", donor.Media.Path),
			logging.String("sidecar", derived.Path),
			logging.String(logging.FieldEventType, "live_photo_derived"),
		)
	}
	return remaining
}

// findDonor compares stems in NFC so an image and video written with
// different Unicode normalization still pair.
func findDonor(video media.File, pairs []Pair) (Pair, bool) {
	stem := norm.NFC.String(video.Stem)
	for _, p := range pairs {
		if p.Media.Kind == media.KindImage && p.Media.Dir == video.Dir && norm.NFC.String(p.Media.Stem) == stem {
			return p, true
		}
	}
	return Pair{}, false
}

func deriveSidecar(video media.File, donor Pair) (media.Sidecar, error) {
	target := media.SidecarPathFor(video)
	if fileutil.Exists(target) {
		return media.Sidecar{}, media.Wrap(media.ErrIO, "live-photo", "derive", target+" already exists", nil)
	}
	payload, err := sidecar.Load(donor.Sidecar.Path)
	if err != nil {
		return media.Sidecar{}, err
	}
	if err := payload.SetTitle(video.Name); err != nil {
		return media.Sidecar{}, media.Wrap(media.ErrMalformed, "live-photo", "set title", target, err)
	}
	if err := payload.Save(target); err != nil {
		return media.Sidecar{}, err
	}
	return media.NewSidecar(target), nil
}
