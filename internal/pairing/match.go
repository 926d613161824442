package pairing

import (
	"log/slog"

	"metafix/internal/logging"
	"metafix/internal/media"
	"metafix/internal/signature"
)

// Item is a media file with its position in scan order.
type Item struct {
	media.File
	Seq int
}

// Result is the outcome of Match.
type Result struct {
	Pairs *Pairs
	// Unmatched lists media no rule could pair, in scan order.
	Unmatched []Item
	// Pool holds the sidecars left over.
	Pool Pool
}

// Match pairs files with sidecars using Rules. Both slices must be in scan
// order; that order decides every tie.
func Match(files []media.File, sidecars []media.Sidecar, logger *slog.Logger) Result {
	logger = logging.NewComponentLogger(logger, "pairing")

	sigs := make([]signature.Name, len(files))
	for i, f := range files {
		sigs[i] = signature.ForMedia(f.Name)
	}

	pairs := NewPairs()
	pool := NewPool(sidecars)
	matched := make([]bool, len(files))

	for _, rule := range Rules {
		for i, f := range files {
			if matched[i] || f.Kind != rule.Kind {
				continue
			}
			for _, entry := range pool.In(f.Dir) {
				if !rule.Match(sigs[i], entry.Signature) {
					continue
				}
				if err := pairs.Add(Pair{Media: f, Sidecar: entry.Sidecar, Rule: rule.Name, Seq: i}); err != nil {
					logging.WarnWithContext(logger, "pair rejected", "pair_rejected",
						logging.String("media", f.Path),
						logging.String("sidecar", entry.Sidecar.Path),
						logging.Error(err),
					)
					break
				}
				pool = pool.Remove(entry)
				matched[i] = true
				attrs := append(logging.DecisionAttrs("sidecar_match", "matched", rule.Name),
					logging.String("media", f.Path),
					logging.String("sidecar", entry.Sidecar.Path),
				)
				logger.Debug("sidecar matched", logging.Args(attrs...)...)
				break
			}
		}
	}

	result := Result{Pairs: pairs, Pool: pool}
	for i, f := range files {
		if !matched[i] {
			result.Unmatched = append(result.Unmatched, Item{File: f, Seq: i})
		}
	}
	logger.Info("pairing complete",
		logging.Int("media", len(files)),
		logging.Int("sidecars", len(sidecars)),
		logging.Int("matched", pairs.Len()),
		logging.Int("unmatched_media", len(result.Unmatched)),
		logging.Int("unmatched_sidecars", pool.Len()),
		logging.String(logging.FieldEventType, "pairing_complete"),
	)
	return result
}
