package pipeline

import (
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"

	"metafix/internal/logging"
	"metafix/internal/metadata"
	"metafix/internal/pairing"
)

// apply fans the frozen pair set out to a bounded pool. Each worker owns
// one metadata writer for its lifetime; results come back over a channel
// and are tallied here so counters need no locking.
func (c *Coordinator) apply(r *run, pairs *pairing.Pairs, loc *time.Location) {
	all := pairs.All()
	if len(all) == 0 {
		return
	}
	logger := c.stageLogger(r, StageApply)
	workers := min(c.cfg.Workers(), len(all))

	jobs := make(chan pairing.Pair)
	results := make(chan metadata.Outcome)
	var unavailable sync.Once
	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			writer, err := c.writers()
			if err != nil {
				unavailable.Do(func() {
					logging.WarnWithContext(logger, "metadata writer unavailable; only file times will be set", "writer_unavailable",
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "install exiftool or set exiftool.binary; run metafix check"),
						logging.String(logging.FieldImpact, "embedded date and GPS tags are not written"),
					)
				})
				writer = nil
			}
			if writer != nil {
				defer func() {
					if cerr := writer.Close(); cerr != nil {
						logger.Debug("metadata writer close failed", logging.Error(cerr))
					}
				}()
			}
			applier := metadata.NewApplier(writer, loc, logger)
			for pair := range jobs {
				results <- applier.Apply(pair)
			}
		}()
	}

	go func() {
		for _, pair := range all {
			jobs <- pair
		}
		close(jobs)
	}()
	go func() {
		wg.Wait()
		close(results)
	}()

	bar := c.progressBar(len(all))
	started := time.Now()
	for out := range results {
		r.tally(out)
		if bar != nil {
			_ = bar.Add(1)
		}
	}
	if bar != nil {
		_ = bar.Finish()
	}
	r.flush(c)
	logger.Info("metadata stage complete",
		logging.Int("pairs", len(all)),
		logging.Int("workers", workers),
		logging.Duration("elapsed", time.Since(started)),
	)
}

func (r *run) tally(out metadata.Outcome) {
	path := out.Pair.Media.Path
	switch out.Status {
	case metadata.StatusApplied:
		r.summary.Counts.Applied++
		r.event(StageApply, string(out.Status), path, out.Pair.Sidecar.Path, out.Captured.UTC().Format(time.RFC3339))
	case metadata.StatusNoTimestamp, metadata.StatusNoWriter:
		r.summary.Counts.Skipped++
		r.event(StageApply, string(out.Status), path, out.Pair.Sidecar.Path, "")
	default:
		r.summary.fail(StageApply, path, out.Err)
		r.event(StageApply, string(out.Status), path, out.Pair.Sidecar.Path, errText(out.Err))
		return
	}
	if out.TimesErr != nil {
		r.summary.fail(StageApply, path, out.TimesErr)
		r.event(StageApply, "file_times_failed", path, "", errText(out.TimesErr))
	}
}

func (c *Coordinator) progressBar(total int) *progressbar.ProgressBar {
	if c.progress == nil {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(c.progress),
		progressbar.OptionSetDescription("Applying metadata"),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}
