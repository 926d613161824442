package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"metafix/internal/config"
	"metafix/internal/extfix"
	"metafix/internal/journal"
	"metafix/internal/logging"
	"metafix/internal/media"
	"metafix/internal/metadata"
	"metafix/internal/orphan"
	"metafix/internal/pairing"
)

// Stage names used for logging context and journal events.
const (
	StageScan    = "scan"
	StagePairing = "pairing"
	StageLive    = "live-photo"
	StageOrphan  = "orphan"
	StageExtfix  = "extension"
	StageApply   = "apply"
)

// Options configures a Coordinator. Config is required; everything else has
// a working default.
type Options struct {
	Config *config.Config
	Logger *slog.Logger
	// Journal records per-item events. Nil disables journaling.
	Journal *journal.Journal
	// Detector identifies real media types. Defaults to magic-byte sniffing.
	Detector extfix.Detector
	// Writers opens one metadata writer per apply worker. Defaults to an
	// exiftool process per worker.
	Writers metadata.WriterFactory
	// Progress receives an apply progress bar when non-nil.
	Progress io.Writer
	Now      func() time.Time
}

// Coordinator runs the repair stages over one archive root at a time.
type Coordinator struct {
	cfg      *config.Config
	logger   *slog.Logger
	journal  *journal.Journal
	detector extfix.Detector
	writers  metadata.WriterFactory
	progress io.Writer
	now      func() time.Time
}

// New validates options and builds a Coordinator.
func New(opts Options) (*Coordinator, error) {
	if opts.Config == nil {
		return nil, media.Wrap(media.ErrConfiguration, "pipeline", "init", "config is required", nil)
	}
	c := &Coordinator{
		cfg:      opts.Config,
		logger:   opts.Logger,
		journal:  opts.Journal,
		detector: opts.Detector,
		writers:  opts.Writers,
		progress: opts.Progress,
		now:      opts.Now,
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}
	if c.detector == nil {
		c.detector = extfix.FiletypeDetector{}
	}
	if c.writers == nil {
		c.writers = metadata.ExiftoolFactory(opts.Config.ExiftoolBinary())
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c, nil
}

// run carries the state of one Run call between stages.
type run struct {
	ctx     context.Context
	id      string
	root    string
	summary Summary
	events  []journal.Event
}

// Run repairs the archive at root. Only a rejected root, a held lock or a
// journal failure at start returns an error; per-item problems are counted
// in the summary.
func (c *Coordinator) Run(ctx context.Context, root string) (Summary, error) {
	abs, err := ValidateRoot(root)
	if err != nil {
		return Summary{}, err
	}
	loc, err := c.cfg.Location()
	if err != nil {
		return Summary{}, media.Wrap(media.ErrConfiguration, "pipeline", "load timezone", c.cfg.Metadata.Timezone, err)
	}
	inspection, err := filepath.Abs(c.cfg.Paths.UnmatchedDir)
	if err != nil {
		return Summary{}, media.Wrap(media.ErrConfiguration, "pipeline", "resolve unmatched_dir", c.cfg.Paths.UnmatchedDir, err)
	}

	lock, err := acquireLock(c.cfg.LockPath(abs))
	if err != nil {
		return Summary{}, err
	}
	defer func() { _ = lock.Unlock() }()

	r := &run{id: uuid.NewString(), root: abs}
	r.ctx = logging.WithRunID(ctx, r.id)
	r.summary = Summary{
		RunID:         r.id,
		Root:          abs,
		InspectionDir: orphan.Destination(inspection, abs),
		StartedAt:     c.now(),
	}
	logger := logging.WithContext(r.ctx, c.logger)

	if c.journal != nil {
		if err := c.journal.BeginRun(r.ctx, r.id, abs, r.summary.StartedAt); err != nil {
			return Summary{}, fmt.Errorf("journal run start: %w", err)
		}
	}
	logger.Info("run started",
		logging.String("root", abs),
		logging.String("inspection_dir", r.summary.InspectionDir),
		logging.Int("workers", c.cfg.Workers()),
		logging.String(logging.FieldEventType, "run_started"),
	)

	inv, err := c.scan(r, inspection)
	if err != nil {
		c.finish(r, logger)
		return r.summary, err
	}

	pairs, leftover := c.pair(r, inv)
	c.relocate(r, inspection, leftover)
	c.correct(r, pairs)
	c.apply(r, pairs, loc)

	c.finish(r, logger)
	return r.summary, nil
}

// ValidateRoot resolves root to its real absolute path and rejects anything
// that is not an existing directory. Symlinked roots resolve to their target,
// which also names the inspection folder.
func ValidateRoot(root string) (string, error) {
	abs, err := media.ResolveRoot(root)
	if err != nil {
		return "", media.Wrap(media.ErrValidation, "pipeline", "validate root", root, err)
	}
	return abs, nil
}

// scanSkips lists directories inside root that metafix itself writes to.
func (c *Coordinator) scanSkips(root, inspection string) []string {
	skips := []string{orphan.Destination(inspection, root), inspection}
	if state, err := filepath.Abs(c.cfg.Paths.StateDir); err == nil {
		skips = append(skips, state)
	}
	return skips
}

func (c *Coordinator) scan(r *run, inspection string) (media.Inventory, error) {
	logger := c.stageLogger(r, StageScan)
	inv, err := media.Scan(r.root, media.ScanOptions{Skip: c.scanSkips(r.root, inspection)})
	if err != nil {
		logging.ErrorWithContext(logger, "archive scan failed", "scan_failed",
			logging.String("root", r.root),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check that the archive root exists and is readable"),
			logging.String(logging.FieldImpact, "nothing was changed"),
		)
		return media.Inventory{}, err
	}
	for _, scanErr := range inv.Errors {
		logging.WarnWithContext(logger, "path not readable during scan", "scan_path_failed",
			logging.String("path", scanErr.Path),
			logging.Error(scanErr.Err),
		)
		r.summary.fail(StageScan, scanErr.Path, scanErr.Err)
		r.event(StageScan, "scan_failed", scanErr.Path, "", errText(scanErr.Err))
	}
	r.summary.Counts.Media = len(inv.Media)
	r.summary.Counts.Sidecars = len(inv.Sidecars)
	logger.Info("archive scanned",
		logging.Int("media", len(inv.Media)),
		logging.Int("sidecars", len(inv.Sidecars)),
		logging.Int("unreadable", len(inv.Errors)),
	)
	r.flush(c)
	return inv, nil
}

// pair runs rule matching and live photo derivation. It returns the pair
// set and the orphans left over: unmatched media first, then sidecars.
func (c *Coordinator) pair(r *run, inv media.Inventory) (*pairing.Pairs, []orphan.Orphan) {
	result := pairing.Match(inv.Media, inv.Sidecars, c.stageLogger(r, StagePairing))
	for _, p := range result.Pairs.All() {
		r.event(StagePairing, "matched", p.Media.Path, p.Sidecar.Path, p.Rule)
	}
	r.summary.Counts.Matched = result.Pairs.Len()
	r.flush(c)

	remaining := pairing.DeriveLive(result.Unmatched, result.Pairs, c.stageLogger(r, StageLive))
	for _, p := range result.Pairs.All() {
		if !p.Derived {
			continue
		}
		r.summary.Counts.Derived++
		r.event(StageLive, "live_photo_derived", p.Media.Path, p.Sidecar.Path, "")
	}
	r.flush(c)

	files := make([]media.File, 0, len(remaining))
	for _, item := range remaining {
		files = append(files, item.File)
	}
	leftover := append(orphan.FromMedia(files), orphan.FromSidecars(result.Pool.Remaining())...)
	return result.Pairs, leftover
}

func (c *Coordinator) relocate(r *run, inspection string, orphans []orphan.Orphan) {
	if len(orphans) == 0 {
		return
	}
	result := orphan.Relocate(r.root, inspection, orphans, c.stageLogger(r, StageOrphan))
	for _, m := range result.Moved {
		r.summary.Counts.Orphaned++
		r.event(StageOrphan, "orphan_moved", m.Path, m.To, string(m.Role))
	}
	for _, e := range result.Errors {
		r.summary.fail(StageOrphan, e.Path, e.Err)
		r.event(StageOrphan, "orphan_move_failed", e.Path, e.To, errText(e.Err))
	}
	r.flush(c)
}

func (c *Coordinator) correct(r *run, pairs *pairing.Pairs) {
	corrector := extfix.NewCorrector(c.detector, c.stageLogger(r, StageExtfix))
	for _, out := range corrector.Correct(pairs) {
		switch out.Status {
		case extfix.StatusUnchanged, extfix.StatusUndetected, extfix.StatusNotMedia:
			continue
		case extfix.StatusRenamed:
			r.summary.Counts.Renamed++
			r.event(StageExtfix, string(out.Status), out.OldMedia, out.Pair.Media.Path, out.Detected)
		case extfix.StatusSidecarFailed, extfix.StatusTitleFailed:
			r.summary.Counts.Renamed++
			r.summary.fail(StageExtfix, out.OldMedia, out.Err)
			r.event(StageExtfix, string(out.Status), out.OldMedia, out.Pair.Media.Path, errText(out.Err))
		default:
			r.summary.fail(StageExtfix, out.OldMedia, out.Err)
			r.event(StageExtfix, string(out.Status), out.OldMedia, "", errText(out.Err))
		}
	}
	r.flush(c)
}

func (c *Coordinator) finish(r *run, logger *slog.Logger) {
	r.summary.FinishedAt = c.now()
	r.flush(c)
	if c.journal != nil {
		if err := c.journal.FinishRun(r.ctx, r.id, r.summary.Counts, r.summary.FinishedAt); err != nil {
			logging.WarnWithContext(logger, "run summary not journaled", "journal_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "run stays marked as running in the journal"),
			)
		}
	}
	counts := r.summary.Counts
	logger.Info("run complete",
		logging.Int("media", counts.Media),
		logging.Int("sidecars", counts.Sidecars),
		logging.Int("matched", counts.Matched),
		logging.Int("derived", counts.Derived),
		logging.Int("orphaned", counts.Orphaned),
		logging.Int("renamed", counts.Renamed),
		logging.Int("applied", counts.Applied),
		logging.Int("skipped", counts.Skipped),
		logging.Int("failed", counts.Failed),
		logging.Duration("duration", r.summary.Duration()),
		logging.String(logging.FieldEventType, "run_complete"),
	)
}

func (c *Coordinator) stageLogger(r *run, stage string) *slog.Logger {
	return logging.WithContext(logging.WithStage(r.ctx, stage), c.logger)
}

func (r *run) event(stage, kind, path, target, detail string) {
	r.events = append(r.events, journal.Event{
		RunID:  r.id,
		Stage:  stage,
		Kind:   kind,
		Path:   path,
		Target: target,
		Detail: detail,
	})
}

// flush writes buffered events to the journal. A journal failure is logged
// and the events are dropped; it never stops the run.
func (r *run) flush(c *Coordinator) {
	if len(r.events) == 0 {
		return
	}
	events := r.events
	r.events = nil
	if c.journal == nil {
		return
	}
	now := c.now()
	for i := range events {
		events[i].At = now
	}
	if err := c.journal.Record(r.ctx, events...); err != nil {
		logging.WarnWithContext(logging.WithContext(r.ctx, c.logger), "events not journaled", "journal_write_failed",
			logging.Int("events", len(events)),
			logging.Error(err),
			logging.String(logging.FieldImpact, "run history is incomplete; files are unaffected"),
		)
	}
}

func errText(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}

// IsLocked reports whether err came from a held archive lock.
func IsLocked(err error) bool {
	return errors.Is(err, ErrLocked)
}
