package metadata

import (
	"errors"
	"log/slog"
	"time"

	"metafix/internal/logging"
	"metafix/internal/media"
	"metafix/internal/pairing"
	"metafix/internal/sidecar"
)

// Status classifies what Apply did with one pair.
type Status string

const (
	StatusApplied     Status = "applied"
	StatusNoTimestamp Status = "no_timestamp"
	StatusMalformed   Status = "malformed_sidecar"
	StatusWriteFailed Status = "write_failed"
	StatusNoWriter    Status = "writer_unavailable"
)

// Outcome describes the metadata step for one pair.
type Outcome struct {
	Pair     pairing.Pair
	Status   Status
	Captured time.Time
	HasGPS   bool
	// Err is the tag write or sidecar error, if any.
	Err error
	// TimesErr collects filesystem time failures on either file.
	TimesErr error
}

// Applier applies sidecar metadata to pairs. An Applier is used by a single
// goroutine; Writer may be nil when no metadata writer could be started, in
// which case only file times are set.
type Applier struct {
	Writer   Writer
	Location *time.Location
	Logger   *slog.Logger
}

// NewApplier returns an Applier rendering dates in loc (Local when nil).
func NewApplier(writer Writer, loc *time.Location, logger *slog.Logger) *Applier {
	if loc == nil {
		loc = time.Local
	}
	return &Applier{Writer: writer, Location: loc, Logger: logging.NewComponentLogger(logger, "metadata")}
}

// Apply reads the pair's sidecar, writes date and location tags into the
// media file and sets both files' times to the capture instant. A pair
// without a usable timestamp is skipped. A failed tag write does not stop
// the file times from being set.
func (a *Applier) Apply(pair pairing.Pair) Outcome {
	out := Outcome{Pair: pair}
	logger := a.Logger.With(logging.String("media", pair.Media.Path))

	payload, err := sidecar.Load(pair.Sidecar.Path)
	if err != nil {
		out.Status = StatusMalformed
		out.Err = err
		logging.WarnWithContext(logger, "sidecar unreadable; metadata skipped", "metadata_sidecar_unreadable",
			logging.String("sidecar", pair.Sidecar.Path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "media keeps its current tags and times"),
		)
		return out
	}

	captured, ok := payload.CaptureTime()
	if !ok {
		out.Status = StatusNoTimestamp
		logger.Info("no capture timestamp in sidecar; skipped",
			logging.String("sidecar", pair.Sidecar.Path),
			logging.String(logging.FieldEventType, "metadata_no_timestamp"),
		)
		return out
	}
	out.Captured = captured

	tags := Tags{
		Date:  captured.In(a.Location).Format(DateLayout),
		Video: pair.Media.Kind == media.KindVideo,
	}
	if point, ok := payload.Location(); ok {
		tags.GPS = &point
		out.HasGPS = true
	}

	out.Status = StatusApplied
	if a.Writer == nil {
		out.Status = StatusNoWriter
	} else if err := a.Writer.Write(pair.Media.Path, tags); err != nil {
		out.Status = StatusWriteFailed
		out.Err = err
		logging.ErrorWithContext(logger, "metadata write failed", "metadata_write_failed",
			logging.String("date", tags.Date),
			logging.Bool("gps", out.HasGPS),
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "run exiftool by hand on the file to see the full diagnostic"),
		)
	}

	out.TimesErr = errors.Join(
		a.setTimes(logger, pair.Media.Path, captured),
		a.setTimes(logger, pair.Sidecar.Path, captured),
	)

	if out.Status == StatusApplied {
		logger.Debug("metadata applied",
			logging.String("date", tags.Date),
			logging.Bool("gps", out.HasGPS),
			logging.String(logging.FieldEventType, "metadata_applied"),
		)
	}
	return out
}

func (a *Applier) setTimes(logger *slog.Logger, path string, t time.Time) error {
	if err := SetFileTimes(path, t); err != nil {
		err = media.Wrap(media.ErrIO, "metadata", "set file times", path, err)
		logging.WarnWithContext(logger, "file times not set", "metadata_times_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "file manager sorting may show the export date"),
		)
		return err
	}
	return nil
}
