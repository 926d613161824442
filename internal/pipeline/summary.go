package pipeline

import (
	"time"

	"metafix/internal/journal"
)

// Failure is one per-item problem worth showing after the run.
type Failure struct {
	Stage  string
	Path   string
	Reason string
}

// Summary reports what a run did.
type Summary struct {
	RunID         string
	Root          string
	InspectionDir string
	Counts        journal.Counts
	Failures      []Failure
	StartedAt     time.Time
	FinishedAt    time.Time
}

// Duration is the run's wall time.
func (s Summary) Duration() time.Duration {
	return s.FinishedAt.Sub(s.StartedAt)
}

func (s *Summary) fail(stage, path string, err error) {
	s.Counts.Failed++
	reason := ""
	if err != nil {
		reason = err.Error()
	}
	s.Failures = append(s.Failures, Failure{Stage: stage, Path: path, Reason: reason})
}
