package journal

import "time"

// RunStatus is the lifecycle state of a run.
type RunStatus string

const (
	RunRunning  RunStatus = "running"
	RunComplete RunStatus = "complete"
	// RunAborted marks runs whose process ended before FinishRun.
	RunAborted RunStatus = "aborted"
)

// Counts summarizes one run.
type Counts struct {
	Media    int
	Sidecars int
	Matched  int
	Derived  int
	Orphaned int
	Renamed  int
	Applied  int
	Skipped  int
	Failed   int
}

// Run is one invocation of the pipeline over an archive root.
type Run struct {
	ID         string
	Root       string
	Status     RunStatus
	StartedAt  time.Time
	FinishedAt time.Time
	Counts     Counts
}

// Duration returns the run's wall time, zero while it is still running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// Event is one per-item outcome.
type Event struct {
	ID     int64
	RunID  string
	Stage  string
	Kind   string
	Path   string
	Target string
	Detail string
	At     time.Time
}
