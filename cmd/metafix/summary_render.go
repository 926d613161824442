package main

import (
	"fmt"
	"io"
	"time"

	"github.com/dustin/go-humanize"

	"metafix/internal/journal"
	"metafix/internal/pipeline"
)

func countRows(c journal.Counts) [][]string {
	row := func(label string, n int) []string {
		return []string{label, humanize.Comma(int64(n))}
	}
	return [][]string{
		row("Media files", c.Media),
		row("Sidecars", c.Sidecars),
		row("Matched", c.Matched),
		row("Live photos derived", c.Derived),
		row("Moved to inspection", c.Orphaned),
		row("Extensions corrected", c.Renamed),
		row("Metadata applied", c.Applied),
		row("Skipped", c.Skipped),
		row("Failed", c.Failed),
	}
}

func printRunSummary(out io.Writer, s pipeline.Summary, logPath string) {
	fmt.Fprintln(out, renderTable("Run "+shortID(s.RunID), []string{"Outcome", "Count"}, countRows(s.Counts), []columnAlignment{alignLeft, alignRight}))
	fmt.Fprintf(out, "Finished in %s\n", s.Duration().Round(10*time.Millisecond))
	if s.Counts.Orphaned > 0 {
		fmt.Fprintf(out, "Unmatched files: %s\n", s.InspectionDir)
	}
	if len(s.Failures) > 0 {
		fmt.Fprintf(out, "%d item(s) need attention:\n", len(s.Failures))
		for i, f := range s.Failures {
			if i == maxListedFailures {
				fmt.Fprintf(out, "  ... %d more; see metafix runs show %s\n", len(s.Failures)-i, shortID(s.RunID))
				break
			}
			fmt.Fprintf(out, "  [%s] %s: %s\n", f.Stage, f.Path, f.Reason)
		}
	}
	fmt.Fprintf(out, "Run log: %s\n", logPath)
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}
